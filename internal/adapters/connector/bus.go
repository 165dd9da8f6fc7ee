package connector

import (
	"context"
	"sync"
	"time"

	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/model"
)

// topicRecord pairs a record with the topic it arrived on.
type topicRecord struct {
	topic string
	rec   Record
}

// Broker is an in-process topic bus. Producers publish records; bus
// adapters subscribe and feed them to the manager's real-time loop.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan topicRecord
	nextID int
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan topicRecord)}
}

// Publish delivers rec to every subscriber of topic. Returns false when the
// broker is closed or a subscriber's buffer is full and the record was
// dropped for it.
func (b *Broker) Publish(ctx context.Context, topic string, rec Record) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	delivered := true
	for _, ch := range b.subs[topic] {
		select {
		case ch <- topicRecord{topic: topic, rec: rec}:
		case <-ctx.Done():
			return false
		default:
			delivered = false // subscriber buffer full, drop for this one
		}
	}
	return delivered
}

// subscribe registers a buffered channel for topics and returns it with an
// unsubscribe function.
func (b *Broker) subscribe(topics []string, buffer int) (<-chan topicRecord, func()) {
	ch := make(chan topicRecord, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	for _, topic := range topics {
		if b.subs[topic] == nil {
			b.subs[topic] = make(map[int]chan topicRecord)
		}
		b.subs[topic][id] = ch
	}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		for _, topic := range topics {
			delete(b.subs[topic], id)
		}
		b.mu.Unlock()
	}
}

// Close stops the broker; subsequent publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Bus adapts a streaming message bus to the connector contract. It is the
// only streaming-capable adapter: pull capabilities return empty results
// rather than failing.
type Bus struct {
	name string
	cfg  config.SystemConfig
	set  settings

	mu        sync.RWMutex
	broker    *Broker
	connected bool
}

// NewBus creates the streaming adapter. With WithBroker it attaches to a
// shared broker; otherwise it owns a private one.
func NewBus(name string, cfg config.SystemConfig, opts ...Option) *Bus {
	set := defaultSettings()
	for _, opt := range opts {
		opt(&set)
	}
	broker := set.broker
	if broker == nil {
		broker = NewBroker()
	}
	return &Bus{name: name, cfg: cfg, set: set, broker: broker}
}

func (b *Bus) Name() string           { return b.name }
func (b *Bus) SystemType() SystemType { return TypeBus }

// Broker exposes the underlying broker so producers (and tests) can publish.
func (b *Bus) Broker() *Broker { return b.broker }

// Connect marks the adapter attached. The in-process broker has no remote
// handshake.
func (b *Bus) Connect(_ context.Context) error {
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	return nil
}

// Disconnect detaches the adapter.
func (b *Bus) Disconnect(_ context.Context) error {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	return nil
}

// EmployeeData is not a bus capability; returns an empty result.
func (b *Bus) EmployeeData(_ context.Context, _ []string) ([]model.EmployeeRecord, error) {
	return nil, nil
}

// TaskActivities is not a bus capability; returns an empty result.
func (b *Bus) TaskActivities(_ context.Context, _, _ time.Time) ([]model.TaskActivity, error) {
	return nil, nil
}

// PerformanceMetrics is not a bus capability; returns an empty result.
func (b *Bus) PerformanceMetrics(_ context.Context, _ []string) ([]model.PerformanceMetrics, error) {
	return nil, nil
}

// ConsumeRealTime subscribes to topics and invokes handler for every
// inbound record until ctx is canceled. Occupies its caller for its entire
// lifetime.
func (b *Bus) ConsumeRealTime(ctx context.Context, topics []string, handler RecordHandler) error {
	b.mu.RLock()
	connected := b.connected
	b.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}
	if len(topics) == 0 {
		topics = b.cfg.Topics
	}

	ch, unsubscribe := b.broker.subscribe(topics, b.set.bufferSize)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case tr, ok := <-ch:
			if !ok {
				return nil
			}
			handler(ctx, tr.rec, tr.topic)
		}
	}
}

// HealthCheck reports whether the adapter is attached to its broker.
func (b *Bus) HealthCheck(_ context.Context) model.HealthStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	status := model.HealthStatus{
		SystemType: string(TypeBus),
		Endpoint:   "in-process",
		Timestamp:  time.Now(),
		Healthy:    b.connected,
	}
	if !b.connected {
		status.Error = ErrNotConnected.Error()
	}
	return status
}

package app

import (
	"context"
	"sort"

	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/pkg/metrics"
)

// Callback receives analysis and health events. Callbacks run on the
// emitting loop's goroutine: keep them fast or hand off internally.
type Callback func(ctx context.Context, ev model.Event)

// RegisterCallback subscribes fn to batch, real-time and health events and
// returns a subscription id for UnregisterCallback. Go functions are not
// comparable, so subscriptions are identified by id rather than by the
// function value.
func (m *Manager) RegisterCallback(fn Callback) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	metrics.UpdateSubscriberCount(len(m.subs))
	return id
}

// UnregisterCallback removes a subscription. Unknown ids are ignored.
func (m *Manager) UnregisterCallback(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
	metrics.UpdateSubscriberCount(len(m.subs))
}

// dispatch delivers ev to every subscriber, in subscription order.
// Delivery is synchronous on the calling loop, which preserves emission
// order per loop; no ordering is guaranteed across loops.
func (m *Manager) dispatch(ctx context.Context, ev model.Event) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]Callback, 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, m.subs[id])
	}
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(ctx, ev)
	}
	metrics.RecordEventDispatched(string(ev.Type))
}

// Package app provides the integration manager: the only component with
// background concurrency. It owns connector lifecycles, runs the batch,
// real-time and health loops, and dispatches results to subscribers.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sensei-hq/sensei/internal/adapters/cache"
	"github.com/sensei-hq/sensei/internal/adapters/connector"
	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/scoring"
	"github.com/sensei-hq/sensei/pkg/logger"
	"github.com/sensei-hq/sensei/pkg/metrics"
)

// connState tracks a connector's lifecycle.
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateFailed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// managedConnector pairs an adapter with its lifecycle state. State is
// guarded by the manager's lock.
type managedConnector struct {
	conn  connector.Connector
	state connState
}

// Manager orchestrates connectors, the scoring engine and the cache.
// Construct with New and inject into the composition root; there is no
// package-level instance.
type Manager struct {
	mu sync.RWMutex

	cfg    *config.Config
	engine scoring.Engine
	store  cache.Store
	log    logger.Logger

	connectors map[string]*managedConnector
	subs       map[int]Callback
	nextSubID  int

	connOpts       []connector.Option
	analysisWindow time.Duration

	started bool
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
	sem     *semaphore.Weighted
	now     func() time.Time
}

// New constructs a Manager from configuration and options. The default
// engine and an in-memory cache are used unless overridden.
func New(cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	m := &Manager{
		cfg:            cfg,
		connectors:     make(map[string]*managedConnector),
		subs:           make(map[int]Callback),
		analysisWindow: 30 * 24 * time.Hour,
		sem:            semaphore.NewWeighted(int64(cfg.MaxConcurrentConnections)),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get().Named("manager")
	}
	if m.engine == nil {
		engine, err := scoring.NewEngine()
		if err != nil {
			return nil, err
		}
		m.engine = engine
	}
	if m.store == nil {
		m.store = cache.NewMemoryStore(cache.WithDefaultTTL(cfg.CacheTTL))
	}
	return m, nil
}

// Start initializes every configured connector (bounded by the concurrency
// limit) and launches the background loops. A connector that cannot
// connect is marked failed without blocking the others.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.runCtx, m.cancel = context.WithCancel(context.Background())
	runCtx := m.runCtx
	m.mu.Unlock()

	// Build adapters first; an unsupported type here means the config
	// validation and factory disagree, which is a programming error.
	for name, sysCfg := range m.cfg.Systems {
		conn, err := connector.New(name, sysCfg, m.connOpts...)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.connectors[name] = &managedConnector{conn: conn}
		m.mu.Unlock()
	}

	// Initialize concurrently, bounded by max_concurrent_connections.
	var initWG sync.WaitGroup
	m.mu.RLock()
	names := m.connectorNames()
	m.mu.RUnlock()
	for _, name := range names {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("connector init canceled: %w", err)
		}
		initWG.Add(1)
		go func(name string) {
			defer initWG.Done()
			defer m.sem.Release(1)
			m.connectWithRetry(ctx, name)
		}(name)
	}
	initWG.Wait()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.batchLoop(runCtx)
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.healthLoop(runCtx)
	}()

	if m.cfg.RealTimeEnabled {
		m.startRealTimeConsumers(runCtx)
	}

	m.log.Info(ctx, "manager started",
		logger.Int("connectors", len(names)),
		logger.Duration("batch_interval", m.cfg.BatchInterval))
	return nil
}

// connectWithRetry drives one connector through its lifecycle, retrying up
// to the configured attempt count with a fixed delay. On exhaustion the
// connector is marked failed and excluded from loops until re-added.
func (m *Manager) connectWithRetry(ctx context.Context, name string) {
	m.mu.Lock()
	mc, ok := m.connectors[name]
	if !ok || mc.state == stateConnected {
		m.mu.Unlock()
		return
	}
	mc.state = stateConnecting
	m.mu.Unlock()

	attempts := m.cfg.RetryAttempts + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err := mc.conn.Connect(ctx)
		if err == nil {
			m.mu.Lock()
			mc.state = stateConnected
			m.mu.Unlock()
			metrics.UpdateConnectorHealth(name, true)
			m.log.Info(ctx, "connector connected", logger.String("connector", name))
			return
		}
		metrics.RecordConnectorFailure(name)
		m.log.Warn(ctx, "connector connect failed",
			logger.String("connector", name),
			logger.Int("attempt", attempt),
			logger.Error(err))
		if attempt < attempts {
			select {
			case <-ctx.Done():
				m.mu.Lock()
				mc.state = stateFailed
				m.mu.Unlock()
				return
			case <-time.After(m.cfg.RetryDelay):
			}
		}
	}

	m.mu.Lock()
	mc.state = stateFailed
	m.mu.Unlock()
	metrics.UpdateConnectorHealth(name, false)
	m.log.Error(ctx, "connector permanently failed", logger.String("connector", name))
}

// AddSystem registers and connects a new system at runtime. An unknown
// system type fails with connector.ErrUnsupportedSystem; a connect failure
// after the configured retries fails with connector.ErrConnection.
func (m *Manager) AddSystem(ctx context.Context, name string, sysCfg config.SystemConfig) error {
	m.mu.Lock()
	if _, exists := m.connectors[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSystemExists, name)
	}
	m.mu.Unlock()

	conn, err := connector.New(name, sysCfg, m.connOpts...)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.connectors[name] = &managedConnector{conn: conn}
	started := m.started
	runCtx := m.runCtx
	m.mu.Unlock()

	m.connectWithRetry(ctx, name)

	m.mu.RLock()
	state := m.connectors[name].state
	m.mu.RUnlock()
	if state != stateConnected {
		return fmt.Errorf("%w: system %q did not connect", connector.ErrConnection, name)
	}

	if started && m.cfg.RealTimeEnabled {
		if sc, ok := conn.(connector.StreamingConnector); ok {
			m.startConsumer(runCtx, name, sc)
		}
	}
	return nil
}

// Stop cancels all background tasks and awaits completion, then
// disconnects every connector, then releases the engine and cache.
// Strictly in that order: in-flight tasks may still reference connectors.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	m.mu.Lock()
	for name, mc := range m.connectors {
		if err := mc.conn.Disconnect(ctx); err != nil {
			m.log.Warn(ctx, "connector disconnect failed",
				logger.String("connector", name), logger.Error(err))
		}
		mc.state = stateDisconnected
	}
	m.mu.Unlock()

	if err := m.engine.Close(); err != nil {
		m.log.Warn(ctx, "engine close failed", logger.Error(err))
	}
	if err := m.store.Close(); err != nil {
		m.log.Warn(ctx, "cache close failed", logger.Error(err))
	}
	m.log.Info(ctx, "manager stopped")
}

// connectorNames returns the registered names sorted for deterministic
// iteration. Callers must hold at least a read lock.
func (m *Manager) connectorNames() []string {
	names := make([]string, 0, len(m.connectors))
	for name := range m.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// connectedConnectors snapshots the currently connected adapters in name
// order.
func (m *Manager) connectedConnectors() []connector.Connector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []connector.Connector
	for _, name := range m.connectorNames() {
		if mc := m.connectors[name]; mc.state == stateConnected {
			out = append(out, mc.conn)
		}
	}
	return out
}

// allConnectors snapshots every registered adapter in name order,
// regardless of state.
func (m *Manager) allConnectors() []connector.Connector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]connector.Connector, 0, len(m.connectors))
	for _, name := range m.connectorNames() {
		out = append(out, m.connectors[name].conn)
	}
	return out
}

// ConnectorStates reports each registered connector's lifecycle state.
func (m *Manager) ConnectorStates() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.connectors))
	for name, mc := range m.connectors {
		out[name] = mc.state.String()
	}
	return out
}

// StoreModelArtifact caches a serialized scoring-model artifact. The blob
// is opaque: stored and retrieved, never interpreted.
func (m *Manager) StoreModelArtifact(ctx context.Context, name string, blob []byte) {
	if err := m.store.Put(ctx, cache.ModelKey(name), blob, m.cfg.ModelCacheTTL); err != nil {
		metrics.RecordCacheError()
		m.log.Warn(ctx, "model artifact cache write failed",
			logger.String("artifact", name), logger.Error(err))
	}
}

// ModelArtifact retrieves a cached model artifact, if present.
func (m *Manager) ModelArtifact(ctx context.Context, name string) ([]byte, bool) {
	v, ok, err := m.store.Get(ctx, cache.ModelKey(name))
	if err != nil {
		metrics.RecordCacheError()
		m.log.Warn(ctx, "model artifact cache read failed",
			logger.String("artifact", name), logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	blob, ok := v.([]byte)
	return blob, ok
}

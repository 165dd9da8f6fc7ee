package app

import (
	"time"

	"github.com/sensei-hq/sensei/internal/adapters/cache"
	"github.com/sensei-hq/sensei/internal/adapters/connector"
	"github.com/sensei-hq/sensei/internal/domain/scoring"
	"github.com/sensei-hq/sensei/pkg/logger"
)

// ManagerOption applies a configuration option to the Manager.
type ManagerOption func(*Manager)

// WithEngine replaces the scoring engine.
func WithEngine(e scoring.Engine) ManagerOption {
	return func(m *Manager) {
		if e != nil {
			m.engine = e
		}
	}
}

// WithCache replaces the suggestion/model cache.
func WithCache(s cache.Store) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.store = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithConnectorOptions forwards options to every adapter the factory
// builds, e.g. a shared broker or HTTP client in tests.
func WithConnectorOptions(opts ...connector.Option) ManagerOption {
	return func(m *Manager) {
		m.connOpts = append(m.connOpts, opts...)
	}
}

// WithAnalysisWindow sets the rolling activity window used by real-time
// and on-demand analysis.
func WithAnalysisWindow(window time.Duration) ManagerOption {
	return func(m *Manager) {
		if window > 0 {
			m.analysisWindow = window
		}
	}
}

// WithClock overrides the time source, e.g. for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

package scoring

import (
	"time"

	"github.com/sensei-hq/sensei/internal/domain/model"
)

// Option applies a configuration option to the DefaultEngine.
type Option func(*DefaultEngine)

// WithCriteria replaces the level-criteria table. The table is validated
// by NewEngine.
func WithCriteria(criteria []model.LevelCriteria) Option {
	return func(e *DefaultEngine) {
		if len(criteria) > 0 {
			e.criteria = criteria
		}
	}
}

// WithWeights replaces the weighting table.
func WithWeights(w Weights) Option {
	return func(e *DefaultEngine) {
		e.weights = w
	}
}

// WithKeywords replaces the keyword sets used by the default feature
// extraction.
func WithKeywords(kw Keywords) Option {
	return func(e *DefaultEngine) {
		e.keywords = kw
	}
}

// WithStandardDayHours sets the working-day length used by the skill
// throughput term.
func WithStandardDayHours(hours float64) Option {
	return func(e *DefaultEngine) {
		if hours > 0 {
			e.standardDayHours = hours
		}
	}
}

// WithRecencyWindow sets the window the confidence recency term considers.
func WithRecencyWindow(window time.Duration) Option {
	return func(e *DefaultEngine) {
		if window > 0 {
			e.recencyWindow = window
		}
	}
}

// WithClock overrides the time source, e.g. for tests.
func WithClock(now func() time.Time) Option {
	return func(e *DefaultEngine) {
		if now != nil {
			e.now = now
		}
	}
}

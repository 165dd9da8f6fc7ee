// Package scoring turns raw activity and performance signals into ranked
// SFIA level suggestions. The engine is a pure transformation: no I/O, no
// shared mutable state, safe for concurrent use.
package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/sensei-hq/sensei/internal/domain/model"
)

// Engine computes level suggestions for one employee at a time.
type Engine interface {
	// Suggest returns one suggestion per distinct skill tag referenced in
	// activities. An employee with no activities yields an empty slice,
	// not an error: that is an expected steady-state condition.
	Suggest(ctx context.Context, activities []model.TaskActivity, perf *model.PerformanceMetrics) ([]model.SFIALevelSuggestion, error)

	// Close releases any resources the engine holds.
	Close() error
}

// DefaultEngine implements Engine with the built-in heuristic feature
// extraction and the threshold-table classifier.
type DefaultEngine struct {
	criteria []model.LevelCriteria
	weights  Weights
	keywords Keywords

	standardDayHours float64
	recencyWindow    time.Duration
	now              func() time.Time
}

// NewEngine creates a DefaultEngine with configuration options.
func NewEngine(opts ...Option) (*DefaultEngine, error) {
	e := &DefaultEngine{
		criteria:         model.DefaultLevelCriteria(),
		weights:          DefaultWeights(),
		keywords:         DefaultKeywords(),
		standardDayHours: 8,
		recencyWindow:    90 * 24 * time.Hour,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := model.ValidateCriteria(e.criteria); err != nil {
		return nil, err
	}
	return e, nil
}

// Suggest implements Engine.
func (e *DefaultEngine) Suggest(ctx context.Context, activities []model.TaskActivity, perf *model.PerformanceMetrics) ([]model.SFIALevelSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, nil
	}

	scores := e.employeeScores(activities, perf)
	experience := experienceEstimate(len(activities), avgComplexity(activities))
	level := DetermineLevel(e.criteria, scores, experience)
	confidence := e.confidence(activities)

	employeeID := activities[0].EmployeeID
	role := activities[0].Role

	// Group activities per skill tag; one suggestion per distinct tag.
	bySkill := make(map[string][]model.TaskActivity)
	for _, a := range activities {
		for _, tag := range a.SkillsRequired {
			bySkill[tag] = append(bySkill[tag], a)
		}
	}
	tags := make([]string, 0, len(bySkill))
	for tag := range bySkill {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	ts := e.now()
	out := make([]model.SFIALevelSuggestion, 0, len(tags))
	for _, tag := range tags {
		skillActs := bySkill[tag]
		perfIndex := e.skillPerformance(skillActs)

		out = append(out, model.SFIALevelSuggestion{
			EmployeeID:            employeeID,
			CurrentRole:           role,
			SkillCode:             tag,
			SkillName:             skillName(tag),
			SuggestedLevel:        level,
			ConfidenceScore:       confidence,
			Reasoning:             e.reasoning(tag, level, scores, experience),
			SupportingEvidence:    e.evidence(tag, skillActs, perfIndex, experience),
			ImprovementAreas:      e.improvementAreas(level, scores, perfIndex),
			TimelineEstimate:      timelineEstimate(level),
			BusinessJustification: e.businessJustification(level, activities),
			Timestamp:             ts,
		})
	}
	return out, nil
}

// Close implements Engine. The default engine holds no resources.
func (e *DefaultEngine) Close() error {
	return nil
}

// DetermineLevel scans the criteria table from the highest level down and
// returns the highest level whose satisfaction reaches the qualifying bar.
// Defaults to level 1 when none qualifies. The classifier is monotone:
// raising any one score while holding the others fixed never lowers the
// result.
func DetermineLevel(criteria []model.LevelCriteria, s Scores, experienceYears float64) int {
	for i := len(criteria) - 1; i >= 0; i-- {
		c := criteria[i]
		satisfaction := 0.0
		if s.Autonomy >= c.AutonomyThreshold {
			satisfaction += weightAutonomy
		}
		if s.Influence >= c.InfluenceThreshold {
			satisfaction += weightInfluence
		}
		if s.Complexity >= c.ComplexityThreshold {
			satisfaction += weightComplexity
		}
		if s.BusinessSkills >= c.BusinessSkillsThreshold {
			satisfaction += weightBusiness
		}
		if experienceYears >= c.MinExperienceYears {
			satisfaction += weightExperience
		}
		if satisfaction >= qualifyingSatisfaction {
			return c.Level
		}
	}
	return model.MinLevel
}

// Satisfaction weights for the level scan. The four capability scores carry
// most of the decision; experience is a tiebreaker.
const (
	weightAutonomy         = 0.25
	weightInfluence        = 0.25
	weightComplexity       = 0.25
	weightBusiness         = 0.15
	weightExperience       = 0.10
	qualifyingSatisfaction = 0.70
)

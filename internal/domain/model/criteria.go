package model

import "fmt"

// LevelCriteria is one row of the level-criteria table: the thresholds an
// employee's scores must clear to qualify for a level. All thresholds are
// in [0,1] and must strictly increase with level.
type LevelCriteria struct {
	Level                   int
	AutonomyThreshold       float64
	InfluenceThreshold      float64
	ComplexityThreshold     float64
	BusinessSkillsThreshold float64
	MinExperienceYears      float64
	MinPerformanceThreshold float64
}

// MinLevel and MaxLevel bound the competency framework.
const (
	MinLevel = 1
	MaxLevel = 7
)

// DefaultLevelCriteria returns the built-in seven-row criteria table,
// ordered from level 1 to level 7. The thresholds are calibrated to the
// ranges the default feature extraction actually produces; they are a
// versioned table, not ground truth.
func DefaultLevelCriteria() []LevelCriteria {
	return []LevelCriteria{
		{Level: 1, AutonomyThreshold: 0.05, InfluenceThreshold: 0.05, ComplexityThreshold: 0.05, BusinessSkillsThreshold: 0.05, MinExperienceYears: 0, MinPerformanceThreshold: 0.30},
		{Level: 2, AutonomyThreshold: 0.15, InfluenceThreshold: 0.12, ComplexityThreshold: 0.12, BusinessSkillsThreshold: 0.10, MinExperienceYears: 0, MinPerformanceThreshold: 0.40},
		{Level: 3, AutonomyThreshold: 0.30, InfluenceThreshold: 0.22, ComplexityThreshold: 0.22, BusinessSkillsThreshold: 0.18, MinExperienceYears: 1, MinPerformanceThreshold: 0.50},
		{Level: 4, AutonomyThreshold: 0.45, InfluenceThreshold: 0.33, ComplexityThreshold: 0.30, BusinessSkillsThreshold: 0.25, MinExperienceYears: 2, MinPerformanceThreshold: 0.55},
		{Level: 5, AutonomyThreshold: 0.60, InfluenceThreshold: 0.45, ComplexityThreshold: 0.40, BusinessSkillsThreshold: 0.32, MinExperienceYears: 4, MinPerformanceThreshold: 0.60},
		{Level: 6, AutonomyThreshold: 0.72, InfluenceThreshold: 0.55, ComplexityThreshold: 0.48, BusinessSkillsThreshold: 0.40, MinExperienceYears: 6, MinPerformanceThreshold: 0.68},
		{Level: 7, AutonomyThreshold: 0.85, InfluenceThreshold: 0.68, ComplexityThreshold: 0.58, BusinessSkillsThreshold: 0.52, MinExperienceYears: 8, MinPerformanceThreshold: 0.75},
	}
}

// ValidateCriteria checks that the table covers levels 1..7 in order and
// that every threshold column strictly increases with level.
func ValidateCriteria(criteria []LevelCriteria) error {
	if len(criteria) != MaxLevel {
		return fmt.Errorf("criteria table must have %d rows, got %d", MaxLevel, len(criteria))
	}
	for i, c := range criteria {
		if c.Level != i+MinLevel {
			return fmt.Errorf("criteria row %d has level %d, want %d", i, c.Level, i+MinLevel)
		}
		if i == 0 {
			continue
		}
		prev := criteria[i-1]
		switch {
		case c.AutonomyThreshold <= prev.AutonomyThreshold:
			return fmt.Errorf("autonomy threshold not strictly increasing at level %d", c.Level)
		case c.InfluenceThreshold <= prev.InfluenceThreshold:
			return fmt.Errorf("influence threshold not strictly increasing at level %d", c.Level)
		case c.ComplexityThreshold <= prev.ComplexityThreshold:
			return fmt.Errorf("complexity threshold not strictly increasing at level %d", c.Level)
		case c.BusinessSkillsThreshold <= prev.BusinessSkillsThreshold:
			return fmt.Errorf("business skills threshold not strictly increasing at level %d", c.Level)
		case c.MinExperienceYears < prev.MinExperienceYears:
			return fmt.Errorf("min experience not monotonic at level %d", c.Level)
		case c.MinPerformanceThreshold <= prev.MinPerformanceThreshold:
			return fmt.Errorf("min performance threshold not strictly increasing at level %d", c.Level)
		}
	}
	return nil
}

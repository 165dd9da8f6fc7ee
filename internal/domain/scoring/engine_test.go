package scoring_test

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() func() time.Time {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

// makeActivities builds n uniform activities for one employee.
func makeActivities(n int, skill string, complexity int, quality float64, ts time.Time) []model.TaskActivity {
	out := make([]model.TaskActivity, n)
	for i := range out {
		out[i] = model.TaskActivity{
			EmployeeID:        "emp-1",
			Role:              "engineer",
			Department:        "engineering",
			TaskType:          "independent development",
			ComplexityLevel:   complexity,
			SkillsRequired:    []string{skill},
			TimeSpentHours:    6,
			CompletionQuality: quality,
			BusinessImpact:    model.ImpactHigh,
			Timestamp:         ts,
			SourceSystem:      "test",
		}
	}
	return out
}

func TestEngineSuggest(t *testing.T) {
	Convey("Given a default engine with a fixed clock", t, func() {
		clock := fixedClock()
		engine, err := scoring.NewEngine(scoring.WithClock(clock))
		So(err, ShouldBeNil)
		ctx := context.Background()
		recent := clock().Add(-10 * 24 * time.Hour)

		Convey("When the activity list is empty", func() {
			suggestions, err := engine.Suggest(ctx, nil, nil)

			Convey("Then it returns an empty result, not an error", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldBeEmpty)
			})
		})

		Convey("When activities reference several distinct skills", func() {
			acts := makeActivities(6, "PROG", 5, 0.8, recent)
			acts[0].SkillsRequired = []string{"PROG", "DBDS"}
			acts[1].SkillsRequired = []string{"TEST"}
			suggestions, err := engine.Suggest(ctx, acts, nil)

			Convey("Then it returns exactly one suggestion per distinct skill tag", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldHaveLength, 3)
				codes := []string{suggestions[0].SkillCode, suggestions[1].SkillCode, suggestions[2].SkillCode}
				So(codes, ShouldResemble, []string{"DBDS", "PROG", "TEST"})
			})

			Convey("And every suggestion stays inside the contract bounds", func() {
				So(err, ShouldBeNil)
				for _, s := range suggestions {
					So(s.SuggestedLevel, ShouldBeBetweenOrEqual, 1, 7)
					So(s.ConfidenceScore, ShouldBeBetweenOrEqual, 0.1, 1.0)
					So(len(s.ImprovementAreas), ShouldBeLessThanOrEqualTo, 3)
					So(s.TimelineEstimate, ShouldNotBeEmpty)
					So(s.SupportingEvidence, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When a strong employee has 25 recent high-impact PROG activities", func() {
			acts := makeActivities(25, "PROG", 8, 0.9, recent)
			perf := &model.PerformanceMetrics{
				EmployeeID:         "emp-1",
				CollaborationScore: 0.8,
				KPIScores:          map[string]float64{"delivery": 0.85},
			}
			suggestions, err := engine.Suggest(ctx, acts, perf)

			Convey("Then it suggests at least level 5 with confidence at least 0.7", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldHaveLength, 1)
				So(suggestions[0].SkillCode, ShouldEqual, "PROG")
				So(suggestions[0].SkillName, ShouldEqual, "Programming/software development")
				So(suggestions[0].SuggestedLevel, ShouldBeGreaterThanOrEqualTo, 5)
				So(suggestions[0].ConfidenceScore, ShouldBeGreaterThanOrEqualTo, 0.7)
			})
		})

		Convey("When a junior employee has a handful of simple activities", func() {
			acts := makeActivities(3, "TEST", 2, 0.5, recent)
			for i := range acts {
				acts[i].TaskType = "routine support"
				acts[i].BusinessImpact = model.ImpactLow
			}
			suggestions, err := engine.Suggest(ctx, acts, nil)

			Convey("Then it suggests a low level with improvement areas", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldHaveLength, 1)
				So(suggestions[0].SuggestedLevel, ShouldBeBetweenOrEqual, 1, 3)
				So(suggestions[0].ImprovementAreas, ShouldNotBeEmpty)
			})
		})

		Convey("When the same input is scored twice", func() {
			acts := makeActivities(10, "PROG", 6, 0.85, recent)
			perf := &model.PerformanceMetrics{CollaborationScore: 0.7}
			first, err1 := engine.Suggest(ctx, acts, perf)
			second, err2 := engine.Suggest(ctx, acts, perf)

			Convey("Then the suggestions are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(reflect.DeepEqual(first, second), ShouldBeTrue)
			})
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.Suggest(canceled, makeActivities(5, "PROG", 5, 0.8, recent), nil)

			Convey("Then it fails with the context error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestEngineCriteriaValidation(t *testing.T) {
	Convey("Given a criteria table with non-increasing thresholds", t, func() {
		criteria := model.DefaultLevelCriteria()
		criteria[3].AutonomyThreshold = criteria[2].AutonomyThreshold

		Convey("When constructing an engine with it", func() {
			_, err := scoring.NewEngine(scoring.WithCriteria(criteria))

			Convey("Then construction fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDetermineLevelMonotonicity(t *testing.T) {
	Convey("Given the default criteria table", t, func() {
		criteria := model.DefaultLevelCriteria()
		rng := rand.New(rand.NewSource(7))
		experiences := []float64{0, 1, 3, 5, 8}

		Convey("When any single score is raised with the others fixed", func() {
			Convey("Then the chosen level never decreases", func() {
				for i := 0; i < 2000; i++ {
					s := scoring.Scores{
						Autonomy:       rng.Float64(),
						Influence:      rng.Float64(),
						Complexity:     rng.Float64(),
						BusinessSkills: rng.Float64(),
					}
					exp := experiences[rng.Intn(len(experiences))]
					base := scoring.DetermineLevel(criteria, s, exp)

					delta := rng.Float64()
					bumped := s
					switch rng.Intn(4) {
					case 0:
						bumped.Autonomy = min1(bumped.Autonomy + delta)
					case 1:
						bumped.Influence = min1(bumped.Influence + delta)
					case 2:
						bumped.Complexity = min1(bumped.Complexity + delta)
					case 3:
						bumped.BusinessSkills = min1(bumped.BusinessSkills + delta)
					}
					So(scoring.DetermineLevel(criteria, bumped, exp), ShouldBeGreaterThanOrEqualTo, base)
				}
			})
		})

		Convey("When every score is at its maximum", func() {
			s := scoring.Scores{Autonomy: 1, Influence: 1, Complexity: 1, BusinessSkills: 1}

			Convey("Then the top level qualifies", func() {
				So(scoring.DetermineLevel(criteria, s, 10), ShouldEqual, 7)
			})
		})

		Convey("When every score is zero", func() {
			Convey("Then the result defaults to level 1", func() {
				So(scoring.DetermineLevel(criteria, scoring.Scores{}, 0), ShouldEqual, 1)
			})
		})
	})
}

func min1(x float64) float64 {
	if x > 1 {
		return 1
	}
	return x
}

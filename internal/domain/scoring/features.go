package scoring

import (
	"math"
	"strings"

	"github.com/sensei-hq/sensei/internal/domain/model"
)

// Scores holds the four scalar capability scores derived for an employee.
// All values are in [0,1].
type Scores struct {
	Autonomy       float64
	Influence      float64
	Complexity     float64
	BusinessSkills float64
}

// Weights is the versioned weighting table for the feature extraction.
// The defaults are illustrative heuristics, not a validated model.
type Weights struct {
	Version string

	// autonomy = AutonomyComplexity*avg(cmx) + AutonomyConsistency*(1-stdev(quality))
	//          + AutonomyIndependent*fracIndependent + AutonomyKPI*avg(kpi)
	AutonomyComplexity  float64
	AutonomyConsistency float64
	AutonomyIndependent float64
	AutonomyKPI         float64

	InfluenceLeadership float64
	InfluenceImpact     float64
	InfluenceCollab     float64
	InfluenceIndicators float64

	ComplexityAvg        float64
	ComplexityBreadth    float64
	ComplexityProblem    float64
	ComplexityBreadthCap float64

	BusinessTagged     float64
	BusinessInnovation float64
	BusinessImpact     float64

	SkillQuality    float64
	SkillThroughput float64
	SkillComplexity float64

	ConfidenceVolume      float64
	ConfidenceConsistency float64
	ConfidenceRecency     float64
	ConfidenceVolumeFloor int
}

// DefaultWeights returns the built-in weighting table.
func DefaultWeights() Weights {
	return Weights{
		Version: "v1",

		AutonomyComplexity:  0.3,
		AutonomyConsistency: 0.3,
		AutonomyIndependent: 0.2,
		AutonomyKPI:         0.2,

		InfluenceLeadership: 0.3,
		InfluenceImpact:     0.3,
		InfluenceCollab:     0.2,
		InfluenceIndicators: 0.2,

		ComplexityAvg:        0.5,
		ComplexityBreadth:    0.3,
		ComplexityProblem:    0.2,
		ComplexityBreadthCap: 20,

		BusinessTagged:     0.4,
		BusinessInnovation: 0.3,
		BusinessImpact:     0.3,

		SkillQuality:    0.4,
		SkillThroughput: 0.3,
		SkillComplexity: 0.3,

		ConfidenceVolume:      0.4,
		ConfidenceConsistency: 0.3,
		ConfidenceRecency:     0.3,
		ConfidenceVolumeFloor: 20,
	}
}

// Keywords are the substring heuristics the default feature extraction
// matches against task types and skill tags. Case-insensitive.
type Keywords struct {
	Independent    []string
	Leadership     []string
	ProblemSolving []string
	Business       []string
}

// DefaultKeywords returns the built-in keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		Independent:    []string{"independent", "autonomous", "self-directed", "solo", "own initiative"},
		Leadership:     []string{"leadership", "management", "coaching", "mentoring", "lead"},
		ProblemSolving: []string{"problem", "analysis", "research", "investigation", "troubleshoot", "design"},
		Business:       []string{"strategy", "planning", "budget", "stakeholder"},
	}
}

// employeeScores computes the four capability scores from an employee's
// activities and merged performance record. perf may be nil, in which case
// the performance-derived terms contribute zero.
func (e *DefaultEngine) employeeScores(activities []model.TaskActivity, perf *model.PerformanceMetrics) Scores {
	w := e.weights
	kw := e.keywords

	avgCmx := avgComplexity(activities) / 10
	qualityStdev := stdev(qualities(activities))

	var collab, innovation, kpiAvg, leadershipAvg float64
	if perf != nil {
		collab = perf.CollaborationScore
		innovation = perf.InnovationScore
		kpiAvg = mapAvg(perf.KPIScores)
		leadershipAvg = mapAvg(perf.LeadershipIndicators)
	}

	autonomy := w.AutonomyComplexity*avgCmx +
		w.AutonomyConsistency*(1-qualityStdev) +
		w.AutonomyIndependent*fracMatching(activities, func(a model.TaskActivity) bool {
			return matchesAny(a.TaskType, kw.Independent)
		}) +
		w.AutonomyKPI*kpiAvg

	influence := w.InfluenceLeadership*fracMatching(activities, func(a model.TaskActivity) bool {
		return anyTagMatches(a.SkillsRequired, kw.Leadership)
	}) +
		w.InfluenceImpact*fracMatching(activities, func(a model.TaskActivity) bool {
			return a.BusinessImpact.High()
		}) +
		w.InfluenceCollab*collab +
		w.InfluenceIndicators*leadershipAvg

	complexity := w.ComplexityAvg*avgCmx +
		w.ComplexityBreadth*math.Min(1, float64(distinctSkills(activities))/w.ComplexityBreadthCap) +
		w.ComplexityProblem*fracMatching(activities, func(a model.TaskActivity) bool {
			return matchesAny(a.TaskType, kw.ProblemSolving)
		})

	business := w.BusinessTagged*fracMatching(activities, func(a model.TaskActivity) bool {
		return matchesAny(a.TaskType, kw.Business) || anyTagMatches(a.SkillsRequired, kw.Business)
	}) +
		w.BusinessInnovation*innovation +
		w.BusinessImpact*fracMatching(activities, func(a model.TaskActivity) bool {
			return a.BusinessImpact.High()
		})

	return Scores{
		Autonomy:       clamp01(autonomy),
		Influence:      clamp01(influence),
		Complexity:     clamp01(complexity),
		BusinessSkills: clamp01(business),
	}
}

// skillPerformance is a per-skill quality index combining completion
// quality, throughput against a standard working day, and complexity.
func (e *DefaultEngine) skillPerformance(activities []model.TaskActivity) float64 {
	w := e.weights
	avgHours := math.Max(1, mean(hours(activities)))
	return clamp01(w.SkillQuality*mean(qualities(activities)) +
		w.SkillThroughput*math.Min(1, e.standardDayHours/avgHours) +
		w.SkillComplexity*avgComplexity(activities)/10)
}

// experienceEstimate maps activity volume and average complexity to a rough
// tenure estimate in years. Monotone in both inputs.
func experienceEstimate(activityCount int, avgCmx float64) float64 {
	switch {
	case activityCount < 5:
		return 0
	case activityCount < 15:
		return 1
	case activityCount < 30:
		return 3
	case activityCount < 50:
		return 5
	case avgCmx >= 7:
		return 8
	default:
		return 5
	}
}

// confidence reflects how much signal backs a suggestion: activity volume,
// quality consistency, and recency. Clamped to [0.1, 1.0] so even thin
// evidence yields a nonzero confidence.
func (e *DefaultEngine) confidence(activities []model.TaskActivity) float64 {
	w := e.weights
	cutoff := e.now().Add(-e.recencyWindow)
	recent := fracMatching(activities, func(a model.TaskActivity) bool {
		return a.Timestamp.After(cutoff)
	})
	c := w.ConfidenceVolume*math.Min(1, float64(len(activities))/float64(w.ConfidenceVolumeFloor)) +
		w.ConfidenceConsistency*(1-stdev(qualities(activities))) +
		w.ConfidenceRecency*recent
	return math.Max(0.1, math.Min(1.0, c))
}

// --- small statistics and matching helpers ---

func avgComplexity(activities []model.TaskActivity) float64 {
	if len(activities) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range activities {
		sum += float64(a.ComplexityLevel)
	}
	return sum / float64(len(activities))
}

func qualities(activities []model.TaskActivity) []float64 {
	out := make([]float64, len(activities))
	for i, a := range activities {
		out[i] = a.CompletionQuality
	}
	return out
}

func hours(activities []model.TaskActivity) []float64 {
	out := make([]float64, len(activities))
	for i, a := range activities {
		out[i] = a.TimeSpentHours
	}
	return out
}

func distinctSkills(activities []model.TaskActivity) int {
	seen := make(map[string]struct{})
	for _, a := range activities {
		for _, tag := range a.SkillsRequired {
			seen[tag] = struct{}{}
		}
	}
	return len(seen)
}

func fracMatching(activities []model.TaskActivity, pred func(model.TaskActivity) bool) float64 {
	if len(activities) == 0 {
		return 0
	}
	n := 0
	for _, a := range activities {
		if pred(a) {
			n++
		}
	}
	return float64(n) / float64(len(activities))
}

func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func anyTagMatches(tags, keywords []string) bool {
	for _, tag := range tags {
		if matchesAny(tag, keywords) {
			return true
		}
	}
	return false
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func mapAvg(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	return sum / float64(len(m))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

package scoring

import (
	"fmt"

	"github.com/sensei-hq/sensei/internal/domain/model"
)

// sfiaSkillNames maps common SFIA skill codes to their display names.
// Unknown tags fall back to the tag itself.
var sfiaSkillNames = map[string]string{
	"PROG": "Programming/software development",
	"DBDS": "Database design",
	"ARCH": "Solution architecture",
	"TEST": "Testing",
	"RLMT": "Stakeholder relationship management",
	"PROJ": "Project management",
	"BUAN": "Business analysis",
	"DATM": "Data management",
	"SCTY": "Information security",
	"USEV": "User experience evaluation",
}

func skillName(tag string) string {
	if name, ok := sfiaSkillNames[tag]; ok {
		return name
	}
	return tag
}

// timelineBands maps a suggested level to a rough duration band for
// reaching the next level.
var timelineBands = map[int]string{
	1: "3-6 months",
	2: "6-12 months",
	3: "12-18 months",
	4: "18-24 months",
	5: "2-3 years",
	6: "3-4 years",
	7: "4+ years",
}

func timelineEstimate(level int) string {
	if band, ok := timelineBands[level]; ok {
		return band
	}
	return timelineBands[model.MinLevel]
}

// reasoning summarizes how the scores led to the suggested level.
func (e *DefaultEngine) reasoning(tag string, level int, s Scores, experienceYears float64) string {
	return fmt.Sprintf(
		"Suggested level %d for %s based on autonomy %.2f, influence %.2f, complexity %.2f, business skills %.2f and an estimated %.0f years of comparable experience.",
		level, skillName(tag), s.Autonomy, s.Influence, s.Complexity, s.BusinessSkills, experienceYears)
}

// evidence lists the observable facts supporting a suggestion, in a stable
// order so repeated runs over the same input produce identical output.
func (e *DefaultEngine) evidence(tag string, skillActs []model.TaskActivity, perfIndex, experienceYears float64) []string {
	return []string{
		fmt.Sprintf("%d activities referencing %s", len(skillActs), tag),
		fmt.Sprintf("average task complexity %.1f/10", avgComplexity(skillActs)),
		fmt.Sprintf("average completion quality %.2f", mean(qualities(skillActs))),
		fmt.Sprintf("skill performance index %.2f", perfIndex),
		fmt.Sprintf("estimated %.0f years of comparable experience", experienceYears),
	}
}

// improvementAreas names up to three score gaps against the next level's
// thresholds, in fixed priority order.
func (e *DefaultEngine) improvementAreas(level int, s Scores, perfIndex float64) []string {
	if level >= model.MaxLevel {
		return nil
	}
	next := e.criteria[level] // criteria is ordered 1..7; index level == next row

	var areas []string
	add := func(area string) {
		if len(areas) < 3 {
			areas = append(areas, area)
		}
	}
	if s.Autonomy < next.AutonomyThreshold {
		add(fmt.Sprintf("increase autonomy to %.2f (currently %.2f): take on more independently owned work", next.AutonomyThreshold, s.Autonomy))
	}
	if s.Influence < next.InfluenceThreshold {
		add(fmt.Sprintf("increase influence to %.2f (currently %.2f): lead, coach or drive high-impact work", next.InfluenceThreshold, s.Influence))
	}
	if s.Complexity < next.ComplexityThreshold {
		add(fmt.Sprintf("increase complexity to %.2f (currently %.2f): tackle harder problems across more skills", next.ComplexityThreshold, s.Complexity))
	}
	if s.BusinessSkills < next.BusinessSkillsThreshold {
		add(fmt.Sprintf("increase business skills to %.2f (currently %.2f): engage in strategy, planning or stakeholder work", next.BusinessSkillsThreshold, s.BusinessSkills))
	}
	if perfIndex < next.MinPerformanceThreshold {
		add(fmt.Sprintf("raise skill performance to %.2f (currently %.2f)", next.MinPerformanceThreshold, perfIndex))
	}
	return areas
}

// businessJustification frames the suggestion in terms of delivered impact.
func (e *DefaultEngine) businessJustification(level int, activities []model.TaskActivity) string {
	highImpact := 0
	for _, a := range activities {
		if a.BusinessImpact.High() {
			highImpact++
		}
	}
	return fmt.Sprintf(
		"%d of %d recent activities had high or critical business impact; operating at level %d aligns responsibility with demonstrated delivery.",
		highImpact, len(activities), level)
}

package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sensei-hq/sensei/internal/adapters/cache"
	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/pkg/logger"
	"github.com/sensei-hq/sensei/pkg/metrics"
)

// AnalyzeEmployee computes fresh suggestions for one employee, reusing the
// same pull-and-score path as the loops. An employee with no activities
// yields an empty result, not an error: absence of data is an expected
// steady-state condition.
func (m *Manager) AnalyzeEmployee(ctx context.Context, employeeID string) ([]model.SFIALevelSuggestion, error) {
	metrics.RecordAnalysisRequest("employee")

	if v, ok, err := m.store.Get(ctx, cache.SuggestionKey(employeeID)); err != nil {
		// Transport errors are treated identically to a miss.
		metrics.RecordCacheError()
		m.log.Warn(ctx, "suggestion cache read failed",
			logger.String("employee_id", employeeID), logger.Error(err))
	} else if ok {
		if cached, ok := v.([]model.SFIALevelSuggestion); ok {
			metrics.RecordCacheHit()
			return cached, nil
		}
	} else {
		metrics.RecordCacheMiss()
	}

	acts, perf := m.collectEmployee(ctx, employeeID)
	if len(acts) == 0 {
		metrics.RecordInsufficientData()
		m.log.Info(ctx, "no activities found for employee",
			logger.String("employee_id", employeeID))
		return []model.SFIALevelSuggestion{}, nil
	}
	suggestions := m.score(ctx, employeeID, acts, perf)
	if suggestions == nil {
		return []model.SFIALevelSuggestion{}, nil
	}
	return suggestions, nil
}

// AnalyzeDepartment resolves department membership from the connectors'
// employee directories, then analyzes each member.
func (m *Manager) AnalyzeDepartment(ctx context.Context, department string) (model.AnalysisResult, error) {
	metrics.RecordAnalysisRequest("department")

	members := m.departmentMembers(ctx, department)
	result := make(model.AnalysisResult, len(members))
	for _, id := range members {
		suggestions, err := m.AnalyzeEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(suggestions) > 0 {
			result[id] = suggestions
		}
	}
	return result, nil
}

// departmentMembers collects unique employee ids in a department across
// all connected connectors. Matching is case-insensitive.
func (m *Manager) departmentMembers(ctx context.Context, department string) []string {
	seen := make(map[string]struct{})
	var members []string
	for _, conn := range m.connectedConnectors() {
		records, err := conn.EmployeeData(ctx, nil)
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "employees")
			m.log.Warn(ctx, "employee directory pull failed",
				logger.String("connector", conn.Name()), logger.Error(err))
			continue
		}
		for _, rec := range records {
			if !strings.EqualFold(rec.Department, department) {
				continue
			}
			if _, dup := seen[rec.EmployeeID]; dup {
				continue
			}
			seen[rec.EmployeeID] = struct{}{}
			members = append(members, rec.EmployeeID)
		}
	}
	sort.Strings(members)
	return members
}

// HighPerformer flags an employee/skill pair whose suggestion clears the
// high-performer bar: confidence above 0.9 at level 5 or higher.
type HighPerformer struct {
	EmployeeID      string  `json:"employee_id"`
	SkillCode       string  `json:"skill_code"`
	SuggestedLevel  int     `json:"suggested_level"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// AreaCount counts how often one improvement area shows up org-wide.
type AreaCount struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
}

// OrganizationInsights aggregates suggestions across the organization.
type OrganizationInsights struct {
	GeneratedAt            time.Time      `json:"generated_at"`
	EmployeesAnalyzed      int            `json:"employees_analyzed"`
	DepartmentDistribution map[string]int `json:"department_distribution"`
	SkillDistribution      map[string]int `json:"skill_distribution"`
	LevelDistribution      map[int]int    `json:"level_distribution"`
	HighPerformers         []HighPerformer `json:"high_performers"`
	TopImprovementAreas    []AreaCount    `json:"top_improvement_areas"`
}

// highPerformer thresholds.
const (
	highPerformerConfidence = 0.9
	highPerformerLevel      = 5
)

// GetOrganizationInsights analyzes every known employee and aggregates the
// suggestions into department, skill and level distributions, flags high
// performers and surfaces the most common improvement areas.
func (m *Manager) GetOrganizationInsights(ctx context.Context) (*OrganizationInsights, error) {
	metrics.RecordAnalysisRequest("organization")

	departments := make(map[string]string) // employee id -> department
	var employees []string
	seen := make(map[string]struct{})
	for _, conn := range m.connectedConnectors() {
		records, err := conn.EmployeeData(ctx, nil)
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "employees")
			m.log.Warn(ctx, "employee directory pull failed",
				logger.String("connector", conn.Name()), logger.Error(err))
			continue
		}
		for _, rec := range records {
			if _, dup := seen[rec.EmployeeID]; dup {
				continue
			}
			seen[rec.EmployeeID] = struct{}{}
			employees = append(employees, rec.EmployeeID)
			departments[rec.EmployeeID] = rec.Department
		}
	}
	sort.Strings(employees)

	insights := &OrganizationInsights{
		GeneratedAt:            m.now(),
		DepartmentDistribution: make(map[string]int),
		SkillDistribution:      make(map[string]int),
		LevelDistribution:      make(map[int]int),
	}
	areaCounts := make(map[string]int)

	for _, id := range employees {
		suggestions, err := m.AnalyzeEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(suggestions) == 0 {
			continue
		}
		insights.EmployeesAnalyzed++
		insights.DepartmentDistribution[departments[id]]++
		for _, s := range suggestions {
			insights.SkillDistribution[s.SkillCode]++
			insights.LevelDistribution[s.SuggestedLevel]++
			if s.ConfidenceScore > highPerformerConfidence && s.SuggestedLevel >= highPerformerLevel {
				insights.HighPerformers = append(insights.HighPerformers, HighPerformer{
					EmployeeID:      s.EmployeeID,
					SkillCode:       s.SkillCode,
					SuggestedLevel:  s.SuggestedLevel,
					ConfidenceScore: s.ConfidenceScore,
				})
			}
			for _, area := range s.ImprovementAreas {
				areaCounts[area]++
			}
		}
	}

	insights.TopImprovementAreas = topAreas(areaCounts, 10)
	return insights, nil
}

// topAreas returns the n most common improvement areas, most frequent
// first, ties broken alphabetically.
func topAreas(counts map[string]int, n int) []AreaCount {
	out := make([]AreaCount, 0, len(counts))
	for area, count := range counts {
		out = append(out, AreaCount{Area: area, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Area < out[j].Area
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

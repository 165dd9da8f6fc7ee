// Package model contains domain models passed between layers.
package model

import "time"

// BusinessImpact classifies how much an activity mattered to the business.
type BusinessImpact string

const (
	ImpactLow      BusinessImpact = "low"
	ImpactMedium   BusinessImpact = "medium"
	ImpactHigh     BusinessImpact = "high"
	ImpactCritical BusinessImpact = "critical"
)

// High reports whether the impact counts as high-or-critical for scoring.
func (b BusinessImpact) High() bool {
	return b == ImpactHigh || b == ImpactCritical
}

// TaskActivity is an immutable fact describing one unit of work an employee
// performed, as reported by a source system. Produced by connectors,
// consumed only by the scoring engine.
type TaskActivity struct {
	EmployeeID        string
	Role              string
	Department        string
	TaskType          string
	ComplexityLevel   int // 1-10
	SkillsRequired    []string
	TimeSpentHours    float64
	CompletionQuality float64 // 0-1
	BusinessImpact    BusinessImpact
	Timestamp         time.Time
	SourceSystem      string
	Metadata          map[string]string
}

// PerformanceMetrics is one employee's performance record for a reporting
// period from one source system. When the same employee appears in several
// systems, the last record read wins.
type PerformanceMetrics struct {
	EmployeeID           string
	Role                 string
	Department           string
	KPIScores            map[string]float64
	ProductivityMetrics  map[string]float64
	QualityMetrics       map[string]float64
	CollaborationScore   float64 // 0-1
	InnovationScore      float64 // 0-1
	TechnicalProficiency map[string]float64
	LeadershipIndicators map[string]float64
	PeriodStart          time.Time
	PeriodEnd            time.Time
	SourceSystem         string
}

// EmployeeRecord is the directory entry a connector exposes for an employee.
type EmployeeRecord struct {
	EmployeeID   string
	Name         string
	Role         string
	Department   string
	SourceSystem string
}

// SFIALevelSuggestion is the engine's output: a proposed competency level
// (1-7) for one employee/skill pair with supporting rationale. Suggestions
// are recomputed, never mutated in place.
type SFIALevelSuggestion struct {
	EmployeeID            string    `json:"employee_id"`
	CurrentRole           string    `json:"current_role"`
	SkillCode             string    `json:"skill_code"`
	SkillName             string    `json:"skill_name"`
	CurrentLevel          int       `json:"current_level,omitempty"` // 0 when unknown
	SuggestedLevel        int       `json:"suggested_level"`         // 1-7
	ConfidenceScore       float64   `json:"confidence_score"`        // 0.1-1.0
	Reasoning             string    `json:"reasoning"`
	SupportingEvidence    []string  `json:"supporting_evidence"`
	ImprovementAreas      []string  `json:"improvement_areas"` // at most three
	TimelineEstimate      string    `json:"timeline_estimate"`
	BusinessJustification string    `json:"business_justification"`
	Timestamp             time.Time `json:"timestamp"`
}

// HealthStatus is a connector's self-reported health.
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	SystemType string    `json:"system_type"`
	Endpoint   string    `json:"endpoint"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

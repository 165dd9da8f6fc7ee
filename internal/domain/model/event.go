package model

import "time"

// EventType identifies what kind of analysis result an event carries.
type EventType string

const (
	EventBatchAnalysis    EventType = "batch_analysis"
	EventRealTimeAnalysis EventType = "real_time_analysis"
	EventHealthCheck      EventType = "health_check"
)

// AnalysisResult maps employee IDs to their freshly computed suggestions.
type AnalysisResult map[string][]SFIALevelSuggestion

// HealthReport maps connector names to their latest health status.
type HealthReport map[string]HealthStatus

// Event is what the integration manager dispatches to subscribers.
// Exactly one of Analysis and Health is populated, depending on Type.
type Event struct {
	ID        string // correlation id, unique per emission
	Type      EventType
	Timestamp time.Time
	Analysis  AnalysisResult
	Health    HealthReport
}

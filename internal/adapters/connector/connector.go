// Package connector defines the uniform capability set adapters implement
// for each external system type, plus the factory that selects an adapter
// from a system-type tag.
//
// Adapters that cannot supply a capability (a pure message bus has no
// meaningful employee directory) return an empty result rather than
// failing.
package connector

import (
	"context"
	"time"

	"github.com/sensei-hq/sensei/internal/domain/model"
)

// SystemType tags the kind of external system an adapter talks to.
type SystemType string

const (
	TypeHRIS     SystemType = "hris"     // relational HR store
	TypeDocument SystemType = "document" // document store
	TypeBus      SystemType = "bus"      // streaming message bus
	TypeERP      SystemType = "erp"      // ERP work-order API
	TypeBI       SystemType = "bi"       // BI metrics API
)

// Connector is the capability set every adapter implements.
type Connector interface {
	// Name returns the configured system name, unique per manager.
	Name() string

	// SystemType returns the adapter's type tag.
	SystemType() SystemType

	// Connect establishes the connection to the backend. Failures are
	// reported as ErrConnection and retried by the manager.
	Connect(ctx context.Context) error

	// Disconnect releases the connection. Safe to call when not connected.
	Disconnect(ctx context.Context) error

	// EmployeeData returns directory records, optionally filtered by ids.
	// A nil or empty ids slice means all employees.
	EmployeeData(ctx context.Context, ids []string) ([]model.EmployeeRecord, error)

	// TaskActivities returns activities in [from, to].
	TaskActivities(ctx context.Context, from, to time.Time) ([]model.TaskActivity, error)

	// PerformanceMetrics returns current performance records, optionally
	// filtered by ids.
	PerformanceMetrics(ctx context.Context, ids []string) ([]model.PerformanceMetrics, error)

	// HealthCheck probes the backend and reports status. Never returns an
	// error: failures are carried inside the status.
	HealthCheck(ctx context.Context) model.HealthStatus
}

// Record is one inbound real-time message from a streaming system.
// Exactly one of Activity and Performance is set.
type Record struct {
	EmployeeID  string
	Activity    *model.TaskActivity
	Performance *model.PerformanceMetrics
}

// RecordHandler is invoked for every inbound real-time record.
type RecordHandler func(ctx context.Context, rec Record, topic string)

// StreamingConnector is implemented by adapters that can push records in
// real time.
type StreamingConnector interface {
	Connector

	// ConsumeRealTime subscribes to topics and invokes handler for every
	// inbound record until ctx is canceled. It occupies its caller for its
	// entire lifetime and must run on a dedicated goroutine.
	ConsumeRealTime(ctx context.Context, topics []string, handler RecordHandler) error
}

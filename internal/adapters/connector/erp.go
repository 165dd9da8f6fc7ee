package connector

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/model"
)

// ERP adapts an ERP work-order REST API to the connector contract. It
// supplies activities and a thin employee directory; performance metrics
// are not an ERP capability and return empty.
type ERP struct {
	name string
	cfg  config.SystemConfig
	rest restClient

	mu        sync.RWMutex
	connected bool
}

// NewERP creates the ERP adapter.
func NewERP(name string, cfg config.SystemConfig, opts ...Option) *ERP {
	set := defaultSettings()
	for _, opt := range opts {
		opt(&set)
	}
	return &ERP{
		name: name,
		cfg:  cfg,
		rest: restClient{baseURL: cfg.Endpoint, apiKey: cfg.APIKey, client: set.httpClient},
	}
}

func (e *ERP) Name() string           { return e.name }
func (e *ERP) SystemType() SystemType { return TypeERP }

// Connect probes the API's health endpoint.
func (e *ERP) Connect(ctx context.Context) error {
	if err := e.rest.probe(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()
	return nil
}

// Disconnect marks the adapter disconnected. HTTP needs no teardown.
func (e *ERP) Disconnect(_ context.Context) error {
	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()
	return nil
}

func (e *ERP) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

type erpEmployee struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// EmployeeData returns the ERP's employee directory, optionally filtered by
// ids.
func (e *ERP) EmployeeData(ctx context.Context, ids []string) ([]model.EmployeeRecord, error) {
	if !e.isConnected() {
		return nil, ErrNotConnected
	}
	query := url.Values{}
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
	}
	var docs []erpEmployee
	if err := e.rest.getJSON(ctx, "/api/v1/employees", query, &docs); err != nil {
		return nil, err
	}
	out := make([]model.EmployeeRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.EmployeeRecord{
			EmployeeID:   d.EmployeeID,
			Name:         d.Name,
			Role:         d.Role,
			Department:   d.Department,
			SourceSystem: e.name,
		})
	}
	return out, nil
}

type erpWorkOrder struct {
	EmployeeID        string            `json:"employee_id"`
	Role              string            `json:"role"`
	Department        string            `json:"department"`
	OrderType         string            `json:"order_type"`
	Complexity        int               `json:"complexity"`
	Skills            []string          `json:"skills"`
	HoursLogged       float64           `json:"hours_logged"`
	CompletionQuality float64           `json:"completion_quality"`
	Impact            string            `json:"impact"`
	ClosedAt          time.Time         `json:"closed_at"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// TaskActivities maps closed work orders in [from, to] to activities.
func (e *ERP) TaskActivities(ctx context.Context, from, to time.Time) ([]model.TaskActivity, error) {
	if !e.isConnected() {
		return nil, ErrNotConnected
	}
	query := url.Values{}
	query.Set("from", from.Format(time.RFC3339))
	query.Set("to", to.Format(time.RFC3339))
	var orders []erpWorkOrder
	if err := e.rest.getJSON(ctx, "/api/v1/work-orders", query, &orders); err != nil {
		return nil, err
	}
	out := make([]model.TaskActivity, 0, len(orders))
	for _, o := range orders {
		out = append(out, model.TaskActivity{
			EmployeeID:        o.EmployeeID,
			Role:              o.Role,
			Department:        o.Department,
			TaskType:          o.OrderType,
			ComplexityLevel:   o.Complexity,
			SkillsRequired:    o.Skills,
			TimeSpentHours:    o.HoursLogged,
			CompletionQuality: o.CompletionQuality,
			BusinessImpact:    model.BusinessImpact(o.Impact),
			Timestamp:         o.ClosedAt,
			SourceSystem:      e.name,
			Metadata:          o.Metadata,
		})
	}
	return out, nil
}

// PerformanceMetrics is not an ERP capability; returns an empty result.
func (e *ERP) PerformanceMetrics(_ context.Context, _ []string) ([]model.PerformanceMetrics, error) {
	return nil, nil
}

// HealthCheck probes the API's health endpoint.
func (e *ERP) HealthCheck(ctx context.Context) model.HealthStatus {
	status := model.HealthStatus{
		SystemType: string(TypeERP),
		Endpoint:   e.cfg.Endpoint,
		Timestamp:  time.Now(),
	}
	if !e.isConnected() {
		status.Error = ErrNotConnected.Error()
		return status
	}
	if err := e.rest.probe(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

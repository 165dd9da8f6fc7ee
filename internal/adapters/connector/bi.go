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

// BI adapts a business-intelligence metrics API to the connector contract.
// It supplies performance metrics only; activities and employee data are
// not BI capabilities and return empty.
type BI struct {
	name string
	cfg  config.SystemConfig
	rest restClient

	mu        sync.RWMutex
	connected bool
}

// NewBI creates the BI adapter.
func NewBI(name string, cfg config.SystemConfig, opts ...Option) *BI {
	set := defaultSettings()
	for _, opt := range opts {
		opt(&set)
	}
	return &BI{
		name: name,
		cfg:  cfg,
		rest: restClient{baseURL: cfg.Endpoint, apiKey: cfg.APIKey, client: set.httpClient},
	}
}

func (b *BI) Name() string           { return b.name }
func (b *BI) SystemType() SystemType { return TypeBI }

// Connect probes the API's health endpoint.
func (b *BI) Connect(ctx context.Context) error {
	if err := b.rest.probe(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	return nil
}

// Disconnect marks the adapter disconnected. HTTP needs no teardown.
func (b *BI) Disconnect(_ context.Context) error {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	return nil
}

func (b *BI) isConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// EmployeeData is not a BI capability; returns an empty result.
func (b *BI) EmployeeData(_ context.Context, _ []string) ([]model.EmployeeRecord, error) {
	return nil, nil
}

// TaskActivities is not a BI capability; returns an empty result.
func (b *BI) TaskActivities(_ context.Context, _, _ time.Time) ([]model.TaskActivity, error) {
	return nil, nil
}

type biPerformance struct {
	EmployeeID           string             `json:"employee_id"`
	Role                 string             `json:"role"`
	Department           string             `json:"department"`
	KPIScores            map[string]float64 `json:"kpi_scores"`
	ProductivityMetrics  map[string]float64 `json:"productivity_metrics"`
	QualityMetrics       map[string]float64 `json:"quality_metrics"`
	CollaborationScore   float64            `json:"collaboration_score"`
	InnovationScore      float64            `json:"innovation_score"`
	TechnicalProficiency map[string]float64 `json:"technical_proficiency"`
	LeadershipIndicators map[string]float64 `json:"leadership_indicators"`
	PeriodStart          time.Time          `json:"period_start"`
	PeriodEnd            time.Time          `json:"period_end"`
}

// PerformanceMetrics pulls current performance readings, optionally
// filtered by ids.
func (b *BI) PerformanceMetrics(ctx context.Context, ids []string) ([]model.PerformanceMetrics, error) {
	if !b.isConnected() {
		return nil, ErrNotConnected
	}
	query := url.Values{}
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
	}
	var docs []biPerformance
	if err := b.rest.getJSON(ctx, "/api/v1/performance", query, &docs); err != nil {
		return nil, err
	}
	out := make([]model.PerformanceMetrics, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.PerformanceMetrics{
			EmployeeID:           d.EmployeeID,
			Role:                 d.Role,
			Department:           d.Department,
			KPIScores:            d.KPIScores,
			ProductivityMetrics:  d.ProductivityMetrics,
			QualityMetrics:       d.QualityMetrics,
			CollaborationScore:   d.CollaborationScore,
			InnovationScore:      d.InnovationScore,
			TechnicalProficiency: d.TechnicalProficiency,
			LeadershipIndicators: d.LeadershipIndicators,
			PeriodStart:          d.PeriodStart,
			PeriodEnd:            d.PeriodEnd,
			SourceSystem:         b.name,
		})
	}
	return out, nil
}

// HealthCheck probes the API's health endpoint.
func (b *BI) HealthCheck(ctx context.Context) model.HealthStatus {
	status := model.HealthStatus{
		SystemType: string(TypeBI),
		Endpoint:   b.cfg.Endpoint,
		Timestamp:  time.Now(),
	}
	if !b.isConnected() {
		status.Error = ErrNotConnected.Error()
		return status
	}
	if err := b.rest.probe(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

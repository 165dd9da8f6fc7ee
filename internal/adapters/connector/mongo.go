package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/model"
)

// Collection names the document adapter reads from.
const (
	collEmployees   = "employees"
	collActivities  = "activities"
	collPerformance = "performance"
)

// Mongo adapts a document store to the connector contract.
type Mongo struct {
	name string
	cfg  config.SystemConfig
	set  settings

	mu     sync.RWMutex
	client *mongo.Client
}

// NewMongo creates the document-store adapter. The connection is opened by
// Connect, not here.
func NewMongo(name string, cfg config.SystemConfig, opts ...Option) *Mongo {
	set := defaultSettings()
	for _, opt := range opts {
		opt(&set)
	}
	return &Mongo{name: name, cfg: cfg, set: set}
}

func (m *Mongo) Name() string           { return m.name }
func (m *Mongo) SystemType() SystemType { return TypeDocument }

// Connect opens the client and verifies reachability with a ping.
func (m *Mongo) Connect(ctx context.Context) error {
	opts := mongoopts.Client().ApplyURI(m.cfg.URI).SetConnectTimeout(m.set.timeout)
	if m.cfg.Username != "" {
		opts.SetAuth(mongoopts.Credential{Username: m.cfg.Username, Password: m.cfg.Password})
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", ErrConnection, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.set.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("%w: ping: %w", ErrConnection, err)
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()
	return nil
}

// Disconnect closes the client. Safe to call when not connected.
func (m *Mongo) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	if err != nil {
		return fmt.Errorf("%w: disconnect: %w", ErrConnection, err)
	}
	return nil
}

func (m *Mongo) collection(name string) (*mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, ErrNotConnected
	}
	return m.client.Database(m.cfg.Database).Collection(name), nil
}

type employeeDoc struct {
	EmployeeID string `bson:"employee_id"`
	Name       string `bson:"name"`
	Role       string `bson:"role"`
	Department string `bson:"department"`
}

// EmployeeData returns directory records, optionally filtered by ids.
func (m *Mongo) EmployeeData(ctx context.Context, ids []string) ([]model.EmployeeRecord, error) {
	coll, err := m.collection(collEmployees)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if len(ids) > 0 {
		filter["employee_id"] = bson.M{"$in": ids}
	}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrQuery, err)
	}
	var docs []employeeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode employees: %w", ErrQuery, err)
	}
	out := make([]model.EmployeeRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.EmployeeRecord{
			EmployeeID:   d.EmployeeID,
			Name:         d.Name,
			Role:         d.Role,
			Department:   d.Department,
			SourceSystem: m.name,
		})
	}
	return out, nil
}

type activityDoc struct {
	EmployeeID        string            `bson:"employee_id"`
	Role              string            `bson:"role"`
	Department        string            `bson:"department"`
	TaskType          string            `bson:"task_type"`
	ComplexityLevel   int               `bson:"complexity_level"`
	SkillsRequired    []string          `bson:"skills_required"`
	TimeSpentHours    float64           `bson:"time_spent_hours"`
	CompletionQuality float64           `bson:"completion_quality"`
	BusinessImpact    string            `bson:"business_impact"`
	Timestamp         time.Time         `bson:"timestamp"`
	Metadata          map[string]string `bson:"metadata,omitempty"`
}

// TaskActivities returns activities with timestamps in [from, to].
func (m *Mongo) TaskActivities(ctx context.Context, from, to time.Time) ([]model.TaskActivity, error) {
	coll, err := m.collection(collActivities)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: activities: %w", ErrQuery, err)
	}
	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode activities: %w", ErrQuery, err)
	}
	out := make([]model.TaskActivity, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.TaskActivity{
			EmployeeID:        d.EmployeeID,
			Role:              d.Role,
			Department:        d.Department,
			TaskType:          d.TaskType,
			ComplexityLevel:   d.ComplexityLevel,
			SkillsRequired:    d.SkillsRequired,
			TimeSpentHours:    d.TimeSpentHours,
			CompletionQuality: d.CompletionQuality,
			BusinessImpact:    model.BusinessImpact(d.BusinessImpact),
			Timestamp:         d.Timestamp,
			SourceSystem:      m.name,
			Metadata:          d.Metadata,
		})
	}
	return out, nil
}

type performanceDoc struct {
	EmployeeID           string             `bson:"employee_id"`
	Role                 string             `bson:"role"`
	Department           string             `bson:"department"`
	KPIScores            map[string]float64 `bson:"kpi_scores"`
	ProductivityMetrics  map[string]float64 `bson:"productivity_metrics"`
	QualityMetrics       map[string]float64 `bson:"quality_metrics"`
	CollaborationScore   float64            `bson:"collaboration_score"`
	InnovationScore      float64            `bson:"innovation_score"`
	TechnicalProficiency map[string]float64 `bson:"technical_proficiency"`
	LeadershipIndicators map[string]float64 `bson:"leadership_indicators"`
	PeriodStart          time.Time          `bson:"period_start"`
	PeriodEnd            time.Time          `bson:"period_end"`
}

// PerformanceMetrics returns performance documents, optionally filtered by
// ids.
func (m *Mongo) PerformanceMetrics(ctx context.Context, ids []string) ([]model.PerformanceMetrics, error) {
	coll, err := m.collection(collPerformance)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if len(ids) > 0 {
		filter["employee_id"] = bson.M{"$in": ids}
	}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: performance: %w", ErrQuery, err)
	}
	var docs []performanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode performance: %w", ErrQuery, err)
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
			SourceSystem:         m.name,
		})
	}
	return out, nil
}

// HealthCheck pings the primary with a bounded timeout.
func (m *Mongo) HealthCheck(ctx context.Context) model.HealthStatus {
	status := model.HealthStatus{
		SystemType: string(TypeDocument),
		Endpoint:   m.cfg.Database,
		Timestamp:  time.Now(),
	}
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		status.Error = ErrNotConnected.Error()
		return status
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.set.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

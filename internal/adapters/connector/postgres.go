package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/model"
)

// Postgres adapts a relational HR store (HRIS) to the connector contract.
// Expected schema: employees, task_activities and performance_metrics
// tables keyed by employee_id.
type Postgres struct {
	name string
	cfg  config.SystemConfig
	set  settings

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewPostgres creates the relational adapter. The connection is opened by
// Connect, not here.
func NewPostgres(name string, cfg config.SystemConfig, opts ...Option) *Postgres {
	set := defaultSettings()
	for _, opt := range opts {
		opt(&set)
	}
	return &Postgres{name: name, cfg: cfg, set: set}
}

func (p *Postgres) Name() string           { return p.name }
func (p *Postgres) SystemType() SystemType { return TypeHRIS }

// Connect parses the DSN, opens the pool and verifies reachability.
func (p *Postgres) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(p.cfg.DSN)
	if err != nil {
		return fmt.Errorf("%w: parse dsn: %w", ErrConnection, err)
	}
	poolCfg.MaxConns = p.set.poolMaxConns
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("%w: open pool: %w", ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: ping: %w", ErrConnection, err)
	}

	p.mu.Lock()
	p.pool = pool
	p.mu.Unlock()
	return nil
}

// Disconnect closes the pool. Safe to call when not connected.
func (p *Postgres) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *Postgres) getPool() (*pgxpool.Pool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pool == nil {
		return nil, ErrNotConnected
	}
	return p.pool, nil
}

const employeeQuery = `
SELECT employee_id, name, role, department
FROM employees
WHERE cardinality($1::text[]) = 0 OR employee_id = ANY($1)`

// EmployeeData returns directory records, optionally filtered by ids.
func (p *Postgres) EmployeeData(ctx context.Context, ids []string) ([]model.EmployeeRecord, error) {
	pool, err := p.getPool()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	rows, err := pool.Query(ctx, employeeQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.EmployeeRecord
	for rows.Next() {
		rec := model.EmployeeRecord{SourceSystem: p.name}
		if err := rows.Scan(&rec.EmployeeID, &rec.Name, &rec.Role, &rec.Department); err != nil {
			return nil, fmt.Errorf("%w: scan employee: %w", ErrQuery, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrQuery, err)
	}
	return out, nil
}

const activityQuery = `
SELECT employee_id, role, department, task_type, complexity_level,
       skills_required, time_spent_hours, completion_quality,
       business_impact, completed_at, metadata
FROM task_activities
WHERE completed_at >= $1 AND completed_at <= $2
ORDER BY completed_at`

// TaskActivities returns activities completed in [from, to].
func (p *Postgres) TaskActivities(ctx context.Context, from, to time.Time) ([]model.TaskActivity, error) {
	pool, err := p.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, activityQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: activities: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.TaskActivity
	for rows.Next() {
		var (
			act      model.TaskActivity
			impact   string
			metadata []byte
		)
		if err := rows.Scan(&act.EmployeeID, &act.Role, &act.Department, &act.TaskType,
			&act.ComplexityLevel, &act.SkillsRequired, &act.TimeSpentHours,
			&act.CompletionQuality, &impact, &act.Timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("%w: scan activity: %w", ErrQuery, err)
		}
		act.BusinessImpact = model.BusinessImpact(impact)
		act.SourceSystem = p.name
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &act.Metadata); err != nil {
				return nil, fmt.Errorf("%w: decode metadata: %w", ErrQuery, err)
			}
		}
		out = append(out, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: activities: %w", ErrQuery, err)
	}
	return out, nil
}

const performanceQuery = `
SELECT employee_id, role, department, kpi_scores, productivity_metrics,
       quality_metrics, collaboration_score, innovation_score,
       technical_proficiency, leadership_indicators, period_start, period_end
FROM performance_metrics
WHERE cardinality($1::text[]) = 0 OR employee_id = ANY($1)
ORDER BY period_end`

// PerformanceMetrics returns the stored performance records, optionally
// filtered by ids.
func (p *Postgres) PerformanceMetrics(ctx context.Context, ids []string) ([]model.PerformanceMetrics, error) {
	pool, err := p.getPool()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	rows, err := pool.Query(ctx, performanceQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: performance: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.PerformanceMetrics
	for rows.Next() {
		var (
			pm                             model.PerformanceMetrics
			kpi, prod, quality, tech, lead []byte
		)
		if err := rows.Scan(&pm.EmployeeID, &pm.Role, &pm.Department, &kpi, &prod,
			&quality, &pm.CollaborationScore, &pm.InnovationScore, &tech, &lead,
			&pm.PeriodStart, &pm.PeriodEnd); err != nil {
			return nil, fmt.Errorf("%w: scan performance: %w", ErrQuery, err)
		}
		for _, pair := range []struct {
			raw []byte
			dst *map[string]float64
		}{
			{kpi, &pm.KPIScores},
			{prod, &pm.ProductivityMetrics},
			{quality, &pm.QualityMetrics},
			{tech, &pm.TechnicalProficiency},
			{lead, &pm.LeadershipIndicators},
		} {
			if len(pair.raw) == 0 {
				continue
			}
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, fmt.Errorf("%w: decode metric map: %w", ErrQuery, err)
			}
		}
		pm.SourceSystem = p.name
		out = append(out, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: performance: %w", ErrQuery, err)
	}
	return out, nil
}

// HealthCheck pings the pool with a bounded timeout.
func (p *Postgres) HealthCheck(ctx context.Context) model.HealthStatus {
	status := model.HealthStatus{
		SystemType: string(TypeHRIS),
		Endpoint:   redactDSN(p.cfg.DSN),
		Timestamp:  time.Now(),
	}
	pool, err := p.getPool()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	pingCtx, cancel := context.WithTimeout(ctx, p.set.timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

// redactDSN keeps health output free of credentials.
func redactDSN(dsn string) string {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return "invalid-dsn"
	}
	return fmt.Sprintf("%s:%d/%s", cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database)
}

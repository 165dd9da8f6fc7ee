package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sensei-hq/sensei/internal/adapters/cache"
	"github.com/sensei-hq/sensei/internal/adapters/connector"
	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/pkg/logger"
	"github.com/sensei-hq/sensei/pkg/metrics"
)

// batchLoop recomputes the whole organization every batch interval.
func (m *Manager) batchLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runBatchCycle(ctx)
		}
	}
}

// runBatchCycle pulls the last batch window from every connected
// connector, merges per employee, scores, caches and dispatches. A failure
// on one connector is logged and skipped; it never aborts the cycle for
// the others.
func (m *Manager) runBatchCycle(ctx context.Context) {
	start := m.now()
	runID := uuid.NewString()
	from := start.Add(-m.cfg.BatchInterval)

	activities := make(map[string][]model.TaskActivity)
	performance := make(map[string]*model.PerformanceMetrics)

	for _, conn := range m.connectedConnectors() {
		pullStart := time.Now()
		acts, err := conn.TaskActivities(ctx, from, start)
		metrics.RecordPullLatency(conn.Name(), "activities", time.Since(pullStart).Seconds())
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "activities")
			m.log.Warn(ctx, "activity pull failed, skipping connector for this cycle",
				logger.String("run_id", runID),
				logger.String("connector", conn.Name()),
				logger.Error(err))
		} else {
			for _, a := range acts {
				activities[a.EmployeeID] = append(activities[a.EmployeeID], a)
			}
		}

		pullStart = time.Now()
		perfs, err := conn.PerformanceMetrics(ctx, nil)
		metrics.RecordPullLatency(conn.Name(), "performance", time.Since(pullStart).Seconds())
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "performance")
			m.log.Warn(ctx, "performance pull failed, skipping connector for this cycle",
				logger.String("run_id", runID),
				logger.String("connector", conn.Name()),
				logger.Error(err))
			continue
		}
		for i := range perfs {
			// Last one read wins across systems.
			performance[perfs[i].EmployeeID] = &perfs[i]
		}
	}

	result := make(model.AnalysisResult, len(activities))
	for employeeID, acts := range activities {
		suggestions := m.score(ctx, employeeID, acts, performance[employeeID])
		if suggestions == nil {
			continue
		}
		result[employeeID] = suggestions
	}

	m.dispatch(ctx, model.Event{
		ID:        runID,
		Type:      model.EventBatchAnalysis,
		Timestamp: m.now(),
		Analysis:  result,
	})

	elapsed := time.Since(start)
	metrics.RecordBatchCycle()
	metrics.RecordBatchCycleDuration(elapsed.Seconds())
	m.log.Info(ctx, "batch cycle complete",
		logger.String("run_id", runID),
		logger.Int("employees", len(result)),
		logger.Duration("elapsed", elapsed))
}

// score runs the engine for one employee, records metrics and caches the
// result. Returns nil when the employee had no scoreable data.
func (m *Manager) score(ctx context.Context, employeeID string, acts []model.TaskActivity, perf *model.PerformanceMetrics) []model.SFIALevelSuggestion {
	start := time.Now()
	suggestions, err := m.engine.Suggest(ctx, acts, perf)
	metrics.RecordScoringLatency(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordScoringError()
		m.log.Warn(ctx, "scoring failed",
			logger.String("employee_id", employeeID), logger.Error(err))
		return nil
	}
	if len(suggestions) == 0 {
		metrics.RecordInsufficientData()
		m.log.Debug(ctx, "insufficient data for employee",
			logger.String("employee_id", employeeID))
		return nil
	}
	metrics.RecordSuggestions(len(suggestions))

	// Best-effort cache write; a failure is logged and otherwise ignored.
	if err := m.store.Put(ctx, cache.SuggestionKey(employeeID), suggestions, m.cfg.CacheTTL); err != nil {
		metrics.RecordCacheError()
		m.log.Warn(ctx, "suggestion cache write failed",
			logger.String("employee_id", employeeID), logger.Error(err))
	}
	return suggestions
}

// healthLoop checks every connector on the health interval.
func (m *Manager) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runHealthCheck(ctx)
		}
	}
}

// runHealthCheck probes every registered connector, logs unhealthy ones
// and dispatches a health event.
func (m *Manager) runHealthCheck(ctx context.Context) {
	report := make(model.HealthReport)
	for _, conn := range m.allConnectors() {
		status := conn.HealthCheck(ctx)
		report[conn.Name()] = status
		metrics.UpdateConnectorHealth(conn.Name(), status.Healthy)
		if !status.Healthy {
			m.log.Warn(ctx, "connector unhealthy",
				logger.String("connector", conn.Name()),
				logger.String("system_type", status.SystemType),
				logger.String("reason", status.Error))
		}
	}
	m.dispatch(ctx, model.Event{
		ID:        uuid.NewString(),
		Type:      model.EventHealthCheck,
		Timestamp: m.now(),
		Health:    report,
	})
}

// startRealTimeConsumers launches one subscriber goroutine per connected
// streaming-capable connector.
func (m *Manager) startRealTimeConsumers(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.connectorNames() {
		mc := m.connectors[name]
		if mc.state != stateConnected {
			continue
		}
		if sc, ok := mc.conn.(connector.StreamingConnector); ok {
			m.startConsumer(ctx, name, sc)
		}
	}
}

// startConsumer runs ConsumeRealTime on a dedicated goroutine; the call
// occupies it until ctx is canceled.
func (m *Manager) startConsumer(ctx context.Context, name string, sc connector.StreamingConnector) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.log.Info(ctx, "real-time consumer starting", logger.String("connector", name))
		err := sc.ConsumeRealTime(ctx, nil, m.handleRealTimeRecord)
		if err != nil && ctx.Err() == nil {
			m.log.Error(ctx, "real-time consumer stopped",
				logger.String("connector", name), logger.Error(err))
		}
	}()
}

// handleRealTimeRecord re-analyzes a single employee when a record arrives.
// This path never blocks the batch loop.
func (m *Manager) handleRealTimeRecord(ctx context.Context, rec connector.Record, topic string) {
	metrics.RecordRealtimeEvent()
	employeeID := rec.EmployeeID
	if employeeID == "" && rec.Activity != nil {
		employeeID = rec.Activity.EmployeeID
	}
	if employeeID == "" {
		m.log.Warn(ctx, "real-time record without employee id",
			logger.String("topic", topic))
		return
	}

	acts, perf := m.collectEmployee(ctx, employeeID)
	if rec.Activity != nil {
		acts = append(acts, *rec.Activity)
	}
	if rec.Performance != nil {
		perf = rec.Performance
	}

	suggestions := m.score(ctx, employeeID, acts, perf)
	if suggestions == nil {
		return
	}
	m.dispatch(ctx, model.Event{
		ID:        uuid.NewString(),
		Type:      model.EventRealTimeAnalysis,
		Timestamp: m.now(),
		Analysis:  model.AnalysisResult{employeeID: suggestions},
	})
}

// collectEmployee pulls a rolling activity window for one employee from
// all connected connectors, and performance from the first connector that
// has a record. Query failures are logged and skipped.
func (m *Manager) collectEmployee(ctx context.Context, employeeID string) ([]model.TaskActivity, *model.PerformanceMetrics) {
	to := m.now()
	from := to.Add(-m.analysisWindow)

	var activities []model.TaskActivity
	var perf *model.PerformanceMetrics

	for _, conn := range m.connectedConnectors() {
		acts, err := conn.TaskActivities(ctx, from, to)
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "activities")
			m.log.Warn(ctx, "activity pull failed",
				logger.String("connector", conn.Name()), logger.Error(err))
		} else {
			for _, a := range acts {
				if a.EmployeeID == employeeID {
					activities = append(activities, a)
				}
			}
		}

		if perf != nil {
			continue
		}
		perfs, err := conn.PerformanceMetrics(ctx, []string{employeeID})
		if err != nil {
			metrics.RecordQueryError(conn.Name(), "performance")
			m.log.Warn(ctx, "performance pull failed",
				logger.String("connector", conn.Name()), logger.Error(err))
			continue
		}
		for i := range perfs {
			if perfs[i].EmployeeID == employeeID {
				perf = &perfs[i]
				break
			}
		}
	}
	return activities, perf
}

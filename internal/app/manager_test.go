package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sensei-hq/sensei/internal/adapters/connector"
	"github.com/sensei-hq/sensei/internal/config"
	"github.com/sensei-hq/sensei/internal/domain/model"
	"github.com/sensei-hq/sensei/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// mockConnector is a scripted adapter for exercising the manager without
// external systems.
type mockConnector struct {
	mu sync.Mutex

	name       string
	sysType    connector.SystemType
	connectErr error

	employees  []model.EmployeeRecord
	activities []model.TaskActivity
	perf       []model.PerformanceMetrics

	activitiesErr error
	perfErr       error

	connectCalls    int
	disconnectCalls int
	connected       bool
}

func (c *mockConnector) Name() string                   { return c.name }
func (c *mockConnector) SystemType() connector.SystemType { return c.sysType }

func (c *mockConnector) Connect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectCalls++
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *mockConnector) Disconnect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCalls++
	c.connected = false
	return nil
}

func (c *mockConnector) EmployeeData(_ context.Context, _ []string) ([]model.EmployeeRecord, error) {
	return c.employees, nil
}

func (c *mockConnector) TaskActivities(_ context.Context, _, _ time.Time) ([]model.TaskActivity, error) {
	if c.activitiesErr != nil {
		return nil, c.activitiesErr
	}
	return c.activities, nil
}

func (c *mockConnector) PerformanceMetrics(_ context.Context, _ []string) ([]model.PerformanceMetrics, error) {
	if c.perfErr != nil {
		return nil, c.perfErr
	}
	return c.perf, nil
}

func (c *mockConnector) HealthCheck(_ context.Context) model.HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.HealthStatus{
		Healthy:    c.connected,
		SystemType: string(c.sysType),
		Endpoint:   "mock",
		Timestamp:  time.Now(),
	}
}

func richActivities(employeeID string, n int) []model.TaskActivity {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	acts := make([]model.TaskActivity, 0, n)
	for i := 0; i < n; i++ {
		acts = append(acts, model.TaskActivity{
			EmployeeID:        employeeID,
			Role:              "engineer",
			Department:        "platform",
			TaskType:          "independent development",
			ComplexityLevel:   7,
			SkillsRequired:    []string{"PROG"},
			TimeSpentHours:    6,
			CompletionQuality: 0.85,
			BusinessImpact:    model.ImpactHigh,
			Timestamp:         base.Add(time.Duration(i) * time.Hour),
			SourceSystem:      "mock",
		})
	}
	return acts
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.BatchInterval = time.Hour
	cfg.HealthInterval = time.Hour
	cfg.RealTimeEnabled = false
	cfg.RetryAttempts = 0
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

// register wires a mock connector straight into the manager, bypassing the
// factory.
func register(m *Manager, mc *mockConnector, state connState) {
	m.mu.Lock()
	m.connectors[mc.name] = &managedConnector{conn: mc, state: state}
	m.mu.Unlock()
}

func TestBatchCycleIsolation(t *testing.T) {
	Convey("Given one healthy and one failing connector", t, func() {
		cfg := testConfig()
		m, err := New(cfg)
		So(err, ShouldBeNil)

		good := &mockConnector{
			name:       "good",
			sysType:    connector.TypeHRIS,
			activities: richActivities("emp-1", 12),
		}
		bad := &mockConnector{
			name:          "bad",
			sysType:       connector.TypeERP,
			activitiesErr: errors.New("backend down"),
			perfErr:       errors.New("backend down"),
		}
		register(m, good, stateConnected)
		register(m, bad, stateConnected)

		var events []model.Event
		m.RegisterCallback(func(_ context.Context, ev model.Event) {
			events = append(events, ev)
		})

		Convey("When a batch cycle runs", func() {
			m.runBatchCycle(context.Background())

			Convey("Then the healthy connector's employees are still analyzed", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Type, ShouldEqual, model.EventBatchAnalysis)
				So(events[0].Analysis, ShouldContainKey, "emp-1")
				suggestions := events[0].Analysis["emp-1"]
				So(suggestions, ShouldNotBeEmpty)
				So(suggestions[0].SkillCode, ShouldEqual, "PROG")
				So(suggestions[0].SuggestedLevel, ShouldBeBetweenOrEqual, 1, 7)
			})
		})
	})
}

func TestStartWithUnreachableConnector(t *testing.T) {
	Convey("Given two configured systems, one unreachable", t, func() {
		cfg := testConfig()
		cfg.Systems = map[string]config.SystemConfig{
			"events": {Type: "bus", Topics: []string{"hr.activity"}},
			"erp":    {Type: "erp", Endpoint: "http://127.0.0.1:1"},
		}

		m, err := New(cfg)
		So(err, ShouldBeNil)

		Convey("When the manager starts", func() {
			err := m.Start(context.Background())
			Reset(m.Stop)

			Convey("Then startup succeeds with the failure reflected in state", func() {
				So(err, ShouldBeNil)
				states := m.ConnectorStates()
				So(states["events"], ShouldEqual, "connected")
				So(states["erp"], ShouldEqual, "failed")
			})

			Convey("Then a second start is rejected", func() {
				So(err, ShouldBeNil)
				So(m.Start(context.Background()), ShouldEqual, ErrAlreadyStarted)
			})

			Convey("Then a health check reports the failed connector as unhealthy", func() {
				So(err, ShouldBeNil)
				var report model.HealthReport
				m.RegisterCallback(func(_ context.Context, ev model.Event) {
					if ev.Type == model.EventHealthCheck {
						report = ev.Health
					}
				})
				m.runHealthCheck(context.Background())

				So(report, ShouldContainKey, "events")
				So(report["events"].Healthy, ShouldBeTrue)
				So(report, ShouldContainKey, "erp")
				So(report["erp"].Healthy, ShouldBeFalse)
				So(report["erp"].Error, ShouldNotBeEmpty)
			})
		})
	})
}

func TestDispatchOrdering(t *testing.T) {
	Convey("Given three subscribers", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)

		var order []string
		first := m.RegisterCallback(func(context.Context, model.Event) { order = append(order, "first") })
		second := m.RegisterCallback(func(context.Context, model.Event) { order = append(order, "second") })
		third := m.RegisterCallback(func(context.Context, model.Event) { order = append(order, "third") })
		So(first, ShouldBeLessThan, second)
		So(second, ShouldBeLessThan, third)

		Convey("When an event is dispatched", func() {
			m.dispatch(context.Background(), model.Event{ID: "ev-1", Type: model.EventHealthCheck})

			Convey("Then delivery follows subscription order", func() {
				So(order, ShouldResemble, []string{"first", "second", "third"})
			})
		})

		Convey("When the middle subscriber unregisters", func() {
			m.UnregisterCallback(second)
			m.dispatch(context.Background(), model.Event{ID: "ev-2", Type: model.EventHealthCheck})

			Convey("Then only the remaining subscribers receive the event", func() {
				So(order, ShouldResemble, []string{"first", "third"})
			})
		})

		Convey("When an unknown id is unregistered", func() {
			So(func() { m.UnregisterCallback(9999) }, ShouldNotPanic)
		})
	})
}

func TestAnalyzeEmployee(t *testing.T) {
	Convey("Given a manager with one connected connector", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)

		mc := &mockConnector{
			name:       "hr",
			sysType:    connector.TypeHRIS,
			activities: richActivities("emp-1", 20),
			perf: []model.PerformanceMetrics{{
				EmployeeID:         "emp-1",
				KPIScores:          map[string]float64{"delivery": 0.85},
				CollaborationScore: 0.8,
			}},
		}
		register(m, mc, stateConnected)

		Convey("When analyzing an employee with data", func() {
			suggestions, err := m.AnalyzeEmployee(context.Background(), "emp-1")

			Convey("Then suggestions come back and get cached", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldNotBeEmpty)
				So(suggestions[0].EmployeeID, ShouldEqual, "emp-1")

				again, err := m.AnalyzeEmployee(context.Background(), "emp-1")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, suggestions)
			})
		})

		Convey("When analyzing an employee nobody has data for", func() {
			suggestions, err := m.AnalyzeEmployee(context.Background(), "ghost")

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(suggestions, ShouldNotBeNil)
				So(suggestions, ShouldBeEmpty)
			})
		})
	})
}

func TestAnalyzeDepartment(t *testing.T) {
	Convey("Given connectors whose directories overlap", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)

		hr := &mockConnector{
			name:    "hr",
			sysType: connector.TypeHRIS,
			employees: []model.EmployeeRecord{
				{EmployeeID: "emp-1", Department: "Platform"},
				{EmployeeID: "emp-2", Department: "platform"},
				{EmployeeID: "emp-3", Department: "finance"},
			},
			activities: richActivities("emp-1", 10),
		}
		erp := &mockConnector{
			name:    "erp",
			sysType: connector.TypeERP,
			employees: []model.EmployeeRecord{
				{EmployeeID: "emp-1", Department: "PLATFORM"},
			},
		}
		register(m, hr, stateConnected)
		register(m, erp, stateConnected)

		Convey("When a department is analyzed", func() {
			result, err := m.AnalyzeDepartment(context.Background(), "platform")

			Convey("Then matching is case-insensitive and members deduplicated", func() {
				So(err, ShouldBeNil)
				So(result, ShouldContainKey, "emp-1")
				// emp-2 has no activities, emp-3 is another department.
				So(result, ShouldNotContainKey, "emp-2")
				So(result, ShouldNotContainKey, "emp-3")
			})
		})
	})
}

func TestOrganizationInsights(t *testing.T) {
	Convey("Given a directory with mixed data coverage", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)

		mc := &mockConnector{
			name:    "hr",
			sysType: connector.TypeHRIS,
			employees: []model.EmployeeRecord{
				{EmployeeID: "emp-1", Department: "platform"},
				{EmployeeID: "emp-2", Department: "finance"},
			},
			activities: richActivities("emp-1", 15),
		}
		register(m, mc, stateConnected)

		Convey("When insights are computed", func() {
			insights, err := m.GetOrganizationInsights(context.Background())

			Convey("Then only employees with data count toward distributions", func() {
				So(err, ShouldBeNil)
				So(insights.EmployeesAnalyzed, ShouldEqual, 1)
				So(insights.DepartmentDistribution["platform"], ShouldEqual, 1)
				So(insights.SkillDistribution["PROG"], ShouldEqual, 1)
				total := 0
				for _, n := range insights.LevelDistribution {
					total += n
				}
				So(total, ShouldEqual, 1)
			})
		})
	})
}

// stubEngine returns a fixed suggestion per activity batch, for pinning
// aggregation behavior independent of the scoring heuristics.
type stubEngine struct {
	level      int
	confidence float64
	areas      []string
}

func (e *stubEngine) Suggest(_ context.Context, activities []model.TaskActivity, _ *model.PerformanceMetrics) ([]model.SFIALevelSuggestion, error) {
	if len(activities) == 0 {
		return nil, nil
	}
	return []model.SFIALevelSuggestion{{
		EmployeeID:       activities[0].EmployeeID,
		SkillCode:        "PROG",
		SuggestedLevel:   e.level,
		ConfidenceScore:  e.confidence,
		ImprovementAreas: e.areas,
	}}, nil
}

func (e *stubEngine) Close() error { return nil }

func TestHighPerformerRule(t *testing.T) {
	Convey("Given suggestions at the high-performer bar", t, func() {
		newManager := func(level int, confidence float64) *Manager {
			m, err := New(testConfig(), WithEngine(&stubEngine{
				level:      level,
				confidence: confidence,
				areas:      []string{"increase influence"},
			}))
			So(err, ShouldBeNil)
			register(m, &mockConnector{
				name:       "hr",
				sysType:    connector.TypeHRIS,
				employees:  []model.EmployeeRecord{{EmployeeID: "emp-1", Department: "platform"}},
				activities: richActivities("emp-1", 5),
			}, stateConnected)
			return m
		}

		Convey("When confidence exceeds 0.9 at level 5 or higher", func() {
			insights, err := newManager(5, 0.95).GetOrganizationInsights(context.Background())

			Convey("Then the employee is flagged and areas aggregate", func() {
				So(err, ShouldBeNil)
				So(insights.HighPerformers, ShouldHaveLength, 1)
				So(insights.HighPerformers[0].EmployeeID, ShouldEqual, "emp-1")
				So(insights.TopImprovementAreas, ShouldHaveLength, 1)
				So(insights.TopImprovementAreas[0].Area, ShouldEqual, "increase influence")
			})
		})

		Convey("When confidence sits exactly at 0.9", func() {
			insights, err := newManager(6, 0.9).GetOrganizationInsights(context.Background())

			Convey("Then the bar is exclusive and nobody is flagged", func() {
				So(err, ShouldBeNil)
				So(insights.HighPerformers, ShouldBeEmpty)
			})
		})

		Convey("When the level is below 5", func() {
			insights, err := newManager(4, 0.99).GetOrganizationInsights(context.Background())

			Convey("Then high confidence alone does not qualify", func() {
				So(err, ShouldBeNil)
				So(insights.HighPerformers, ShouldBeEmpty)
			})
		})
	})
}

func TestAddSystem(t *testing.T) {
	Convey("Given a manager with one registered system", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)
		register(m, &mockConnector{name: "hr", sysType: connector.TypeHRIS}, stateConnected)

		Convey("When adding a system under an existing name", func() {
			err := m.AddSystem(context.Background(), "hr", config.SystemConfig{Type: "bus"})

			Convey("Then the duplicate is rejected", func() {
				So(errors.Is(err, ErrSystemExists), ShouldBeTrue)
			})
		})

		Convey("When adding a system with an unknown type", func() {
			err := m.AddSystem(context.Background(), "legacy", config.SystemConfig{Type: "mainframe"})

			Convey("Then the factory error surfaces", func() {
				So(errors.Is(err, connector.ErrUnsupportedSystem), ShouldBeTrue)
			})
		})

		Convey("When adding a reachable bus system", func() {
			err := m.AddSystem(context.Background(), "events", config.SystemConfig{Type: "bus"})

			Convey("Then it connects immediately", func() {
				So(err, ShouldBeNil)
				So(m.ConnectorStates()["events"], ShouldEqual, "connected")
			})
		})

		Convey("When adding an unreachable system", func() {
			err := m.AddSystem(context.Background(), "erp", config.SystemConfig{
				Type:     "erp",
				Endpoint: "http://127.0.0.1:1",
			})

			Convey("Then the connection failure surfaces", func() {
				So(errors.Is(err, connector.ErrConnection), ShouldBeTrue)
				So(m.ConnectorStates()["erp"], ShouldEqual, "failed")
			})
		})
	})
}

func TestStopLifecycle(t *testing.T) {
	Convey("Given a started manager", t, func() {
		cfg := testConfig()
		cfg.Systems = map[string]config.SystemConfig{
			"events": {Type: "bus"},
		}
		m, err := New(cfg)
		So(err, ShouldBeNil)
		So(m.Start(context.Background()), ShouldBeNil)

		mc := &mockConnector{name: "hr", sysType: connector.TypeHRIS, connected: true}
		register(m, mc, stateConnected)

		Convey("When the manager stops", func() {
			m.Stop()

			Convey("Then every connector is disconnected exactly once", func() {
				So(mc.disconnectCalls, ShouldEqual, 1)
				for _, state := range m.ConnectorStates() {
					So(state, ShouldEqual, "disconnected")
				}
			})

			Convey("Then a second stop is a no-op", func() {
				So(func() { m.Stop() }, ShouldNotPanic)
				So(mc.disconnectCalls, ShouldEqual, 1)
			})
		})
	})
}

func TestRealTimeRecordHandling(t *testing.T) {
	Convey("Given a manager with a connected data source", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)

		mc := &mockConnector{
			name:       "hr",
			sysType:    connector.TypeHRIS,
			activities: richActivities("emp-1", 8),
		}
		register(m, mc, stateConnected)

		var events []model.Event
		m.RegisterCallback(func(_ context.Context, ev model.Event) {
			events = append(events, ev)
		})

		Convey("When a real-time record arrives", func() {
			acts := richActivities("emp-1", 1)
			m.handleRealTimeRecord(context.Background(), connector.Record{
				EmployeeID: "emp-1",
				Activity:   &acts[0],
			}, "hr.activity")

			Convey("Then a real-time analysis event is dispatched for that employee", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Type, ShouldEqual, model.EventRealTimeAnalysis)
				So(events[0].Analysis, ShouldContainKey, "emp-1")
			})
		})

		Convey("When a record has no employee id at all", func() {
			m.handleRealTimeRecord(context.Background(), connector.Record{}, "hr.activity")

			Convey("Then it is dropped without dispatching", func() {
				So(events, ShouldBeEmpty)
			})
		})
	})
}

func TestModelArtifacts(t *testing.T) {
	Convey("Given a manager", t, func() {
		m, err := New(testConfig())
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When storing and retrieving an artifact", func() {
			blob := []byte(`{"weights_version":"v1"}`)
			m.StoreModelArtifact(ctx, "weights", blob)
			got, ok := m.ModelArtifact(ctx, "weights")

			Convey("Then the blob round-trips opaquely", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, blob)
			})
		})

		Convey("When retrieving an unknown artifact", func() {
			_, ok := m.ModelArtifact(ctx, "missing")

			Convey("Then it reports absence", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

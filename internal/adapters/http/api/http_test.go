package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sensei-hq/sensei/internal/adapters/http/api"
	"github.com/sensei-hq/sensei/internal/app"
	"github.com/sensei-hq/sensei/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps serves canned responses to the handlers.
type stubDeps struct {
	suggestions []model.SFIALevelSuggestion
	analysisErr error
	states      map[string]string
}

func (s *stubDeps) AnalyzeEmployee(_ context.Context, employeeID string) ([]model.SFIALevelSuggestion, error) {
	if s.analysisErr != nil {
		return nil, s.analysisErr
	}
	out := make([]model.SFIALevelSuggestion, 0, len(s.suggestions))
	for _, sg := range s.suggestions {
		if sg.EmployeeID == employeeID {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (s *stubDeps) AnalyzeDepartment(_ context.Context, _ string) (model.AnalysisResult, error) {
	if s.analysisErr != nil {
		return nil, s.analysisErr
	}
	result := make(model.AnalysisResult)
	for _, sg := range s.suggestions {
		result[sg.EmployeeID] = append(result[sg.EmployeeID], sg)
	}
	return result, nil
}

func (s *stubDeps) GetOrganizationInsights(_ context.Context) (*app.OrganizationInsights, error) {
	if s.analysisErr != nil {
		return nil, s.analysisErr
	}
	return &app.OrganizationInsights{
		GeneratedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		EmployeesAnalyzed: len(s.suggestions),
	}, nil
}

func (s *stubDeps) ConnectorStates() map[string]string { return s.states }

func serve(deps api.Dependencies, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given all connectors connected", t, func() {
		deps := &stubDeps{states: map[string]string{"hr": "connected", "erp": "connected"}}

		Convey("When health is requested", func() {
			rec := serve(deps, http.MethodGet, "/healthz")

			Convey("Then the service reports ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Status     string            `json:"status"`
					Connectors map[string]string `json:"connectors"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Status, ShouldEqual, "ok")
				So(body.Connectors, ShouldResemble, deps.states)
			})
		})
	})

	Convey("Given a failed connector", t, func() {
		deps := &stubDeps{states: map[string]string{"hr": "connected", "erp": "failed"}}

		Convey("When health is requested", func() {
			rec := serve(deps, http.MethodGet, "/healthz")

			Convey("Then the service reports degraded", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Status string `json:"status"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Status, ShouldEqual, "degraded")
			})
		})
	})
}

func TestEmployeeEndpoint(t *testing.T) {
	Convey("Given stored suggestions for an employee", t, func() {
		deps := &stubDeps{
			suggestions: []model.SFIALevelSuggestion{{
				EmployeeID:     "emp-1",
				SkillCode:      "PROG",
				SuggestedLevel: 4,
			}},
			states: map[string]string{},
		}

		Convey("When the employee's suggestions are requested", func() {
			rec := serve(deps, http.MethodGet, "/employees/emp-1/suggestions")

			Convey("Then they are returned as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "application/json")
				var body []model.SFIALevelSuggestion
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldHaveLength, 1)
				So(body[0].SkillCode, ShouldEqual, "PROG")
				So(body[0].SuggestedLevel, ShouldEqual, 4)
			})
		})

		Convey("When an unknown employee is requested", func() {
			rec := serve(deps, http.MethodGet, "/employees/ghost/suggestions")

			Convey("Then an empty list comes back, not an error", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body []model.SFIALevelSuggestion
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldBeEmpty)
			})
		})

		Convey("When the analysis fails", func() {
			deps.analysisErr = errors.New("engine unavailable")
			rec := serve(deps, http.MethodGet, "/employees/emp-1/suggestions")

			Convey("Then a structured error is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				var body struct {
					Error string `json:"error"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Error, ShouldEqual, "engine unavailable")
			})
		})
	})
}

func TestDepartmentEndpoint(t *testing.T) {
	Convey("Given suggestions across a department", t, func() {
		deps := &stubDeps{
			suggestions: []model.SFIALevelSuggestion{
				{EmployeeID: "emp-1", SkillCode: "PROG", SuggestedLevel: 4},
				{EmployeeID: "emp-2", SkillCode: "TEST", SuggestedLevel: 3},
			},
			states: map[string]string{},
		}

		Convey("When the department's suggestions are requested", func() {
			rec := serve(deps, http.MethodGet, "/departments/platform/suggestions")

			Convey("Then the per-employee map is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string][]model.SFIALevelSuggestion
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldContainKey, "emp-1")
				So(body, ShouldContainKey, "emp-2")
			})
		})
	})
}

func TestInsightsEndpoint(t *testing.T) {
	Convey("Given an analyzable organization", t, func() {
		deps := &stubDeps{
			suggestions: []model.SFIALevelSuggestion{
				{EmployeeID: "emp-1", SkillCode: "PROG", SuggestedLevel: 5},
			},
			states: map[string]string{},
		}

		Convey("When insights are requested", func() {
			rec := serve(deps, http.MethodGet, "/insights")

			Convey("Then the aggregate is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body app.OrganizationInsights
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.EmployeesAnalyzed, ShouldEqual, 1)
			})
		})

		Convey("When the aggregation fails", func() {
			deps.analysisErr = errors.New("directory unavailable")
			rec := serve(deps, http.MethodGet, "/insights")

			Convey("Then the failure maps to a server error", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestMetricsEndpoint(t *testing.T) {
	Convey("Given the registered routes", t, func() {
		deps := &stubDeps{states: map[string]string{}}

		Convey("When the metrics endpoint is scraped", func() {
			rec := serve(deps, http.MethodGet, "/metrics")

			Convey("Then the engine's metric families are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "sensei_engine_")
			})
		})
	})
}

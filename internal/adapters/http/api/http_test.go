package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/http/api"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	service "github.com/okian/brokerflow/internal/app"
	"github.com/okian/brokerflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

type stubGenerator struct{ text string }

func (g stubGenerator) Generate(context.Context, string, string) (string, error) {
	return g.text, nil
}

func newRouter(opts ...service.Option) (http.Handler, *service.Service) {
	base := []service.Option{
		service.WithKV(kvstore.NewMemory()),
		service.WithGenerator(stubGenerator{text: "not json"}),
		service.WithClock(func() time.Time { return fixedNow }),
	}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return api.NewServer(svc).Router(), svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(v), ShouldBeNil)
}

func TestServer_Ops(t *testing.T) {
	Convey("Given the API router", t, func() {
		h, svc := newRouter()
		defer svc.Stop(context.Background())

		Convey("Then /healthz should expose Prometheus metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats should report the service", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			decode(w, &stats)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Then CORS preflight requests should be answered", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/policies", http.NoBody)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldNotBeEmpty)
		})
	})
}

func TestServer_Policies(t *testing.T) {
	Convey("Given the API router over the seed policies", t, func() {
		h, svc := newRouter()
		defer svc.Stop(context.Background())

		Convey("When listing policies", func() {
			w := do(h, http.MethodGet, "/api/policies?limit=3", "")

			Convey("Then the ranked view should be cut to the limit", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Items []model.ScoredPolicy `json:"items"`
					Total int                  `json:"total"`
				}
				decode(w, &body)
				So(body.Total, ShouldEqual, 3)
				So(body.Items[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When the limit is not a number", func() {
			w := do(h, http.MethodGet, "/api/policies?limit=many", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When creating a valid policy", func() {
			w := do(h, http.MethodPost, "/api/policies",
				`{"client":"TestCo","premium":50000,"expiryDate":"2025-04-11","claims":1}`)

			Convey("Then it should be created in Detected", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/api/policies/POL-006")
				var p model.Policy
				decode(w, &p)
				So(p.Status, ShouldEqual, model.StatusDetected)
			})

			Convey("And it should score 41.6", func() {
				w := do(h, http.MethodGet, "/api/policies/POL-006", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var p model.ScoredPolicy
				decode(w, &p)
				So(p.PriorityScore, ShouldEqual, 41.6)
			})
		})

		Convey("When the premium is missing", func() {
			w := do(h, http.MethodPost, "/api/policies", `{"client":"TestCo","expiryDate":"2025-04-11"}`)

			Convey("Then the schema should reject it", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "premium")
				So(svc.Ranked(context.Background(), 0), ShouldHaveLength, 5)
			})
		})

		Convey("When the expiry date is impossible", func() {
			w := do(h, http.MethodPost, "/api/policies", `{"client":"TestCo","premium":1,"expiryDate":"2025-02-30"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/api/policies", `{"client":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown policy is read", func() {
			w := do(h, http.MethodGet, "/api/policies/POL-404", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When explaining a score", func() {
			w := do(h, http.MethodGet, "/api/policies/POL-001/score", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "normalizedPremium")
		})

		Convey("When replacing and deleting a policy", func() {
			w := do(h, http.MethodPut, "/api/policies/POL-002",
				`{"client":"Globex Inc","premium":13000,"expiryDate":"2025-04-20","claims":2,"status":"Sent"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var p model.Policy
			decode(w, &p)
			So(p.Premium, ShouldEqual, 13000)
			So(p.Status, ShouldEqual, model.StatusAnalyzed)

			So(do(h, http.MethodDelete, "/api/policies/POL-002", "").Code, ShouldEqual, http.StatusNoContent)
			So(do(h, http.MethodDelete, "/api/policies/POL-002", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Status(t *testing.T) {
	Convey("Given the API router over the seed policies", t, func() {
		h, svc := newRouter()
		defer svc.Stop(context.Background())

		Convey("When sending a drafted policy", func() {
			w := do(h, http.MethodPut, "/api/policies/POL-003/status", `{"status":"Sent"}`)

			Convey("Then it should change and credit two coins", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"changed":true`)
				So(do(h, http.MethodGet, "/api/rewards", "").Body.String(), ShouldContainSubstring, `"coins":2`)
			})

			Convey("And repeating it should be a no-op", func() {
				w := do(h, http.MethodPut, "/api/policies/POL-003/status", `{"status":"Sent"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"changed":false`)
				So(svc.Rewards(), ShouldEqual, 2)
			})
		})

		Convey("When leaving Sent", func() {
			w := do(h, http.MethodPut, "/api/policies/POL-005/status", `{"status":"Drafted"}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the status is unknown", func() {
			w := do(h, http.MethodPut, "/api/policies/POL-001/status", `{"status":"Archived"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the policy is unknown", func() {
			w := do(h, http.MethodPut, "/api/policies/POL-404/status", `{"status":"Sent"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Brief(t *testing.T) {
	Convey("Given the API router without a credential", t, func() {
		h, svc := newRouter()
		defer svc.Stop(context.Background())

		Convey("When a brief is requested", func() {
			w := do(h, http.MethodPost, "/api/policies/POL-001/brief", "")
			So(w.Code, ShouldEqual, http.StatusPreconditionFailed)
		})

		Convey("When a credential is saved first", func() {
			w := do(h, http.MethodPut, "/api/settings/credential", `{"apiKey":"secret"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldNotContainSubstring, "secret")

			w = do(h, http.MethodPost, "/api/policies/POL-001/brief", "")

			Convey("Then the brief should be accepted and eventually complete", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, "requestId")

				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) && svc.Brief().State != "complete" {
					time.Sleep(5 * time.Millisecond)
				}
				g := do(h, http.MethodGet, "/api/brief", "")
				So(g.Code, ShouldEqual, http.StatusOK)
				So(g.Body.String(), ShouldContainSubstring, `"state":"complete"`)
				So(g.Body.String(), ShouldContainSubstring, `"fallback":true`)
			})
		})
	})
}

func TestServer_Settings(t *testing.T) {
	Convey("Given the API router", t, func() {
		h, svc := newRouter()
		defer svc.Stop(context.Background())

		Convey("When reading and writing weights", func() {
			w := do(h, http.MethodGet, "/api/weights", "")
			So(w.Body.String(), ShouldContainSubstring, `"premium":0.4`)

			w = do(h, http.MethodPut, "/api/weights", `{"premium":1,"time":1,"claims":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(svc.Weights(), ShouldResemble, model.Weights{Premium: 1, Time: 1, Claims: 1})

			w = do(h, http.MethodPut, "/api/weights", `{"premium":-1,"time":0,"claims":0}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When reading and writing preferences", func() {
			w := do(h, http.MethodGet, "/api/settings/preferences", "")
			So(w.Body.String(), ShouldContainSubstring, `"currency":"USD"`)
			So(w.Body.String(), ShouldContainSubstring, `"AEST"`)

			w = do(h, http.MethodPut, "/api/settings/preferences", `{"currency":"GBP","timezone":"CET"}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(h, http.MethodPut, "/api/settings/preferences", `{"currency":"XYZ","timezone":"CET"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When simulating a negotiation", func() {
			w := do(h, http.MethodPost, "/api/negotiation/retention",
				`{"premiumAdjustmentPercent":5,"deductibleChangePercent":0}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"retention":80`)
			So(w.Body.String(), ShouldContainSubstring, `"confidence":"High"`)

			w = do(h, http.MethodPost, "/api/negotiation/retention",
				`{"premiumAdjustmentPercent":500,"deductibleChangePercent":0}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When reading the dashboard summary and notifications", func() {
			_ = do(h, http.MethodPut, "/api/policies/POL-001/status", `{"status":"Drafted"}`)

			s := do(h, http.MethodGet, "/api/summary", "")
			So(s.Code, ShouldEqual, http.StatusOK)
			So(s.Body.String(), ShouldContainSubstring, `"totalPolicies":5`)

			n := do(h, http.MethodGet, "/api/notifications?limit=1", "")
			So(n.Code, ShouldEqual, http.StatusOK)
			So(n.Body.String(), ShouldContainSubstring, "Policy POL-001 status updated to Drafted")
		})
	})
}

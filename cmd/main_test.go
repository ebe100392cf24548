package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/config"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the default configuration over an in-memory store", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.KVBackend = kvstore.BackendMemory
		cfg.GeminiAPIKey = "from-env"

		svc := newService(cfg, kvstore.NewMemory(), logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newHandler(cfg, svc, logger.Nop())

		convey.Convey("Then the configured credential should be available", func() {
			convey.So(svc.HasCredential(), convey.ShouldBeTrue)
		})

		convey.Convey("Then the business API should be mounted", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/policies", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the API docs should be mounted", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the landing page should be mounted", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "BrokerFlow")
		})

		convey.Convey("Then metrics should be exposed", func() {
			updateServiceMetrics(ctx, svc)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "brokerflow")
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory-backed configuration on a free port", t, func() {
		cfg := config.New(context.Background())
		cfg.KVBackend = kvstore.BackendMemory
		cfg.Addr = "127.0.0.1:0"

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Nop()) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run should shut down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})
	})
}

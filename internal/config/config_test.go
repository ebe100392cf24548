package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/brokerflow/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.KVBackend, convey.ShouldEqual, "sqlite")
			convey.So(cfg.SQLitePath, convey.ShouldEqual, "./data/brokerflow.db")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.BriefQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.GeminiTimeout(), convey.ShouldEqual, 60*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the KV settings should mirror the fields", func() {
			cfg.RedisAddr = "cache:6379"
			kv := cfg.KV()
			convey.So(kv.Backend, convey.ShouldEqual, "sqlite")
			convey.So(kv.RedisAddr, convey.ShouldEqual, "cache:6379")
		})

		convey.Convey("When splitting CORS origins", func() {
			cfg.CORSOrigins = " http://a.test , ,http://b.test"
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the backend is unknown", func() {
			cfg.KVBackend = "etcd"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the worker count is zero", func() {
			cfg.WorkerCount = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When retries are negative", func() {
			cfg.GeminiMaxRetries = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}

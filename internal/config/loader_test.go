package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/sitescore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.CacheBackend, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SITESCORE_ADDR", ":8080")
			_ = os.Setenv("SITESCORE_QUEUE_SIZE", "500")
			_ = os.Setenv("SITESCORE_WORKER_COUNT", "16")
			_ = os.Setenv("SITESCORE_CACHE_BACKEND", "redis")
			_ = os.Setenv("SITESCORE_REDIS_ADDR", "cache:6379")
			_ = os.Setenv("SITESCORE_METRICS_REPO_URL", "http://metrics.internal")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.CacheBackend, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.MetricsRepoURL, convey.ShouldEqual, "http://metrics.internal")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
snapshot_db_path: /var/lib/sitescore/scores.db
category_weights:
  demographics: 30
  location: 20
  market: 15
  development: 15
  financial: 10
  risk: 10
custom_rules:
  - name: low-risk-upside
    tier: Future
    text: Prioritize for acquisition review
    when: "risk >= 80.0 && overall >= 60.0"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SITESCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep defaults elsewhere", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.SnapshotDBPath, convey.ShouldEqual, "/var/lib/sitescore/scores.db")
				convey.So(cfg.CategoryWeights, convey.ShouldHaveLength, 6)
				convey.So(cfg.CategoryWeights["demographics"], convey.ShouldEqual, 30)
				convey.So(cfg.CustomRules, convey.ShouldHaveLength, 1)
				convey.So(cfg.CustomRules[0].Tier, convey.ShouldEqual, "Future")
				convey.So(cfg.CustomRules[0].When, convey.ShouldEqual, "risk >= 80.0 && overall >= 60.0")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
queue_size: 300
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SITESCORE_CONFIG", tmpFile)
			_ = os.Setenv("SITESCORE_ADDR", ":8080")
			_ = os.Setenv("SITESCORE_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SITESCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SITESCORE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SITESCORE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown cache backend", func() {
			_ = os.Setenv("SITESCORE_CACHE_BACKEND", "memcached")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "memcached")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SITESCORE_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SITESCORE_CONFIG",
		"SITESCORE_ADDR",
		"SITESCORE_QUEUE_SIZE",
		"SITESCORE_WORKER_COUNT",
		"SITESCORE_CACHE_BACKEND",
		"SITESCORE_REDIS_ADDR",
		"SITESCORE_METRICS_REPO_URL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "sitescore-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}

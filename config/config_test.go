package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "http_server_addr: \":8080\"\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPServerAddr)
		assert.Equal(t, "http://o-complex.com:1337", cfg.Upstream.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Upstream.RequestTimeout)
		assert.Equal(t, 3, cfg.Upstream.MaxRetries)
		assert.Equal(t, time.Second, cfg.Upstream.RetryDelay)
		assert.Equal(t, 5*time.Minute, cfg.Upstream.CacheTTL)
		assert.Equal(t, 50, cfg.Upstream.CacheCapacity)
		assert.Equal(t, 6, cfg.Catalog.PageSize)
		assert.Equal(t, "order-lines", cfg.Broker.Topics.OrderLines)
		assert.False(t, cfg.Broker.Enabled())
	})

	t.Run("Full", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `
log_level: debug
http_server_addr: ":3000"
upstream:
  base_url: "http://upstream:1337"
  request_timeout: 2s
  max_retries: 1
  retry_delay: 250ms
  cache_ttl: 1m
  cache_capacity: 10
catalog:
  page_size: 12
broker:
  seed_brokers: ["kafka-0:9092", "kafka-1:9092"]
  schema_registry_urls: ["http://registry:8081"]
  tls:
    ca_file: /certs/ca.pem
  topics:
    order_lines: lines
  consumers:
    product_demand_group: demand
`)

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, "http://upstream:1337", cfg.Upstream.BaseURL)
		assert.Equal(t, 2*time.Second, cfg.Upstream.RequestTimeout)
		assert.Equal(t, 250*time.Millisecond, cfg.Upstream.RetryDelay)
		assert.Equal(t, 12, cfg.Catalog.PageSize)
		assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Broker.SeedBrokers)
		assert.Equal(t, "/certs/ca.pem", cfg.Broker.TLS.CAFile)
		assert.Equal(t, "lines", cfg.Broker.Topics.OrderLines)
		assert.Equal(t, "demand", cfg.Broker.Consumers.ProductDemandGroup)
		assert.True(t, cfg.Broker.Enabled())
	})

	t.Run("UnknownKey", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "sql_db: postgres://\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadClient(t *testing.T) {
	t.Run("NoFile", func(t *testing.T) {
		cfg, err := LoadClient("", nil)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/api", cfg.APIBaseURL)
		assert.Equal(t, 6, cfg.PageSize)
		assert.Equal(t, "sqlite", cfg.Storage.Driver)
		assert.Equal(t, "default", cfg.Storage.Namespace)
	})

	t.Run("FlagsOverrideFile", func(t *testing.T) {
		path := writeFile(t, "shop.yaml", `
api_base_url: "http://shop:3000/api"
page_size: 4
storage:
  driver: memory
`)
		fs := pflag.NewFlagSet("shop", pflag.ContinueOnError)
		fs.Int(ClientFlags["page_size"], 6, "")
		fs.String(ClientFlags["storage.driver"], "sqlite", "")
		require.NoError(t, fs.Parse([]string{"--page-size=9"}))

		cfg, err := LoadClient(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "http://shop:3000/api", cfg.APIBaseURL)
		assert.Equal(t, 9, cfg.PageSize)
		assert.Equal(t, "memory", cfg.Storage.Driver)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		path := writeFile(t, "shop.yaml", "theme: dark\n")
		_, err := LoadClient(path, nil)
		assert.Error(t, err)
	})
}

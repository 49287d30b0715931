package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

type upstream struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity  int           `mapstructure:"cache_capacity"`
}

type catalog struct {
	PageSize int `mapstructure:"page_size"`
}

type topics struct {
	OrderLines string `mapstructure:"order_lines"`
}

type consumers struct {
	ProductDemandGroup string `mapstructure:"product_demand_group"`
}

type tlsFiles struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles  `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

// Enabled reports whether the order-line pipeline should be wired.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	Upstream       upstream   `mapstructure:"upstream"`
	Catalog        catalog    `mapstructure:"catalog"`
	Broker         broker     `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the server config. Keys missing from the file keep
// their defaults.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setServerDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg, decodeHook()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":3000")
	v.SetDefault("upstream.base_url", "http://o-complex.com:1337")
	v.SetDefault("upstream.request_timeout", 10*time.Second)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.retry_delay", time.Second)
	v.SetDefault("upstream.cache_ttl", 5*time.Minute)
	v.SetDefault("upstream.cache_capacity", 50)
	v.SetDefault("catalog.page_size", 6)
	v.SetDefault("broker.topics.order_lines", "order-lines")
	v.SetDefault("broker.consumers.product_demand_group", "product-demand")
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	CatalogPageSize=%d

	Upstream:
	BaseURL=%q
	RequestTimeout=%s
	MaxRetries=%d
	RetryDelay=%s
	CacheTTL=%s
	CacheCapacity=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS:
		CAFile=%q
		CertFile=%q
		KeyFile=%q
	Topics:
		OrderLines=%q
	Consumers:
		ProductDemandGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Catalog.PageSize,
		c.Upstream.BaseURL,
		c.Upstream.RequestTimeout,
		c.Upstream.MaxRetries,
		c.Upstream.RetryDelay,
		c.Upstream.CacheTTL,
		c.Upstream.CacheCapacity,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.CAFile,
		c.Broker.TLS.CertFile,
		c.Broker.TLS.KeyFile,
		c.Broker.Topics.OrderLines,
		c.Broker.Consumers.ProductDemandGroup,
	)
}

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type storage struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
}

type ClientConfig struct {
	LogLevel   slog.Level `mapstructure:"log_level"`
	APIBaseURL string     `mapstructure:"api_base_url"`
	PageSize   int        `mapstructure:"page_size"`
	Storage    storage    `mapstructure:"storage"`
}

// ClientFlags maps config keys to the flag names that override them.
var ClientFlags = map[string]string{
	"log_level":         "log-level",
	"api_base_url":      "api-base-url",
	"page_size":         "page-size",
	"storage.driver":    "storage-driver",
	"storage.dsn":       "storage-dsn",
	"storage.namespace": "storage-namespace",
}

// LoadClient reads the client config. The file is optional; changed flags
// found in fs take precedence over the file.
func LoadClient(path string, fs *pflag.FlagSet) (ClientConfig, error) {
	const op = "config.LoadClient"

	v := viper.New()
	setClientDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ClientConfig{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if fs != nil {
		for key, name := range ClientFlags {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return ClientConfig{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	var cfg ClientConfig
	if err := v.UnmarshalExact(&cfg, decodeHook()); err != nil {
		return ClientConfig{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("api_base_url", "http://localhost:3000/api")
	v.SetDefault("page_size", 6)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "shop.db")
	v.SetDefault("storage.namespace", "default")
}

func (c ClientConfig) Print() {
	template := `
	LogLevel=%q
	APIBaseURL=%q
	PageSize=%d
	Storage:
		Driver=%q
		DSN=%q
		Namespace=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.APIBaseURL,
		c.PageSize,
		c.Storage.Driver,
		c.Storage.DSN,
		c.Storage.Namespace,
	)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/apiclient"
	"github.com/niksmo/storefront/internal/adapter/kvstore"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/spf13/cobra"
)

// A shop holds what every subcommand needs. It is filled in by the root
// PersistentPreRunE and released by execute.
type shop struct {
	configPath string
	cfg        config.ClientConfig
	api        *apiclient.Client
	store      *cart.Store
	closeStore func()
}

func newShop() *shop {
	return &shop{closeStore: func() {}}
}

// execute runs cmd and closes the store whether or not the command failed.
func (s *shop) execute(ctx context.Context, cmd *cobra.Command) error {
	defer s.close()
	return cmd.ExecuteContext(ctx)
}

func (s *shop) close() {
	s.closeStore()
	s.closeStore = func() {}
}

func (s *shop) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shop",
		Short: "Storefront client",
		Long: `Browse the catalog, keep a cart and place orders through the storefront API.

The cart and the phone number are saved between runs in the configured
storage (sqlite file by default).`,
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.configPath, "config", "", "config file")
	pf.String(config.ClientFlags["log_level"], "warn", "log level")
	pf.String(config.ClientFlags["api_base_url"], "", "storefront API base url")
	pf.Int(config.ClientFlags["page_size"], 6, "catalog page size")
	pf.String(config.ClientFlags["storage.driver"], kvstore.DriverSQLite, "storage driver: memory|sqlite|postgres")
	pf.String(config.ClientFlags["storage.dsn"], "", "storage dsn or sqlite file path")
	pf.String(config.ClientFlags["storage.namespace"], "", "storage namespace")

	root.AddCommand(
		newProductsCmd(s),
		newReviewsCmd(s),
		newCartCmd(s),
		newPhoneCmd(s),
		newCheckoutCmd(s),
		newHealthCmd(s),
		newDemandCmd(s),
	)
	return root
}

func (s *shop) setup(cmd *cobra.Command, _ []string) error {
	const op = "shop.setup"

	cfg, err := config.LoadClient(s.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	s.cfg = cfg
	initLogger(cfg.LogLevel)

	api, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.api = api

	kv, closeKV, err := kvstore.Open(
		ctxOf(cmd), cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.Namespace,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.store = cart.NewStore(kv)
	s.closeStore = closeKV
	return nil
}

func initLogger(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

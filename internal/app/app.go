package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/apiclient"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/metrics"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/niksmo/storefront/pkg/ttlcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type broker struct {
	producer  *kafka.OrderLinesProducer
	processor *kafka.ProductDemandProcessor
	view      *kafka.ProductDemandView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	registry   *prometheus.Registry
	upstream   *apiclient.Client
	broker     broker
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initMetrics()
	app.initUpstream()
	app.initBroker()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.registry = reg
}

func (app *App) initUpstream() {
	const op = "App.initUpstream"
	cfg := app.cfg.Upstream

	cache := ttlcache.New[string, []byte](ttlcache.CapacityOpt(cfg.CacheCapacity))

	client, err := apiclient.New(
		cfg.BaseURL,
		apiclient.TimeoutOpt(cfg.RequestTimeout),
		apiclient.RetryOpt(cfg.MaxRetries, cfg.RetryDelay),
		apiclient.CacheOpt(cache, cfg.CacheTTL),
		apiclient.MetricsOpt(metrics.NewClientMetrics(app.registry)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.upstream = client
}

func (app *App) initBroker() {
	const op = "App.initBroker"
	cfg := app.cfg.Broker
	ctx := app.ctx

	if !cfg.Enabled() {
		slog.Info("broker is disabled", "op", op)
		return
	}

	tlsConfig := adapter.MakeTLSConfig(
		cfg.TLS.CAFile, cfg.TLS.CertFile, cfg.TLS.KeyFile,
	)
	kafka.ConfigureTLS(tlsConfig)

	identifier, err := schema.NewRegistryIdentifier(cfg.SchemaRegistryURLs...)
	if err != nil {
		app.fallDown(op, err)
	}

	orderLineSubject := cfg.Topics.OrderLines + "-value"
	orderLineSerde, err := schema.NewSerdeOrderLineV1(
		ctx,
		schema.SubjectOpt(orderLineSubject),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewOrderLinesProducer(
		kafka.ProducerClientOpt(ctx, cfg.SeedBrokers, cfg.Topics.OrderLines, tlsConfig),
		kafka.ProducerEncoderOpt(orderLineSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	processor, err := kafka.NewProductDemandProc(
		cfg.SeedBrokers,
		cfg.Topics.OrderLines,
		cfg.Consumers.ProductDemandGroup,
		orderLineSerde,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewProductDemandView(
		cfg.SeedBrokers, cfg.Consumers.ProductDemandGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker = broker{
		producer:  &producer,
		processor: processor,
		view:      view,
	}
}

func (app *App) initCoreService() {
	opts := []service.Opt{
		service.CacheTTLOpt(app.cfg.Upstream.CacheTTL),
		service.HomePageSizeOpt(app.cfg.Catalog.PageSize),
	}

	if b := app.broker; b.producer != nil {
		opts = append(opts, service.BrokerOpt(
			b.producer, b.view, b.processor, b.view,
		))
	}

	app.service = service.New(app.upstream, opts...)
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterAPI(mux, app.service, metrics.NewServerMetrics(app.registry))
	mux.Handle("GET /metrics", metrics.Handler(app.registry))

	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, mux)
}

// Run starts the broker components and the http server.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/cardfinder/config"
	"github.com/niksmo/cardfinder/internal/adapter"
	"github.com/niksmo/cardfinder/internal/adapter/auth"
	"github.com/niksmo/cardfinder/internal/adapter/catalog"
	"github.com/niksmo/cardfinder/internal/adapter/httphandler"
	"github.com/niksmo/cardfinder/internal/adapter/kafka"
	"github.com/niksmo/cardfinder/internal/adapter/metrics"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/niksmo/cardfinder/internal/core/service"
	"github.com/niksmo/cardfinder/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/sr"
)

type outbound struct {
	catalog *catalog.Client
	auth    *auth.Client
	events  port.SearchEventsProducer
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	serde      schema.Serde
	outbound   outbound
	metrics    *metrics.Metrics
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initMetrics()
	app.initSerde()
	app.initOutboundAdapters()
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
	app.metrics = metrics.New(reg)
}

func (app *App) initSerde() {
	const op = "App.initSerde"

	if !app.cfg.Broker.Enabled() {
		slog.Info("no seed brokers, search events are disabled", "op", op)
		return
	}

	srClient, err := sr.NewClient(sr.URLs(app.cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	subject := app.cfg.Broker.Topics.SearchEvents + "-value"
	serde, err := schema.NewSerdeCardSearchEventV1(
		app.ctx,
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.serde = serde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	app.outbound.catalog = catalog.New(catalog.Config{
		BaseURL:       app.cfg.Catalog.BaseURL,
		Timeout:       app.cfg.Catalog.Timeout,
		RetryAttempts: app.cfg.Catalog.RetryAttempts,
		RetryDelay:    app.cfg.Catalog.RetryDelay,
	})

	app.outbound.auth = auth.New(auth.Config{
		BaseURL: app.cfg.Auth.BaseURL,
		Timeout: app.cfg.Auth.Timeout,
	})

	if app.serde == nil {
		return
	}

	brokerCfg := app.cfg.Broker

	var tlsCfg *tls.Config
	if files := brokerCfg.TLS; files.Enabled() {
		var err error
		tlsCfg, err = adapter.MakeTLSConfig(files.CA, files.Cert, files.Key)
		if err != nil {
			app.fallDown(op, err)
		}
	}

	events, err := kafka.NewSearchEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, brokerCfg.SeedBrokers, brokerCfg.Topics.SearchEvents, tlsCfg,
		),
		kafka.ProducerEncoderOpt(app.serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.events = events
}

func (app *App) initCoreService() {
	app.service = service.New(
		app.outbound.auth,
		app.outbound.catalog,
		app.outbound.events,
		app.metrics,
		service.QueryOptions{
			APRFilter:        app.cfg.Filters.APREnabled,
			TravelPreference: app.cfg.Filters.TravelPreferenceMode,
		},
		service.IdleTTLOpt(app.cfg.Session.IdleTTL),
	)
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterSession(mux, app.service)
	httphandler.RegisterDashboard(mux, app.service)

	root := http.NewServeMux()
	root.Handle("/v1/", app.metrics.Instrument(httphandler.AllowJSON(mux)))
	root.Handle("GET /metrics", app.metrics.Handler())

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, root, app.cfg.HTTPHandlerTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)
	go app.service.RunExpiry(app.ctx)

	slog.Info("application is running", "addr", app.cfg.HTTPServerAddr)
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.outbound.events != nil {
		app.outbound.events.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

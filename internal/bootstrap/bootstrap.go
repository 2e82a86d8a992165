package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/pdf-to-excel/internal/config"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
	"github.com/kirillkom/pdf-to-excel/internal/core/usecase"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/inspector/pdfcpu"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/lifecycle"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/queue/nats"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/repository/memory"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/resilience"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/spreadsheet/excel"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/pdf-to-excel/internal/observability/metrics"
)

// Options tune what New wires. The API runs the background sweep and optional
// backends; the CLI does neither.
type Options struct {
	Service        string
	StartLifecycle bool
	Backends       bool
}

type App struct {
	Config config.Config

	Storage     *localfs.Storage
	Lifecycle   *lifecycle.Manager
	Jobs        ports.ConversionRepository
	Converter   ports.PDFConverter
	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	if opts.Service == "" {
		opts.Service = "api"
	}
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	app.Storage = storage

	app.HTTPMetrics = metrics.NewHTTPServerMetrics(opts.Service)
	conversionMetrics := metrics.NewConversionMetrics(opts.Service, app.HTTPMetrics.Registry())

	manager := lifecycle.NewManager(lifecycle.NewRegistry(), lifecycle.Options{
		Dir:            storage.Dir(),
		RetentionDelay: time.Duration(cfg.RetentionDelaySeconds) * time.Second,
		SweepMaxAge:    time.Duration(cfg.SweepMaxAgeSeconds) * time.Second,
		SweepInterval:  time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		Recorder:       conversionMetrics,
	})
	app.Lifecycle = manager
	app.closeFn = append(app.closeFn, manager.Stop)
	if opts.StartLifecycle {
		if err := manager.Start(ctx); err != nil {
			return nil, fmt.Errorf("start lifecycle manager: %w", err)
		}
	}

	strategies, err := Strategies(cfg, manager, storage.Dir())
	if err != nil {
		return nil, fmt.Errorf("build extraction strategies: %w", err)
	}
	headerRule, err := cfg.HeaderRule()
	if err != nil {
		return nil, fmt.Errorf("load style rules: %w", err)
	}

	var jobs ports.ConversionRepository = memory.NewConversionRepository(cfg.JobHistoryCapacity)
	var events ports.EventPublisher
	if opts.Backends {
		if cfg.PostgresDSN != "" {
			db, err := postgres.OpenDB(cfg.PostgresDSN)
			if err != nil {
				return nil, fmt.Errorf("open postgres: %w", err)
			}
			app.closeFn = append(app.closeFn, func() { _ = db.Close() })

			repo := postgres.NewConversionRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
			jobs = repo
		}
		if cfg.NATSURL != "" {
			publisher, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
				ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
			})
			if err != nil {
				return nil, fmt.Errorf("init event publisher: %w", err)
			}
			app.closeFn = append(app.closeFn, publisher.Close)
			events = publisher
		}
	}
	app.Jobs = jobs

	app.Converter = usecase.NewConvertUseCase(usecase.ConvertDependencies{
		Storage:    storage,
		Guard:      manager,
		Chain:      usecase.NewExtractionChain(conversionMetrics, strategies...),
		Writer:     excel.NewWriter(float64(cfg.MaxColumnWidth)),
		Jobs:       jobs,
		Events:     events,
		Inspector:  pdfcpu.New(),
		Recorder:   conversionMetrics,
		HeaderRule: headerRule,
	})

	slog.Info("bootstrap_ready",
		"storage_path", storage.Dir(),
		"strategies", cfg.ExtractionStrategies,
		"postgres", opts.Backends && cfg.PostgresDSN != "",
		"nats", events != nil,
	)
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closeFn) - 1; i >= 0; i-- {
		a.closeFn[i]()
	}
	a.closeFn = nil
}

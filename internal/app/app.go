package app

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/archive"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/config"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homefs/internal/providers"
	fsProvider "github.com/GriffinCanCode/homefs/internal/providers/filesystem"
	"github.com/GriffinCanCode/homefs/internal/render"
	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/service"
)

// App holds the wired components shared by every entry point
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Sandbox  *sandbox.Sandbox
	Registry *service.Registry
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	// Tracer is nil unless tracing is enabled.
	Tracer *tracing.Tracer
}

// New builds the sandbox, the archive engine, the PDF renderer and the
// filesystem provider, and registers the provider.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var opts []sandbox.Option
	if cfg.Sandbox.StrictSymlinks {
		opts = append(opts, sandbox.WithSymlinkResolver(filepath.EvalSymlinks))
	}
	sb, err := sandbox.New(cfg.Sandbox.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	engine := archive.New(
		archive.WithLogger(logger.Named("archive")),
		archive.WithLevel(cfg.Archive.Level),
		archive.WithMaxBytes(cfg.Archive.MaxExtractBytes),
	)

	renderer := render.NewCommandRenderer(render.CommandConfig{
		Command: cfg.Export.PDFCommand,
		Args:    cfg.Export.PDFArgs,
		Timeout: cfg.Export.Timeout,
	}, logger.Named("render"))

	registry := service.NewRegistry()
	fs := providers.NewFilesystem(&fsProvider.FilesystemOps{
		Sandbox:  sb,
		Archive:  engine,
		Renderer: renderer,
		Logger:   logger.Named("filesystem"),
		Metrics:  metrics,
	})
	if err := registry.Register(fs); err != nil {
		return nil, fmt.Errorf("failed to register filesystem provider: %w", err)
	}

	var tracer *tracing.Tracer
	if cfg.Tracing.Enabled {
		tracer = tracing.New("homefs", logger.Named("trace"))
	}

	logger.Info("Providers registered",
		zap.String("root", sb.Root()),
		zap.Bool("strict_symlinks", cfg.Sandbox.StrictSymlinks),
		zap.Int("tools", len(registry.Tools())),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Sandbox:  sb,
		Registry: registry,
		Metrics:  metrics,
		Gatherer: reg,
		Tracer:   tracer,
	}, nil
}

// Close drains pending spans and flushes the logger
func (a *App) Close() {
	a.Tracer.Close()
	_ = a.Logger.Sync()
}

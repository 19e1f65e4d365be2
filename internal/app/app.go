package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/emit"
	"github.com/specialistvlad/pipegraph/internal/hclload"
	"github.com/specialistvlad/pipegraph/internal/pipeline"
	"github.com/specialistvlad/pipegraph/internal/transform"
	"github.com/specialistvlad/pipegraph/internal/types"
	"github.com/specialistvlad/pipegraph/internal/validate"
)

// ErrInvalidPipeline is returned by Compile when validation finds errors.
var ErrInvalidPipeline = errors.New("pipeline is invalid")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	types      *types.Registry
	transforms *transform.Registry
	// create opens the file a description is written to.
	create func(name string) (io.WriteCloser, error)
}

// NewApp is the constructor for the main application. Logs go to logW and
// documents to outW. With no modules the core transform modules are
// registered.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...transform.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	reg := types.NewRegistry()
	transforms := transform.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules(reg)
	}
	for _, mod := range modules {
		mod.Register(transforms)
	}
	logger.Debug("All transform modules registered.", "count", len(modules), "transforms", transforms.Names())

	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		types:      reg,
		transforms: transforms,
		create: func(name string) (io.WriteCloser, error) {
			return os.Create(name)
		},
	}
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Load reads the pipeline definition at the configured paths.
func (a *App) Load(ctx context.Context) (*pipeline.Graph, error) {
	ctx = a.context(ctx)
	if len(a.config.Paths) == 0 {
		return nil, errors.New("no pipeline definition paths given")
	}
	loader := hclload.NewLoader(a.types, hclload.WithContracts(a.transforms))
	g, err := loader.Load(ctx, a.config.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	return g, nil
}

// Compile loads and validates the pipeline. The report is returned whenever
// loading succeeded, also for invalid pipelines; the error then matches
// ErrInvalidPipeline.
func (a *App) Compile(ctx context.Context) (*pipeline.Graph, *validate.Report, error) {
	g, err := a.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	report := validate.Validate(a.context(ctx), g, a.types)
	if !report.Valid() {
		a.logger.Debug("Validation failed.", "pipeline", g.Name(), "summary", report.Summary())
		return g, report, fmt.Errorf("%w: %s", ErrInvalidPipeline, report.Summary())
	}
	a.logger.Info("Pipeline is valid.", "pipeline", g.Name(), "steps", len(g.Steps()))
	return g, report, nil
}

// Emit compiles the pipeline and writes its description in the configured
// format to the configured output.
func (a *App) Emit(ctx context.Context) (*emit.Description, error) {
	g, report, err := a.Compile(ctx)
	if err != nil {
		return nil, err
	}

	d, err := emit.Emit(a.context(ctx), g, report)
	if err != nil {
		return nil, err
	}

	if err := a.writeDescription(d); err != nil {
		return nil, err
	}
	a.logger.Info("Description written.", "pipeline", d.Name, "id", d.ID, "format", a.config.Format, "output", a.config.Output)
	return d, nil
}

// writeDescription encodes d to the configured output file, or to the app
// output when none is set. A failed close of the file is reported.
func (a *App) writeDescription(d *emit.Description) (err error) {
	if a.config.Output == "" {
		return emit.Encode(a.outW, d, a.config.Format)
	}
	f, err := a.create(a.config.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", a.config.Output, cerr)
		}
	}()
	return emit.Encode(f, d, a.config.Format)
}

// Inspect reads a description written by Emit and checks its task order.
func (a *App) Inspect(path string) (*emit.Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open description: %w", err)
	}
	defer f.Close()

	d, err := emit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read description %s: %w", path, err)
	}
	a.logger.Debug("Description read.", "path", path, "pipeline", d.Name, "tasks", len(d.Tasks))
	return d, nil
}

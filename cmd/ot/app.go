// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/revops/ot/internal/config"
	"github.com/revops/ot/internal/issue"
	"github.com/revops/ot/internal/logging"
	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/internal/store"
	"github.com/revops/ot/pkg/operator"
	"github.com/revops/ot/pkg/registry"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives an App reference.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  globalFlags
		env    *environment
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// globalFlags are the persistent root flags.
	globalFlags struct {
		verbose      bool
		configPath   string
		runtime      string
		registryPath string
	}

	// environment is everything a command needs once configuration is loaded.
	environment struct {
		cfg      *config.Config
		logger   *slog.Logger
		registry *registry.Registry
		runner   runtime.Runner
	}
)

// NewApp builds an App, filling unset dependencies with process defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// Verbose reports whether verbose output is enabled by flag or config.
func (a *App) Verbose() bool {
	if a.flags.verbose {
		return true
	}
	return a.env != nil && a.env.cfg.UI.Verbose
}

// loadConfig loads configuration honoring --config and the flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}

	if a.flags.runtime != "" {
		mode := runtime.Mode(a.flags.runtime)
		if err := mode.Validate(); err != nil {
			return nil, newServiceError(issue.NewErrorContext().
				WithOperation("select runtime").
				WithResource(a.flags.runtime).
				WithSuggestion("Use --runtime native or --runtime virtual").
				Wrap(err).
				BuildError(), issue.ConfigLoadFailedId)
		}
		cfg.Runtime = mode
	}
	if a.flags.registryPath != "" {
		cfg.RegistryPath = a.flags.registryPath
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	return cfg, nil
}

// setup loads configuration, logger, registry and runner once per invocation.
func (a *App) setup(ctx context.Context) (*environment, error) {
	if a.env != nil {
		return a.env, nil
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	logger := logging.New(a.stderr, cfg.UI.Verbose)
	slog.SetDefault(logger)

	reg, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	runner, err := runtime.New(cfg.Runtime, cfg.Shell)
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}
	runner = runtime.Deadline(runner, cfg.Exec.Timeout)

	logger.Debug("environment ready",
		"config", cfg.Source, "runtime", runner.Name(), "registry", registrySource(cfg.RegistryPath),
		"operators", reg.Len(), "timeout", cfg.Exec.Timeout)

	a.env = &environment{cfg: cfg, logger: logger, registry: reg, runner: runner}
	return a.env, nil
}

// operatorEnv is the execution environment handed to operators.
func (e *environment) operatorEnv(stderr io.Writer) operator.Env {
	return operator.Env{
		Runner:   e.runner,
		Registry: e.registry,
		Stderr:   stderr,
		Logger:   e.logger,
	}
}

// decoder returns a record decoder bounded by decode.max_header_bytes.
func (e *environment) decoder(r io.Reader) *operator.Decoder {
	return operator.NewDecoder(r, operator.WithMaxHeaderField(e.cfg.Decode.MaxHeaderBytes))
}

// store opens the content-addressed store at storage_dir.
func (e *environment) store(stderr io.Writer) (*store.Store, error) {
	root, err := e.cfg.ResolveStorageDir()
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}
	return store.New(root, e.runner, store.WithLogger(e.logger), store.WithStderr(stderr)), nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	var (
		reg *registry.Registry
		err error
	)
	if path == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.Load(path)
	}
	if err != nil {
		return nil, newServiceError(issue.NewErrorContext().
			WithOperation("load registry").
			WithResource(registrySource(path)).
			WithSuggestion("Registry files end in .cue, .yaml, .yml or .toml").
			WithSuggestion("Each command template may appear in only one pair").
			Wrap(err).
			BuildError(), issue.RegistryLoadFailedId)
	}
	return reg, nil
}

func registrySource(path string) string {
	if path == "" {
		return "(built-in)"
	}
	return path
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invowk/tusks/internal/config"
	"github.com/invowk/tusks/internal/issue"
	"github.com/invowk/tusks/internal/metrics"
	"github.com/invowk/tusks/internal/runtime"
	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/link"
	"github.com/invowk/tusks/pkg/tree"
	"github.com/invowk/tusks/pkg/treefile"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root of the CLI layer: every command handler receives an App.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	globalFlags struct {
		verbose    bool
		configPath string
		file       string
		linkPaths  []string
	}

	// session is a loaded configuration plus the compiled root unit.
	session struct {
		cfg      *config.Config
		file     string
		registry *link.Registry
		unit     *link.Unit
		observer *metrics.Observer
	}

	sessionOptions struct {
		// env holds extra variables for scripts, e.g. from --env-file.
		env map[string]string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration and applies the global flags on top.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId, "")
	}
	if a.flags.file != "" {
		cfg.File = config.DeclarationPath(a.flags.file)
	}
	for _, p := range a.flags.linkPaths {
		cfg.LinkPaths = append(cfg.LinkPaths, config.LinkPath(p))
	}
	if cfg.UI.Verbose && !a.flags.verbose {
		a.flags.verbose = true
		setupLogging(a.stderr, true)
	}
	return cfg, nil
}

// openSession loads the declaration named by the configuration and
// compiles it with every unit it links to.
func (a *App) openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	file := cfg.DeclarationFile()
	root, err := loadDeclaration(file)
	if err != nil {
		return nil, err
	}

	workDir, err := filepath.Abs(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	rt := runtime.NewVirtualRuntime(
		runtime.WithIO(runtime.IOContext{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr}),
		runtime.WithDir(workDir),
		runtime.WithEnvVars(opts.env),
	)
	observer := metrics.NewObserver()
	factory := handlerFactory(rt, a.stdout)

	dirs := make([]string, 0, len(cfg.LinkPaths)+1)
	for _, p := range cfg.LinkPaths {
		dirs = append(dirs, string(p))
	}
	dirs = append(dirs, workDir)

	reg, err := link.New(
		link.WithLoader(&treefile.DirLoader{Dirs: dirs}),
		link.WithCacheSize(cfg.Cache.Size),
		link.WithDispatchOptions(func(string, *tree.Scope) []dispatch.Option {
			return []dispatch.Option{
				dispatch.WithHandlerFactory(factory),
				dispatch.WithObserver(observer),
			}
		}),
		link.WithParserOptions(argv.WithOutput(a.stdout)),
	)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(root); err != nil {
		return nil, err
	}
	unit, err := reg.Compile(ctx, root.Name)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("compile unit").
			WithResource(root.Name).
			WithSuggestion("Run 'tusks validate' to list every problem").
			Wrap(err).
			BuildError()
	}

	return &session{cfg: cfg, file: file, registry: reg, unit: unit, observer: observer}, nil
}

// loadDeclaration reads the root unit and attaches the catalog entry that
// matches the failure.
func loadDeclaration(file string) (*tree.Scope, error) {
	root, err := treefile.Load(file)
	if err == nil {
		return root, nil
	}

	ctx := issue.NewErrorContext().WithOperation("load declaration").WithResource(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		ctx.WithIssue(issue.DeclarationNotFoundId).
			WithSuggestion("Create " + config.DefaultDeclarationFile.String() + " or pass --file")
	case errors.Is(err, tree.ErrInvalidTree):
		ctx.WithIssue(issue.SchemaBuildFailedId)
	case errors.Is(err, fs.ErrPermission):
		ctx.WithIssue(issue.PermissionDeniedId)
	default:
		ctx.WithIssue(issue.DeclarationParseErrorId).
			WithSuggestion("Run 'tusks schema --declaration' to print the accepted fields")
	}
	return nil, ctx.Wrap(err).BuildError()
}

// writeMetrics exports the dispatch metrics when a textfile is configured.
// A failed export is logged, never fatal.
func (s *session) writeMetrics() {
	path := s.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := s.observer.WriteTextfile(path); err != nil {
		slog.Warn("failed to export metrics", "path", path, "error", err)
	}
}

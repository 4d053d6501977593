package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/commands"
	"github.com/tigrisdata/cli/internal/config"
	"github.com/tigrisdata/cli/internal/constants"
	"github.com/tigrisdata/cli/internal/dispatch"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/spec"
	"github.com/tigrisdata/cli/internal/state"
	"github.com/tigrisdata/cli/internal/storage"
	"github.com/tigrisdata/cli/internal/update"
)

// distribution is set at link time with -ldflags "-X ...cmd.distribution=package".
// Release binaries use the static handler table; package installs resolve
// handlers from the registry.
var distribution = "binary"

// App holds what one process run needs.
type App struct {
	cfg    *config.Config
	logger *logging.Logger
	specs  *spec.Specs
	out    io.Writer
	errOut io.Writer
}

// Execute runs the CLI and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, out, errOut io.Writer) (code int) {
	app := &App{out: out, errOut: errOut}
	defer func() {
		if r := recover(); r != nil {
			code = dispatch.Report(app.errOut, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return dispatch.Report(app.errOut, err)
	}
	app.cfg = cfg

	closer, err := app.setupLogging()
	if err != nil {
		return dispatch.Report(app.errOut, err)
	}
	defer closer.Close()

	specs, err := spec.Load()
	if err != nil {
		return dispatch.Report(app.errOut, err)
	}
	app.specs = specs

	env, err := app.newEnv()
	if err != nil {
		return dispatch.Report(app.errOut, err)
	}

	reg := &dispatch.Registrar{
		Specs:   specs,
		Loader:  app.loader(),
		Env:     env,
		Out:     app.out,
		Err:     app.errOut,
		Version: specs.Version,
		Logger:  app.logger,
	}
	root, err := reg.Build()
	if err != nil {
		return dispatch.Report(app.errOut, err)
	}
	env.Reference = reg.Help().Markdown

	ctx, cancel := signalContext()
	defer cancel()

	finish := app.startUpdateCheck(ctx)
	root.SetArgs(argv)
	code = dispatch.Report(app.errOut, root.ExecuteContext(ctx))
	finish()
	return code
}

// startUpdateCheck refreshes the release cache in the background when it is
// due. The returned func waits briefly for that refresh, then prints the
// update notice if one is pending. Only interactive output gets a notice.
func (app *App) startUpdateCheck(ctx context.Context) func() {
	if !app.cfg.UpdateCheck || !display.IsTerminalWriter(app.out) {
		return func() {}
	}
	checker, err := update.NewChecker(app.specs.Version, app.out, app.logger)
	if err != nil {
		app.logger.Debug("update check disabled", logging.Fields{"error": err.Error()})
		return func() {}
	}
	checker.CheckInterval = app.cfg.UpdateCheckInterval
	checker.NotifyInterval = app.cfg.UpdateNotifyInterval
	checker.Distribution = distribution
	checker.GOOS = runtime.GOOS

	done := make(chan struct{})
	if checker.Due() {
		go func() {
			defer close(done)
			if err := checker.Refresh(ctx); err != nil {
				app.logger.Debug("update check failed", logging.Fields{"error": err.Error()})
			}
		}()
	} else {
		close(done)
	}

	return func() {
		select {
		case <-done:
		case <-time.After(constants.UpdateCheckGrace):
		}
		checker.Notify()
	}
}

func (app *App) setupLogging() (io.Closer, error) {
	level, ok := logging.ParseLevel(app.cfg.LogLevel)
	closer, err := logging.Setup(level, logging.ParseFormat(app.cfg.LogFormat), app.cfg.LogFile)
	app.logger = logging.DefaultLogger
	if !ok && app.cfg.LogLevel != "" {
		app.logger.Warn("unknown log level, using warn", logging.Fields{"level": app.cfg.LogLevel})
	}
	return closer, err
}

// loader picks the handler resolution strategy for this build.
func (app *App) loader() dispatch.Loader {
	mode := app.cfg.Loader
	if mode == "" && distribution == "package" {
		mode = "dynamic"
	}
	app.logger.Debug("selecting loader", logging.Fields{"distribution": distribution, "loader": mode})
	if mode == "dynamic" {
		return dispatch.NewDynamicLoader()
	}
	return dispatch.NewStaticLoader(commands.Table)
}

func (app *App) newEnv() (*handler.Env, error) {
	store, err := state.NewFileStore("")
	if err != nil {
		return nil, err
	}
	repo := state.NewRepository(store, app.logger)
	oauth := auth.NewOAuth(app.cfg.Auth0, repo, app.logger)

	env := &handler.Env{
		Out:         app.out,
		Err:         app.errOut,
		In:          os.Stdin,
		Config:      app.cfg,
		Logger:      app.logger,
		State:       repo,
		Auth:        oauth,
		Credentials: auth.NewResolver(app.cfg, repo, oauth, app.logger),
		NewStorage: func(sc *auth.StorageConfig) (storage.Client, error) {
			c, err := storage.New(sc, app.logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		NewIAM: func(sc *auth.StorageConfig) (handler.IAM, error) {
			c, err := iam.New(sc, app.logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		StdinIsTerminal: func() bool { return display.IsTerminal(os.Stdin) },
	}
	if env.StdinIsTerminal() {
		env.Prompt = prompt.NewTerminal(os.Stdin, app.errOut)
	}
	return env, nil
}

// signalContext is cancelled on the first SIGINT or SIGTERM. A second signal
// exits at once.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go watchSignals(sigChan, done, cancel, os.Exit)
	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}

// watchSignals returns once done is closed, whichever signal it was waiting
// for.
func watchSignals(sigChan <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc, exit func(int)) {
	select {
	case <-sigChan:
		cancel()
	case <-done:
		return
	}
	select {
	case <-sigChan:
		exit(130)
	case <-done:
	}
}

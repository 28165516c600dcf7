package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/mindflow/internal/cli"
	"github.com/alexanderramin/mindflow/internal/config"
	"github.com/alexanderramin/mindflow/internal/device"
	"github.com/alexanderramin/mindflow/internal/intelligence"
	"github.com/alexanderramin/mindflow/internal/llm"
	"github.com/alexanderramin/mindflow/internal/service"
	"github.com/alexanderramin/mindflow/internal/store"
)

// Set by the linker.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	app := &cli.App{
		Build: cli.BuildInfo{Version: version, Commit: commit, Date: date},
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		Setup: func(ctx context.Context, app *cli.App) error {
			c, err := setup(ctx, app)
			closers = append(closers, c...)
			return err
		},
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// setup resolves configuration and wires the App. The returned closers are
// released on exit even when setup fails part way.
func setup(_ context.Context, app *cli.App) ([]io.Closer, error) {
	var closers []io.Closer

	cfg, err := config.Load(config.Options{File: app.ConfigFile})
	if err != nil {
		return closers, err
	}
	app.ConfigFile = cfg.File
	app.DraftQuiet = cfg.DraftQuiet
	app.LLMConfig = cfg.LLM

	logger, logFile, err := openLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return closers, err
	}
	if logFile != nil {
		closers = append(closers, logFile)
	}
	app.Logger = logger
	app.Observer = service.NewLogUseCaseObserver(logger)

	ident, err := device.Open(cfg.DeviceDir)
	if err != nil {
		return closers, err
	}
	token, err := ident.LoadOrCreate()
	if err != nil {
		return closers, fmt.Errorf("loading device identity: %w", err)
	}
	app.Identity = ident

	client, info, err := openStore(cfg.Store, logger)
	if err != nil {
		return closers, err
	}
	closers = append(closers, client)
	app.Store = info

	session, err := service.NewSession(token, client)
	if err != nil {
		return closers, err
	}
	app.Session = session

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(logger)
	}
	llmClient, err := llm.NewClient(cfg.LLM, observer)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("llm.disabled", "reason", err)
	case err != nil:
		return closers, err
	default:
		app.LLM = llmClient
		app.Planner = intelligence.NewPlanningService(llmClient)
	}

	logger.Info("app.ready", "device", token, "store", info.Backend, "config", cfg.File)
	return closers, nil
}

// openStore connects the configured backend. A Firebase configuration that
// cannot be used falls back to a process-local store so the session still
// works offline.
func openStore(cfg config.StoreConfig, logger *slog.Logger) (store.Client, cli.StoreInfo, error) {
	switch cfg.Backend {
	case config.BackendFirebase:
		fb, err := store.NewFirebaseStore(store.FirebaseConfig{
			URL:            cfg.FirebaseURL,
			AuthToken:      cfg.FirebaseAuth,
			Timeout:        cfg.Timeout,
			ReconnectDelay: cfg.ReconnectDelay,
			Logger:         logger,
		})
		if err == nil {
			return fb, cli.StoreInfo{Backend: config.BackendFirebase, Location: cfg.FirebaseURL}, nil
		}
		logger.Error("store.firebase.unavailable", "url", cfg.FirebaseURL, "error", err)
		mem, merr := store.OpenMemoryStore()
		if merr != nil {
			return nil, cli.StoreInfo{}, merr
		}
		return mem, cli.StoreInfo{Backend: config.BackendMemory, Location: "local-only"}, nil
	case config.BackendMemory:
		mem, err := store.OpenMemoryStore()
		if err != nil {
			return nil, cli.StoreInfo{}, err
		}
		return mem, cli.StoreInfo{Backend: config.BackendMemory, Location: "in-process"}, nil
	default:
		s, err := store.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, cli.StoreInfo{}, fmt.Errorf("opening store: %w", err)
		}
		return s, cli.StoreInfo{Backend: config.BackendSQLite, Location: cfg.Path}, nil
	}
}

// openLogger writes JSON logs to path. The terminal belongs to the
// interactive view, so nothing is logged to stderr.
func openLogger(path string, level slog.Level) (*slog.Logger, *os.File, error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

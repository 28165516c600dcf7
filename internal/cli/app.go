package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/mindflow/internal/device"
	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/intelligence"
	"github.com/alexanderramin/mindflow/internal/llm"
	"github.com/alexanderramin/mindflow/internal/service"
)

// StoreInfo describes the store the session talks to.
type StoreInfo struct {
	Backend  string
	Location string
}

// BuildInfo is stamped at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App holds everything the commands need. Setup, when set, fills the
// remaining fields before any command other than version runs.
type App struct {
	Session    *service.Session
	Planner    intelligence.PlanningService // nil when no model is configured
	LLM        llm.LLMClient
	LLMConfig  llm.LLMConfig
	Identity   *device.Identity
	Store      StoreInfo
	// ConfigFile is the --config flag before Setup and the file actually
	// read after it.
	ConfigFile string
	DraftQuiet time.Duration
	Logger     *slog.Logger
	Observer   service.UseCaseObserver
	Build      BuildInfo

	Now           func() time.Time
	IsInteractive func() bool
	// TickInterval overrides the focus countdown granularity.
	TickInterval time.Duration
	// LoadTimeout overrides initialLoadTimeout.
	LoadTimeout time.Duration

	Setup func(ctx context.Context, a *App) error
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) loadTimeout() time.Duration {
	if a.LoadTimeout > 0 {
		return a.LoadTimeout
	}
	return initialLoadTimeout
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// initialLoadTimeout bounds the wait for today's plan. Past it commands go
// on with whatever the core holds; a late snapshot still replaces it.
const initialLoadTimeout = 4 * time.Second

// runtime is a started plan core plus the draft sync bound to it.
type runtime struct {
	core  *service.PlanCore
	draft *service.DraftSync
	// syncStatus carries draft status changes, latest first.
	syncStatus <-chan domain.SyncStatus
	stop       func()
}

// startCore runs a plan core for the session and waits until today's plan
// has been loaded or the load timeout passes.
func (a *App) startCore(ctx context.Context) (*runtime, error) {
	syncStatus := make(chan domain.SyncStatus, 1)
	draft := service.NewDraftSync(a.Session,
		service.WithQuietPeriod(a.DraftQuiet),
		service.WithDraftLogger(a.logger()),
		service.WithStatusListener(func(st domain.SyncStatus) {
			// Latest wins: replace an undelivered status.
			select {
			case <-syncStatus:
			default:
			}
			syncStatus <- st
		}),
	)
	opts := []service.CoreOption{
		service.WithClock(a.now),
		service.WithLogger(a.logger()),
		service.WithDraftSync(draft),
	}
	if a.Observer != nil {
		opts = append(opts, service.WithObserver(a.Observer))
	}
	if a.TickInterval > 0 {
		opts = append(opts, service.WithTickInterval(a.TickInterval))
	}
	core := service.NewPlanCore(a.Session, a.Planner, opts...)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	errc := make(chan error, 1)
	go func() { errc <- core.Run(runCtx) }()

	wait := time.NewTimer(a.loadTimeout())
	defer wait.Stop()
	select {
	case <-core.Loaded():
	case <-wait.C:
		a.logger().Warn("core.initial_load.timeout", "after", a.loadTimeout())
	case <-ctx.Done():
		cancel()
		<-core.Done()
		return nil, ctx.Err()
	}
	select {
	case <-core.Done():
		cancel()
		return nil, <-errc
	default:
	}

	return &runtime{
		core:       core,
		draft:      draft,
		syncStatus: syncStatus,
		stop: func() {
			cancel()
			<-core.Done()
		},
	}, nil
}

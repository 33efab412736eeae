// Package app wires the long-running bot: config hot reload, logging, the
// task store, the chat adapter and the command router.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pubsched/internal/bot"
	"pubsched/internal/config"
	"pubsched/internal/eventbus"
	"pubsched/internal/observability/pprof"
	"pubsched/internal/runtime/supervisor"
	"pubsched/internal/storage"
	"pubsched/internal/tasks"
	kit "pubsched/internal/transport"
	"pubsched/internal/transport/telegram"
	logx "pubsched/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	tasks *tasks.Service

	adapter kit.Adapter
	router  *bot.Router
	pprof   *pprof.Service

	updates chan kit.Message
}

// NewApp loads cfgPath and builds every component. Nothing runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetValidator(validate)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logx.NewConsole("info").With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}
	return newApp(cfgm, cfg, ad)
}

func newApp(cfgm *config.ConfigManager, cfg *config.Config, ad kit.Adapter) (*App, error) {
	logSvc, log := logx.NewService(mapLogConfig(cfg))

	store, err := OpenStore(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	if store == nil {
		log.Warn("storage disabled; task commands will fail")
	}

	bus := eventbus.New()
	svc := tasks.New(store, bus, log.With(logx.String("comp", "tasks")))
	svc.SetPreviewRuns(cfg.PreviewRuns())

	r := bot.NewRouter(mapRouterConfig(cfg), ad, svc, log.With(logx.String("comp", "router")))

	a := &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		bus:     bus,
		store:   store,
		tasks:   svc,
		adapter: ad,
		router:  r,
		updates: make(chan kit.Message, 256),
	}
	a.pprof = pprof.New(mapPprofConfig(cfg), log.With(logx.String("comp", "pprof")), a.status)
	return a, nil
}

// validate extends config.Validate with checks owned by app components.
func validate(ctx context.Context, cfg *config.Config) error {
	errs := []error{config.Validate(ctx, cfg)}
	if cfg != nil {
		if err := mapPprofConfig(cfg).Check(); err != nil {
			errs = append(errs, fmt.Errorf("pprof: %w", err))
		}
	}
	return errors.Join(errs...)
}

func mapPprofConfig(cfg *config.Config) pprof.Config {
	return pprof.Config{
		Enabled: cfg.Pprof.Enabled,
		Addr:    cfg.Pprof.Addr,
		Token:   cfg.Pprof.Token,
	}
}

type appStatus struct {
	Goroutines  supervisor.Counters `json:"goroutines"`
	PreviewRuns int                 `json:"preview_runs"`
	Storage     bool                `json:"storage"`
	FirstError  string              `json:"first_error,omitempty"`
}

func (a *App) status() any {
	st := appStatus{Storage: a.store != nil, PreviewRuns: a.cfgm.Get().PreviewRuns()}
	if a.sup != nil {
		st.Goroutines = a.sup.Counters()
		if err := a.sup.Err(); err != nil {
			st.FirstError = err.Error()
		}
	}
	return st
}

func mapRouterConfig(cfg *config.Config) bot.Config {
	return bot.Config{
		OwnerUserIDs: cfg.Telegram.OwnerUserIDs,
		LogChatID:    cfg.Telegram.LogChatID,
		RatePerSec:   cfg.Telegram.RatePerSec,
	}
}

// Done is closed once the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error seen by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if mu, ok := a.adapter.(kit.CommandMenuUpdater); ok {
		mctx, cancel := context.WithTimeout(a.sup.Context(), 10*time.Second)
		if err := mu.UpdateMenuCommands(mctx, a.router.Commands()); err != nil {
			a.log.Warn("update command menu failed", logx.Err(err))
		}
		cancel()
	}

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("router", func(c context.Context) {
		defer unsub()
		a.router.Run(c, a.updates, events)
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// keep only the newest config from a burst
				for drained := false; !drained; {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						drained = true
					}
				}
				a.apply(last, newCfg)
				last = newCfg
			}
		}
	})

	a.sup.GoRestart("config.watch", a.cfgm.Watch, 250*time.Millisecond, 30*time.Second)
	if a.pprof.Enabled() {
		a.sup.GoRestart("pprof", a.pprof.Serve, 500*time.Millisecond, 10*time.Second)
	}

	a.log.Info("app started", logx.Int("preview_runs", a.cfgm.Get().PreviewRuns()))
	return nil
}

// apply pushes a reloaded config into the running components. Storage and
// token changes need a restart.
func (a *App) apply(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, s := range sections {
		if s == "storage" || s == "pprof" {
			a.log.Warn(s+" config changed; restart required for changes to take effect")
		}
	}
	if oldCfg != nil && oldCfg.Telegram.Token != newCfg.Telegram.Token {
		a.log.Warn("telegram token changed; restart required for changes to take effect")
	}

	a.logs.Apply(mapLogConfig(newCfg))
	a.router.Apply(mapRouterConfig(newCfg))
	a.tasks.SetPreviewRuns(newCfg.PreviewRuns())

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	// step bounds one shutdown stage so a stuck component can't stall the rest.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("adapter", 2*time.Second, a.adapter.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	return a.logs.Close()
}

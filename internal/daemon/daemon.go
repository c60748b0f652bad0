// SPDX-License-Identifier: MIT

// Package daemon wires the engine together and runs it: bridge server,
// navigation watcher, save scheduler, store and journal.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seekmark/seekmark/internal/bridge"
	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/env"
	"github.com/seekmark/seekmark/internal/history"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/nav"
	"github.com/seekmark/seekmark/internal/resolver"
	"github.com/seekmark/seekmark/internal/sched"
	"github.com/seekmark/seekmark/internal/store"
)

// Notifications are burst-limited so a misbehaving loop cannot flood
// the page with toasts.
const (
	notifyEvery = 2 * time.Second
	notifyBurst = 3
)

// Daemon owns the engine's long-running components.
type Daemon struct {
	holder  *config.Holder
	logger  zerolog.Logger
	reg     *shutdownRegistry
	session *bridge.Session
	store   *store.Store
	journal *history.Journal
	watcher *nav.Watcher
	sched   *sched.Scheduler
	engine  *engine
	httpSrv *http.Server
}

// New builds the full component graph from the current configuration.
// Backend choice, data directory and listen address are fixed for the
// daemon's lifetime; the settings bag hot-reloads through the holder.
func New(holder *config.Holder) (*Daemon, error) {
	cfg := holder.Get()
	clk := clock.Real{}
	reg := newShutdownRegistry()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	backend, err := store.OpenBackend(cfg.StoreBackend, cfg.DataDir, store.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("open store backend: %w", err)
	}
	st := store.New(backend, func() int { return holder.Settings().MaxStoredTimestamps }, clk)
	reg.register("store", st.Close)

	var journal *history.Journal
	if cfg.HistoryEnabled {
		journal, err = history.Open(cfg.DataDir, clk)
		if err != nil {
			reg.closeAll()
			return nil, fmt.Errorf("open history journal: %w", err)
		}
		reg.register("history", journal.Close)
	}

	session := bridge.NewSession(clk)
	settings := holder.Settings

	detector := nav.NewDetector(session, settings)
	res := resolver.New(st, settings, clk)
	notifier := env.NewBurstLimitedNotifier(session, notifyEvery, notifyBurst)

	eng := newEngine(session, detector, res, session, notifier, journal, settings, clk)
	watcher := nav.NewWatcher(session, settings, clk, eng.onSettled)

	scheduler := sched.New(session, session, detector.CurrentVideoID, st, settings, clk)
	if journal != nil {
		scheduler.OnSaved(func(videoID string, seconds float64, forced bool) {
			detail := ""
			if forced {
				detail = "forced"
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := journal.Append(ctx, history.KindSave, videoID, seconds, detail); err != nil {
				lg := xlog.WithComponent("daemon")
				lg.Warn().Err(err).
					Str(xlog.FieldEvent, "daemon.journal_failed").
					Msg("could not journal save")
			}
		})
	}

	api := bridge.New(bridge.Config{
		Session:        session,
		Store:          st,
		Journal:        journal,
		ForceSave:      scheduler.ForceSave,
		Restore:        eng.RestoreNow,
		Signal:         watcher.Signal,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Version:        cfg.Version,
	})

	return &Daemon{
		holder:  holder,
		logger:  xlog.WithComponent("daemon"),
		reg:     reg,
		session: session,
		store:   st,
		journal: journal,
		watcher: watcher,
		sched:   scheduler,
		engine:  eng,
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run starts every component and blocks until ctx is cancelled or one
// of them fails. Cleanup handles run after everything has stopped.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.reg.closeAll()

	cfg := d.holder.Get()
	d.logger.Info().
		Str(xlog.FieldEvent, "daemon.starting").
		Str("listen", cfg.ListenAddr).
		Str(xlog.FieldBackend, cfg.StoreBackend).
		Msg("starting")

	g, ctx := errgroup.WithContext(ctx)

	d.watcher.Start(ctx)
	defer d.watcher.Stop()

	g.Go(func() error {
		d.sched.Run(ctx)
		return nil
	})

	g.Go(func() error {
		err := d.httpSrv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge server: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return d.httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		d.watchReloads(ctx)
		return nil
	})

	return g.Wait()
}

// watchReloads re-applies the log level after every successful config
// reload. The settings bag itself needs no handling here: every
// component reads it through the holder on each use.
func (d *Daemon) watchReloads(ctx context.Context) {
	ch := make(chan config.AppConfig, 1)
	d.holder.RegisterListener(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-ch:
			xlog.Configure(xlog.Config{Level: cfg.LogLevel})
			d.logger.Info().
				Str(xlog.FieldEvent, "daemon.config_applied").
				Str("log_level", cfg.LogLevel).
				Msg("reloaded configuration applied")
		}
	}
}

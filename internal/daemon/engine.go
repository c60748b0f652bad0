// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/env"
	"github.com/seekmark/seekmark/internal/history"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/metrics"
	"github.com/seekmark/seekmark/internal/nav"
	"github.com/seekmark/seekmark/internal/resolver"
	"github.com/seekmark/seekmark/internal/retry"
)

var errNoVideo = errors.New("no video element mounted")

// restoreTimeout bounds one restoration attempt end to end, including
// the retry loop waiting for the player to mount.
const restoreTimeout = 15 * time.Second

const notifyDuration = 3 * time.Second

// engine runs the restoration flow: a settled navigation resolves the
// target position and seeks the player to it.
type engine struct {
	page     env.Page
	detector *nav.Detector
	resolver *resolver.Resolver
	player   env.Player
	notifier env.Notifier
	journal  *history.Journal
	settings func() config.Settings
	clk      clock.Clock
	logger   zerolog.Logger

	mu             sync.Mutex
	lastRestoredID string
}

func newEngine(page env.Page, detector *nav.Detector, res *resolver.Resolver, player env.Player, notifier env.Notifier, journal *history.Journal, settings func() config.Settings, clk clock.Clock) *engine {
	return &engine{
		page:     page,
		detector: detector,
		resolver: res,
		player:   player,
		notifier: notifier,
		journal:  journal,
		settings: settings,
		clk:      clk,
		logger:   xlog.WithComponent("engine"),
	}
}

// onSettled is the navigation watcher callback. Settles for the video
// that was already restored are skipped so title-only churn on the same
// page never re-seeks playback.
func (e *engine) onSettled(videoID, rawURL string) {
	if videoID == "" {
		e.setLastRestored("")
		return
	}

	e.mu.Lock()
	same := videoID == e.lastRestoredID
	e.mu.Unlock()
	if same {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	e.restore(ctx, videoID, rawURL)
}

// RestoreNow re-runs restoration for the page's current video, even if
// it was already restored. It backs the user-invoked restore action.
func (e *engine) RestoreNow(ctx context.Context) {
	videoID := e.detector.CurrentVideoID()
	if videoID == "" {
		return
	}
	e.setLastRestored("")
	e.restore(ctx, videoID, e.page.CurrentURL())
}

func (e *engine) restore(ctx context.Context, videoID, rawURL string) {
	e.detector.MaybeStripTimeParam()

	rec, decision := e.resolver.Load(ctx, videoID, rawURL)
	e.setLastRestored(videoID)
	if rec == nil {
		metrics.IncRestore(string(resolver.DecisionNone))
		return
	}

	var video env.Video
	err := retry.Do(ctx, e.clk, retry.DefaultPolicy(), func(context.Context) error {
		if v := e.player.QueryVideo(); v != nil {
			video = v
			return nil
		}
		return errNoVideo
	})
	if err != nil {
		metrics.IncRestore("failed")
		e.logger.Warn().
			Err(err).
			Str(xlog.FieldEvent, "engine.restore_abandoned").
			Str(xlog.FieldVideoID, videoID).
			Msg("player never mounted, restoration abandoned for this cycle")
		return
	}

	if err := video.SetCurrentTime(rec.Time); err != nil {
		metrics.IncRestore("failed")
		e.logger.Warn().
			Err(err).
			Str(xlog.FieldEvent, "engine.seek_failed").
			Str(xlog.FieldVideoID, videoID).
			Float64(xlog.FieldPosition, rec.Time).
			Msg("could not seek to restored position")
		e.notify(ctx, "Could not restore position", "restore-failed")
		return
	}

	metrics.IncRestore(string(decision))
	e.logger.Info().
		Str(xlog.FieldEvent, "engine.restored").
		Str(xlog.FieldVideoID, videoID).
		Float64(xlog.FieldPosition, rec.Time).
		Str("decision", string(decision)).
		Msg("playback position restored")

	switch decision {
	case resolver.DecisionResume:
		e.notify(ctx, fmt.Sprintf("Resuming at %s", formatPosition(rec.Time)), "resume")
	case resolver.DecisionURLOverride:
		e.notify(ctx, fmt.Sprintf("Using timestamp from link (%s)", formatPosition(rec.Time)), "url-override")
	case resolver.DecisionRestart:
		e.notify(ctx, "Starting from the beginning", "restart")
	}

	if e.journal != nil {
		if err := e.journal.Append(ctx, history.KindRestore, videoID, rec.Time, string(decision)); err != nil {
			e.logger.Warn().Err(err).Str(xlog.FieldEvent, "engine.journal_failed").Msg("could not journal restore")
		}
	}
}

func (e *engine) notify(ctx context.Context, message, tag string) {
	if !e.settings().Notifications {
		return
	}
	if err := e.notifier.Notify(ctx, message, tag, notifyDuration); err != nil {
		e.logger.Debug().
			Err(err).
			Str(xlog.FieldEvent, "engine.notify_suppressed").
			Msg("notification suppressed")
	}
}

func (e *engine) setLastRestored(videoID string) {
	e.mu.Lock()
	e.lastRestoredID = videoID
	e.mu.Unlock()
}

// formatPosition renders seconds as m:ss or h:mm:ss.
func formatPosition(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

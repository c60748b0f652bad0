// SPDX-License-Identifier: MIT

// Package sched runs the periodic save loop. Each poll reads the
// playback state, decides whether anything save-worthy happened, and
// pushes the position through the policy gates before persisting.
package sched

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/env"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/metrics"
	"github.com/seekmark/seekmark/internal/store"
)

// Scheduler polls the active video and saves its position subject to
// the configured gates. All timing flows through the injected clock.
type Scheduler struct {
	page     env.Page
	player   env.Player
	videoID  func() string
	store    *store.Store
	clk      clock.Clock
	settings func() config.Settings
	logger   zerolog.Logger
	onSaved  func(videoID string, seconds float64, forced bool)

	mu         sync.Mutex
	lastSaveAt time.Time

	// per-video poll state
	lastVideoID string
	lastTime    float64
	lastPaused  bool
	havePrev    bool
	stablePolls int
}

// New creates a Scheduler. videoID derives the active video identity
// from the page; an empty result means no video is active.
func New(page env.Page, player env.Player, videoID func() string, st *store.Store, settings func() config.Settings, clk clock.Clock) *Scheduler {
	return &Scheduler{
		page:     page,
		player:   player,
		videoID:  videoID,
		store:    st,
		clk:      clk,
		settings: settings,
		logger:   xlog.WithComponent("sched"),
	}
}

// OnSaved registers a hook invoked after every successful save. Must be
// set before Run.
func (s *Scheduler) OnSaved(fn func(videoID string, seconds float64, forced bool)) {
	s.onSaved = fn
}

// Run polls until ctx is cancelled. The cadence starts at the base
// interval and widens once the same video has been stable for several
// consecutive polls; it snaps back to base the moment the video
// changes.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Str(xlog.FieldEvent, "sched.started").
		Dur("base_interval", s.settings().PollBaseInterval).
		Msg("save scheduler started")

	timer := s.clk.NewTimer(s.settings().PollBaseInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str(xlog.FieldEvent, "sched.stopped").Msg("save scheduler stopped")
			return
		case <-timer.C():
			s.pollOnce(ctx)
			timer.Reset(s.interval())
		}
	}
}

// interval returns the cadence for the next poll based on how long the
// current video has been stable.
func (s *Scheduler) interval() time.Duration {
	set := s.settings()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stablePolls >= set.StablePollThreshold {
		widened := 2 * set.PollBaseInterval
		if widened > set.PollMaxInterval {
			widened = set.PollMaxInterval
		}
		return widened
	}
	return set.PollBaseInterval
}

// pollOnce runs one scheduler iteration. A panic in one iteration is
// logged and must never stop the loop.
func (s *Scheduler) pollOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncPollError()
			s.logger.Error().
				Str(xlog.FieldEvent, "sched.poll_panic").
				Interface("panic", r).
				Msg("poll iteration panicked")
		}
	}()

	set := s.settings()
	videoID := s.videoID()

	s.mu.Lock()
	sameVideo := s.havePrev && videoID != "" && videoID == s.lastVideoID
	if sameVideo {
		s.stablePolls++
	} else {
		s.stablePolls = 0
	}
	prevTime, prevPaused := s.lastTime, s.lastPaused
	s.mu.Unlock()

	if videoID == "" {
		s.clearPrev()
		metrics.IncSaveSkip(metrics.GateNoVideo)
		return
	}

	video := s.player.QueryVideo()
	if video == nil {
		s.clearPrev()
		metrics.IncSaveSkip(metrics.GateNoVideo)
		return
	}

	now := video.CurrentTime()
	paused := video.Paused()
	duration := video.Duration()

	s.mu.Lock()
	s.lastVideoID = videoID
	s.lastTime = now
	s.lastPaused = paused
	s.havePrev = true
	s.mu.Unlock()

	if sameVideo {
		moved := math.Abs(now-prevTime) >= set.SaveDeltaSeconds
		flipped := paused != prevPaused
		if !moved && !flipped {
			metrics.IncSaveSkip(metrics.GateNoDelta)
			return
		}
		// Save-on-pause forces persistence the moment pause is
		// detected, regardless of pause state and dead zones.
		if flipped && paused && set.SaveOnPause {
			s.save(ctx, videoID, now, paused, duration, true)
			return
		}
	}

	s.save(ctx, videoID, now, paused, duration, false)
}

// ForceSave persists the current position immediately, bypassing every
// gate except record validation. It backs the user-invoked manual save.
func (s *Scheduler) ForceSave(ctx context.Context) bool {
	videoID := s.videoID()
	if videoID == "" {
		metrics.IncSaveSkip(metrics.GateNoVideo)
		return false
	}
	video := s.player.QueryVideo()
	if video == nil {
		metrics.IncSaveSkip(metrics.GateNoVideo)
		return false
	}
	return s.save(ctx, videoID, video.CurrentTime(), video.Paused(), video.Duration(), true)
}

// save applies the policy gates in order and persists on pass-through.
// Forced saves skip the feature toggle, throttle, pause and dead-zone
// gates.
func (s *Scheduler) save(ctx context.Context, videoID string, seconds float64, paused bool, duration float64, forced bool) bool {
	set := s.settings()

	if !forced {
		if !set.AutoSave {
			metrics.IncSaveSkip(metrics.GateDisabled)
			return false
		}

		// Global throttle across all videos, not per video. A gated
		// attempt is dropped, never queued.
		s.mu.Lock()
		throttled := !s.lastSaveAt.IsZero() && s.clk.Now().Sub(s.lastSaveAt) < set.MinSaveInterval
		s.mu.Unlock()
		if throttled {
			metrics.IncSaveSkip(metrics.GateThrottle)
			return false
		}

		if paused {
			metrics.IncSaveSkip(metrics.GatePaused)
			return false
		}

		// Positions in the first or last dead-zone window are noise:
		// pre-roll at the start, credits at the end.
		dz := set.DeadZone.Seconds()
		if seconds <= dz || (duration > 0 && duration-seconds <= dz) {
			metrics.IncSaveSkip(metrics.GateDeadZone)
			return false
		}
	}

	rec := store.Record{
		VideoID:  videoID,
		Time:     seconds,
		Title:    s.page.Title(),
		Duration: duration,
	}
	if !s.store.Save(ctx, rec) {
		return false
	}

	s.mu.Lock()
	s.lastSaveAt = s.clk.Now()
	s.mu.Unlock()

	s.logger.Debug().
		Str(xlog.FieldEvent, "sched.saved").
		Str(xlog.FieldVideoID, videoID).
		Float64(xlog.FieldPosition, seconds).
		Bool("forced", forced).
		Msg("position saved")

	if s.onSaved != nil {
		s.onSaved(videoID, seconds, forced)
	}
	return true
}

func (s *Scheduler) clearPrev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.havePrev = false
	s.lastVideoID = ""
	s.stablePolls = 0
}

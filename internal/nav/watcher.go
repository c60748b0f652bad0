// SPDX-License-Identifier: MIT

// Package nav detects in-place navigation on the host page. Single-page
// apps fire several overlapping signals for one logical navigation, so
// the watcher funnels every signal through one idempotent change check
// and debounces confirmed changes into a single settle callback.
package nav

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/env"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/metrics"
)

// Watcher observes the page for navigation. It has two states: idle
// (tracking the last URL and video id) and pending (a navigation was
// confirmed, the settle timer is running). Signals that arrive while
// pending restart the timer, so only the last navigation in a burst
// triggers restoration.
type Watcher struct {
	page     env.Page
	clk      clock.Clock
	settings func() config.Settings
	// onSettled runs once per settled navigation with the URL and video
	// id re-derived at settle time.
	onSettled func(videoID, rawURL string)
	logger    zerolog.Logger

	mu          sync.Mutex
	lastURL     string
	lastVideoID string
	pending     clock.Timer
	stopped     bool
}

// NewWatcher creates a Watcher. The last-known URL starts empty so the
// first reported page state counts as a navigation and triggers the
// initial restoration.
func NewWatcher(page env.Page, settings func() config.Settings, clk clock.Clock, onSettled func(videoID, rawURL string)) *Watcher {
	return &Watcher{
		page:      page,
		clk:       clk,
		settings:  settings,
		onSettled: onSettled,
		logger:    xlog.WithComponent("nav.watcher"),
	}
}

// Signal reports a raw navigation hint from any source (url poll, dom
// mutation, title change, popstate, hashchange). Spurious signals are
// cheap: the watcher re-derives whether anything actually changed.
func (w *Watcher) Signal(source string) {
	metrics.IncNavSignal(source)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	s := w.settings()
	currentURL := w.page.CurrentURL()
	currentID := VideoIDFromURL(currentURL, s.VideoIDParam)

	if currentURL == w.lastURL && currentID == w.lastVideoID {
		return
	}

	w.logger.Debug().
		Str(xlog.FieldEvent, "nav.change_confirmed").
		Str(xlog.FieldSource, source).
		Str(xlog.FieldURL, currentURL).
		Str(xlog.FieldVideoID, currentID).
		Msg("navigation confirmed, debouncing")

	w.lastURL = currentURL
	w.lastVideoID = currentID

	// Last navigation wins: a pending settle for a superseded
	// navigation is cancelled, never queued.
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = w.clk.AfterFunc(s.SettleDelay, w.settle)
}

// settle runs once the page has had time to finish mounting the new
// player after a client-side navigation.
func (w *Watcher) settle() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.pending = nil
	// Re-derive at settle time; the URL may have changed again in ways
	// the signal sources missed.
	currentURL := w.page.CurrentURL()
	currentID := VideoIDFromURL(currentURL, w.settings().VideoIDParam)
	w.lastURL = currentURL
	w.lastVideoID = currentID
	onSettled := w.onSettled
	w.mu.Unlock()

	metrics.IncNavSettle()
	if onSettled != nil {
		onSettled(currentID, currentURL)
	}
}

// Start runs the URL fallback poll until ctx is cancelled. The poll
// catches navigations whose signals the page never delivered.
func (w *Watcher) Start(ctx context.Context) {
	go w.pollLoop(ctx)
}

func (w *Watcher) pollLoop(ctx context.Context) {
	w.logger.Info().Str(xlog.FieldEvent, "nav.poll_started").Msg("navigation fallback poll started")

	timer := w.clk.NewTimer(w.settings().NavPollInterval)
	defer timer.Stop()

	lastTitle := w.page.Title()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(xlog.FieldEvent, "nav.poll_stopped").Msg("navigation fallback poll stopped")
			return
		case <-timer.C():
			w.mu.Lock()
			urlChanged := w.page.CurrentURL() != w.lastURL
			w.mu.Unlock()

			if urlChanged {
				w.Signal("poll")
			} else if title := w.page.Title(); title != lastTitle {
				lastTitle = title
				w.Signal("title")
			}
			timer.Reset(w.settings().NavPollInterval)
		}
	}
}

// Stop cancels any pending settle. A partially-elapsed debounce must not
// fire after cancellation.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}

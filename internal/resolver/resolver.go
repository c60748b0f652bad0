// SPDX-License-Identifier: MIT

// Package resolver decides which playback position to restore: the stored
// one, a URL-supplied one, or the start of the video.
package resolver

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	xlog "github.com/seekmark/seekmark/internal/log"
	"github.com/seekmark/seekmark/internal/store"
)

// Decision explains why the resolver returned a given position.
type Decision string

const (
	// DecisionNone means no stored record exists; the caller starts from
	// the beginning and restores nothing.
	DecisionNone Decision = "none"
	// DecisionResume means the stored position applies unchanged.
	DecisionResume Decision = "resume"
	// DecisionURLOverride means an explicit URL time parameter beat the
	// stored position.
	DecisionURLOverride Decision = "url_override"
	// DecisionRestart means the stored position was close enough to the
	// end to count as "finished watching"; playback restarts at 0.
	DecisionRestart Decision = "restart"
)

// Resolver applies load-time reconciliation over the raw store.
type Resolver struct {
	store    *store.Store
	clk      clock.Clock
	settings func() config.Settings
	logger   zerolog.Logger
}

// New creates a Resolver. settings is read per call so reconciliation
// thresholds hot-reload with the rest of the configuration.
func New(st *store.Store, settings func() config.Settings, clk clock.Clock) *Resolver {
	return &Resolver{
		store:    st,
		clk:      clk,
		settings: settings,
		logger:   xlog.WithComponent("resolver"),
	}
}

// Load fetches the record for videoID and reconciles it against the time
// parameter embedded in rawURL, if any. The returned record is what the
// caller should restore; nil means "restore nothing".
//
// Reconciliation avoids two bad outcomes: resuming a stale stored
// position when the user followed a link to a specific moment, and
// resuming into the last seconds of a video, which is almost always
// credits rather than content.
func (r *Resolver) Load(ctx context.Context, videoID, rawURL string) (*store.Record, Decision) {
	stored := r.store.Load(ctx, videoID)
	if stored == nil {
		return nil, DecisionNone
	}

	s := r.settings()

	if s.SmartURLHandling {
		if urlTime, ok := ParseTimeParam(rawURL, s.TimeParam); ok {
			if math.Abs(urlTime-stored.Time) > s.URLOverrideDelta.Seconds() {
				r.logger.Debug().
					Str(xlog.FieldEvent, "resolver.url_override").
					Str(xlog.FieldVideoID, videoID).
					Float64("url_time", urlTime).
					Float64("stored_time", stored.Time).
					Msg("URL time parameter overrides stored position")
				return &store.Record{
					VideoID:  videoID,
					Time:     urlTime,
					SavedAt:  r.clk.Now().UnixMilli(),
					Title:    stored.Title,
					Duration: stored.Duration,
				}, DecisionURLOverride
			}
			// A URL time close to the stored position is noise (shared
			// links default to the saved spot); fall through.
		}
	}

	if stored.Duration > 0 && stored.Duration-stored.Time <= s.NearEndWindow.Seconds() {
		r.logger.Debug().
			Str(xlog.FieldEvent, "resolver.near_end_restart").
			Str(xlog.FieldVideoID, videoID).
			Float64("stored_time", stored.Time).
			Float64(xlog.FieldDuration, stored.Duration).
			Msg("stored position is near the end, restarting from the beginning")
		return &store.Record{
			VideoID:  videoID,
			Time:     0,
			SavedAt:  r.clk.Now().UnixMilli(),
			Title:    stored.Title,
			Duration: stored.Duration,
		}, DecisionRestart
	}

	return stored, DecisionResume
}

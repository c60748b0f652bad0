// SPDX-License-Identifier: MIT

// Package bridge is the localhost HTTP surface between the page script
// and the engine. The page pushes state snapshots in and pulls queued
// commands out; the engine sees the page only through the env
// capability interfaces the session implements.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/env"
	"github.com/seekmark/seekmark/internal/metrics"
)

// VideoSnapshot is the playback state the page reported for the mounted
// video element.
type VideoSnapshot struct {
	CurrentTime float64 `json:"currentTime"`
	Paused      bool    `json:"paused"`
	Duration    float64 `json:"duration"`
}

// Snapshot is one page state report.
type Snapshot struct {
	URL   string         `json:"url"`
	Title string         `json:"title"`
	Video *VideoSnapshot `json:"video,omitempty"`
}

// Command types the page script executes.
const (
	CommandSeek    = "seek"
	CommandRewrite = "rewrite_url"
	CommandNotify  = "notify"
)

// Command is one queued instruction for the page script.
type Command struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Seconds    float64 `json:"seconds,omitempty"`
	URL        string  `json:"url,omitempty"`
	Message    string  `json:"message,omitempty"`
	Tag        string  `json:"tag,omitempty"`
	DurationMS int64   `json:"durationMs,omitempty"`
}

// staleAfter bounds how long a snapshot stays authoritative. Past it the
// page is assumed gone and QueryVideo reports no mounted video.
const staleAfter = 10 * time.Second

// maxQueuedCommands caps the command queue; the oldest command is
// dropped when the page stops draining.
const maxQueuedCommands = 64

// Session mirrors the page state for the engine and queues commands for
// the page. It implements env.Page, env.Player and env.Notifier.
type Session struct {
	clk clock.Clock

	mu         sync.Mutex
	snapshot   Snapshot
	reportedAt time.Time
	queue      []Command
}

// NewSession creates an empty session. Until the first snapshot arrives
// the page reads as blank with no video mounted.
func NewSession(clk clock.Clock) *Session {
	return &Session{clk: clk}
}

// Update replaces the mirrored page state with a fresh snapshot.
func (s *Session) Update(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.reportedAt = s.clk.Now()
}

// CurrentURL implements env.Page.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.URL
}

// Title implements env.Page.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Title
}

// RewriteURL queues a history rewrite and applies it to the mirror
// immediately so the engine sees the post-rewrite URL on its next read.
func (s *Session) RewriteURL(newURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.URL = newURL
	s.enqueueLocked(Command{Type: CommandRewrite, URL: newURL})
	return nil
}

// QueryVideo implements env.Player. It returns nil when the page never
// reported a video or the last snapshot has gone stale.
func (s *Session) QueryVideo() env.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Video == nil {
		return nil
	}
	if s.clk.Now().Sub(s.reportedAt) > staleAfter {
		return nil
	}
	return &sessionVideo{session: s}
}

// Notify implements env.Notifier by queueing a toast for the page.
func (s *Session) Notify(_ context.Context, message, tag string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(Command{
		Type:       CommandNotify,
		Message:    message,
		Tag:        tag,
		DurationMS: d.Milliseconds(),
	})
	return nil
}

// DrainCommands returns and clears the pending command queue.
func (s *Session) DrainCommands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

func (s *Session) enqueueLocked(cmd Command) {
	cmd.ID = uuid.NewString()
	if len(s.queue) >= maxQueuedCommands {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, cmd)
	metrics.IncCommand(cmd.Type)
}

// sessionVideo is a point-in-time handle over the mirrored video state.
type sessionVideo struct {
	session *Session
}

func (v *sessionVideo) CurrentTime() float64 {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	if v.session.snapshot.Video == nil {
		return 0
	}
	return v.session.snapshot.Video.CurrentTime
}

func (v *sessionVideo) Paused() bool {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	if v.session.snapshot.Video == nil {
		return true
	}
	return v.session.snapshot.Video.Paused
}

func (v *sessionVideo) Duration() float64 {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	if v.session.snapshot.Video == nil {
		return 0
	}
	return v.session.snapshot.Video.Duration
}

// SetCurrentTime queues a seek and updates the mirror so consecutive
// reads within the same poll observe the new position.
func (v *sessionVideo) SetCurrentTime(seconds float64) error {
	s := v.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Video != nil {
		s.snapshot.Video.CurrentTime = seconds
	}
	s.enqueueLocked(Command{Type: CommandSeek, Seconds: seconds})
	return nil
}

var (
	_ env.Page     = (*Session)(nil)
	_ env.Player   = (*Session)(nil)
	_ env.Notifier = (*Session)(nil)
	_ env.Video    = (*sessionVideo)(nil)
)

// SPDX-License-Identifier: MIT

// Package env defines the capability boundary between the engine and the
// hosted page. The engine only ever talks to these interfaces; the bridge
// provides the production implementation.
package env

import (
	"context"
	"time"
)

// Page exposes the host page's URL and title.
type Page interface {
	CurrentURL() string
	Title() string
	// RewriteURL replaces the page URL without triggering a navigation.
	RewriteURL(newURL string) error
}

// Video is a handle to the currently mounted video element. Handles are
// point-in-time; callers re-query rather than holding one across polls.
type Video interface {
	CurrentTime() float64
	Paused() bool
	Duration() float64
	// SetCurrentTime seeks the video.
	SetCurrentTime(seconds float64) error
}

// Player locates the active video element.
type Player interface {
	// QueryVideo returns nil while no video element is mounted.
	QueryVideo() Video
}

// Notifier shows a transient message to the user. A returned error means
// the notification was suppressed; callers treat that as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, message, tag string, duration time.Duration) error
}

// NopNotifier drops every notification. Used when notifications are
// disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, time.Duration) error { return nil }

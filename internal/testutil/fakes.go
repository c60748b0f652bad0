// Package testutil provides fake page-environment implementations shared
// by engine tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/seekmark/seekmark/internal/env"
)

// FakePage is a mutable in-memory env.Page.
type FakePage struct {
	mu       sync.Mutex
	url      string
	title    string
	Rewrites []string
	// RewriteErr, when set, is returned by RewriteURL without applying
	// the rewrite.
	RewriteErr error
}

func NewFakePage(url, title string) *FakePage {
	return &FakePage{url: url, title: title}
}

func (p *FakePage) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *FakePage) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *FakePage) RewriteURL(newURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RewriteErr != nil {
		return p.RewriteErr
	}
	p.url = newURL
	p.Rewrites = append(p.Rewrites, newURL)
	return nil
}

// Navigate simulates a client-side navigation.
func (p *FakePage) Navigate(url, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.title = title
}

// FakeVideo is a mutable in-memory env.Video.
type FakeVideo struct {
	mu       sync.Mutex
	time     float64
	paused   bool
	duration float64
	Seeks    []float64
	SeekErr  error
}

func NewFakeVideo(currentTime, duration float64, paused bool) *FakeVideo {
	return &FakeVideo{time: currentTime, duration: duration, paused: paused}
}

func (v *FakeVideo) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.time
}

func (v *FakeVideo) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paused
}

func (v *FakeVideo) Duration() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.duration
}

func (v *FakeVideo) SetCurrentTime(seconds float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.SeekErr != nil {
		return v.SeekErr
	}
	v.time = seconds
	v.Seeks = append(v.Seeks, seconds)
	return nil
}

// Set adjusts the playback state between polls.
func (v *FakeVideo) Set(currentTime float64, paused bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.time = currentTime
	v.paused = paused
}

// FakePlayer returns a configurable video handle.
type FakePlayer struct {
	mu    sync.Mutex
	video env.Video
}

func NewFakePlayer(video env.Video) *FakePlayer {
	return &FakePlayer{video: video}
}

func (p *FakePlayer) QueryVideo() env.Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.video
}

// SetVideo swaps the mounted video; nil simulates an unmounted player.
func (p *FakePlayer) SetVideo(video env.Video) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.video = video
}

// Notification records one FakeNotifier call.
type Notification struct {
	Message string
	Tag     string
}

// FakeNotifier records notifications.
type FakeNotifier struct {
	mu    sync.Mutex
	Err   error
	calls []Notification
}

func (n *FakeNotifier) Notify(_ context.Context, message, tag string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.calls = append(n.calls, Notification{Message: message, Tag: tag})
	return nil
}

func (n *FakeNotifier) Calls() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.calls))
	copy(out, n.calls)
	return out
}

var (
	_ env.Page     = (*FakePage)(nil)
	_ env.Video    = (*FakeVideo)(nil)
	_ env.Player   = (*FakePlayer)(nil)
	_ env.Notifier = (*FakeNotifier)(nil)
)

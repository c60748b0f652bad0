package nav

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/testutil"
)

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch page", "https://vid.example/watch?v=abc123", "abc123"},
		{"extra params", "https://vid.example/watch?v=abc123&t=30s&list=x", "abc123"},
		{"no video param", "https://vid.example/feed/subscriptions", ""},
		{"empty value", "https://vid.example/watch?v=", ""},
		{"malformed url", "://watch?v=abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VideoIDFromURL(tt.url, "v"))
		})
	}
}

func settingsWith(mutate func(*config.Settings)) func() config.Settings {
	s := config.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	return func() config.Settings { return s }
}

func TestDetectorCurrentVideoID(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc123", "some video")
	d := NewDetector(page, settingsWith(nil))
	assert.Equal(t, "abc123", d.CurrentVideoID())

	page.Navigate("https://vid.example/feed", "feed")
	assert.Empty(t, d.CurrentVideoID())
}

func TestMaybeStripTimeParam(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?t=30s&v=abc123", "some video")
	d := NewDetector(page, settingsWith(func(s *config.Settings) { s.RemoveTimestampFromURL = true }))

	d.MaybeStripTimeParam()

	assert.Equal(t, "https://vid.example/watch?v=abc123", page.CurrentURL())
	assert.Len(t, page.Rewrites, 1)
}

func TestMaybeStripTimeParamDisabled(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc123&t=30s", "some video")
	d := NewDetector(page, settingsWith(nil))

	d.MaybeStripTimeParam()

	assert.Empty(t, page.Rewrites)
}

func TestMaybeStripTimeParamNoTimePresent(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc123", "some video")
	d := NewDetector(page, settingsWith(func(s *config.Settings) { s.RemoveTimestampFromURL = true }))

	d.MaybeStripTimeParam()

	assert.Empty(t, page.Rewrites)
}

func TestMaybeStripTimeParamRewriteFailureIsSwallowed(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc123&t=30s", "some video")
	page.RewriteErr = errors.New("page went away")
	d := NewDetector(page, settingsWith(func(s *config.Settings) { s.RemoveTimestampFromURL = true }))

	// Must not panic or propagate.
	d.MaybeStripTimeParam()
	assert.Equal(t, "https://vid.example/watch?v=abc123&t=30s", page.CurrentURL())
}

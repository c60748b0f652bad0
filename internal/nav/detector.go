package nav

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/env"
	xlog "github.com/seekmark/seekmark/internal/log"
)

// VideoIDFromURL extracts the video id query parameter from rawURL. An
// empty result means no active video (browse page, malformed URL).
func VideoIDFromURL(rawURL, param string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(param)
}

// Detector derives the current video identity from the page environment.
type Detector struct {
	page     env.Page
	settings func() config.Settings
	logger   zerolog.Logger
}

// NewDetector creates a Detector over the given page environment.
func NewDetector(page env.Page, settings func() config.Settings) *Detector {
	return &Detector{
		page:     page,
		settings: settings,
		logger:   xlog.WithComponent("nav.detector"),
	}
}

// CurrentVideoID returns the id of the video the page is showing, or ""
// when there is none.
func (d *Detector) CurrentVideoID() string {
	return VideoIDFromURL(d.page.CurrentURL(), d.settings().VideoIDParam)
}

// MaybeStripTimeParam removes the time parameter from the page URL via a
// non-reloading rewrite when that behavior is enabled. Failures are
// logged and never block detection.
func (d *Detector) MaybeStripTimeParam() {
	s := d.settings()
	if !s.RemoveTimestampFromURL {
		return
	}

	rawURL := d.page.CurrentURL()
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	q := u.Query()
	if !q.Has(s.TimeParam) {
		return
	}
	q.Del(s.TimeParam)
	u.RawQuery = q.Encode()

	if err := d.page.RewriteURL(u.String()); err != nil {
		d.logger.Warn().
			Err(err).
			Str(xlog.FieldEvent, "nav.strip_time_failed").
			Str(xlog.FieldURL, rawURL).
			Msg("could not strip time parameter from URL")
	}
}

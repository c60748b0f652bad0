package resolver

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
)

// clockSpecRe matches "<H>h<M>m<S>s" time specs with any subset of
// components present, e.g. "1h2m3s", "2m30s", "90s".
var clockSpecRe = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+(?:\.\d+)?)s)?$`)

// ParseTimeParam extracts the time parameter (param) from rawURL and
// converts it to seconds. It accepts plain seconds ("125") and clock
// specs ("1h2m5s"). Malformed values are treated as "no URL time
// present" — the second return is false.
func ParseTimeParam(rawURL, param string) (float64, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	raw := u.Query().Get(param)
	if raw == "" {
		return 0, false
	}
	return parseClockSpec(raw)
}

func parseClockSpec(raw string) (float64, bool) {
	// Plain number of seconds. ParseFloat also accepts "Inf", "Infinity"
	// and "NaN"; those are not positions.
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}
		return secs, true
	}

	m := clockSpecRe.FindStringSubmatch(raw)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, false
	}

	var total float64
	if m[1] != "" {
		h, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		total += h * 3600
	}
	if m[2] != "" {
		min, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		total += min * 60
	}
	if m[3] != "" {
		s, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, false
		}
		total += s
	}
	return total, true
}

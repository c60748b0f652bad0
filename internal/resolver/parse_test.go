package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeParam(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want float64
		ok   bool
	}{
		{"plain seconds", "https://vid.example/watch?v=abc&t=125", 125, true},
		{"seconds with unit", "https://vid.example/watch?v=abc&t=90s", 90, true},
		{"minutes and seconds", "https://vid.example/watch?v=abc&t=2m30s", 150, true},
		{"full clock spec", "https://vid.example/watch?v=abc&t=1h2m3s", 3723, true},
		{"hours only", "https://vid.example/watch?v=abc&t=2h", 7200, true},
		{"fractional seconds", "https://vid.example/watch?v=abc&t=12.5", 12.5, true},
		{"missing param", "https://vid.example/watch?v=abc", 0, false},
		{"empty param", "https://vid.example/watch?v=abc&t=", 0, false},
		{"garbage", "https://vid.example/watch?v=abc&t=later", 0, false},
		{"negative seconds", "https://vid.example/watch?v=abc&t=-10", 0, false},
		{"positive infinity", "https://vid.example/watch?v=abc&t=Inf", 0, false},
		{"infinity literal", "https://vid.example/watch?v=abc&t=Infinity", 0, false},
		{"not a number", "https://vid.example/watch?v=abc&t=NaN", 0, false},
		{"unit soup", "https://vid.example/watch?v=abc&t=1x2y", 0, false},
		{"unparseable url", "://not-a-url?t=10", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeParam(tt.url, "t")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseTimeParamCustomName(t *testing.T) {
	got, ok := ParseTimeParam("https://vid.example/watch?v=abc&start=42", "start")
	assert.True(t, ok)
	assert.Equal(t, float64(42), got)
}

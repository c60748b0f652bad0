package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/store"
)

func newTestResolver(t *testing.T, mutate func(*config.Settings)) (*Resolver, *store.Store) {
	t.Helper()
	settings := config.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	st := store.New(store.NewMemoryBackend(), func() int { return settings.MaxStoredTimestamps }, fake)
	r := New(st, func() config.Settings { return settings }, fake)
	return r, st
}

func TestLoadNoRecord(t *testing.T) {
	r, _ := newTestResolver(t, nil)

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc")
	assert.Nil(t, rec)
	assert.Equal(t, DecisionNone, decision)
}

func TestLoadPlainResume(t *testing.T) {
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 125.4, Duration: 600}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionResume, decision)
	assert.Equal(t, 125.4, rec.Time)
}

func TestLoadURLOverride(t *testing.T) {
	// Stored 100, URL 140: delta 40 > 30 means the link wins.
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 100, Duration: 600}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc&t=140")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionURLOverride, decision)
	assert.Equal(t, float64(140), rec.Time)
}

func TestLoadURLWithinDeltaFallsThrough(t *testing.T) {
	// Stored 100, URL 115: delta 15 <= 30 is treated as noise.
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 100, Duration: 600}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc&t=115")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionResume, decision)
	assert.Equal(t, float64(100), rec.Time)
}

func TestLoadURLIgnoredWhenSmartHandlingOff(t *testing.T) {
	r, st := newTestResolver(t, func(s *config.Settings) { s.SmartURLHandling = false })
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 100, Duration: 600}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc&t=500")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionResume, decision)
	assert.Equal(t, float64(100), rec.Time)
}

func TestLoadNearEndRestarts(t *testing.T) {
	// Stored 500 of 520: 20s from the end is credits, restart at 0.
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 500, Duration: 520}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionRestart, decision)
	assert.Zero(t, rec.Time)
}

func TestLoadNearEndBoundary(t *testing.T) {
	const duration = 600.0

	tests := []struct {
		name string
		time float64
		want Decision
	}{
		{"just outside the window", duration - 30.0000001, DecisionResume},
		{"just inside the window", duration - 29.9999999, DecisionRestart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, st := newTestResolver(t, nil)
			require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: tt.time, Duration: duration}))

			rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc")
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestLoadUnknownDurationNeverRestarts(t *testing.T) {
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 10, Duration: 0}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionResume, decision)
}

func TestLoadURLOverrideBeatsNearEndReset(t *testing.T) {
	// Both rules would apply; the URL override is evaluated first.
	r, st := newTestResolver(t, nil)
	require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 500, Duration: 520}))

	rec, decision := r.Load(t.Context(), "abc", "https://vid.example/watch?v=abc&t=100")
	require.NotNil(t, rec)
	assert.Equal(t, DecisionURLOverride, decision)
	assert.Equal(t, float64(100), rec.Time)
}

func TestLoadMalformedURLTimeFallsThrough(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"garbage", "https://vid.example/watch?v=abc&t=bogus"},
		{"infinity", "https://vid.example/watch?v=abc&t=Inf"},
		{"not a number", "https://vid.example/watch?v=abc&t=NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, st := newTestResolver(t, nil)
			require.True(t, st.Save(t.Context(), store.Record{VideoID: "abc", Time: 100, Duration: 600}))

			rec, decision := r.Load(t.Context(), "abc", tt.url)
			require.NotNil(t, rec)
			assert.Equal(t, DecisionResume, decision)
			assert.Equal(t, float64(100), rec.Time)
		})
	}
}

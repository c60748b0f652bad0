package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/history"
	"github.com/seekmark/seekmark/internal/store"
)

type serverFixture struct {
	session *Session
	st      *store.Store
	journal *history.Journal
	signals []string
	saved   bool
	ts      *httptest.Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	f := &serverFixture{
		session: NewSession(fake),
		st:      store.New(store.NewMemoryBackend(), func() int { return 100 }, fake),
	}

	journal, err := history.Open(t.TempDir(), fake)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	f.journal = journal

	srv := New(Config{
		Session: f.session,
		Store:   f.st,
		Journal: f.journal,
		ForceSave: func(context.Context) bool {
			f.saved = true
			return true
		},
		Restore: func(context.Context) {},
		Signal:  func(source string) { f.signals = append(f.signals, source) },
		Version: "test",
	})
	f.ts = httptest.NewServer(srv)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestWriteJSONToleratesEncodeFailure(t *testing.T) {
	srv := New(Config{})

	// +Inf has no JSON representation; the failure is logged, never panics.
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		srv.writeJSON(rec, http.StatusOK, map[string]float64{"seconds": math.Inf(1)})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestSnapshotUpdatesSessionAndSignals(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodPost, "/v1/snapshot", Snapshot{
		URL:   "https://vid.example/watch?v=abc",
		Title: "abc video",
		Video: &VideoSnapshot{CurrentTime: 120, Duration: 600},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "https://vid.example/watch?v=abc", f.session.CurrentURL())
	assert.Equal(t, []string{"snapshot"}, f.signals)

	body := decode[struct {
		Commands []Command `json:"commands"`
	}](t, resp)
	assert.Empty(t, body.Commands)
}

func TestSnapshotReturnsQueuedCommands(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.session.Notify(t.Context(), "hi", "greeting", time.Second))

	resp := f.do(t, http.MethodPost, "/v1/snapshot", Snapshot{URL: "https://vid.example/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Commands []Command `json:"commands"`
	}](t, resp)
	require.Len(t, body.Commands, 1)
	assert.Equal(t, CommandNotify, body.Commands[0].Type)
}

func TestSnapshotRejectsMalformedBody(t *testing.T) {
	f := newServerFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/v1/snapshot", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, f.signals)
}

func TestSignalEndpoint(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodPost, "/v1/signal", map[string]string{"source": "popstate"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"popstate"}, f.signals)

	resp = f.do(t, http.MethodPost, "/v1/signal", map[string]string{})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"popstate", "page"}, f.signals)
}

func TestTimestampCRUD(t *testing.T) {
	f := newServerFixture(t)

	// Upsert via the API.
	resp := f.do(t, http.MethodPut, "/v1/timestamps/abc", store.Record{Time: 120, Duration: 600, Title: "abc video"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/v1/timestamps/abc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[store.Record](t, resp)
	assert.Equal(t, "abc", rec.VideoID)
	assert.Equal(t, float64(120), rec.Time)

	resp = f.do(t, http.MethodGet, "/v1/timestamps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Timestamps []store.Record `json:"timestamps"`
	}](t, resp)
	assert.Len(t, list.Timestamps, 1)

	resp = f.do(t, http.MethodDelete, "/v1/timestamps/abc", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/v1/timestamps/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutInvalidTimestampRejected(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodPut, "/v1/timestamps/abc", store.Record{Time: -5})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteMissingTimestamp(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodDelete, "/v1/timestamps/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearTimestamps(t *testing.T) {
	f := newServerFixture(t)
	require.True(t, f.st.Save(t.Context(), store.Record{VideoID: "abc", Time: 120}))
	require.True(t, f.st.Save(t.Context(), store.Record{VideoID: "def", Time: 60}))

	resp := f.do(t, http.MethodDelete, "/v1/timestamps", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	records, err := f.st.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryEndpoint(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.journal.Append(t.Context(), history.KindSave, "abc", 120, ""))

	resp := f.do(t, http.MethodGet, "/v1/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Events []history.Event `json:"events"`
	}](t, resp)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "abc", body.Events[0].VideoID)

	resp = f.do(t, http.MethodGet, "/v1/history?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	fake := clock.NewFake(time.Now())
	srv := New(Config{
		Session: NewSession(fake),
		Store:   store.New(store.NewMemoryBackend(), func() int { return 100 }, fake),
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/v1/history")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActionSave(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodPost, "/v1/actions/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]bool](t, resp)
	assert.True(t, body["saved"])
	assert.True(t, f.saved)
}

func TestActionRestore(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodPost, "/v1/actions/restore", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

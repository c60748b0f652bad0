package nav

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/seekmark/seekmark/internal/clock"
	"github.com/seekmark/seekmark/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type settleRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *settleRecorder) onSettled(videoID, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, videoID)
}

func (r *settleRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func newTestWatcher(page *testutil.FakePage) (*Watcher, *clock.Fake, *settleRecorder) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &settleRecorder{}
	w := NewWatcher(page, settingsWith(nil), fake, rec.onSettled)
	return w, fake, rec
}

func TestRedundantSignalsSettleOnce(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc", "abc video")
	w, fake, rec := newTestWatcher(page)
	defer w.Stop()

	// Two redundant signals for the same URL change, 50ms apart.
	w.Signal("title")
	fake.Advance(50 * time.Millisecond)
	w.Signal("dom")

	// Settle delay (1.2s) counts from the last signal.
	fake.Advance(1150 * time.Millisecond)
	assert.Empty(t, rec.Calls(), "settle must not fire before the debounce elapses")

	fake.Advance(50 * time.Millisecond)
	require.Equal(t, []string{"abc"}, rec.Calls(), "exactly one restoration per settle window")

	// Further quiet time adds nothing.
	fake.Advance(10 * time.Second)
	assert.Len(t, rec.Calls(), 1)
}

func TestSignalWithoutChangeIsNoOp(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc", "abc video")
	w, fake, rec := newTestWatcher(page)
	defer w.Stop()

	w.Signal("dom")
	fake.Advance(2 * time.Second)
	require.Len(t, rec.Calls(), 1)

	// Same URL, same video id: nothing to debounce.
	w.Signal("dom")
	w.Signal("popstate")
	fake.Advance(5 * time.Second)
	assert.Len(t, rec.Calls(), 1)
}

func TestSupersededNavigationNeverSettles(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=a", "a")
	w, fake, rec := newTestWatcher(page)
	defer w.Stop()

	w.Signal("popstate")
	fake.Advance(600 * time.Millisecond)

	// A second navigation arrives before the first settles.
	page.Navigate("https://vid.example/watch?v=b", "b")
	w.Signal("popstate")

	// The first navigation's window elapses without firing.
	fake.Advance(700 * time.Millisecond)
	assert.Empty(t, rec.Calls())

	fake.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"b"}, rec.Calls(), "only the last navigation may settle")
}

func TestSettleRederivesAtFireTime(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=a", "a")
	w, fake, rec := newTestWatcher(page)
	defer w.Stop()

	w.Signal("hashchange")
	// The URL changes again during the settle window with no signal at
	// all (missed by every source); settle still sees the final state.
	page.Navigate("https://vid.example/watch?v=late", "late")

	fake.Advance(2 * time.Second)
	assert.Equal(t, []string{"late"}, rec.Calls())
}

func TestStopCancelsPendingSettle(t *testing.T) {
	page := testutil.NewFakePage("https://vid.example/watch?v=abc", "abc video")
	w, fake, rec := newTestWatcher(page)

	w.Signal("dom")
	w.Stop()

	fake.Advance(10 * time.Second)
	assert.Empty(t, rec.Calls(), "a partially-elapsed debounce must not fire after Stop")
}

func TestPollDetectsSilentURLChange(t *testing.T) {
	page := testutil.NewFakePage("", "")
	w, fake, rec := newTestWatcher(page)
	defer w.Stop()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	w.Start(ctx)

	page.Navigate("https://vid.example/watch?v=abc", "abc video")

	// The poll goroutine consumes ticks asynchronously, so keep advancing
	// until the tick, the signal and the settle have all run through.
	waitFor(t, func() bool {
		fake.Advance(time.Second)
		return len(rec.Calls()) > 0
	})
	assert.Equal(t, []string{"abc"}, rec.Calls())
	cancel()
}

// waitFor polls cond briefly; the poll goroutine delivers settle calls
// asynchronously even under the fake clock.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

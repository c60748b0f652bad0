package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAdvanceFiresDueTimers(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	timer := fake.NewTimer(time.Second)

	fake.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case at := <-timer.C():
		assert.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	assert.Equal(t, start.Add(time.Second), fake.Now())
}

func TestFakeAfterFuncStopAndReset(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	fired := 0
	timer := fake.AfterFunc(time.Second, func() { fired++ })

	require.True(t, timer.Stop())
	fake.Advance(2 * time.Second)
	assert.Zero(t, fired, "stopped timer must not fire")

	timer.Reset(time.Second)
	fake.Advance(time.Second)
	assert.Equal(t, 1, fired)

	// A fired timer does not fire again without another Reset.
	fake.Advance(10 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	var order []string
	fake.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	fake.AfterFunc(time.Second, func() { order = append(order, "a") })
	fake.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	fake.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

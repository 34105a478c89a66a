package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFired(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func assertNotFired(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("timer fired unexpectedly")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerFires(t *testing.T) {
	s := NewTimerService()
	defer s.Shutdown()

	fired := make(chan struct{}, 1)
	s.Set(1, 10*time.Millisecond, func() { fired <- struct{}{} })
	require.True(t, s.Pending(1))

	waitFired(t, fired)
	assert.False(t, s.Pending(1))
}

func TestTimerSetSupersedes(t *testing.T) {
	s := NewTimerService()
	defer s.Shutdown()

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	s.Set(1, 20*time.Millisecond, func() { first <- struct{}{} })
	s.Set(1, 40*time.Millisecond, func() { second <- struct{}{} })

	waitFired(t, second)
	assertNotFired(t, first)
}

func TestTimerCancelWins(t *testing.T) {
	s := NewTimerService()
	defer s.Shutdown()

	fired := make(chan struct{}, 1)
	s.Set(1, 30*time.Millisecond, func() { fired <- struct{}{} })
	require.True(t, s.Cancel(1))
	assert.False(t, s.Pending(1))

	assertNotFired(t, fired)
	assert.False(t, s.Cancel(1))
}

func TestTimerPerGameIsolation(t *testing.T) {
	s := NewTimerService()
	defer s.Shutdown()

	fired := make(chan struct{}, 1)
	s.Set(1, 20*time.Millisecond, func() { fired <- struct{}{} })
	s.Set(2, time.Hour, func() {})

	require.True(t, s.Cancel(2))
	waitFired(t, fired)
}

func TestTimerCallbackMayReschedule(t *testing.T) {
	s := NewTimerService()
	defer s.Shutdown()

	second := make(chan struct{}, 1)
	s.Set(1, 10*time.Millisecond, func() {
		s.Set(1, 10*time.Millisecond, func() { second <- struct{}{} })
	})

	waitFired(t, second)
}

func TestTimerShutdownCancelsAll(t *testing.T) {
	s := NewTimerService()

	fired := make(chan struct{}, 2)
	s.Set(1, 30*time.Millisecond, func() { fired <- struct{}{} })
	s.Set(2, 30*time.Millisecond, func() { fired <- struct{}{} })
	s.Shutdown()

	assertNotFired(t, fired)
	assert.False(t, s.Pending(1))
	assert.False(t, s.Pending(2))
}

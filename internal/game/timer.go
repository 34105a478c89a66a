package game

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/exchangebot/core/logger"
)

// TimerService owns at most one outstanding delayed callback per game id.
// Scheduling a new timer supersedes and cancels any prior timer for the same
// game. Cancellation wins over a concurrent fire: once Cancel removed the
// handle, the pending callback never runs.
type TimerService struct {
	mu     sync.Mutex
	timers map[int64]*timerHandle
}

type timerHandle struct {
	timer *time.Timer
}

// NewTimerService returns an empty service.
func NewTimerService() *TimerService {
	return &TimerService{timers: make(map[int64]*timerHandle)}
}

// Set schedules fn to run after delay, replacing any timer already pending
// for gameID. The handle is removed before fn is invoked, so fn may schedule
// a follow-up timer for the same game.
func (s *TimerService) Set(gameID int64, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[gameID]; ok {
		prev.timer.Stop()
		delete(s.timers, gameID)
		logger.TIMER.Debug("timer superseded", slog.Int64("game_id", gameID))
	}

	h := &timerHandle{}
	h.timer = time.AfterFunc(delay, func() {
		// The fire only proceeds if this handle is still the registered one.
		// A cancel or supersede that raced us already removed it.
		s.mu.Lock()
		cur, ok := s.timers[gameID]
		if !ok || cur != h {
			s.mu.Unlock()
			return
		}
		delete(s.timers, gameID)
		s.mu.Unlock()

		logger.TIMER.Debug("timer fired", slog.Int64("game_id", gameID))
		fn()
	})
	s.timers[gameID] = h

	logger.TIMER.Debug("timer set",
		slog.Int64("game_id", gameID),
		slog.Duration("delay", delay),
	)
}

// Cancel removes the pending timer for gameID, if any, and reports whether
// one was pending.
func (s *TimerService) Cancel(gameID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.timers[gameID]
	if !ok {
		return false
	}
	h.timer.Stop()
	delete(s.timers, gameID)
	logger.TIMER.Debug("timer cancelled", slog.Int64("game_id", gameID))
	return true
}

// Pending reports whether a timer is outstanding for gameID.
func (s *TimerService) Pending(gameID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[gameID]
	return ok
}

// Shutdown cancels every pending timer.
func (s *TimerService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.timers {
		h.timer.Stop()
		delete(s.timers, id)
	}
}

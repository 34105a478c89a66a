package game

import "sync"

// chatLocks serializes all game mutations per chat. A chat hosts at most one
// active game, so per-chat exclusivity implies per-game exclusivity for
// timer firings racing inbound events.
//
// Grown entries are never removed; the set of chats a bot serves is small
// and stable.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*sync.Mutex)}
}

// Do runs fn while holding the lock of chatID. The lock is released on every
// exit path, including panics inside fn.
func (l *chatLocks) Do(chatID int64, fn func() error) error {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}

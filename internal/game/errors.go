package game

import "errors"

// ErrSessionFinished guards trades addressed at a session that is no longer
// the game's current one (stale buttons after a rollover). Handlers recover
// from it locally with a chat notice; it never fails event processing.
var ErrSessionFinished = errors.New("session already finished")

package game

// Sender identifies the user behind an inbound event.
type Sender struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

// Event is a transport-agnostic inbound update: either a text command or an
// inline-button callback with a string payload. Exactly one of Text and
// Callback is set.
type Event struct {
	ChatTelegramID int64
	Sender         Sender
	Text           string
	Callback       string
}

// IsCallback reports whether the event carries a callback payload.
func (e Event) IsCallback() bool {
	return e.Callback != ""
}

// Package telegram wraps the Bot API client used to deliver replies.
package telegram

// Button is one inline keyboard button. Exactly one of URL or Data is
// set: URL buttons open a link, Data buttons send a callback query.
type Button struct {
	Text string
	URL  string
	Data string
}

// Keyboard is an inline keyboard laid out as rows of buttons.
type Keyboard [][]Button

// MessageRef identifies a sent message for later edit or delete calls.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

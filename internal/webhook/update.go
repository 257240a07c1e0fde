// Package webhook receives Telegram update payloads and runs the
// reply pipeline for each inbound event.
package webhook

import "strconv"

// Update is the inbound Telegram webhook payload, reduced to the
// fields the pipeline consumes.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User identifies the sender of a message or callback.
type User struct {
	ID int64 `json:"id"`
}

// CallbackQuery is an inline-button press. Its Data payload is
// processed exactly like inbound message text.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message,omitempty"`
	From    User     `json:"from"`
}

// event normalizes an update into the fields the pipeline works with.
type event struct {
	kind       string // "message" or "callback"
	text       string
	chatID     int64
	userID     string
	callbackID string
}

// normalize extracts a processable event from an update. The second
// return is false for update types this service does not handle
// (edits, channel posts, media without text).
func (u *Update) normalize() (event, bool) {
	if u.CallbackQuery != nil && u.CallbackQuery.Data != "" && u.CallbackQuery.Message != nil {
		return event{
			kind:       "callback",
			text:       u.CallbackQuery.Data,
			chatID:     u.CallbackQuery.Message.Chat.ID,
			userID:     strconv.FormatInt(u.CallbackQuery.From.ID, 10),
			callbackID: u.CallbackQuery.ID,
		}, true
	}

	if u.Message != nil && u.Message.Text != "" {
		ev := event{
			kind:   "message",
			text:   u.Message.Text,
			chatID: u.Message.Chat.ID,
		}
		if u.Message.From != nil {
			ev.userID = strconv.FormatInt(u.Message.From.ID, 10)
		}
		return ev, true
	}

	return event{}, false
}

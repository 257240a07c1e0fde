package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/yuweiho/tg-replyhub-go/internal/ratelimit"
)

// Sender is the outbound Bot API surface the dispatcher needs.
// Every call carries the bot credential because this service hosts
// many bots behind one process.
type Sender interface {
	SendText(ctx context.Context, credential string, chatID int64, text string, keyboard Keyboard) (MessageRef, error)
	SendPhoto(ctx context.Context, credential string, chatID int64, url, caption string, keyboard Keyboard) (MessageRef, error)
	SendDocument(ctx context.Context, credential string, chatID int64, url, caption string, keyboard Keyboard) (MessageRef, error)
	EditText(ctx context.Context, credential string, ref MessageRef, text string) error
	Delete(ctx context.Context, credential string, ref MessageRef) error
	AnswerCallback(ctx context.Context, credential string, callbackID string) error
	RegisterWebhook(ctx context.Context, credential, url string) error
	DropWebhook(ctx context.Context, credential string) error
}

// BotSender implements Sender on top of the telebot client. Bot
// instances are constructed offline (no getMe probe) and cached per
// credential; a shared token bucket paces all outbound calls so one
// busy tenant cannot trip global Bot API limits.
type BotSender struct {
	mu     sync.Mutex
	bots   map[string]*tele.Bot
	client *http.Client
	pacer  *ratelimit.Limiter
}

// NewBotSender creates a sender. rps caps outbound Bot API calls per
// second across all tenants; timeout bounds each HTTP call.
func NewBotSender(rps float64, timeout time.Duration) *BotSender {
	return &BotSender{
		bots:   make(map[string]*tele.Bot),
		client: &http.Client{Timeout: timeout},
		pacer:  ratelimit.New(rps, rps),
	}
}

// bot returns the cached telebot instance for a credential, creating
// one on first use. Offline mode skips the getMe call so unknown or
// revoked credentials fail at send time, not construction time.
func (s *BotSender) bot(credential string) (*tele.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bots[credential]; ok {
		return b, nil
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   credential,
		Offline: true,
		Client:  s.client,
	})
	if err != nil {
		return nil, fmt.Errorf("create bot client: %w", err)
	}
	s.bots[credential] = b
	return b, nil
}

// Forget drops the cached client for a credential. Called when a bot
// is deleted or its credential rotated.
func (s *BotSender) Forget(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bots, credential)
}

func (s *BotSender) pace(ctx context.Context) error {
	if err := s.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("pacing outbound call: %w", err)
	}
	return nil
}

func sendOptions(keyboard Keyboard) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if len(keyboard) > 0 {
		rows := make([][]tele.InlineButton, 0, len(keyboard))
		for _, row := range keyboard {
			teleRow := make([]tele.InlineButton, 0, len(row))
			for _, btn := range row {
				teleRow = append(teleRow, tele.InlineButton{
					Text: btn.Text,
					URL:  btn.URL,
					Data: btn.Data,
				})
			}
			rows = append(rows, teleRow)
		}
		opts.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: rows}
	}
	return opts
}

func messageRef(msg *tele.Message, chatID int64) MessageRef {
	if msg == nil {
		return MessageRef{ChatID: chatID}
	}
	return MessageRef{ChatID: chatID, MessageID: msg.ID}
}

// SendText delivers a plain text message with an optional inline keyboard.
func (s *BotSender) SendText(ctx context.Context, credential string, chatID int64, text string, keyboard Keyboard) (MessageRef, error) {
	if err := s.pace(ctx); err != nil {
		return MessageRef{}, err
	}
	b, err := s.bot(credential)
	if err != nil {
		return MessageRef{}, err
	}

	msg, err := b.Send(tele.ChatID(chatID), text, sendOptions(keyboard))
	if err != nil {
		return MessageRef{}, fmt.Errorf("send text: %w", err)
	}
	return messageRef(msg, chatID), nil
}

// SendPhoto delivers a photo by URL; Telegram fetches the file itself.
func (s *BotSender) SendPhoto(ctx context.Context, credential string, chatID int64, url, caption string, keyboard Keyboard) (MessageRef, error) {
	if err := s.pace(ctx); err != nil {
		return MessageRef{}, err
	}
	b, err := s.bot(credential)
	if err != nil {
		return MessageRef{}, err
	}

	photo := &tele.Photo{File: tele.FromURL(url), Caption: caption}
	msg, err := b.Send(tele.ChatID(chatID), photo, sendOptions(keyboard))
	if err != nil {
		return MessageRef{}, fmt.Errorf("send photo: %w", err)
	}
	return messageRef(msg, chatID), nil
}

// SendDocument delivers a document by URL.
func (s *BotSender) SendDocument(ctx context.Context, credential string, chatID int64, url, caption string, keyboard Keyboard) (MessageRef, error) {
	if err := s.pace(ctx); err != nil {
		return MessageRef{}, err
	}
	b, err := s.bot(credential)
	if err != nil {
		return MessageRef{}, err
	}

	doc := &tele.Document{File: tele.FromURL(url), Caption: caption}
	msg, err := b.Send(tele.ChatID(chatID), doc, sendOptions(keyboard))
	if err != nil {
		return MessageRef{}, fmt.Errorf("send document: %w", err)
	}
	return messageRef(msg, chatID), nil
}

// EditText replaces the text of a previously sent message.
func (s *BotSender) EditText(ctx context.Context, credential string, ref MessageRef, text string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	b, err := s.bot(credential)
	if err != nil {
		return err
	}

	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	if _, err := b.Edit(stored, text); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// Delete removes a previously sent message.
func (s *BotSender) Delete(ctx context.Context, credential string, ref MessageRef) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	b, err := s.bot(credential)
	if err != nil {
		return err
	}

	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	if err := b.Delete(stored); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query so the client stops
// showing its loading spinner.
func (s *BotSender) AnswerCallback(ctx context.Context, credential string, callbackID string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	b, err := s.bot(credential)
	if err != nil {
		return err
	}

	if err := b.Respond(&tele.Callback{ID: callbackID}); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// RegisterWebhook points the bot's webhook at the given URL.
func (s *BotSender) RegisterWebhook(ctx context.Context, credential, url string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	b, err := s.bot(credential)
	if err != nil {
		return err
	}

	if _, err := b.Raw("setWebhook", map[string]string{"url": url}); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DropWebhook removes the bot's webhook registration.
func (s *BotSender) DropWebhook(ctx context.Context, credential string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	b, err := s.bot(credential)
	if err != nil {
		return err
	}

	if _, err := b.Raw("deleteWebhook", map[string]string{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

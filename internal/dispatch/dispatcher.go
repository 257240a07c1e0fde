package dispatch

import (
	"context"
	"time"

	apperrors "github.com/yuweiho/tg-replyhub-go/internal/errors"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/metrics"
	"github.com/yuweiho/tg-replyhub-go/internal/telegram"
)

// URLResolver follows redirects on a media URL and returns the final
// location. Used for link-shortened or redirecting image endpoints.
type URLResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Dispatcher classifies reply bodies and sends them through the Bot
// API with a one-shot plain-text fallback.
type Dispatcher struct {
	sender   telegram.Sender
	resolver URLResolver // nil disables redirect resolution
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a Dispatcher. resolver may be nil to send media URLs
// as-is without following redirects.
func New(sender telegram.Sender, resolver URLResolver, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		resolver: resolver,
		log:      log.WithModule("dispatch"),
		metrics:  m,
		now:      time.Now,
	}
}

// Dispatch sends a reply body to a chat. Photo and document sends that
// fail are retried exactly once as a plain text message carrying the
// original body without a keyboard; a text send with a keyboard gets
// the same bare retry. Further failures surface as a DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, credential string, chatID int64, body string, keyboard telegram.Keyboard) (telegram.MessageRef, error) {
	c := Classify(body)

	ref, err := d.attempt(ctx, credential, chatID, body, keyboard, c)
	if err == nil {
		d.recordDispatch(string(c.Method), "success")
		return ref, nil
	}
	d.recordDispatch(string(c.Method), "error")

	if c.Method == MethodText && len(keyboard) == 0 {
		return telegram.MessageRef{}, apperrors.NewDispatchError(string(c.Method), chatID, err)
	}

	d.log.WithError(err).WithField("chat_id", chatID).
		Warnf("%s send failed, falling back to plain text", c.Method)
	if d.metrics != nil {
		d.metrics.RecordFallback()
	}

	ref, fallbackErr := d.sender.SendText(ctx, credential, chatID, body, nil)
	if fallbackErr != nil {
		d.recordDispatch("fallback", "error")
		return telegram.MessageRef{}, apperrors.NewDispatchError("fallback", chatID, fallbackErr)
	}
	d.recordDispatch("fallback", "success")
	return ref, nil
}

func (d *Dispatcher) attempt(ctx context.Context, credential string, chatID int64, body string, keyboard telegram.Keyboard, c Classification) (telegram.MessageRef, error) {
	switch c.Method {
	case MethodPhoto:
		url, err := d.mediaURL(ctx, c)
		if err != nil {
			return telegram.MessageRef{}, err
		}
		return d.sender.SendPhoto(ctx, credential, chatID, url, c.Caption, keyboard)
	case MethodDocument:
		return d.sender.SendDocument(ctx, credential, chatID, c.URL, c.Caption, keyboard)
	default:
		return d.sender.SendText(ctx, credential, chatID, body, keyboard)
	}
}

// mediaURL resolves redirects for dynamic image endpoints and
// cache-busts the result so repeated triggers yield fresh images.
func (d *Dispatcher) mediaURL(ctx context.Context, c Classification) (string, error) {
	url := c.URL
	if !c.Dynamic {
		return url, nil
	}

	if d.resolver != nil {
		resolved, err := d.resolver.Resolve(ctx, url)
		if err != nil {
			return "", err
		}
		url = resolved
	}
	return cacheBust(url, d.now()), nil
}

func (d *Dispatcher) recordDispatch(method, status string) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(method, status)
	}
}

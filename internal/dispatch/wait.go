package dispatch

import (
	"context"
	"fmt"

	"github.com/yuweiho/tg-replyhub-go/internal/ctxutil"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/telegram"
)

// Deliver runs the full reply lifecycle for one inbound event: send
// the wait placeholder if configured, dispatch the reply, then clean
// up. On success the placeholder is deleted; on failure it is edited
// in place to a failure notice so the user is not left staring at
// "please wait". Without a placeholder, failures go out as a fresh
// error message. The returned error reports the dispatch outcome for
// logging; the caller still acknowledges the webhook.
func (d *Dispatcher) Deliver(ctx context.Context, credential string, chatID int64, body, waitText string, keyboard telegram.Keyboard) error {
	log := d.requestLog(ctx)

	var waitRef telegram.MessageRef
	waitSent := false

	if waitText != "" {
		ref, err := d.sender.SendText(ctx, credential, chatID, waitText, nil)
		if err != nil {
			// Not fatal, the real reply matters more than the placeholder.
			log.WithError(err).WithField("chat_id", chatID).Warnf("wait message send failed")
		} else {
			waitRef = ref
			waitSent = true
		}
	}

	_, err := d.Dispatch(ctx, credential, chatID, body, keyboard)
	if err == nil {
		if waitSent {
			if delErr := d.sender.Delete(ctx, credential, waitRef); delErr != nil {
				log.WithError(delErr).WithField("chat_id", chatID).Warnf("wait message delete failed")
			}
		}
		return nil
	}

	notice := fmt.Sprintf("Failed to send reply: %s", err.Error())
	if waitSent {
		if editErr := d.sender.EditText(ctx, credential, waitRef, notice); editErr != nil {
			log.WithError(editErr).WithField("chat_id", chatID).Errorf("failed to edit wait message to error notice")
		}
	} else {
		if _, sendErr := d.sender.SendText(ctx, credential, chatID, notice, nil); sendErr != nil {
			log.WithError(sendErr).WithField("chat_id", chatID).Errorf("failed to send error notice")
		}
	}
	return err
}

// requestLog attaches the inbound request ID, when present, so
// delivery logs correlate with the webhook entry that triggered them.
func (d *Dispatcher) requestLog(ctx context.Context) *logger.Logger {
	if requestID, ok := ctxutil.GetRequestID(ctx); ok {
		return d.log.WithRequestID(requestID)
	}
	return d.log
}

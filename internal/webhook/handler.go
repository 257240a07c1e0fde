package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yuweiho/tg-replyhub-go/internal/config"
	"github.com/yuweiho/tg-replyhub-go/internal/ctxutil"
	"github.com/yuweiho/tg-replyhub-go/internal/dispatch"
	apperrors "github.com/yuweiho/tg-replyhub-go/internal/errors"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/metrics"
	"github.com/yuweiho/tg-replyhub-go/internal/ratelimit"
	"github.com/yuweiho/tg-replyhub-go/internal/rules"
	"github.com/yuweiho/tg-replyhub-go/internal/stringutil"
	"github.com/yuweiho/tg-replyhub-go/internal/telegram"
	"github.com/yuweiho/tg-replyhub-go/internal/template"
)

// Handler processes inbound Telegram webhook events. Each event runs
// to completion inside the request; the response is always 200 so
// Telegram never retries a delivered update, whatever happened inside.
type Handler struct {
	accessor    *rules.Accessor
	cooldown    *ratelimit.Cooldown
	dispatcher  *dispatch.Dispatcher
	sender      telegram.Sender
	userLimiter *ratelimit.PerKeyLimiter
	metrics     *metrics.Metrics
	log         *logger.Logger
}

// HandlerConfig holds the collaborators for creating a Handler.
type HandlerConfig struct {
	Accessor    *rules.Accessor
	Cooldown    *ratelimit.Cooldown
	Dispatcher  *dispatch.Dispatcher
	Sender      telegram.Sender
	UserLimiter *ratelimit.PerKeyLimiter
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		accessor:    cfg.Accessor,
		cooldown:    cfg.Cooldown,
		dispatcher:  cfg.Dispatcher,
		sender:      cfg.Sender,
		userLimiter: cfg.UserLimiter,
		metrics:     cfg.Metrics,
		log:         cfg.Logger.WithModule("webhook"),
	}
}

// ack reports success to Telegram. Every code path ends here; an error
// status would make Telegram redeliver the update and amplify failures.
func ack(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Handle is the gin handler for POST /webhook/:identity.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	identity := c.Param("identity")
	requestID := uuid.NewString()
	log := h.log.WithRequestID(requestID).WithField("identity", identity)

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.WebhookProcessing)
	defer cancel()
	ctx = ctxutil.WithRequestID(ctx, requestID)

	credential, err := h.accessor.ResolveCredential(ctx, identity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Debug("Webhook for unknown bot identity")
		} else {
			log.WithError(err).Error("Failed to resolve bot credential")
		}
		h.record("unknown", "ignored", start)
		ack(c)
		return
	}

	var update Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.WithError(err).Warn("Malformed webhook payload")
		h.record("malformed", "ignored", start)
		ack(c)
		return
	}

	ev, ok := update.normalize()
	if !ok {
		log.Debug("Unsupported update type")
		h.record("unsupported", "ignored", start)
		ack(c)
		return
	}
	log = log.WithField("event_type", ev.kind).WithField("chat_id", ev.chatID)

	// Spinner acknowledgment is independent of whether the data
	// payload matches any rule.
	if ev.kind == "callback" {
		if err := h.sender.AnswerCallback(ctx, credential, ev.callbackID); err != nil {
			log.WithError(err).Warn("Failed to answer callback query")
		}
	}

	// The limiter's OnDrop callback records the drop metric.
	if !h.userLimiter.Allow(identity + ":" + ev.userID) {
		log.Debug("Per-user rate limit exceeded; dropping event")
		h.record(ev.kind, "dropped", start)
		ack(c)
		return
	}

	status := h.process(ctx, log, identity, credential, ev)
	h.record(ev.kind, status, start)
	ack(c)
}

// process runs rule lookup through dispatch for one event and returns
// the outcome label for metrics.
func (h *Handler) process(ctx context.Context, log *logger.Logger, identity, credential string, ev event) string {
	command, args := stringutil.ExtractCommand(ev.text)
	if command == "" {
		return "ignored"
	}

	merged, err := h.accessor.ResolveRules(ctx, identity)
	if err != nil {
		log.WithError(err).Error("Failed to resolve rules")
		return "error"
	}

	raw, ok := merged[command]
	if !ok {
		log.WithField("command", command).Debug("No matching rule")
		return "no_rule"
	}

	reply := template.Decode(raw)

	decision, err := h.cooldown.CheckAndRecord(ctx, identity, ev.userID, command, reply.CooldownSeconds)
	if err != nil {
		// The store being down should not silence the bot.
		log.WithError(err).Warn("Cooldown check failed; allowing dispatch")
		decision = ratelimit.Decision{Allowed: true}
	}
	if !decision.Allowed {
		h.metrics.RecordCooldownDenied()
		notice := fmt.Sprintf("Too many requests. Try again in %d seconds.", decision.RemainingSeconds)
		if _, err := h.sender.SendText(ctx, credential, ev.chatID, notice, nil); err != nil {
			log.WithError(err).Warn("Failed to send cooldown notice")
		}
		return "cooldown"
	}

	body := template.Substitute(reply.Body, args)
	keyboard := template.Rows(template.ParseButtons(reply.ButtonSpec))

	if err := h.dispatcher.Deliver(ctx, credential, ev.chatID, body, reply.WaitText, keyboard); err != nil {
		log.WithError(err).WithField("command", command).Error("Reply delivery failed")
		return "error"
	}
	return "success"
}

func (h *Handler) record(eventType, status string, start time.Time) {
	h.metrics.RecordWebhook(eventType, status, time.Since(start).Seconds())
}

// Package admin exposes the JSON management API: bot registration,
// rule set CRUD, and bot-to-rule-set associations. An external panel
// consumes it; this service serves no HTML.
package admin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuweiho/tg-replyhub-go/internal/config"
	"github.com/yuweiho/tg-replyhub-go/internal/logger"
	"github.com/yuweiho/tg-replyhub-go/internal/sliceutil"
	"github.com/yuweiho/tg-replyhub-go/internal/storage"
)

// Store is the storage surface the admin API needs.
type Store interface {
	SaveBot(ctx context.Context, bot *storage.Bot) error
	GetBot(ctx context.Context, identityHash string) (*storage.Bot, error)
	ListBots(ctx context.Context) ([]storage.Bot, error)
	DeleteBot(ctx context.Context, identityHash string) error

	SaveRuleSet(ctx context.Context, rs *storage.RuleSet) error
	GetRuleSet(ctx context.Context, id int64) (*storage.RuleSet, error)
	ListRuleSets(ctx context.Context) ([]storage.RuleSet, error)
	DeleteRuleSet(ctx context.Context, id int64) error

	SetAssociations(ctx context.Context, identityHash string, ruleSetIDs []int64) error
	GetAssociatedRuleSets(ctx context.Context, identityHash string) ([]storage.RuleSet, error)
}

// Registrar is the webhook (de)registration slice of the sender.
type Registrar interface {
	RegisterWebhook(ctx context.Context, credential, url string) error
	DropWebhook(ctx context.Context, credential string) error
}

// Handler serves the management API.
type Handler struct {
	store     Store
	registrar Registrar
	cfg       *config.Config
	log       *logger.Logger
}

// NewHandler creates the admin API handler.
func NewHandler(store Store, registrar Registrar, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		store:     store,
		registrar: registrar,
		cfg:       cfg,
		log:       log.WithModule("admin"),
	}
}

// Register mounts the API routes on a router group. The caller applies
// authentication middleware to the group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/bots", h.listBots)
	g.POST("/bots", h.saveBot)
	g.DELETE("/bots/:identity", h.deleteBot)
	g.PUT("/bots/:identity/rulesets", h.setAssociations)
	g.GET("/bots/:identity/rulesets", h.listAssociations)

	g.GET("/rulesets", h.listRuleSets)
	g.POST("/rulesets", h.createRuleSet)
	g.GET("/rulesets/:id", h.getRuleSet)
	g.PUT("/rulesets/:id", h.updateRuleSet)
	g.DELETE("/rulesets/:id", h.deleteRuleSet)
}

// IdentityHash derives the public webhook path segment from a bot
// credential. The credential itself never appears in a URL.
func IdentityHash(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

type botView struct {
	IdentityHash string `json:"identity_hash"`
	DisplayName  string `json:"display_name"`
	WebhookURL   string `json:"webhook_url"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func (h *Handler) botView(bot storage.Bot) botView {
	return botView{
		IdentityHash: bot.IdentityHash,
		DisplayName:  bot.DisplayName,
		WebhookURL:   h.cfg.WebhookURL(bot.IdentityHash),
		CreatedAt:    bot.CreatedAt,
		UpdatedAt:    bot.UpdatedAt,
	}
}

func (h *Handler) listBots(c *gin.Context) {
	bots, err := h.store.ListBots(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list bots")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bots"})
		return
	}

	views := make([]botView, 0, len(bots))
	for _, bot := range bots {
		views = append(views, h.botView(bot))
	}
	c.JSON(http.StatusOK, gin.H{"bots": views})
}

type saveBotRequest struct {
	Credential  string  `json:"credential" binding:"required"`
	DisplayName string  `json:"display_name"`
	RuleSetIDs  []int64 `json:"rule_set_ids"`
}

// saveBot registers a bot: the credential is hashed into the webhook
// identity, persisted, and the webhook is pointed at this service.
func (h *Handler) saveBot(c *gin.Context) {
	var req saveBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential is required"})
		return
	}

	ctx := c.Request.Context()
	identityHash := IdentityHash(req.Credential)
	bot := &storage.Bot{
		IdentityHash: identityHash,
		Credential:   req.Credential,
		DisplayName:  req.DisplayName,
	}

	if err := h.store.SaveBot(ctx, bot); err != nil {
		h.log.WithError(err).Error("Failed to save bot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save bot"})
		return
	}

	if req.RuleSetIDs != nil {
		ids := sliceutil.Deduplicate(req.RuleSetIDs, func(id int64) int64 { return id })
		if err := h.store.SetAssociations(ctx, identityHash, ids); err != nil {
			h.log.WithError(err).Error("Failed to set associations")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set associations"})
			return
		}
	}

	webhookURL := h.cfg.WebhookURL(identityHash)
	if err := h.registrar.RegisterWebhook(ctx, req.Credential, webhookURL); err != nil {
		// The bot is stored; registration can be retried by saving again.
		h.log.WithError(err).WithField("identity", identityHash).Error("Webhook registration failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         "bot stored but webhook registration failed",
			"identity_hash": identityHash,
		})
		return
	}

	h.log.WithField("identity", identityHash).Infof("Bot registered")
	c.JSON(http.StatusOK, gin.H{"identity_hash": identityHash, "webhook_url": webhookURL})
}

func (h *Handler) deleteBot(c *gin.Context) {
	ctx := c.Request.Context()
	identity := c.Param("identity")

	bot, err := h.store.GetBot(ctx, identity)
	if err != nil {
		h.log.WithError(err).Error("Failed to load bot for deletion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete bot"})
		return
	}
	if bot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	if err := h.registrar.DropWebhook(ctx, bot.Credential); err != nil {
		// Keep going: a dangling webhook on Telegram's side only
		// produces ignorable deliveries to a now-unknown identity.
		h.log.WithError(err).WithField("identity", identity).Warn("Webhook deregistration failed")
	}

	if err := h.store.DeleteBot(ctx, identity); err != nil {
		h.log.WithError(err).Error("Failed to delete bot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete bot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": identity})
}

type associationsRequest struct {
	RuleSetIDs []int64 `json:"rule_set_ids"`
}

// setAssociations replaces a bot's rule sets. Slice order is merge
// order: later sets win command collisions.
func (h *Handler) setAssociations(c *gin.Context) {
	ctx := c.Request.Context()
	identity := c.Param("identity")

	var req associationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rule_set_ids is required"})
		return
	}

	bot, err := h.store.GetBot(ctx, identity)
	if err != nil {
		h.log.WithError(err).Error("Failed to load bot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set associations"})
		return
	}
	if bot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	// Duplicate IDs would violate the association primary key; keep
	// the first occurrence so order still means merge order.
	ids := sliceutil.Deduplicate(req.RuleSetIDs, func(id int64) int64 { return id })
	if err := h.store.SetAssociations(ctx, identity, ids); err != nil {
		h.log.WithError(err).Error("Failed to set associations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set associations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity_hash": identity, "rule_set_ids": ids})
}

func (h *Handler) listAssociations(c *gin.Context) {
	ctx := c.Request.Context()
	identity := c.Param("identity")

	sets, err := h.store.GetAssociatedRuleSets(ctx, identity)
	if err != nil {
		h.log.WithError(err).Error("Failed to list associations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list associations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule_sets": sets})
}

type ruleSetRequest struct {
	Name  string            `json:"name" binding:"required"`
	Rules map[string]string `json:"rules"`
}

func (h *Handler) listRuleSets(c *gin.Context) {
	sets, err := h.store.ListRuleSets(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list rule sets")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rule sets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule_sets": sets})
}

func (h *Handler) createRuleSet(c *gin.Context) {
	var req ruleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Rules == nil {
		req.Rules = map[string]string{}
	}

	rs := &storage.RuleSet{Name: req.Name, Rules: req.Rules}
	if err := h.store.SaveRuleSet(c.Request.Context(), rs); err != nil {
		h.log.WithError(err).Error("Failed to create rule set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule set"})
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handler) ruleSetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule set id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) getRuleSet(c *gin.Context) {
	id, ok := h.ruleSetID(c)
	if !ok {
		return
	}

	rs, err := h.store.GetRuleSet(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).Error("Failed to load rule set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rule set"})
		return
	}
	if rs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule set not found"})
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handler) updateRuleSet(c *gin.Context) {
	id, ok := h.ruleSetID(c)
	if !ok {
		return
	}

	var req ruleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Rules == nil {
		req.Rules = map[string]string{}
	}

	rs := &storage.RuleSet{ID: id, Name: req.Name, Rules: req.Rules}
	err := h.store.SaveRuleSet(c.Request.Context(), rs)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule set not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to update rule set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rule set"})
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handler) deleteRuleSet(c *gin.Context) {
	id, ok := h.ruleSetID(c)
	if !ok {
		return
	}

	err := h.store.DeleteRuleSet(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule set not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to delete rule set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule set"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

// History reads tolerate short staleness, so listings are cached briefly to
// keep repeated polling off the database.
const conversationCacheTTL = 30 * time.Second

type ConversationHandler struct {
	repo  ports.ConversationRepository
	cache ports.Cache
	log   *zap.Logger
}

// NewConversationHandler creates the history handler. cache may be nil.
func NewConversationHandler(repo ports.ConversationRepository, cache ports.Cache, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List returns recent conversations, newest first. A storage failure
// degrades to an empty list so history never blocks the client.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	key := fmt.Sprintf("conversations:%d", limit)
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Context(), key); err == nil && cached != "" {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(cached)
		}
	}

	conversations, err := h.repo.ListNewestFirst(c.Context(), limit)
	if err != nil {
		h.log.Warn("Failed to list conversations, returning empty history", zap.Error(err))
		conversations = []domain.Conversation{}
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}

	body, err := json.Marshal(fiber.Map{"conversations": conversations})
	if err != nil {
		return c.JSON(fiber.Map{"conversations": conversations})
	}

	if h.cache != nil && len(conversations) > 0 {
		if err := h.cache.Set(c.Context(), key, string(body), conversationCacheTTL); err != nil {
			h.log.Debug("conversation cache write failed", zap.Error(err))
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

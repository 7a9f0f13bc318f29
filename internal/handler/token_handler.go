package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pushrelay/push-relay/internal/auth"
	"github.com/pushrelay/push-relay/internal/observability"
	"go.uber.org/zap"
)

// TokenHandler exposes the access-token endpoint consumed by the dispatcher
// tier. The route is a trust boundary: it must never be reachable from
// public clients.
type TokenHandler struct {
	tokens  auth.TokenSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewTokenHandler(tokens auth.TokenSource, logger *zap.Logger, metrics *observability.Metrics) (*TokenHandler, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TokenHandler{
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func RegisterTokenRoutes(router fiber.Router, tokens auth.TokenSource, logger *zap.Logger, metrics *observability.Metrics) error {
	h, err := NewTokenHandler(tokens, logger, metrics)
	if err != nil {
		return err
	}

	router.Get("/getAccessToken", h.GetAccessToken)
	return nil
}

func (h *TokenHandler) GetAccessToken(c *fiber.Ctx) error {
	token, err := h.tokens.Token(c.Context())
	if err != nil {
		h.metrics.IncTokenIssued("failure")
		h.logger.Error("failed to issue access token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get access token",
		})
	}

	h.metrics.IncTokenIssued("success")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accessToken": token.Value,
	})
}

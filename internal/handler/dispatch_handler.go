package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pushrelay/push-relay/internal/domain"
	"github.com/pushrelay/push-relay/internal/queue"
)

// DispatchService is the synchronous dispatch port; satisfied by service.Dispatcher.
type DispatchService interface {
	Send(ctx context.Context, req *domain.NotificationRequest) (*domain.DispatchResult, error)
}

type DispatchHandler struct {
	service   DispatchService
	publisher queue.Publisher
}

func NewDispatchHandler(service DispatchService, publisher queue.Publisher) (*DispatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &DispatchHandler{
		service:   service,
		publisher: publisher,
	}, nil
}

func RegisterDispatchRoutes(router fiber.Router, service DispatchService, publisher queue.Publisher) error {
	h, err := NewDispatchHandler(service, publisher)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/dispatch", h.Dispatch)
	v1.Post("/dispatch/async", h.DispatchAsync)

	return nil
}

type dispatchRequest struct {
	CorrelationID string            `json:"correlationId"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Tokens        []string          `json:"tokens"`
	Data          map[string]string `json:"data"`
}

type outcomeItem struct {
	Token       string `json:"token"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

type dispatchResponse struct {
	CorrelationID string        `json:"correlationId"`
	State         string        `json:"state"`
	Delivered     int           `json:"delivered"`
	Failed        int           `json:"failed"`
	Outcomes      []outcomeItem `json:"outcomes"`
}

type dispatchAsyncResponse struct {
	MessageID     string `json:"messageId"`
	CorrelationID string `json:"correlationId"`
	Status        string `json:"status"`
}

func (h *DispatchHandler) Dispatch(c *fiber.Ctx) error {
	var req dispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	notification := requestToDomain(req, requestCorrelationID(c))

	result, err := h.service.Send(c.Context(), &notification)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchResponse(result))
}

func (h *DispatchHandler) DispatchAsync(c *fiber.Ctx) error {
	if h.publisher == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "async dispatch is not configured")
	}

	var req dispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	notification := requestToDomain(req, requestCorrelationID(c))
	notification.Normalize()
	if err := notification.Validate(); err != nil {
		return toHTTPError(err)
	}
	if notification.CorrelationID == "" {
		notification.CorrelationID = uuid.NewString()
	}

	msg := queue.DispatchMessage{
		MessageID:     uuid.NewString(),
		CorrelationID: notification.CorrelationID,
		Title:         notification.Title,
		Body:          notification.Body,
		Tokens:        notification.Tokens,
		Data:          notification.Data,
	}

	if err := h.publisher.Publish(c.Context(), queue.DispatchQueue, msg); err != nil {
		return fmt.Errorf("failed to enqueue dispatch: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dispatchAsyncResponse{
		MessageID:     msg.MessageID,
		CorrelationID: msg.CorrelationID,
		Status:        "QUEUED",
	})
}

func requestToDomain(req dispatchRequest, fallbackCorrelationID string) domain.NotificationRequest {
	n := domain.NotificationRequest{
		CorrelationID: strings.TrimSpace(req.CorrelationID),
		Title:         req.Title,
		Body:          req.Body,
		Tokens:        req.Tokens,
		Data:          req.Data,
	}
	if n.CorrelationID == "" {
		n.CorrelationID = strings.TrimSpace(fallbackCorrelationID)
	}
	return n
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toDispatchResponse(result *domain.DispatchResult) dispatchResponse {
	if result == nil {
		return dispatchResponse{}
	}

	outcomes := make([]outcomeItem, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		outcomes = append(outcomes, outcomeItem{
			Token:       outcome.Token,
			Success:     outcome.Success,
			ErrorDetail: outcome.ErrorDetail,
		})
	}

	return dispatchResponse{
		CorrelationID: result.CorrelationID,
		State:         result.State.String(),
		Delivered:     result.Delivered(),
		Failed:        result.Failed(),
		Outcomes:      outcomes,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAuthExchange):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrCredential):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return err
	}
}

package domain

import (
	"fmt"
	"strings"
)

// MaxRecipientsPerDispatch bounds a single fan-out call.
const MaxRecipientsPerDispatch = 1000

// NotificationRequest is one logical notification addressed to many device
// tokens. Transient; constructed per call, never persisted.
type NotificationRequest struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Tokens        []string          `json:"tokens"`
	Data          map[string]string `json:"data,omitempty"`
}

func (r *NotificationRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is required", ErrValidation)
	}
	if len(r.Tokens) == 0 {
		return fmt.Errorf("%w: at least one recipient token is required", ErrValidation)
	}
	if len(r.Tokens) > MaxRecipientsPerDispatch {
		return fmt.Errorf("%w: recipient count exceeds %d", ErrValidation, MaxRecipientsPerDispatch)
	}
	if strings.TrimSpace(r.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	return nil
}

// Normalize trims surrounding whitespace from the text fields. Recipient
// tokens are passed through untouched: duplicates and stale entries are the
// provider's to reject, one outcome per input entry.
func (r *NotificationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	r.CorrelationID = strings.TrimSpace(r.CorrelationID)
}

// PushMessage is a single-recipient delivery unit derived from a
// NotificationRequest during fan-out.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

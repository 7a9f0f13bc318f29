package queue

import (
	"fmt"
	"strings"
)

// DispatchMessage is the broker payload for an asynchronous dispatch. It
// mirrors the synchronous request shape so the worker drives the same
// dispatcher path.
type DispatchMessage struct {
	MessageID     string            `json:"messageId"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Tokens        []string          `json:"tokens"`
	Data          map[string]string `json:"data,omitempty"`
}

func (m DispatchMessage) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return fmt.Errorf("messageId is required")
	}
	if len(m.Tokens) == 0 {
		return fmt.Errorf("at least one recipient token is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

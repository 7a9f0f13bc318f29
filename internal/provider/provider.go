package provider

import (
	"context"

	"github.com/pushrelay/push-relay/internal/domain"
)

// Provider is the outbound push delivery port. One call delivers to exactly
// one device token; fan-out across tokens belongs to the dispatcher.
type Provider interface {
	Send(ctx context.Context, accessToken string, msg domain.PushMessage) (*ProviderResponse, error)
}

// ProviderResponse stores provider call metadata for outcome reporting.
type ProviderResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}

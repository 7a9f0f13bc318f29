package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/pushrelay/push-relay/internal/domain"
)

// ErrorKind classifies a per-recipient delivery failure.
type ErrorKind string

const (
	// KindInvalidToken means the provider rejected the device token itself,
	// typically because it is stale or unregistered. Never retried.
	KindInvalidToken ErrorKind = "invalid_token"
	// KindPayload means the provider rejected the message content. Never retried.
	KindPayload ErrorKind = "payload"
	// KindTransient covers network failures, timeouts, 429 and 5xx. Safe to retry.
	KindTransient ErrorKind = "transient"
	// KindUnknown covers everything else; treated as permanent.
	KindUnknown ErrorKind = "unknown"
)

// ProviderError classifies provider call failures.
type ProviderError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "provider error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind == KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsInvalidToken reports whether the device token itself was rejected.
func IsInvalidToken(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Kind == KindInvalidToken
}

// FailureReason maps a delivery error to its metrics label.
func FailureReason(err error) domain.FailureReason {
	if err == nil {
		return domain.ReasonUnknown
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case KindInvalidToken:
			return domain.ReasonInvalidToken
		case KindPayload:
			return domain.ReasonPayload
		case KindTransient:
			return domain.ReasonTransient
		}
		return domain.ReasonUnknown
	}

	if IsTransient(err) {
		return domain.ReasonTransient
	}
	return domain.ReasonUnknown
}

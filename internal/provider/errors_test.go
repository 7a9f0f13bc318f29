package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pushrelay/push-relay/internal/domain"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "transient provider error", err: &ProviderError{Kind: KindTransient, StatusCode: 503}, want: true},
		{name: "invalid token provider error", err: &ProviderError{Kind: KindInvalidToken, StatusCode: 404}, want: false},
		{name: "wrapped transient", err: fmt.Errorf("send: %w", &ProviderError{Kind: KindTransient}), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want domain.FailureReason
	}{
		{name: "invalid token", err: &ProviderError{Kind: KindInvalidToken}, want: domain.ReasonInvalidToken},
		{name: "payload", err: &ProviderError{Kind: KindPayload}, want: domain.ReasonPayload},
		{name: "transient", err: &ProviderError{Kind: KindTransient}, want: domain.ReasonTransient},
		{name: "unknown kind", err: &ProviderError{Kind: KindUnknown}, want: domain.ReasonUnknown},
		{name: "deadline", err: context.DeadlineExceeded, want: domain.ReasonTransient},
		{name: "plain error", err: errors.New("boom"), want: domain.ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FailureReason(tt.err); got != tt.want {
				t.Errorf("FailureReason(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestProviderError_Error(t *testing.T) {
	t.Parallel()

	err := &ProviderError{
		StatusCode: 404,
		Kind:       KindInvalidToken,
		Message:    "fcm returned status 404",
		Cause:      errors.New("UNREGISTERED"),
	}

	got := err.Error()
	want := "provider error: status=404: fcm returned status 404: UNREGISTERED"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, err.Cause) {
		t.Error("Unwrap should expose the cause")
	}
}

package domain

import "strings"

// DispatchState represents the lifecycle of a single dispatch call.
type DispatchState string

const (
	DispatchPending   DispatchState = "PENDING"
	DispatchSending   DispatchState = "SENDING"
	DispatchCompleted DispatchState = "COMPLETED"
	DispatchFailed    DispatchState = "FAILED"
)

func (s DispatchState) String() string { return string(s) }

func (s DispatchState) IsValid() bool {
	switch s {
	case DispatchPending, DispatchSending, DispatchCompleted, DispatchFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the dispatch has finished, successfully or not.
func (s DispatchState) IsTerminal() bool {
	return s == DispatchCompleted || s == DispatchFailed
}

// DeliveryOutcome records the result of one delivery attempt to one
// recipient. Its Token is always drawn from the originating request.
type DeliveryOutcome struct {
	Token       string `json:"token"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// DispatchResult aggregates per-recipient outcomes for one dispatch call.
// Partial success is the normal case; the batch never fails atomically once
// sending has begun.
type DispatchResult struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	State         DispatchState     `json:"state"`
	Outcomes      []DeliveryOutcome `json:"outcomes"`
}

// Delivered counts the outcomes accepted by the provider.
func (r *DispatchResult) Delivered() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Success {
			n++
		}
	}
	return n
}

// Failed counts the outcomes rejected by the provider.
func (r *DispatchResult) Failed() int {
	if r == nil {
		return 0
	}
	return len(r.Outcomes) - r.Delivered()
}

// FailureReason labels terminal failure classes for metrics.
type FailureReason string

const (
	ReasonAuthExchange FailureReason = "auth_exchange"
	ReasonInvalidToken FailureReason = "invalid_token"
	ReasonPayload      FailureReason = "payload_error"
	ReasonTransient    FailureReason = "transient_exhausted"
	ReasonUnknown      FailureReason = "unknown"
)

func (r FailureReason) String() string { return string(r) }

// NormalizeFailureReason lowercases free-form reasons for metric labels.
func NormalizeFailureReason(reason string) string {
	normalized := strings.ToLower(strings.TrimSpace(reason))
	if normalized == "" {
		return ReasonUnknown.String()
	}
	return normalized
}

package domain

import "testing"

func TestDispatchState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    DispatchState
		valid    bool
		terminal bool
	}{
		{state: DispatchPending, valid: true, terminal: false},
		{state: DispatchSending, valid: true, terminal: false},
		{state: DispatchCompleted, valid: true, terminal: true},
		{state: DispatchFailed, valid: true, terminal: true},
		{state: DispatchState("BOGUS"), valid: false, terminal: false},
	}

	for _, tt := range tests {
		if got := tt.state.IsValid(); got != tt.valid {
			t.Errorf("%s.IsValid() = %v, want %v", tt.state, got, tt.valid)
		}
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestDispatchResult_Counts(t *testing.T) {
	t.Parallel()

	result := &DispatchResult{
		State: DispatchCompleted,
		Outcomes: []DeliveryOutcome{
			{Token: "tok-a", Success: true},
			{Token: "tok-b", Success: false, ErrorDetail: "provider error: status=404"},
			{Token: "tok-c", Success: true},
		},
	}

	if got := result.Delivered(); got != 2 {
		t.Errorf("Delivered() = %d, want 2", got)
	}
	if got := result.Failed(); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}

	var nilResult *DispatchResult
	if nilResult.Delivered() != 0 || nilResult.Failed() != 0 {
		t.Error("nil result should count zero outcomes")
	}
}

func TestNormalizeFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "  Invalid_Token  ", want: "invalid_token"},
		{in: "", want: "unknown"},
		{in: "   ", want: "unknown"},
		{in: "transient_exhausted", want: "transient_exhausted"},
	}

	for _, tt := range tests {
		if got := NormalizeFailureReason(tt.in); got != tt.want {
			t.Errorf("NormalizeFailureReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

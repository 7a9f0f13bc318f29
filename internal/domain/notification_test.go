package domain

import (
	"errors"
	"strings"
	"testing"
)

func validRequest() *NotificationRequest {
	return &NotificationRequest{
		Title:  "New message",
		Body:   "You have a new chat message",
		Tokens: []string{"tok-a", "tok-b"},
		Data:   map[string]string{"id": "conv-42", "type": "CHAT_MESSAGE"},
	}
}

func TestNotificationRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *NotificationRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *NotificationRequest) {}},
		{name: "empty title is allowed", mutate: func(r *NotificationRequest) { r.Title = "" }},
		{name: "nil data is allowed", mutate: func(r *NotificationRequest) { r.Data = nil }},
		{name: "no recipients", mutate: func(r *NotificationRequest) { r.Tokens = nil }, wantErr: true},
		{name: "blank body", mutate: func(r *NotificationRequest) { r.Body = "   " }, wantErr: true},
		{
			name: "too many recipients",
			mutate: func(r *NotificationRequest) {
				r.Tokens = make([]string, MaxRecipientsPerDispatch+1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validRequest()
			tt.mutate(req)

			err := req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNotificationRequest_Validate_Nil(t *testing.T) {
	t.Parallel()

	var req *NotificationRequest
	if err := req.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestNotificationRequest_Normalize(t *testing.T) {
	t.Parallel()

	req := &NotificationRequest{
		CorrelationID: "  corr-1  ",
		Title:         "  New message ",
		Body:          " hello \n",
		Tokens:        []string{"  tok-a  "},
	}
	req.Normalize()

	if req.CorrelationID != "corr-1" {
		t.Errorf("CorrelationID = %q, want trimmed", req.CorrelationID)
	}
	if req.Title != "New message" {
		t.Errorf("Title = %q, want trimmed", req.Title)
	}
	if req.Body != "hello" {
		t.Errorf("Body = %q, want trimmed", req.Body)
	}
	// Device tokens pass through untouched.
	if req.Tokens[0] != "  tok-a  " {
		t.Errorf("Tokens[0] = %q, want untouched", req.Tokens[0])
	}
}

func TestNotificationRequest_Normalize_Nil(t *testing.T) {
	t.Parallel()

	var req *NotificationRequest
	req.Normalize() // must not panic
}

func TestValidationErrorsNameTheField(t *testing.T) {
	t.Parallel()

	req := validRequest()
	req.Body = ""

	err := req.Validate()
	if err == nil || !strings.Contains(err.Error(), "body") {
		t.Errorf("error = %v, want body named in the message", err)
	}
}

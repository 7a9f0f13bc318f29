package queue

import (
	"encoding/json"
	"testing"
)

func validMessage() DispatchMessage {
	return DispatchMessage{
		MessageID:     "msg-1",
		CorrelationID: "corr-1",
		Title:         "New message",
		Body:          "You have a new chat message",
		Tokens:        []string{"tok-a"},
		Data:          map[string]string{"id": "conv-42", "type": "CHAT_MESSAGE"},
	}
}

func TestDispatchMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(m *DispatchMessage)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *DispatchMessage) {}},
		{name: "missing message id", mutate: func(m *DispatchMessage) { m.MessageID = " " }, wantErr: true},
		{name: "no recipients", mutate: func(m *DispatchMessage) { m.Tokens = nil }, wantErr: true},
		{name: "blank body", mutate: func(m *DispatchMessage) { m.Body = "  " }, wantErr: true},
		{name: "missing correlation id is allowed", mutate: func(m *DispatchMessage) { m.CorrelationID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := validMessage()
			tt.mutate(&msg)

			err := msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDispatchMessage_JSONFieldNames(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(validMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, field := range []string{"messageId", "correlationId", "title", "body", "tokens", "data"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("wire payload missing field %s", field)
		}
	}
}

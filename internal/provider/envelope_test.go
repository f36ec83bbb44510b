package provider

import (
	"errors"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantData    string
		wantMessage string
	}{
		{"success", 200, `{"success":true,"data":{"id":"p1"}}`, `{"id":"p1"}`, ""},
		{"string error", 400, `{"success":false,"error":"bad title"}`, "", "bad title"},
		{"object error", 409, `{"success":false,"error":{"message":"conflict"}}`, "", "conflict"},
		{"success false on 200", 200, `{"success":false,"error":"quota"}`, "", "quota"},
		{"empty body", 502, ``, "", "request failed with status 502"},
		{"no message", 500, `{"success":false}`, "", "request failed with status 500"},
		{"html on 200", 200, `<html>`, "", "invalid response: invalid character '<' looking for beginning of value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := DecodeEnvelope(tt.status, []byte(tt.body))
			if tt.wantMessage == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(data) != tt.wantData {
					t.Errorf("data = %s, want %s", data, tt.wantData)
				}
				return
			}
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if te.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", te.Message, tt.wantMessage)
			}
			if te.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", te.StatusCode, tt.status)
			}
		})
	}
}

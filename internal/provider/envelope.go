package provider

import (
	"encoding/json"
	"fmt"
)

// Envelope is the {success, data, error} wrapper used by the task service
// and the document API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Message returns the backend's error text. Backends send either a plain
// string or an object with a message field.
func (e Envelope) Message() string {
	if len(e.Error) == 0 || string(e.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// DecodeEnvelope checks a response and returns its data. A non-2xx status or
// success:false yields a TransportError carrying the backend message, or a
// synthesized one when the backend sent none.
func DecodeEnvelope(statusCode int, body []byte) (json.RawMessage, error) {
	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if statusCode < 200 || statusCode > 299 || (decodeErr == nil && !env.Success) {
		msg := ""
		if decodeErr == nil {
			msg = env.Message()
		}
		if msg == "" {
			msg = StatusMessage(statusCode)
		}
		return nil, &TransportError{StatusCode: statusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &TransportError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("invalid response: %v", decodeErr),
			Err:        decodeErr,
		}
	}
	return env.Data, nil
}

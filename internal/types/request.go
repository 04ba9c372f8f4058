package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Input and output types accepted by the flow run API.
const (
	InputTypeChat  = "chat"
	OutputTypeChat = "chat"
	OutputTypeText = "text"
)

// MaxRequestBytes caps the size of an inbound chat request body.
const MaxRequestBytes = 1 << 20

// ChatRequest is the body of a flow run request.
// Tweaks is forwarded verbatim; its structure belongs to the flow.
type ChatRequest struct {
	InputValue string          `json:"input_value"`
	InputType  string          `json:"input_type"`
	OutputType string          `json:"output_type"`
	Tweaks     json.RawMessage `json:"tweaks,omitempty"`
}

// SessionHandle is returned by the bootstrap call of the two-step stream flow.
type SessionHandle struct {
	SessionID string `json:"session_id"`
}

// DecodeChatRequest reads a ChatRequest from r, applies defaults and validates it.
// Failures are returned as client input errors.
func DecodeChatRequest(r io.Reader) (*ChatRequest, *Error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxRequestBytes+1))
	if err != nil {
		return nil, ErrClientInput("failed to read request body", err)
	}
	if len(body) > MaxRequestBytes {
		return nil, ErrClientInput("request body too large", nil)
	}

	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, ErrClientInput("invalid request format", err)
	}
	req.applyDefaults()

	if err := req.Validate(); err != nil {
		return nil, ErrClientInput(err.Error(), nil)
	}
	return &req, nil
}

// applyDefaults fills in the input and output types when omitted.
func (r *ChatRequest) applyDefaults() {
	if r.InputType == "" {
		r.InputType = InputTypeChat
	}
	if r.OutputType == "" {
		r.OutputType = OutputTypeChat
	}
	if t := bytes.TrimSpace(r.Tweaks); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		r.Tweaks = nil
	}
}

// Validate checks the request fields the relay depends on.
func (r *ChatRequest) Validate() error {
	if r.InputValue == "" {
		return fmt.Errorf("input_value is required")
	}
	if r.InputType != InputTypeChat {
		return fmt.Errorf("unsupported input_type %q", r.InputType)
	}
	if r.OutputType != OutputTypeChat && r.OutputType != OutputTypeText {
		return fmt.Errorf("unsupported output_type %q", r.OutputType)
	}
	if t := bytes.TrimSpace(r.Tweaks); len(t) > 0 && t[0] != '{' {
		return fmt.Errorf("tweaks must be an object")
	}
	return nil
}

// ValidateSessionID rejects identifiers that cannot name a single path segment.
func ValidateSessionID(id string) error {
	switch id {
	case "":
		return ErrMissingSessionID
	case ".", "..":
		return fmt.Errorf("invalid session_id %q", id)
	}
	return nil
}

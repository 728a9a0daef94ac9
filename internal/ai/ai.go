// Package ai calls the optional generation collaborator used for plan
// analysis, content enhancement and curriculum drafts. Each call is a single
// attempt; failures surface to the caller unchanged.
package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// Result is the collaborator's answer. Success is false when the provider
// replied with something that is not a JSON document.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client invokes a provider with a prompt and the JSON schema the answer must follow.
type Client interface {
	Invoke(ctx context.Context, prompt string, schema map[string]any) (Result, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("AI provider not configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Invoke returns ErrNotConfigured.
func (PlaceholderClient) Invoke(context.Context, string, map[string]any) (Result, error) {
	return Result{}, ErrNotConfigured
}

// ResultFromText wraps raw provider output.
func ResultFromText(raw string) Result {
	data := []byte(raw)
	if !json.Valid(data) {
		return Result{Success: false}
	}
	return Result{Success: true, Data: json.RawMessage(data)}
}

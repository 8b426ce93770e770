package ai

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a chat message sent to a model.
type Role string

// Chat roles understood by every provider.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Personas label generations in metrics and traces.
const (
	PersonaCoach     = "coach"
	PersonaSimulator = "simulator"
	PersonaEvaluator = "evaluator"
	PersonaMentor    = "mentor"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral text generation request.
type Request struct {
	Persona     string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a persona-conditioned chat request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
}

// ErrEmptyResponse is returned when a provider answers without any text content.
var ErrEmptyResponse = errors.New("ai provider returned no text content")

// ProviderError wraps a failure reported by an upstream model provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

package provider

import (
	"context"
	"errors"
	"time"
)

// Provider is one generation backend. Generate returns the completion
// text for a single prompt; everything stateful (prior results, candidate
// bookkeeping) lives above this interface.
type Provider interface {
	ID() string
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// ErrNoProvider is returned when routing finds no registered backend.
var ErrNoProvider = errors.New("no provider available")

// Config holds the settings for one provider instance.
type Config struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"` // openai|anthropic
	Endpoint     string        `json:"endpoint"`
	APIKey       string        `json:"api_key"`
	Model        string        `json:"model"`
	MaxTokens    int           `json:"max_tokens"`
	SystemPrompt string        `json:"system_prompt"`
	Timeout      time.Duration `json:"timeout,omitempty"`
}

// message is the chat-shaped payload both wire dialects accept.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

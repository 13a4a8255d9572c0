// Package llm abstracts the language-understanding collaborators behind a
// small provider interface so the orchestrator never depends on a vendor
// SDK directly. Every call carries a bounded timeout: a stalled provider
// must never hold a session hostage.
package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutLLMCall bounds every outbound provider call.
const TimeoutLLMCall = 60 * time.Second

// Domain errors for the LLM package.
var (
	ErrNoProvider   = errors.New("no llm provider configured")
	ErrEmptyContent = errors.New("provider returned empty content")
)

// Provider is the interface all LLM backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string
	// Generate sends a completion request and returns the response.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents an LLM generation request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message represents a chat message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response represents an LLM generation response.
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Package llm provides the request/response contract stages use to call a
// language-model service, backed by the Anthropic Messages API.
package llm

import (
	"context"
	"time"
)

// Request is a single completion request: a system prompt (the stage's
// task instructions) and a user prompt (the paper-derived content).
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Response is the model's reply.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the contract stages call against. Prompt engineering itself is
// out of scope; this is the request/response shape and its concurrency
// semantics (one call in flight per paper). Callers make a single Complete
// call per paper and stage; no retry.* policy is applied around it.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Config configures a concrete Client.
type Config struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}

	return 60 * time.Second
}

func (c Config) maxTokensOrDefault() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}

	return 1024
}

// Package llm abstracts the hosted model providers behind a common
// streaming interface so the billing pipeline is provider-agnostic.
package llm

import (
	"context"
)

// StreamCallback receives each content chunk in arrival order. A
// non-nil return aborts the stream.
type StreamCallback func(token string, index int) error

// CompletionRequest is one generation request. System carries the
// persona instructions separately because providers differ in how
// system text is attached.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse is the final result of a completion, streamed or
// not.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is implemented per provider.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream invokes callback per chunk and returns the
	// assembled response when the stream ends.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	Name() string
	Models() []string
}

package core

import (
	"context"
	"errors"
)

// AIClient is the minimal contract for a hosted generative model.
type AIClient interface {
	GenerateContent(ctx context.Context, messages []AIMessage, options *AIOptions) (*AIResponse, error)
}

// AIStreamer extends AIClient with incremental delivery. The callback is
// invoked once per chunk, in order; returning an error from the callback
// stops consumption and the partial response is returned.
type AIStreamer interface {
	AIClient
	StreamGenerateContent(ctx context.Context, messages []AIMessage, options *AIOptions, callback StreamCallback) (*AIResponse, error)
}

// ErrStreamPartiallyCompleted signals that a stream ended early but partial
// content was accumulated and is usable.
var ErrStreamPartiallyCompleted = errors.New("stream partially completed")

// AIOptions for content generation
type AIOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string

	// Tools the model may ask the caller to invoke.
	Tools []FunctionDeclaration

	// Location, when set, biases source grounding toward the given
	// coordinates. Optional; nil means no bias.
	Location *GeoPoint
}

// GeoPoint is a latitude/longitude pair
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// AIMessage is one turn of conversation history sent to the model
type AIMessage struct {
	Role           string // "user" or "model"
	Text           string
	FunctionCall   *FunctionCall
	FunctionResult *FunctionResult
}

// FunctionDeclaration describes a capability the model may request.
// Parameters maps argument name to its expected JSON type ("string",
// "number", "boolean"); used to validate model-supplied arguments before
// the capability runs.
type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]string
	Required    []string
}

// FunctionCall is a structured request from the model to invoke a local
// capability with the given arguments.
type FunctionCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// FunctionResult carries a capability's outcome back to the model, tagged
// with the invocation ID the model issued.
type FunctionResult struct {
	ID      string
	Name    string
	Content string
}

// GroundingLink is one source-attribution entry from the model
type GroundingLink struct {
	Title  string
	URI    string
	Source string // "web" or "maps"
}

// StreamChunk is one incremental piece of a streamed response
type StreamChunk struct {
	Text         string
	FunctionCall *FunctionCall
	Grounding    []GroundingLink
	Index        int
	FinishReason string
}

// StreamCallback receives stream chunks. Returning an error stops the stream.
type StreamCallback func(chunk StreamChunk) error

// AIResponse from the model
type AIResponse struct {
	Content      string
	Model        string
	FunctionCall *FunctionCall
	Grounding    []GroundingLink
	Usage        TokenUsage
}

// TokenUsage for AI responses
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

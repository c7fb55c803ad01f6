package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model answers with no usable content:
// no candidates, no text parts, or a response blocked by safety filters.
var ErrEmptyResponse = errors.New("empty model response")

// Part is a non-text attachment sent alongside the prompt text.
type Part struct {
	MIMEType string
	Data     []byte
}

// Request is a single structured generation request.
type Request struct {
	Prompt string
	Parts  []Part
	// Schema is the JSON Schema the response must follow. Nil means free-form JSON.
	Schema json.RawMessage
	Tier   ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON generates a JSON document for the request, cleaned of markdown wrappers
	GenerateJSON(ctx context.Context, req *Request) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderVertex:
		return NewGenAIClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	if req.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	return nil
}

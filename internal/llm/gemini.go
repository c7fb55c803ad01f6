package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for the Gemini developer API
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

func (c *GeminiClient) model(tier ModelTier) (*genai.GenerativeModel, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	return model, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapGeminiError(err)
	}

	return extractTextFromResponse(resp)
}

// GenerateJSON generates a JSON document constrained by the request schema
func (c *GeminiClient) GenerateJSON(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	model, err := c.model(req.Tier)
	if err != nil {
		return "", err
	}
	model.ResponseMIMEType = "application/json"

	prompt := req.Prompt
	if len(req.Schema) > 0 {
		node, err := ParseSchema(req.Schema)
		if err != nil {
			return "", err
		}
		model.ResponseSchema = toGeminiSchema(node)
		// This SDK drops array bounds and consts, so state them in the prompt too.
		prompt = prompt + "\n\n" + DescribeSchema(node)
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, p := range req.Parts {
		parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", wrapGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}

	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func wrapGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %s", ErrEmptyResponse, blocked.Error())
	}
	return fmt.Errorf("failed to generate content: %w", err)
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrEmptyResponse)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", ErrEmptyResponse)
	}

	return text, nil
}

func toGeminiSchema(node *SchemaNode) *genai.Schema {
	if node == nil {
		return nil
	}
	s := &genai.Schema{
		Description: node.Description,
		Enum:        node.EnumValues(),
	}
	switch node.Type {
	case "object":
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(node.Properties))
		for name, child := range node.Properties {
			s.Properties[name] = toGeminiSchema(child)
		}
		s.Required = node.Required
	case "array":
		s.Type = genai.TypeArray
		s.Items = toGeminiSchema(node.Items)
	case "boolean":
		s.Type = genai.TypeBoolean
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	default:
		s.Type = genai.TypeString
	}
	return s
}

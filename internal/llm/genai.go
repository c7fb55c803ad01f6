package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient implements Client on the unified Google GenAI SDK. It serves Vertex AI
// deployments and, when only an API key is given, the Gemini developer API.
type GenAIClient struct {
	client *genai.Client
	config *Config
}

// NewGenAIClient creates a client for Vertex AI (config.Project set) or the Gemini API (apiKey set).
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case config.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = config.Project
		cc.Location = config.Location
	case apiKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = apiKey
	default:
		return nil, fmt.Errorf("vertex project or API key is required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}
	resp, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.config.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return genaiText(resp)
}

// GenerateJSON generates a JSON document constrained by the request schema
func (c *GenAIClient) GenerateJSON(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.config.Temperature),
		ResponseMIMEType: "application/json",
	}
	if len(req.Schema) > 0 {
		node, err := ParseSchema(req.Schema)
		if err != nil {
			return "", err
		}
		gc.ResponseSchema = toGenAISchema(node)
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, p := range req.Parts {
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, contents, gc)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := genaiText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK holds no long-lived connections.
func (c *GenAIClient) Close() error {
	return nil
}

func genaiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrEmptyResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked by safety filters", ErrEmptyResponse)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", ErrEmptyResponse)
	}
	return text, nil
}

func toGenAISchema(node *SchemaNode) *genai.Schema {
	if node == nil {
		return nil
	}
	s := &genai.Schema{
		Description: node.Description,
		Enum:        node.EnumValues(),
		MinItems:    node.MinItems,
		MaxItems:    node.MaxItems,
		MinLength:   node.MinLength,
	}
	switch node.Type {
	case "object":
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(node.Properties))
		for name, child := range node.Properties {
			s.Properties[name] = toGenAISchema(child)
		}
		s.Required = node.Required
		s.PropertyOrdering = node.PropertyNames()
	case "array":
		s.Type = genai.TypeArray
		s.Items = toGenAISchema(node.Items)
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

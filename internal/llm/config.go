// Package llm provides model configuration and client abstractions for the flow layer.
// Flows pick a tier, the config maps the tier to a concrete model of the selected provider.
package llm

import (
	"fmt"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short generations: listings, rewording, short templates
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: advice, plans, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long document work such as resume restructuring
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Gemini developer API accessed with an API key
	ProviderGemini Provider = "gemini"
	// ProviderVertex is Gemini served from Vertex AI (project + location credentials)
	ProviderVertex Provider = "vertex"
)

// DefaultTemperature keeps flow output stable between submissions.
const DefaultTemperature float32 = 0.2

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32

	// Vertex only.
	Project  string
	Location string
}

// DefaultConfig returns the default configuration (Gemini developer API)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// DefaultVertexConfig returns the default Vertex AI configuration for a project.
func DefaultVertexConfig(project, location string) *Config {
	cfg := DefaultGeminiConfig()
	cfg.Provider = ProviderVertex
	cfg.Project = project
	cfg.Location = location
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	return cfg
}

// ParseProvider converts a provider name from configuration.
func ParseProvider(name string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderVertex:
		return ProviderVertex, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q", name)
	}
}

// ParseTier converts a tier name, reporting whether it is known.
func ParseTier(name string) (ModelTier, bool) {
	switch t := ModelTier(strings.ToLower(strings.TrimSpace(name))); t {
	case TierLite, TierStandard, TierAdvanced:
		return t, true
	default:
		return "", false
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

// WithOverrides applies tier→model overrides keyed by tier name. Unknown tiers are rejected.
func (c *Config) WithOverrides(overrides map[string]string) (*Config, error) {
	out := c
	for name, model := range overrides {
		tier, ok := ParseTier(name)
		if !ok {
			return nil, fmt.Errorf("unknown model tier %q", name)
		}
		if model == "" {
			continue
		}
		out = out.WithModel(tier, model)
	}
	return out, nil
}

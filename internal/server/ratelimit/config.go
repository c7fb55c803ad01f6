package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig is the limit for one tier of endpoints. A Path ending in "/"
// matches every path below it, and all of them share one bucket per client.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	EndpointConfigs []EndpointConfig
}

// NewConfig builds the server's tiers: a general per-client limit, a tighter one
// for everything that calls the model, and a login/registration limit. A zero
// general limit disables rate limiting.
func NewConfig(requestsPerMinute, flowRequestsPerMinute, burst int) *Config {
	if requestsPerMinute <= 0 {
		return &Config{Enabled: false}
	}
	model := func(path, method string) EndpointConfig {
		return EndpointConfig{Path: path, Method: method, Limit: flowRequestsPerMinute, Window: time.Minute, Burst: burst}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    requestsPerMinute,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: []EndpointConfig{
			model("/flows/", http.MethodPost),
			model("/roadmaps/", http.MethodPost),
			model("/resumes", http.MethodPost),
			model("/resumes/", http.MethodPost),
			model("/chat/ws", http.MethodGet),
			{Path: "/auth/", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},
		},
	}
}

// MatchEndpoint returns the tier for a request, or nil for the default limit.
// Exact paths win over prefixes; GET /health is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{Path: path, Method: method}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && c.Path == path {
			return c
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}

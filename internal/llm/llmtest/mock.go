// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/career-compass/internal/llm"
)

// Response is one scripted reply. Err wins over Text when set.
type Response struct {
	Text string
	Err  error
}

// MockClient implements llm.Client by replaying scripted responses in order.
// When the script runs out the last response repeats until more are pushed.
type MockClient struct {
	mu        sync.Mutex
	responses []Response
	served    int
	requests  []llm.Request

	// Block, when non-nil, is received from before each call returns.
	Block chan struct{}
}

// NewMockClient creates a mock that answers with the given JSON texts.
func NewMockClient(texts ...string) *MockClient {
	m := &MockClient{}
	for _, t := range texts {
		m.responses = append(m.responses, Response{Text: t})
	}
	return m
}

// NewFailingClient creates a mock whose every call fails with err.
func NewFailingClient(err error) *MockClient {
	return &MockClient{responses: []Response{{Err: err}}}
}

// Push appends a scripted response.
func (m *MockClient) Push(r Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
}

func (m *MockClient) next(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var r Response
	switch {
	case m.served < len(m.responses):
		r = m.responses[m.served]
		m.served++
	case len(m.responses) > 0:
		r = m.responses[len(m.responses)-1]
	}
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}

// GenerateContent returns the next scripted response.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.next(ctx, llm.Request{Prompt: prompt, Tier: tier})
}

// GenerateJSON returns the next scripted response, cleaned like a real client would.
func (m *MockClient) GenerateJSON(ctx context.Context, req *llm.Request) (string, error) {
	text, err := m.next(ctx, *req)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(text), nil
}

// GetModel returns a fixed model name.
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	return "mock-" + string(tier)
}

// Close is a no-op.
func (m *MockClient) Close() error { return nil }

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many model calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

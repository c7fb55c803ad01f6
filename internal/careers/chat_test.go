package careers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/llm/llmtest"
	"github.com/jonathan/career-compass/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSession_AppendsExchange(t *testing.T) {
	client := llmtest.NewMockClient(`{"response": "Go is a great first backend language."}`, `{"response": "Rust too."}`)
	s := NewChatSession(flow.NewModelInvoker(client, nil, nil))

	reply, err := s.Send(context.Background(), "Should I learn Go?")
	require.NoError(t, err)
	assert.Equal(t, "Go is a great first backend language.", reply)

	_, err = s.Send(context.Background(), "And Rust?")
	require.NoError(t, err)

	assert.Equal(t, []types.ChatTurn{
		{Role: types.RoleUser, Content: "Should I learn Go?"},
		{Role: types.RoleAssistant, Content: "Go is a great first backend language."},
		{Role: types.RoleUser, Content: "And Rust?"},
		{Role: types.RoleAssistant, Content: "Rust too."},
	}, s.History())

	// The second prompt replays the first exchange and carries the new message once.
	second := client.Requests()[1].Prompt
	assert.Contains(t, second, "user: Should I learn Go?\nassistant: Go is a great first backend language.\nuser: And Rust?")
}

func TestChatSession_FailureRollsBack(t *testing.T) {
	client := llmtest.NewMockClient(`{"response": "Hello!"}`)
	s := NewChatSession(flow.NewModelInvoker(client, nil, nil))
	_, err := s.Send(context.Background(), "Hi")
	require.NoError(t, err)

	client.Push(llmtest.Response{Err: errors.New("connection reset")})
	_, err = s.Send(context.Background(), "Tell me about data science")
	assert.Equal(t, flow.KindUnavailable, flow.KindOf(err))
	assert.Len(t, s.History(), 2)
	assert.Equal(t, form.StatusFailed, s.State().Status)
}

func TestChatSession_MalformedRollsBack(t *testing.T) {
	client := llmtest.NewMockClient(`{"answer": "wrong key"}`)
	s := NewChatSession(flow.NewModelInvoker(client, nil, nil), types.ChatTurn{Role: types.RoleUser, Content: "earlier"})

	_, err := s.Send(context.Background(), "Hi")
	assert.Equal(t, flow.KindMalformedOutput, flow.KindOf(err))
	assert.Equal(t, []types.ChatTurn{{Role: types.RoleUser, Content: "earlier"}}, s.History())
}

func TestChatSession_BlankMessage(t *testing.T) {
	client := llmtest.NewMockClient(`{"response": "x"}`)
	s := NewChatSession(flow.NewModelInvoker(client, nil, nil))

	_, err := s.Send(context.Background(), "   ")
	assert.Equal(t, flow.KindValidation, flow.KindOf(err))
	assert.Zero(t, client.Calls())
	assert.Empty(t, s.History())
}

func TestChatSession_BusyWhileAnswering(t *testing.T) {
	client := llmtest.NewMockClient(`{"response": "done"}`)
	client.Block = make(chan struct{})
	s := NewChatSession(flow.NewModelInvoker(client, nil, nil))
	events, unsubscribe := s.Subscribe(4)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()

	select {
	case tr := <-events:
		assert.Equal(t, form.StatusSubmitting, tr.State.Status)
	case <-time.After(time.Second):
		t.Fatal("session never started submitting")
	}

	_, err := s.Send(context.Background(), "second")
	assert.ErrorIs(t, err, form.ErrBusy)

	close(client.Block)
	require.NoError(t, <-done)
	assert.Equal(t, []types.ChatTurn{
		{Role: types.RoleUser, Content: "first"},
		{Role: types.RoleAssistant, Content: "done"},
	}, s.History())
	assert.Equal(t, 1, client.Calls())
}

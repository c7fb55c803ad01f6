package careers

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/jonathan/career-compass/internal/types"
)

// ChatSession owns one conversation with the career mentor. Each Send replays the
// history before the new message; a failed exchange leaves the history as it was.
type ChatSession struct {
	form    *form.Form[types.CareerChatInput, types.CareerChatOutput]
	sending atomic.Bool

	mu      sync.Mutex
	history *types.ChatHistory
}

// NewChatSession starts a conversation, optionally seeded with earlier turns.
func NewChatSession(inv flow.Invoker, seed ...types.ChatTurn) *ChatSession {
	return &ChatSession{
		form: form.New(func(ctx context.Context, in types.CareerChatInput) (types.CareerChatOutput, error) {
			return CareerChat.Run(ctx, inv, in)
		}),
		history: types.NewChatHistory(seed...),
	}
}

// Send adds message to the conversation and returns the mentor's reply.
// It returns form.ErrBusy while another message is being answered.
func (s *ChatSession) Send(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &flow.ValidationError{
			Flow:   FlowCareerChat,
			Fields: []schemas.FieldError{{Field: "message", Message: "is required"}},
		}
	}
	if !s.sending.CompareAndSwap(false, true) {
		return "", form.ErrBusy
	}
	defer s.sending.Store(false)

	s.mu.Lock()
	prior := s.history.Turns()
	s.history.Append(types.RoleUser, message)
	s.mu.Unlock()

	out, err := s.form.Submit(ctx, types.CareerChatInput{Message: message, ChatHistory: prior})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.history.Rollback(types.RoleUser)
		return "", err
	}
	s.history.Append(types.RoleAssistant, out.Response)
	return out.Response, nil
}

// History returns a copy of the conversation.
func (s *ChatSession) History() []types.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Turns()
}

// State returns the session's form state.
func (s *ChatSession) State() form.State[types.CareerChatOutput] {
	return s.form.State()
}

// Subscribe follows the session's form transitions.
func (s *ChatSession) Subscribe(buffer int) (<-chan form.Transition[types.CareerChatOutput], func()) {
	return s.form.Subscribe(buffer)
}

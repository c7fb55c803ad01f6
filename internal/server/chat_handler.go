package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/types"
)

const chatWriteTimeout = 10 * time.Second

// chatRequest is a client message on the chat socket.
type chatRequest struct {
	Message string `json:"message"`
}

// chatReply is a server message on the chat socket: a reply or an error.
type chatReply struct {
	Type     string    `json:"type"`
	Response string    `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
	Kind     flow.Kind `json:"kind,omitempty"`
}

// handleChatMessages returns the user's stored chat exchanges, oldest first.
func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	limit := db.DefaultChatHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, db.DefaultChatHistoryLimit)
	}
	msgs, err := s.store.ListChatMessages(r.Context(), userID, limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, msgs)
}

// chatTurns converts stored exchanges into conversation turns.
func chatTurns(msgs []types.ChatMessage) []types.ChatTurn {
	turns := make([]types.ChatTurn, 0, 2*len(msgs))
	for _, m := range msgs {
		turns = append(turns,
			types.ChatTurn{Role: types.RoleUser, Content: m.Message},
			types.ChatTurn{Role: types.RoleAssistant, Content: m.Response},
		)
	}
	return turns
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*") {
		return true
	}
	return slices.Contains(s.corsOrigins, origin)
}

// handleChatSocket runs a chat session over a websocket. The session is seeded
// with the stored transcript; every answered message is persisted.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	if !s.checkOrigin(r) {
		errorResponse(w, http.StatusForbidden, "origin not allowed")
		return
	}

	history, err := s.store.ListChatMessages(r.Context(), userID, db.DefaultChatHistoryLimit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("failed to accept websocket", "user_id", userID, "error", err)
		return
	}
	defer func() {
		if err := ws.Close(websocket.StatusNormalClosure, "chat ended"); err != nil {
			s.logger.Debug("failed to close chat socket", "user_id", userID, "error", err)
		}
	}()

	ctx := r.Context()
	session := careers.NewChatSession(s.invoker, chatTurns(history)...)
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.logger.Debug("chat socket read failed", "user_id", userID, "error", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := s.writeChat(ctx, ws, chatReply{Type: "error", Error: "messages must be JSON objects with a \"message\" field", Kind: flow.KindValidation}); err != nil {
				return
			}
			continue
		}

		reply := s.answerChat(ctx, userID, session, req.Message)
		if err := s.writeChat(ctx, ws, reply); err != nil {
			return
		}
	}
}

func (s *Server) answerChat(ctx context.Context, userID uuid.UUID, session *careers.ChatSession, message string) chatReply {
	response, err := session.Send(ctx, message)
	if err != nil {
		kind := flow.KindOf(err)
		if kind == flow.KindValidation {
			return chatReply{Type: "error", Error: err.Error(), Kind: kind}
		}
		s.logger.Error("chat reply failed", "user_id", userID, "kind", kind, "error", err)
		return chatReply{Type: "error", Error: genericFailure}
	}

	record := &types.ChatMessage{UserID: userID, Message: message, Response: response}
	if err := s.store.SaveChatMessage(ctx, record); err != nil {
		s.logger.Error("failed to save chat message", "user_id", userID, "error", err)
	}
	return chatReply{Type: "reply", Response: response}
}

func (s *Server) writeChat(ctx context.Context, ws *websocket.Conn, reply chatReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, chatWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/types"
)

const sseKeepAlive = 15 * time.Second

type flowInfo struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Tier         string          `json:"tier"`
	InputSchema  json.RawMessage `json:"input_schema"`
	OutputSchema json.RawMessage `json:"output_schema"`
}

// flowState is the client view of a form state. Failures carry only the kind.
type flowState struct {
	Flow   string          `json:"flow"`
	From   form.Status     `json:"from,omitempty"`
	Status form.Status     `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   flow.Kind       `json:"kind,omitempty"`
}

func newFlowState(name string, from form.Status, st form.State[json.RawMessage]) flowState {
	v := flowState{Flow: name, From: from, Status: st.Status}
	switch st.Status {
	case form.StatusSucceeded:
		v.Output = st.Output
	case form.StatusFailed:
		v.Kind = flow.KindOf(st.Err)
		v.Error = genericFailure
		if v.Kind == flow.KindValidation {
			v.Error = st.Err.Error()
		}
	}
	return v
}

func (s *Server) handleListFlows(w http.ResponseWriter, _ *http.Request) {
	runners := s.flows.List()
	out := make([]flowInfo, 0, len(runners))
	for _, f := range runners {
		out = append(out, flowInfo{
			Name:         f.Name(),
			Description:  f.Description(),
			Tier:         string(f.Tier()),
			InputSchema:  f.InputSchema(),
			OutputSchema: f.OutputSchema(),
		})
	}
	jsonResponse(w, http.StatusOK, out)
}

// submit runs a flow through the user's form for it, so a user has at most one
// call per flow in flight.
func (s *Server) submit(ctx context.Context, userID uuid.UUID, name string, input any) (json.RawMessage, error) {
	raw, ok := input.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(input); err != nil {
			return nil, err
		}
	}
	return s.forms.Get(formKey{user: userID, flow: name}).Submit(ctx, raw)
}

// handleRunFlow runs the named flow on the request body and returns its output.
func (s *Server) handleRunFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if _, ok := s.flows.Get(name); !ok {
		errorResponse(w, http.StatusNotFound, "unknown flow: "+name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input := json.RawMessage(body)

	// Cover letters accept a posting URL in place of the description.
	if name == careers.FlowCoverLetter {
		var req types.CoverLetterRequest
		if err := json.Unmarshal(body, &req); err != nil {
			errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		in, err := careers.CoverLetterInput(r.Context(), s.jobs, req)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if input, err = json.Marshal(in); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}

	out, err := s.submit(r.Context(), userID, name, input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

// handleFlowState streams the user's form state for a flow: the current state
// first, then every transition until the client disconnects.
func (s *Server) handleFlowState(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if _, ok := s.flows.Get(name); !ok {
		errorResponse(w, http.StatusNotFound, "unknown flow: "+name)
		return
	}

	f := s.forms.Get(formKey{user: userID, flow: name})
	transitions, cancel := f.Subscribe(8)
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent("state", newFlowState(name, "", f.State())); err != nil {
		return
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sse.WriteKeepAlive(); err != nil {
				return
			}
		case t, ok := <-transitions:
			if !ok {
				return
			}
			if err := sse.WriteEvent("transition", newFlowState(name, t.From, t.State)); err != nil {
				return
			}
		}
	}
}

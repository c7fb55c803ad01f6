package flow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/tidwall/gjson"
)

// Shape names a JSON Schema contract, for example "goal-setting.output".
type Shape string

// Prompt is a rendered prompt with its attachments and the model tier to run it on.
type Prompt struct {
	Text  string
	Parts []llm.Part
	Tier  llm.ModelTier
}

// Invoker sends one rendered prompt to the model and returns output that
// already satisfies the output shape.
type Invoker interface {
	Invoke(ctx context.Context, prompt Prompt, output Shape) (json.RawMessage, error)
}

// ModelInvoker is the Invoker backed by an llm.Client. It makes exactly one model
// call per Invoke and never retries.
type ModelInvoker struct {
	client    llm.Client
	validator *schemas.Validator
	logger    *slog.Logger
}

// NewModelInvoker creates an invoker. A nil validator uses the embedded contracts,
// a nil logger uses slog.Default().
func NewModelInvoker(client llm.Client, validator *schemas.Validator, logger *slog.Logger) *ModelInvoker {
	if validator == nil {
		validator = schemas.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelInvoker{client: client, validator: validator, logger: logger}
}

// Invoke implements Invoker.
func (m *ModelInvoker) Invoke(ctx context.Context, prompt Prompt, output Shape) (json.RawMessage, error) {
	if strings.TrimSpace(prompt.Text) == "" {
		return nil, &ValidationError{Message: "rendered prompt is empty"}
	}
	schema, err := m.validator.Raw(string(output))
	if err != nil {
		return nil, &UnavailableError{Cause: err}
	}

	start := time.Now()
	text, err := m.client.GenerateJSON(ctx, &llm.Request{
		Prompt: prompt.Text,
		Parts:  prompt.Parts,
		Schema: schema,
		Tier:   prompt.Tier,
	})
	log := m.logger.With("shape", string(output), "model", m.client.GetModel(prompt.Tier), "duration", time.Since(start))
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			log.Warn("model returned empty response", "error", err)
			return nil, &EmptyError{Cause: err}
		}
		log.Warn("model call failed", "error", err)
		return nil, &UnavailableError{Cause: err}
	}

	raw, err := checkOutput(m.validator, text, output)
	if err != nil {
		log.Warn("model output rejected", "kind", KindOf(err), "error", err)
		return nil, err
	}
	log.Debug("model call succeeded", "bytes", len(raw))
	return raw, nil
}

// checkOutput classifies model text as empty, malformed or valid for output.
func checkOutput(validator *schemas.Validator, text string, output Shape) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if isEmptyAnswer(text) {
		return nil, &EmptyError{}
	}
	if !gjson.Valid(text) {
		return nil, &MalformedOutputError{Raw: text, Cause: errors.New("response is not valid JSON")}
	}
	if err := validator.Validate(string(output), []byte(text)); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return nil, &MalformedOutputError{Raw: text, Fields: ve.Errors}
		}
		return nil, &MalformedOutputError{Raw: text, Cause: err}
	}
	return json.RawMessage(text), nil
}

// isEmptyAnswer reports refusals that carry no content: nothing, null, "" or an empty container.
func isEmptyAnswer(text string) bool {
	if text == "" {
		return true
	}
	if !gjson.Valid(text) {
		return false
	}
	v := gjson.Parse(text)
	switch {
	case v.Type == gjson.Null:
		return true
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str) == ""
	case v.IsObject(), v.IsArray():
		empty := true
		v.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

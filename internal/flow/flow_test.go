package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/llm/llmtest"
	"github.com/jonathan/career-compass/internal/prompts"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planInput struct {
	Goal      string `json:"goal" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required"`
}

type planStep struct {
	Title  string `json:"title"`
	Metric string `json:"metric"`
}

type planOutput struct {
	SmartGoal string     `json:"smartGoal"`
	Steps     []planStep `json:"steps"`
}

var testContracts = fstest.MapFS{
	"plan.input.schema.json": {Data: []byte(`{
		"type": "object",
		"required": ["goal", "timeframe"],
		"properties": {
			"goal": {"type": "string", "minLength": 1},
			"timeframe": {"type": "string", "minLength": 1}
		}
	}`)},
	"plan.output.schema.json": {Data: []byte(`{
		"type": "object",
		"required": ["smartGoal", "steps"],
		"properties": {
			"smartGoal": {"type": "string", "minLength": 1},
			"steps": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["title", "metric"],
					"properties": {
						"title": {"type": "string", "minLength": 1},
						"metric": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}`)},
}

const planTemplate = "Plan '{{.goal}}' within '{{.timeframe}}'."

func newPlanFlow(t *testing.T) (*Flow[planInput, planOutput], *schemas.Validator) {
	t.Helper()
	v := schemas.NewValidator(testContracts)
	f, err := New(Definition[planInput, planOutput]{
		Name:        "plan",
		Description: "test plan flow",
		Render: func(in planInput) (Prompt, error) {
			return Prompt{Text: prompts.Format(planTemplate, map[string]string{
				"goal":      in.Goal,
				"timeframe": in.Timeframe,
			})}, nil
		},
	}, v)
	require.NoError(t, err)
	return f, v
}

const validPlan = `{"smartGoal": "Ship a service in 6 months", "steps": [{"title": "Learn Go", "metric": "3 projects"}]}`

func TestRun_Success(t *testing.T) {
	f, v := newPlanFlow(t)
	client := llmtest.NewMockClient("```json\n" + validPlan + "\n```")
	inv := NewModelInvoker(client, v, nil)

	out, err := f.Run(context.Background(), inv, planInput{Goal: "ship", Timeframe: "6 months"})
	require.NoError(t, err)
	assert.Equal(t, "Ship a service in 6 months", out.SmartGoal)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "3 projects", out.Steps[0].Metric)

	reqs := client.Requests()
	require.Len(t, reqs, 1, "exactly one model call")
	assert.Equal(t, "Plan 'ship' within '6 months'.", reqs[0].Prompt)
	assert.Equal(t, llm.TierStandard, reqs[0].Tier)
	assert.JSONEq(t, string(f.OutputSchema()), string(reqs[0].Schema))
}

func TestRun_ValidationErrorMakesNoCall(t *testing.T) {
	f, v := newPlanFlow(t)
	client := llmtest.NewMockClient(validPlan)
	inv := NewModelInvoker(client, v, nil)

	_, err := f.Run(context.Background(), inv, planInput{Goal: "ship"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "plan", ve.Flow)
	require.NotEmpty(t, ve.Fields)
	assert.Equal(t, "timeframe", ve.Fields[0].Field)
	assert.Zero(t, client.Calls())
}

func TestRunJSON_WrongTypeIsValidationError(t *testing.T) {
	f, v := newPlanFlow(t)
	client := llmtest.NewMockClient(validPlan)
	inv := NewModelInvoker(client, v, nil)

	_, err := f.RunJSON(context.Background(), inv, json.RawMessage(`{"goal": 12, "timeframe": "1 year"}`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "goal", ve.Fields[0].Field)
	assert.Zero(t, client.Calls())
}

func TestRun_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		response llmtest.Response
		want     Kind
	}{
		{"transport failure", llmtest.Response{Err: errors.New("dial tcp: timeout")}, KindUnavailable},
		{"context deadline", llmtest.Response{Err: fmt.Errorf("failed to generate content: %w", context.DeadlineExceeded)}, KindUnavailable},
		{"blocked", llmtest.Response{Err: fmt.Errorf("%w: blocked", llm.ErrEmptyResponse)}, KindEmpty},
		{"empty text", llmtest.Response{Text: "   "}, KindEmpty},
		{"null", llmtest.Response{Text: "null"}, KindEmpty},
		{"empty object", llmtest.Response{Text: "{}"}, KindEmpty},
		{"not json", llmtest.Response{Text: "I think you should learn Go."}, KindMalformedOutput},
		{"missing required field", llmtest.Response{Text: `{"smartGoal": "x"}`}, KindMalformedOutput},
		{"wrong type", llmtest.Response{Text: `{"smartGoal": "x", "steps": "many"}`}, KindMalformedOutput},
		{"empty steps", llmtest.Response{Text: `{"smartGoal": "x", "steps": []}`}, KindMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, v := newPlanFlow(t)
			client := &llmtest.MockClient{}
			client.Push(tt.response)
			inv := NewModelInvoker(client, v, nil)

			out, err := f.Run(context.Background(), inv, planInput{Goal: "ship", Timeframe: "1 year"})
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
			assert.Zero(t, out)
			assert.Equal(t, 1, client.Calls(), "no automatic retry")
			assert.Contains(t, err.Error(), "plan")
		})
	}
}

func TestMalformedOutput_ReportsFields(t *testing.T) {
	f, v := newPlanFlow(t)
	inv := NewModelInvoker(llmtest.NewMockClient(`{"smartGoal": "x"}`), v, nil)

	_, err := f.Run(context.Background(), inv, planInput{Goal: "ship", Timeframe: "1 year"})
	var me *MalformedOutputError
	require.ErrorAs(t, err, &me)
	require.NotEmpty(t, me.Fields)
	assert.Equal(t, `{"smartGoal": "x"}`, me.Raw)
}

func TestRender_Deterministic(t *testing.T) {
	f, _ := newPlanFlow(t)
	in := planInput{Goal: "become a senior engineer", Timeframe: "1 year"}

	first, err := f.Render(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := f.Render(in)
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text)
	}
	assert.Equal(t, llm.TierStandard, first.Tier)
}

func TestRender_ErrorBecomesValidation(t *testing.T) {
	v := schemas.NewValidator(testContracts)
	f := MustNew(Definition[planInput, planOutput]{
		Name: "plan",
		Render: func(planInput) (Prompt, error) {
			return Prompt{}, errors.New("bad attachment")
		},
	}, v)

	_, err := f.Render(planInput{Goal: "a", Timeframe: "b"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestEmptyPromptIsRejected(t *testing.T) {
	v := schemas.NewValidator(testContracts)
	client := llmtest.NewMockClient(validPlan)
	inv := NewModelInvoker(client, v, nil)

	_, err := inv.Invoke(context.Background(), Prompt{Text: "  "}, "plan.output")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, client.Calls())
}

func TestNew_MissingContract(t *testing.T) {
	v := schemas.NewValidator(testContracts)
	_, err := New(Definition[planInput, planOutput]{
		Name:   "unknown",
		Render: func(planInput) (Prompt, error) { return Prompt{Text: "x"}, nil },
	}, v)
	assert.Error(t, err)

	_, err = New(Definition[planInput, planOutput]{Name: "plan"}, v)
	assert.Error(t, err)
}

func TestFinishHook(t *testing.T) {
	v := schemas.NewValidator(testContracts)
	f := MustNew(Definition[planInput, planOutput]{
		Name:   "plan",
		Render: func(in planInput) (Prompt, error) { return Prompt{Text: in.Goal}, nil },
		Finish: func(out *planOutput) { out.SmartGoal = "finished: " + out.SmartGoal },
	}, v)

	out, err := f.Run(context.Background(), NewModelInvoker(llmtest.NewMockClient(validPlan), v, nil), planInput{Goal: "g", Timeframe: "t"})
	require.NoError(t, err)
	assert.Equal(t, "finished: Ship a service in 6 months", out.SmartGoal)
}

func TestRegistry(t *testing.T) {
	f, v := newPlanFlow(t)
	reg, err := NewRegistry(f)
	require.NoError(t, err)

	_, err = NewRegistry(f, f)
	assert.Error(t, err)

	assert.Equal(t, []string{"plan"}, reg.Names())
	_, ok := reg.Get("plan")
	assert.True(t, ok)

	inv := NewModelInvoker(llmtest.NewMockClient(validPlan), v, nil)
	out, err := reg.Run(context.Background(), inv, "plan", json.RawMessage(`{"goal": "g", "timeframe": "t"}`))
	require.NoError(t, err)
	assert.JSONEq(t, validPlan, string(out))

	_, err = reg.Run(context.Background(), inv, "missing", nil)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
	assert.Equal(t, KindEmpty, KindOf(fmt.Errorf("wrapped: %w", &EmptyError{})))
	assert.Equal(t, KindUnavailable, KindOf(&UnavailableError{Cause: errors.New("x")}))
}

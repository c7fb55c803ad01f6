// Package flow implements schema-validated model flows: validate input, render a
// prompt, invoke the model once and return output that satisfies the output shape.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/schemas"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so struct and schema errors read alike.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Definition declares a flow.
type Definition[In, Out any] struct {
	Name        string
	Description string
	// PromptKey is the template key in prompts.FlowsFile. Defaults to Name.
	PromptKey string
	Tier      llm.ModelTier
	// Render builds the prompt for a validated input. It must be pure.
	Render func(in In) (Prompt, error)
	// Finish optionally normalizes a decoded output.
	Finish func(out *Out)
}

// Flow is a typed flow bound to its input and output contracts.
type Flow[In, Out any] struct {
	def       Definition[In, Out]
	input     Shape
	output    Shape
	validator *schemas.Validator
}

// New creates a flow and checks that both contracts exist.
func New[In, Out any](def Definition[In, Out], v *schemas.Validator) (*Flow[In, Out], error) {
	if def.Name == "" {
		return nil, fmt.Errorf("flow name is required")
	}
	if def.Render == nil {
		return nil, fmt.Errorf("flow %s: render function is required", def.Name)
	}
	if def.PromptKey == "" {
		def.PromptKey = def.Name
	}
	if def.Tier == "" {
		def.Tier = llm.TierStandard
	}
	if v == nil {
		v = schemas.Default()
	}
	f := &Flow[In, Out]{
		def:       def,
		input:     Shape(def.Name + ".input"),
		output:    Shape(def.Name + ".output"),
		validator: v,
	}
	for _, s := range []Shape{f.input, f.output} {
		if _, err := v.Raw(string(s)); err != nil {
			return nil, fmt.Errorf("flow %s: %w", def.Name, err)
		}
	}
	return f, nil
}

// MustNew is New that panics, for flows declared at package init.
func MustNew[In, Out any](def Definition[In, Out], v *schemas.Validator) *Flow[In, Out] {
	f, err := New(def, v)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the flow name.
func (f *Flow[In, Out]) Name() string { return f.def.Name }

// Description returns the human-readable description.
func (f *Flow[In, Out]) Description() string { return f.def.Description }

// PromptKey returns the template key.
func (f *Flow[In, Out]) PromptKey() string { return f.def.PromptKey }

// Tier returns the model tier the flow runs on.
func (f *Flow[In, Out]) Tier() llm.ModelTier { return f.def.Tier }

// Input returns the input contract name.
func (f *Flow[In, Out]) Input() Shape { return f.input }

// Output returns the output contract name.
func (f *Flow[In, Out]) Output() Shape { return f.output }

// InputSchema returns the input JSON Schema document.
func (f *Flow[In, Out]) InputSchema() json.RawMessage {
	raw, _ := f.validator.Raw(string(f.input))
	return raw
}

// OutputSchema returns the output JSON Schema document.
func (f *Flow[In, Out]) OutputSchema() json.RawMessage {
	raw, _ := f.validator.Raw(string(f.output))
	return raw
}

// Run validates in, renders the prompt, invokes the model and decodes the output.
// Every error is one of ValidationError, UnavailableError, MalformedOutputError or EmptyError.
func (f *Flow[In, Out]) Run(ctx context.Context, inv Invoker, in In) (Out, error) {
	var zero Out
	if err := f.validateInput(in); err != nil {
		return zero, withFlow(err, f.def.Name)
	}
	return f.run(ctx, inv, in)
}

// Render validates in and returns the prompt that Run would send.
func (f *Flow[In, Out]) Render(in In) (Prompt, error) {
	if err := f.validateInput(in); err != nil {
		return Prompt{}, withFlow(err, f.def.Name)
	}
	return f.render(in)
}

func (f *Flow[In, Out]) render(in In) (Prompt, error) {
	p, err := f.def.Render(in)
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			err = &ValidationError{Message: "could not render prompt", Cause: err}
		}
		return Prompt{}, withFlow(err, f.def.Name)
	}
	p.Tier = f.def.Tier
	return p, nil
}

func (f *Flow[In, Out]) run(ctx context.Context, inv Invoker, in In) (Out, error) {
	var zero Out
	prompt, err := f.render(in)
	if err != nil {
		return zero, err
	}

	raw, err := inv.Invoke(ctx, prompt, f.output)
	if err != nil {
		return zero, withFlow(err, f.def.Name)
	}

	var out Out
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &MalformedOutputError{Flow: f.def.Name, Raw: string(raw), Cause: err}
	}
	if f.def.Finish != nil {
		f.def.Finish(&out)
	}
	return out, nil
}

func (f *Flow[In, Out]) validateInput(in In) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if err := f.validator.ValidateValue(string(f.input), in); err != nil {
		return toInputError(err)
	}
	return nil
}

// RunJSON decodes a JSON input, runs the flow and encodes the output.
func (f *Flow[In, Out]) RunJSON(ctx context.Context, inv Invoker, input json.RawMessage) (json.RawMessage, error) {
	in, err := f.decodeInput(input)
	if err != nil {
		return nil, withFlow(err, f.def.Name)
	}
	out, err := f.run(ctx, inv, in)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, &MalformedOutputError{Flow: f.def.Name, Cause: err}
	}
	return encoded, nil
}

// RenderJSON decodes a JSON input and returns the prompt that RunJSON would send.
func (f *Flow[In, Out]) RenderJSON(input json.RawMessage) (Prompt, error) {
	in, err := f.decodeInput(input)
	if err != nil {
		return Prompt{}, withFlow(err, f.def.Name)
	}
	return f.render(in)
}

// decodeInput checks the raw document against the input schema first, so type errors
// are reported per field instead of as a decode failure.
func (f *Flow[In, Out]) decodeInput(input json.RawMessage) (In, error) {
	var in In
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := f.validator.Validate(string(f.input), input); err != nil {
		return in, toInputError(err)
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return in, &ValidationError{Message: "could not decode input", Cause: err}
	}
	if err := ValidateStruct(in); err != nil {
		return in, err
	}
	return in, nil
}

// ValidateStruct checks the validate tags on in and reports failures as a
// *ValidationError with JSON field names.
func ValidateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Non-struct inputs carry no tags.
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Cause: err}
	}
	fields := make([]schemas.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, schemas.FieldError{
			Field:   fe.Field(),
			Message: tagMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datauri":
		return "must be a base64 data URI"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", fe.Param())
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func toInputError(err error) error {
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Fields: ve.Errors}
	}
	return &ValidationError{Message: "input contract could not be checked", Cause: err}
}

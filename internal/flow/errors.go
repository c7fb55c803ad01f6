package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/career-compass/internal/schemas"
)

// Kind classifies a flow failure.
type Kind string

const (
	// KindNone is reported for a nil error.
	KindNone Kind = ""
	// KindValidation means the input was rejected before any model call.
	KindValidation Kind = "validation"
	// KindUnavailable means the model could not be reached or failed.
	KindUnavailable Kind = "unavailable"
	// KindMalformedOutput means the model answered with something that does not fit the output shape.
	KindMalformedOutput Kind = "malformed_output"
	// KindEmpty means the model answered with no usable content.
	KindEmpty Kind = "empty"
	// KindUnknown is any error that is not a flow error.
	KindUnknown Kind = "unknown"
)

// ValidationError reports input that does not satisfy a flow's input shape.
type ValidationError struct {
	Flow    string
	Message string
	Fields  []schemas.FieldError
	Cause   error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid input")
	if e.Flow != "" {
		sb.WriteString(" for " + e.Flow)
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "; %s: %s", f.Field, f.Message)
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// UnavailableError reports a transport, timeout or provider failure.
type UnavailableError struct {
	Flow  string
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Flow != "" {
		return fmt.Sprintf("flow %s: model unavailable: %v", e.Flow, e.Cause)
	}
	return fmt.Sprintf("model unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// MalformedOutputError reports model output that could not be parsed or failed the output shape.
type MalformedOutputError struct {
	Flow   string
	Raw    string
	Fields []schemas.FieldError
	Cause  error
}

func (e *MalformedOutputError) Error() string {
	var sb strings.Builder
	if e.Flow != "" {
		sb.WriteString("flow " + e.Flow + ": ")
	}
	sb.WriteString("malformed model output")
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "; %s: %s", f.Field, f.Message)
	}
	return sb.String()
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}

// EmptyError reports an empty, refused or blocked model answer.
type EmptyError struct {
	Flow  string
	Cause error
}

func (e *EmptyError) Error() string {
	msg := "model returned no usable content"
	if e.Flow != "" {
		msg = "flow " + e.Flow + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *EmptyError) Unwrap() error {
	return e.Cause
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		ve *ValidationError
		ue *UnavailableError
		me *MalformedOutputError
		ee *EmptyError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ue):
		return KindUnavailable
	case errors.As(err, &me):
		return KindMalformedOutput
	case errors.As(err, &ee):
		return KindEmpty
	default:
		return KindUnknown
	}
}

// withFlow stamps the flow name on a flow error that does not carry one yet.
func withFlow(err error, name string) error {
	var (
		ve *ValidationError
		ue *UnavailableError
		me *MalformedOutputError
		ee *EmptyError
	)
	switch {
	case errors.As(err, &ve):
		if ve.Flow == "" {
			ve.Flow = name
		}
	case errors.As(err, &ue):
		if ue.Flow == "" {
			ue.Flow = name
		}
	case errors.As(err, &me):
		if me.Flow == "" {
			me.Flow = name
		}
	case errors.As(err, &ee):
		if ee.Flow == "" {
			ee.Flow = name
		}
	}
	return err
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/schemas"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string               `json:"error"`
	Kind   flow.Kind            `json:"kind,omitempty"`
	Fields []schemas.FieldError `json:"fields,omitempty"`
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: unexpected data after JSON object")
	}
	return nil
}

// extractValidationErrors turns validator errors into field messages.
func extractValidationErrors(err error) []schemas.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []schemas.FieldError{{Field: "(root)", Message: "invalid request"}}
	}
	fields := make([]schemas.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "failed " + fe.Tag() + " validation"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email address"
		case "min":
			msg = "must be at least " + fe.Param() + " characters"
		case "max":
			msg = "must be at most " + fe.Param()
		case "oneof":
			msg = "must be one of: " + fe.Param()
		case "url":
			msg = "must be a valid URL"
		}
		fields = append(fields, schemas.FieldError{Field: fe.Field(), Message: msg})
	}
	return fields
}

// validationResponse writes a 400 for a failed request Validate call.
func validationResponse(w http.ResponseWriter, err error) {
	jsonResponse(w, http.StatusBadRequest, errorBody{
		Error:  "validation failed",
		Fields: extractValidationErrors(err),
	})
}

// writeError maps err to a status and body. Model failures of every kind are
// logged and reported with the same generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := HTTPStatus(err)

	var ve *flow.ValidationError
	switch {
	case errors.As(err, &ve):
		msg := ve.Message
		if msg == "" {
			msg = "validation failed"
		}
		jsonResponse(w, status, errorBody{Error: msg, Kind: flow.KindValidation, Fields: ve.Fields})
	case errors.Is(err, form.ErrBusy):
		errorResponse(w, status, "A request is already in progress")
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway:
		logger.Error("flow failed", "kind", flow.KindOf(err), "error", err)
		errorResponse(w, status, genericFailure)
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		errorResponse(w, status, genericFailure)
	default:
		errorResponse(w, status, err.Error())
	}
}

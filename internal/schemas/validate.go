// Package schemas provides JSON Schema validation for flow contracts and JSON files.
package schemas

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	rootschemas "github.com/jonathan/career-compass/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates documents against named schemas from a filesystem.
// A schema named "goal-setting.output" is read from goal-setting.output.schema.json.
// Compiled schemas are cached.
type Validator struct {
	fsys fs.FS

	mu       sync.RWMutex
	compiled map[string]*gojsonschema.Schema
}

// NewValidator creates a validator over fsys.
func NewValidator(fsys fs.FS) *Validator {
	return &Validator{
		fsys:     fsys,
		compiled: make(map[string]*gojsonschema.Schema),
	}
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the validator over the embedded flow contracts.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = NewValidator(rootschemas.FS)
	})
	return defaultValidator
}

func fileName(name string) string {
	return name + ".schema.json"
}

// Raw returns the schema document for name.
func (v *Validator) Raw(name string) (json.RawMessage, error) {
	data, err := fs.ReadFile(v.fsys, fileName(name))
	if err != nil {
		return nil, &SchemaLoadError{Path: fileName(name), Message: "schema not found", Cause: err}
	}
	return data, nil
}

// Names lists the schemas available to the validator, sorted.
func (v *Validator) Names() ([]string, error) {
	files, err := fs.Glob(v.fsys, "*.schema.json")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(f, ".schema.json"))
	}
	sort.Strings(names)
	return names, nil
}

func (v *Validator) schema(name string) (*gojsonschema.Schema, error) {
	v.mu.RLock()
	s, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return s, nil
	}

	raw, err := v.Raw(name)
	if err != nil {
		return nil, err
	}
	s, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Path: fileName(name), Message: "invalid schema", Cause: err}
	}

	v.mu.Lock()
	v.compiled[name] = s
	v.mu.Unlock()
	return s, nil
}

// Validate validates a JSON document against the named schema.
// It returns *ValidationError when the document does not conform.
func (v *Validator) Validate(name string, doc []byte) error {
	s, err := v.schema(name)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	return toValidationError(result)
}

// ValidateValue marshals value and validates it against the named schema.
func (v *Validator) ValidateValue(name string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", name, err)
	}
	return v.Validate(name, doc)
}

// ResolveSchemaPath attempts to find a schema file by trying the working directory
// and up to two parent directories. Returns "" when none exists.
func ResolveSchemaPath(relativePath string) string {
	candidates := []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	}

	for _, candidate := range candidates {
		if absPath, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(absPath); err == nil {
				return absPath
			}
		}
	}

	return ""
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	schemaLoader := gojsonschema.NewReferenceLoader("file://" + schemaAbsPath)
	documentLoader := gojsonschema.NewReferenceLoader("file://" + jsonAbsPath)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

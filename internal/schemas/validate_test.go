package schemas

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateJSON_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"name": "Ada", "age": 36}`)

	assert.NoError(t, ValidateJSON(schemaPath, jsonPath))
}

func TestValidateJSON_InvalidJSON_MissingField(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"name": "Ada"}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidateJSON_InvalidJSON_WrongType(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"name": "Ada", "age": "old"}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Equal(t, "age", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", personSchema)

	err := ValidateJSON(filepath.Join(dir, "missing.json"), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString(t *testing.T) {
	assert.NoError(t, ValidateJSONString(personSchema, `{"name": "Ada", "age": 1}`))

	err := ValidateJSONString(personSchema, `{"name": "Ada", "age": -1}`)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	err = ValidateJSONString(`{"type": 12}`, `{}`)
	var le *SchemaLoadError
	assert.ErrorAs(t, err, &le)
}

func TestValidator_CachesAndValidates(t *testing.T) {
	fsys := fstest.MapFS{
		"person.schema.json": {Data: []byte(personSchema)},
		"broken.schema.json": {Data: []byte(`{"type": 12}`)},
	}
	v := NewValidator(fsys)

	assert.NoError(t, v.Validate("person", []byte(`{"name": "Ada", "age": 3}`)))
	assert.Len(t, v.compiled, 1)

	err := v.Validate("person", []byte(`{"name": 3}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.GreaterOrEqual(t, len(ve.Errors), 2)

	err = v.Validate("person", []byte(`not json`))
	require.ErrorAs(t, err, &ve)

	var le *SchemaLoadError
	assert.ErrorAs(t, v.Validate("broken", []byte(`{}`)), &le)
	assert.ErrorAs(t, v.Validate("nope", []byte(`{}`)), &le)

	names, err := v.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "person"}, names)
}

func TestDefault_JobListingsContract(t *testing.T) {
	v := Default()

	job := `{"title": "Frontend Developer", "company": "Innovatech", "location": "Remote", "description": "Build UIs.", "url": "#"}`
	five := `{"jobs": [` + job + `,` + job + `,` + job + `,` + job + `,` + job + `]}`
	assert.NoError(t, v.Validate("job-listings.output", []byte(five)))

	four := `{"jobs": [` + job + `,` + job + `,` + job + `,` + job + `]}`
	assert.Error(t, v.Validate("job-listings.output", []byte(four)))

	badURL := `{"title": "x", "company": "y", "location": "z", "description": "d", "url": "https://jobs.example.com"}`
	wrong := `{"jobs": [` + job + `,` + job + `,` + job + `,` + job + `,` + badURL + `]}`
	assert.Error(t, v.Validate("job-listings.output", []byte(wrong)))
}

func TestDefault_GoalSettingContract(t *testing.T) {
	v := Default()

	ok := map[string]any{
		"title":     "Senior engineer plan",
		"smartGoal": "Be promoted to senior engineer within 12 months.",
		"steps": []map[string]string{
			{"title": "Own a project", "description": "Lead a feature end to end.", "metric": "1 project shipped"},
		},
	}
	assert.NoError(t, v.ValidateValue("goal-setting.output", ok))

	ok["steps"] = []map[string]string{}
	assert.Error(t, v.ValidateValue("goal-setting.output", ok))

	ok["steps"] = []map[string]string{{"title": "t", "description": "d", "metric": ""}}
	assert.Error(t, v.ValidateValue("goal-setting.output", ok))
}

func TestDefault_ResumeInputRequiresDataURI(t *testing.T) {
	v := Default()

	assert.NoError(t, v.Validate("resume-tuning.input", []byte(`{"resumeDataUri": "data:text/plain;base64,SGk="}`)))
	assert.Error(t, v.Validate("resume-tuning.input", []byte(`{"resumeDataUri": "https://example.com/cv.pdf"}`)))
	assert.Error(t, v.Validate("resume-tuning.input", []byte(`{}`)))
}

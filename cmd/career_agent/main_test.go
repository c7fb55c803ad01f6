package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/llm/llmtest"
	"github.com/jonathan/career-compass/internal/types"
)

const goalPlan = `{"title": "Senior plan", "smartGoal": "Be promoted to senior engineer within 12 months.", "steps": [{"title": "Own a project", "description": "Lead a feature end to end.", "metric": "1 project shipped"}]}`

// isolateEnv pins every setting the commands read so the host environment
// cannot leak in.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "career.db"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("AMQP_URL", "")
	t.Setenv("S3_BUCKET", "")
	return dir
}

func useClient(t *testing.T, client llm.Client) {
	t.Helper()
	prev := newLLMClient
	newLLMClient = func(context.Context, *config.Config) (llm.Client, error) {
		return client, nil
	}
	t.Cleanup(func() { newLLMClient = prev })
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFlowsCommand(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "flows")
	require.NoError(t, err)
	assert.Contains(t, out, "FLOWS (10)")
	for _, name := range careers.NewRegistry().Names() {
		assert.Contains(t, out, name)
	}
}

func TestFlowsCommand_JSON(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "flows", "--json")
	require.NoError(t, err)

	var listing []flowListing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing, len(careers.All()))
	for _, f := range listing {
		assert.NotEmpty(t, f.Tier, f.Name)
		assert.True(t, json.Valid(f.InputSchema), f.Name)
	}
}

func TestFlowCommand_FromFile(t *testing.T) {
	dir := isolateEnv(t)
	client := llmtest.NewMockClient(goalPlan)
	useClient(t, client)

	input := writeFile(t, dir, "goal.json", `{"goal": "become a senior engineer", "timeframe": "1 year"}`)
	out, err := execute(t, "", "flow", careers.FlowGoalSetting, "--input", input)
	require.NoError(t, err)

	assert.Contains(t, out, "GOAL-SETTING")
	assert.Contains(t, out, "Goal: Be promoted to senior engineer within 12 months.")
	assert.Contains(t, out, "Metric: 1 project shipped")
	assert.Equal(t, 1, client.Calls())
}

func TestFlowCommand_StdinRawJSON(t *testing.T) {
	isolateEnv(t)
	useClient(t, llmtest.NewMockClient(`{"refinedDescription": "I build reliable web services."}`))

	out, err := execute(t, `{"description": "i do web stuff"}`, "flow", careers.FlowRefineDescription, "--input", "-", "--json")
	require.NoError(t, err)

	var got types.RefineDescriptionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "I build reliable web services.", got.RefinedDescription)
}

func TestFlowCommand_Errors(t *testing.T) {
	dir := isolateEnv(t)

	t.Run("unknown flow", func(t *testing.T) {
		_, err := execute(t, "{}", "flow", "horoscope", "--input", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown flow")
		assert.Contains(t, err.Error(), careers.FlowGoalSetting)
	})

	t.Run("input required", func(t *testing.T) {
		_, err := execute(t, "", "flow", careers.FlowGoalSetting)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "flow", careers.FlowGoalSetting, "--input", filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read input file")
	})

	t.Run("invalid input", func(t *testing.T) {
		client := llmtest.NewMockClient(goalPlan)
		useClient(t, client)

		_, err := execute(t, `{"goal": "become a senior engineer"}`, "flow", careers.FlowGoalSetting, "--input", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeframe")
		assert.Zero(t, client.Calls())
	})

	t.Run("model unavailable", func(t *testing.T) {
		useClient(t, llmtest.NewFailingClient(errors.New("deadline exceeded")))

		_, err := execute(t, `{"query": "frontend developer"}`, "flow", careers.FlowJobListings, "--input", "-")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "unavailable:"), err.Error())
	})
}

func TestFlowCommand_Timeout(t *testing.T) {
	isolateEnv(t)
	client := llmtest.NewMockClient(`{"refinedDescription": "never delivered"}`)
	client.Block = make(chan struct{})
	useClient(t, client)

	_, err := execute(t, `{"description": "i do web stuff"}`, "flow", careers.FlowRefineDescription, "--input", "-", "--timeout", "20ms")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "unavailable:"), err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidateCommand(t *testing.T) {
	dir := isolateEnv(t)

	good := writeFile(t, dir, "good.json", goalPlan)
	out, err := execute(t, "", "validate", "--schema", "goal-setting.output", "--json", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")

	bad := writeFile(t, dir, "bad.json", `{"title": "Senior plan", "steps": []}`)
	out, err = execute(t, "", "validate", "--schema", "goal-setting.output", "--json", bad)
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "INVALID: goal-setting.output")

	_, err = execute(t, "", "validate", "--schema", "horoscope.output", "--json", good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available:")

	_, err = execute(t, "", "validate", "--json", good)
	assert.Error(t, err, "--schema is required")
}

func TestValidateCommand_SchemaFile(t *testing.T) {
	dir := isolateEnv(t)

	schema := writeFile(t, dir, "person.schema.json", `{"type": "object", "required": ["name"]}`)
	doc := writeFile(t, dir, "doc.json", `{"name": "Ada"}`)

	out, err := execute(t, "", "validate", "--schema", schema, "--json", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")
}

func TestMigrateCommand(t *testing.T) {
	dir := isolateEnv(t)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema applied (sqlite)")
	assert.FileExists(t, filepath.Join(dir, "career.db"))

	// Migrations are idempotent.
	_, err = execute(t, "", "migrate")
	assert.NoError(t, err)
}

func TestRoadmapsCommand(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "roadmaps")
	require.NoError(t, err)
	for _, r := range careers.SampleRoadmaps {
		assert.Contains(t, out, r.Slug)
	}

	out, err = execute(t, "", "roadmaps", "front", "--json")
	require.NoError(t, err)
	var found []careers.Roadmap
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.NotEmpty(t, found)
	assert.Equal(t, "frontend-developer", found[0].Slug)
}

func TestChatCommand(t *testing.T) {
	isolateEnv(t)
	client := llmtest.NewMockClient(`{"response": "Try an internship."}`)
	useClient(t, client)

	out, err := execute(t, "how do I start in data?\n\n/history\n/exit\nnever sent\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Try an internship.")
	assert.Contains(t, out, "user: how do I start in data?")
	assert.Contains(t, out, "assistant: Try an internship.")
	assert.NotContains(t, out, "never sent")
	assert.Equal(t, 1, client.Calls())
}

func TestChatCommand_FailureKeepsSessionAlive(t *testing.T) {
	isolateEnv(t)
	client := llmtest.NewFailingClient(errors.New("connection reset"))
	useClient(t, client)

	out, err := execute(t, "first\nsecond\n", "chat")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "! Something went wrong. Please try again.\n"))
	assert.NotContains(t, out, "unavailable")
	assert.NotContains(t, out, "connection reset")
}

func TestChatCommand_HistoryFile(t *testing.T) {
	dir := isolateEnv(t)
	history := filepath.Join(dir, "chat.json")

	client := llmtest.NewMockClient(`{"response": "Learn SQL first."}`)
	useClient(t, client)
	_, err := execute(t, "where do I start?\n", "chat", "--history", history)
	require.NoError(t, err)

	turns, err := loadChatHistory(history)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, types.RoleUser, turns[0].Role)
	assert.Equal(t, "Learn SQL first.", turns[1].Content)

	client.Push(llmtest.Response{Text: `{"response": "Then Python."}`})
	out, err := execute(t, "what next?\n", "chat", "--history", history)
	require.NoError(t, err)
	assert.Contains(t, out, "Resumed 2 earlier messages.")

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Prompt, "where do I start?")

	turns, err = loadChatHistory(history)
	require.NoError(t, err)
	assert.Len(t, turns, 4)

	_, err = execute(t, "/reset\n", "chat", "--history", history)
	require.NoError(t, err)
	turns, err = loadChatHistory(history)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestLoadChatHistory_Invalid(t *testing.T) {
	dir := t.TempDir()

	turns, err := loadChatHistory(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, turns)

	_, err = loadChatHistory(writeFile(t, dir, "garbage.json", "not json"))
	assert.Error(t, err)

	_, err = loadChatHistory(writeFile(t, dir, "roles.json", `[{"role": "system", "content": "x"}]`))
	assert.Error(t, err)
}

func TestLoadApp_ConfigFile(t *testing.T) {
	dir := isolateEnv(t)

	path := writeFile(t, dir, "config.yaml", "port: 9090\nlog_format: json\nmodels:\n  lite: gemini-custom-lite\n")
	resetFlags(rootCmd)
	configPath = path
	t.Cleanup(func() { configPath = "" })

	a, err := loadApp(io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 9090, a.cfg.Port)
	assert.Equal(t, "json", a.cfg.LogFormat)

	mc, err := a.cfg.ModelConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom-lite", mc.GetModel(llm.TierLite))

	bad := writeFile(t, dir, "bad.yaml", "log_format: xml\n")
	configPath = bad
	_, err = loadApp(io.Discard)
	assert.Error(t, err)
}

func TestOpenBlobsAndEvents_Defaults(t *testing.T) {
	dir := isolateEnv(t)

	a, err := loadApp(io.Discard)
	require.NoError(t, err)

	blobs, err := a.openBlobs(context.Background())
	require.NoError(t, err)
	require.NoError(t, blobs.Put(context.Background(), "k/v.txt", "text/plain", []byte("hi")))
	assert.FileExists(t, filepath.Join(dir, "uploads", "k", "v.txt"))

	publisher, err := a.openEvents()
	require.NoError(t, err)
	assert.NoError(t, publisher.Close())
}

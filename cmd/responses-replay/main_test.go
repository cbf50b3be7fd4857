package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

const fixtures = "../../pkg/steps/ai/openai_responses/testdata/"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStreamCommandText(t *testing.T) {
	out, err := execute(t, "stream", fixtures+"hello.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)
}

func TestStreamCommandJSON(t *testing.T) {
	out, err := execute(t, "stream", "--output", "json", fixtures+"web_search_reasoning.sse")
	require.NoError(t, err)

	var fs []*frames.Frame
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		f, err := frames.NewFrameFromJSON([]byte(line))
		require.NoError(t, err)
		fs = append(fs, f)
	}
	require.NotEmpty(t, fs)
	assert.True(t, fs[len(fs)-1].IsDone)
	assert.Equal(t, "Go 1.22 shipped in February 2024.", frames.ConcatText(fs))
}

func TestStreamCommandFailure(t *testing.T) {
	out, err := execute(t, "stream", fixtures+"failed.jsonl")
	require.Error(t, err)
	assert.Contains(t, out, "Partial")
	assert.Contains(t, out, "[error] The server had an error")
}

func TestBatchCommand(t *testing.T) {
	out, err := execute(t, "batch", "--output", "json", fixtures+"web_search_reasoning_response.json")
	require.NoError(t, err)
	f, err := frames.NewFrameFromJSON([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.True(t, f.IsDone)
	assert.Len(t, f.WebSearchQueries(), 1)
}

func TestBatchCommandHonoursSettingsFlags(t *testing.T) {
	_, err := execute(t, "--decode-error-policy", "sometimes", "batch", fixtures+"web_search_reasoning_response.json")
	assert.Error(t, err)
}

// executeGlazed runs a glazed-built subcommand, which renders to the process
// stdout rather than the cobra output writer.
func executeGlazed(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	captured := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		captured <- string(b)
	}()

	out, runErr := execute(t, args...)
	os.Stdout = stdout
	require.NoError(t, w.Close())
	return out + <-captured, runErr
}

func modelRowsFor(t *testing.T, s *ModelsSettings) []map[string]any {
	t.Helper()
	ctx := context.Background()
	gp := middlewares.NewTableProcessor()
	require.NoError(t, emitModelRows(ctx, s, gp))
	require.NoError(t, gp.Close(ctx))

	var ret []map[string]any
	for _, row := range gp.GetTable().Rows {
		m := map[string]any{}
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			m[string(pair.Key)] = pair.Value
		}
		ret = append(ret, m)
	}
	return ret
}

func TestModelRowsListDescriptors(t *testing.T) {
	rows := modelRowsFor(t, &ModelsSettings{})
	var ids []string
	for _, r := range rows {
		ids = append(ids, r["id"].(string))
	}
	assert.ElementsMatch(t, []string{"gpt-5", "gpt-4.1", "gpt-4.1-nano"}, ids)

	rows = modelRowsFor(t, &ModelsSettings{Match: "gpt-4.1*"})
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, strings.HasPrefix(r["id"].(string), "gpt-4.1"))
		assert.Equal(t, "responses", r["api_format"])
	}
}

func TestModelRowsReportCapabilities(t *testing.T) {
	rows := modelRowsFor(t, &ModelsSettings{IDs: []string{"gpt-5-2025-08-07", "o3"}})
	require.Len(t, rows, 2)

	assert.Equal(t, "gpt-5-2025-08-07", rows[0]["id"])
	assert.Equal(t, "gpt-5", rows[0]["descriptor"])
	assert.Equal(t, true, rows[0]["web_search"])
	assert.Equal(t, true, rows[0]["compatible"])

	assert.Equal(t, "", rows[1]["descriptor"])
	assert.Equal(t, false, rows[1]["compatible"])
	assert.Equal(t, false, rows[1]["streaming"])
}

func TestModelRowsInvalidPattern(t *testing.T) {
	ctx := context.Background()
	err := emitModelRows(ctx, &ModelsSettings{Match: "["}, middlewares.NewTableProcessor())
	assert.Error(t, err)
}

func TestModelsCommandJSONOutput(t *testing.T) {
	out, err := executeGlazed(t, "models", "--output", "json", "--match", "gpt-4.1*")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "gpt-4.1", rows[0]["id"])
	assert.Equal(t, "gpt-4.1-nano", rows[1]["id"])
}

func TestFramesSchemaCommand(t *testing.T) {
	out, err := execute(t, "frames-schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text_delta")
	assert.Contains(t, props, "auxiliaries")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "stream", "--output", "json", fixtures+"web_search_reasoning.sse")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "frames.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	res, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, res, "line(s) valid")

	bad := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(`{"text_delta": 1}`+"\n"), 0o644))
	res, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, res, "line 1:")
}


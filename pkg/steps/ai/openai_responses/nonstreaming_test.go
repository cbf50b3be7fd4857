package openai_responses

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

func TestBuildFromJSONWebSearchReasoning(t *testing.T) {
	body, err := os.ReadFile("testdata/web_search_reasoning_response.json")
	require.NoError(t, err)

	f := BuildFromJSON("gpt-5", nil, body, WithBuildClock(testClock()))
	require.True(t, f.IsDone)
	assert.Nil(t, f.Error)
	assert.Equal(t, "Go 1.22 shipped in February 2024.", f.TextDelta)

	require.NotNil(t, f.Usage)
	assert.Equal(t, 120, f.Usage.PromptTokens)
	assert.Equal(t, 80, f.Usage.CompletionTokens)
	assert.Equal(t, 200, f.Usage.TotalTokens)
	assert.Equal(t, "gpt-5", f.Usage.Model)

	items := f.ReasoningSummaries()
	require.Len(t, items, 2)
	assert.Equal(t, "Planning", items[0].Title)
	assert.Equal(t, "I will search.", items[0].Summary)
	assert.Equal(t, "Refining", items[1].Title)

	qs := f.WebSearchQueries()
	require.Len(t, qs, 1)
	assert.Equal(t, "go 1.22 release notes", qs[0].Query)

	aux, ok := f.Find(frames.AuxiliaryKindMetadata)
	require.True(t, ok)
	assert.Equal(t, "resp_1", aux.Payload.(frames.ResponseMetadata).ResponseID)
}

func TestBuildFromPayloadEnvelope(t *testing.T) {
	payload := map[string]any{
		"response": map[string]any{
			"id":     "resp_env",
			"status": "completed",
			"output": []any{
				map[string]any{"type": "message", "content": []any{
					map[string]any{"type": "output_text", "text": "wrapped"},
				}},
			},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 4},
		},
	}
	f := BuildFromPayload("m", nil, payload)
	require.True(t, f.IsDone)
	assert.Equal(t, "wrapped", f.TextDelta)
	require.NotNil(t, f.Usage)
	assert.Equal(t, 7, f.Usage.TotalTokens)

	_, ok := f.Citations()
	assert.False(t, ok)
	entries, ok := f.StatusLog()
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, frames.StatusStarted, entries[0].Status)
	assert.Equal(t, frames.StatusCompleted, entries[1].Status)
}

func TestBuildFromPayloadFailed(t *testing.T) {
	payload := map[string]any{
		"id":     "resp_x",
		"status": "failed",
		"error":  map[string]any{"message": "quota exceeded", "code": "insufficient_quota"},
	}
	f := BuildFromPayload("m", nil, payload)
	assert.False(t, f.IsDone)
	require.NotNil(t, f.Error)
	assert.True(t, f.Error.Fatal)
	assert.Equal(t, "quota exceeded", f.Error.Message)
	assert.Equal(t, "insufficient_quota", f.Error.Code)

	entries, ok := f.StatusLog()
	require.True(t, ok)
	assert.Equal(t, frames.StatusError, entries[len(entries)-1].Status)

	aux, ok := f.Find(frames.AuxiliaryKindMetadata)
	require.True(t, ok)
	assert.Equal(t, "resp_x", aux.Payload.(frames.ResponseMetadata).ResponseID)
}

func TestBuildFromPayloadIncomplete(t *testing.T) {
	payload := map[string]any{
		"status":             "incomplete",
		"incomplete_details": map[string]any{"reason": "content_filter"},
		"output":             []any{},
	}
	f := BuildFromPayload("m", nil, payload)
	require.True(t, f.IsDone)
	assert.Nil(t, f.Usage)
	entries, _ := f.StatusLog()
	assert.Equal(t, frames.StatusIncomplete, entries[len(entries)-1].Status)
}

func TestBuildFromJSONInvalid(t *testing.T) {
	for _, in := range []string{"", "{", "null", "not json"} {
		f := BuildFromJSON("m", nil, []byte(in))
		require.NotNil(t, f.Error, "input %q", in)
		assert.True(t, f.Error.Fatal)
		assert.Equal(t, "Invalid JSON chunk received.", f.Error.Message)
	}
}

func TestBuildWithoutFormattedCitations(t *testing.T) {
	body, err := os.ReadFile("testdata/web_search_reasoning_response.json")
	require.NoError(t, err)

	s := settings.DefaultAggregatorSettings()
	s.FormatCitations = false
	f := BuildFromJSON("gpt-5", s, body)
	cs, ok := f.Citations()
	require.True(t, ok)
	assert.Nil(t, cs.Formatted)
	assert.Len(t, cs.Citations, 1)
}

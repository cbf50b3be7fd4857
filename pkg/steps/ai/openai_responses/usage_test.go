package openai_responses

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

func TestExtractUsageMapping(t *testing.T) {
	usage := map[string]any{
		"input_tokens":          float64(100),
		"output_tokens":         float64(50),
		"input_tokens_details":  map[string]any{"cached_tokens": float64(20)},
		"output_tokens_details": map[string]any{"reasoning_tokens": float64(10)},
	}

	got := ExtractUsage("gpt-5", usage)
	require.NotNil(t, got)
	assert.Equal(t, &frames.TokenUsage{
		Model:                "gpt-5",
		PromptTokens:         100,
		CompletionTokens:     50,
		TotalTokens:          150,
		CacheReadInputTokens: 20,
		ReasoningTokens:      10,
	}, got)
}

func TestExtractUsageAbsentBlockIsNil(t *testing.T) {
	assert.Nil(t, ExtractUsage("m", nil))
	assert.Nil(t, UsageFromEnvelope("m", map[string]any{"type": "response.completed"}))
}

func TestExtractUsageEmptyBlockIsZero(t *testing.T) {
	got := ExtractUsage("m", map[string]any{})
	require.NotNil(t, got)
	assert.Equal(t, 0, got.PromptTokens)
	assert.Equal(t, 0, got.TotalTokens)
}

func TestExtractUsageExplicitTotalAndAudio(t *testing.T) {
	got := ExtractUsage("m", map[string]any{
		"input_tokens":  float64(10),
		"output_tokens": float64(5),
		"total_tokens":  float64(42),
		"input_tokens_details": map[string]any{
			"audio_tokens":                float64(3),
			"cache_creation_input_tokens": float64(4),
		},
		"output_tokens_details": map[string]any{"audio_tokens": float64(2)},
	})
	assert.Equal(t, 42, got.TotalTokens)
	assert.Equal(t, 3, got.AudioInputTokens)
	assert.Equal(t, 4, got.CacheCreationInputTokens)
	assert.Equal(t, 2, got.AudioOutputTokens)
}

func TestExtractUsageFallbacksAndClamping(t *testing.T) {
	got := ExtractUsage("m", map[string]any{
		"prompt_tokens":     float64(7),
		"completion_tokens": float64(-3),
		"cached_tokens":     float64(2),
		"reasoning_tokens":  json.Number("5"),
	})
	assert.Equal(t, 7, got.PromptTokens)
	assert.Equal(t, 0, got.CompletionTokens)
	assert.Equal(t, 7, got.TotalTokens)
	assert.Equal(t, 2, got.CacheReadInputTokens)
	assert.Equal(t, 5, got.ReasoningTokens)
}

func TestUsageFromEnvelopeNested(t *testing.T) {
	env := map[string]any{
		"type": "response.completed",
		"response": map[string]any{
			"usage": map[string]any{"input_tokens": float64(5), "output_tokens": float64(2)},
		},
	}
	got := UsageFromEnvelope("m", env)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.TotalTokens)
}

func TestToInt(t *testing.T) {
	for _, v := range []any{float64(3), float32(3), int(3), int32(3), int64(3), uint(3), uint32(3), uint64(3), json.Number("3")} {
		got, ok := toInt(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 3, got, "%T", v)
	}
	_, ok := toInt("3")
	assert.False(t, ok)
	_, ok = toInt(nil)
	assert.False(t, ok)
	_, ok = toInt(math.NaN())
	assert.False(t, ok)
	_, ok = toInt(math.Inf(1))
	assert.False(t, ok)

	got, ok := toInt(2.9)
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

package openai_responses

import (
	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

// ExtractUsage maps a provider usage block to TokenUsage. A nil block means
// no usage was reported and yields nil, fields that are absent count as 0.
func ExtractUsage(model string, usage map[string]any) *frames.TokenUsage {
	if usage == nil {
		return nil
	}

	u := &frames.TokenUsage{Model: model}
	u.PromptTokens = firstInt(usage, "input_tokens", "prompt_tokens")
	u.CompletionTokens = firstInt(usage, "output_tokens", "completion_tokens")

	if inputDetails, ok := getMap(usage, "input_tokens_details"); ok {
		u.CacheReadInputTokens = nonNegative(getIntOr(inputDetails, "cached_tokens", 0))
		u.AudioInputTokens = nonNegative(getIntOr(inputDetails, "audio_tokens", 0))
		u.CacheCreationInputTokens = nonNegative(getIntOr(inputDetails, "cache_creation_input_tokens", 0))
	} else if v, ok := getInt(usage, "cached_tokens"); ok {
		u.CacheReadInputTokens = nonNegative(v)
	}

	if outputDetails, ok := getMap(usage, "output_tokens_details"); ok {
		u.ReasoningTokens = nonNegative(getIntOr(outputDetails, "reasoning_tokens", 0))
		u.AudioOutputTokens = nonNegative(getIntOr(outputDetails, "audio_tokens", 0))
	} else if v, ok := getInt(usage, "reasoning_tokens"); ok {
		u.ReasoningTokens = nonNegative(v)
	}

	if v, ok := getInt(usage, "total_tokens"); ok && v > 0 {
		u.TotalTokens = v
	} else {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}

	return u
}

// UsageFromEnvelope looks for usage on the payload itself, then under
// response.usage.
func UsageFromEnvelope(model string, envelope map[string]any) *frames.TokenUsage {
	if usage, ok := getMap(envelope, "usage"); ok {
		return ExtractUsage(model, usage)
	}
	if resp, ok := getMap(envelope, "response"); ok {
		if usage, ok := getMap(resp, "usage"); ok {
			return ExtractUsage(model, usage)
		}
	}
	return nil
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := getInt(m, k); ok {
			return nonNegative(v)
		}
	}
	return 0
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

package openai_responses

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

// responseObject unwraps {response:{...}} envelopes.
func responseObject(payload map[string]any) map[string]any {
	if resp, ok := getMap(payload, "response"); ok {
		return resp
	}
	return payload
}

// BuildFromPayload turns one complete, non-streaming payload into a single
// terminal frame. The frame has the same auxiliary layout as the terminal
// frame of a streamed response.
func BuildFromPayload(model string, s *settings.AggregatorSettings, payload map[string]any, opts ...BuildOption) *frames.Frame {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	st := newResponseState(model, s, o.now)
	st.statusLog.Start()

	resp := responseObject(payload)
	st.captureResponseID(resp)

	if fe := ClassifyPayload(payload); fe != nil {
		log.Debug().Str("error", fe.Message).Str("code", fe.Code).Msg("Responses: non-streaming response failed")
		return st.errorFrame(fe)
	}

	text := firstMessageText(resp)
	st.text.WriteString(text)
	st.ingestOutput(resp, nil)

	closing := frames.StatusCompleted
	if getString(resp, "status") == "incomplete" {
		closing = frames.StatusIncomplete
	}
	f := st.doneFrame(resp, UsageFromEnvelope(model, payload), closing)
	f.TextDelta = text

	log.Debug().
		Int("text_length", len(text)).
		Int("auxiliaries", len(f.Auxiliaries)).
		Str("response_id", st.responseID).
		Msg("Responses: built non-streaming frame")
	return f
}

// BuildFromJSON decodes the payload and calls BuildFromPayload. Undecodable
// input yields a fatal error frame.
func BuildFromJSON(model string, s *settings.AggregatorSettings, b []byte, opts ...BuildOption) *frames.Frame {
	var payload map[string]any
	if err := json.Unmarshal(b, &payload); err != nil || payload == nil {
		log.Warn().Err(err).Msg("Responses: failed to decode non-streaming payload")
		return ErrorFrame(&frames.FrameError{Message: decodeErrorMessage, Code: decodeErrorCode, Fatal: true}, nil)
	}
	return BuildFromPayload(model, s, payload, opts...)
}

type buildOptions struct {
	now func() time.Time
}

type BuildOption func(*buildOptions)

// WithBuildClock replaces the clock used for status log timestamps.
func WithBuildClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) {
		o.now = now
	}
}

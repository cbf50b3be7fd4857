package frames

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminalFrame() *Frame {
	f := &Frame{
		IsDone: true,
		Usage: &TokenUsage{
			Model:            "gpt-5",
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
			ServerToolUse:    map[string]int{ServerToolWebSearchRequests: 1},
		},
	}
	f.AddAuxiliary(AuxiliaryKindMetadata, ResponseMetadata{ResponseID: "resp_1", Model: "gpt-5", Status: "completed"})
	f.AddAuxiliary(AuxiliaryKindReasoningSummaryItem, ReasoningSummaryItem{Index: 0, Title: "Plan", Summary: "body"})
	f.AddAuxiliary(AuxiliaryKindWebSearchQuery, WebSearchQuery{OutputIndex: 1, Query: "q", Status: "completed"})
	f.AddAuxiliary(AuxiliaryKindCitations, CitationSet{
		Citations: []Citation{{URL: "https://example.com", Title: "Example", StartIndex: 0, EndIndex: 4}},
		Queries:   []string{"q"},
	})
	f.AddAuxiliary(AuxiliaryKindStatusLog, StatusLog{Log: []StatusLogEntry{
		{Kind: StatusKindProcessing, Status: StatusStarted, Timestamp: 1},
		{Kind: StatusKindWebSearch, Status: StatusCompleted, Message: "q", OutputIndex: IntPtr(1), Timestamp: 2},
	}})
	return f
}

func TestFrameJSONRoundTripKeepsTypedPayloads(t *testing.T) {
	in := terminalFrame()
	b, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := NewFrameFromJSON(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, ok := out.StatusLog()
	require.True(t, ok)
	assert.Equal(t, 1, *entries[1].OutputIndex)
	assert.Len(t, out.ReasoningSummaries(), 1)
	assert.Len(t, out.WebSearchQueries(), 1)
	cs, ok := out.Citations()
	require.True(t, ok)
	assert.Equal(t, "Example", cs.Citations[0].Title)
}

func TestAuxiliaryWireShape(t *testing.T) {
	f := &Frame{}
	f.AddAuxiliary(AuxiliaryKindStatus, StatusLogEntry{Kind: StatusKindReasoning, Status: StatusInProgress, Timestamp: 7})
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"text_delta": "",
		"is_done": false,
		"auxiliaries": [{"type": "status", "content": {"type": "reasoning", "status": "in_progress", "timestamp": 7}}]
	}`, string(b))
}

func TestUnknownAuxiliaryKindDecodesToMap(t *testing.T) {
	f, err := NewFrameFromJSON([]byte(`{"text_delta":"x","auxiliaries":[{"type":"future","content":{"a":1}}]}`))
	require.NoError(t, err)
	require.Len(t, f.Auxiliaries, 1)
	assert.Equal(t, map[string]any{"a": float64(1)}, f.Auxiliaries[0].Payload)
}

func TestNewFrameFromJSONErrors(t *testing.T) {
	_, err := NewFrameFromJSON([]byte(`{"auxiliaries":[{"type":"status","content":"nope"}]}`))
	assert.Error(t, err)
	_, err = NewFrameFromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestIsTerminal(t *testing.T) {
	var nilFrame *Frame
	assert.False(t, nilFrame.IsTerminal())
	assert.False(t, (&Frame{TextDelta: "a"}).IsTerminal())
	assert.True(t, (&Frame{IsDone: true}).IsTerminal())
	assert.True(t, (&Frame{Error: &FrameError{Message: "m", Fatal: true}}).IsTerminal())
	assert.False(t, (&Frame{Error: &FrameError{Message: "m"}}).IsTerminal())
}

func TestFrameErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", (&FrameError{Message: "boom"}).Error())
	assert.Equal(t, "boom (server_error)", (&FrameError{Message: "boom", Code: "server_error"}).Error())
}

func TestConcatText(t *testing.T) {
	assert.Equal(t, "Hello", ConcatText([]*Frame{{TextDelta: "He"}, nil, {}, {TextDelta: "llo"}}))
}

func TestPublishFrameToContext(t *testing.T) {
	a := NewCollectingSink()
	b := NewCollectingSink()
	failing := SinkFunc(func(*Frame) error { return errors.New("down") })

	ctx := WithFrameSinks(context.Background(), a)
	ctx = WithFrameSinks(ctx, failing, b)
	assert.Len(t, GetFrameSinks(ctx), 3)

	assert.Equal(t, 2, PublishFrameToContext(ctx, &Frame{TextDelta: "x"}))
	assert.Equal(t, 0, PublishFrameToContext(ctx, nil))
	assert.Equal(t, 0, PublishFrameToContext(context.Background(), &Frame{TextDelta: "dropped"}))
	assert.Equal(t, 2, PublishFrameToContext(ctx, &Frame{IsDone: true}))

	assert.Equal(t, "x", a.Text())
	assert.Equal(t, "x", b.Text())
	require.Len(t, b.Frames(), 2)
	assert.True(t, b.Frames()[1].IsDone)
	assert.Same(t, ctx, WithFrameSinks(ctx))
}

func TestWithFrameSinksLeavesParentUntouched(t *testing.T) {
	a := NewCollectingSink()
	parent := WithFrameSinks(context.Background(), a)
	left := WithFrameSinks(parent, NewCollectingSink())
	right := WithFrameSinks(parent, NewCollectingSink())

	assert.Len(t, GetFrameSinks(parent), 1)
	assert.Len(t, GetFrameSinks(left), 2)
	assert.Len(t, GetFrameSinks(right), 2)
	assert.NotSame(t, GetFrameSinks(left)[1], GetFrameSinks(right)[1])
	assert.Nil(t, GetFrameSinks(context.Background()))
}

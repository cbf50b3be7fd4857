package frames

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func statusFrame(kind StatusKind, status Status, msg string) *Frame {
	f := &Frame{}
	f.AddAuxiliary(AuxiliaryKindStatus, StatusLogEntry{Kind: kind, Status: status, Message: msg})
	return f
}

func TestFramePrinterText(t *testing.T) {
	var buf bytes.Buffer
	p := NewFramePrinter(&buf, PrinterOptions{Name: "assistant", Statuses: true})

	for _, f := range []*Frame{
		statusFrame(StatusKindWebSearch, StatusSearching, "go release"),
		{TextDelta: "Hel"},
		{TextDelta: "lo"},
		{IsDone: true},
	} {
		require.NoError(t, p(nil, f))
	}
	assert.Equal(t, "\n[web_search] searching: go release\n\nassistant: \nHello\n", buf.String())
}

func TestFramePrinterTextError(t *testing.T) {
	var buf bytes.Buffer
	p := NewFramePrinter(&buf, PrinterOptions{Format: FormatText})
	require.NoError(t, p(nil, &Frame{Error: &FrameError{Message: "Response failed", Code: "server_error", Fatal: true}}))
	assert.Equal(t, "\n[error] Response failed (server_error)\n", buf.String())
}

func TestFramePrinterFullTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewFramePrinter(&buf, PrinterOptions{Full: true})
	require.NoError(t, p(nil, terminalFrame()))
	out := buf.String()
	assert.Contains(t, out, "type: metadata")
	assert.Contains(t, out, "response_id: resp_1")
	assert.Contains(t, out, "prompt_tokens: 10")
}

func TestFramePrinterJSONLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewFramePrinter(&buf, PrinterOptions{Format: FormatJSON})
	require.NoError(t, p(nil, &Frame{TextDelta: "a"}))
	require.NoError(t, p(nil, terminalFrame()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	f, err := NewFrameFromJSON([]byte(lines[1]))
	require.NoError(t, err)
	assert.Equal(t, terminalFrame(), f)
}

func TestFramePrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewFramePrinter(&buf, PrinterOptions{Format: FormatYAML})
	require.NoError(t, p(nil, &Frame{TextDelta: "a"}))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(bytes.TrimPrefix(buf.Bytes(), []byte("---\n")), &doc))
	assert.Equal(t, "a", doc["text_delta"])
	assert.Equal(t, false, doc["is_done"])
}

func TestFramePrinterUnknownFormat(t *testing.T) {
	p := NewFramePrinter(&bytes.Buffer{}, PrinterOptions{Format: "xml"})
	assert.Error(t, p(nil, &Frame{}))
}

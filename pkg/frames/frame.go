package frames

import (
	"strings"

	"github.com/rs/zerolog"
)

// Frame is the normalized output unit of the responses aggregator.
// An aggregator emits at most one frame per raw provider event. The terminal
// success frame carries IsDone=true, a terminal failure carries a fatal Error.
type Frame struct {
	TextDelta   string      `json:"text_delta"`
	IsDone      bool        `json:"is_done"`
	Usage       *TokenUsage `json:"usage,omitempty"`
	Auxiliaries []Auxiliary `json:"auxiliaries,omitempty"`
	Error       *FrameError `json:"error,omitempty"`
}

// FrameError is the error marker carried by error frames.
// Code is kept for diagnostics and is not meant to be shown to end users.
type FrameError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Fatal   bool   `json:"fatal"`
}

func (e *FrameError) Error() string {
	if e.Code != "" {
		return e.Message + " (" + e.Code + ")"
	}
	return e.Message
}

// IsTerminal reports whether the frame ends the interaction.
func (f *Frame) IsTerminal() bool {
	if f == nil {
		return false
	}
	return f.IsDone || (f.Error != nil && f.Error.Fatal)
}

// AddAuxiliary appends a typed auxiliary payload.
func (f *Frame) AddAuxiliary(kind AuxiliaryKind, payload any) {
	f.Auxiliaries = append(f.Auxiliaries, Auxiliary{Kind: kind, Payload: payload})
}

// Find returns the first auxiliary of the given kind.
func (f *Frame) Find(kind AuxiliaryKind) (Auxiliary, bool) {
	if f == nil {
		return Auxiliary{}, false
	}
	for _, a := range f.Auxiliaries {
		if a.Kind == kind {
			return a, true
		}
	}
	return Auxiliary{}, false
}

// All returns every auxiliary of the given kind, in emission order.
func (f *Frame) All(kind AuxiliaryKind) []Auxiliary {
	if f == nil {
		return nil
	}
	var ret []Auxiliary
	for _, a := range f.Auxiliaries {
		if a.Kind == kind {
			ret = append(ret, a)
		}
	}
	return ret
}

// StatusLog returns the status log carried by the frame, if any.
func (f *Frame) StatusLog() ([]StatusLogEntry, bool) {
	a, ok := f.Find(AuxiliaryKindStatusLog)
	if !ok {
		return nil, false
	}
	switch p := a.Payload.(type) {
	case StatusLog:
		return p.Log, true
	case *StatusLog:
		return p.Log, true
	}
	return nil, false
}

// ReasoningSummaries returns the reasoning_summary_item payloads of the frame.
func (f *Frame) ReasoningSummaries() []ReasoningSummaryItem {
	var ret []ReasoningSummaryItem
	for _, a := range f.All(AuxiliaryKindReasoningSummaryItem) {
		if p, ok := a.Payload.(ReasoningSummaryItem); ok {
			ret = append(ret, p)
		}
	}
	return ret
}

// WebSearchQueries returns the web_search_query payloads of the frame.
func (f *Frame) WebSearchQueries() []WebSearchQuery {
	var ret []WebSearchQuery
	for _, a := range f.All(AuxiliaryKindWebSearchQuery) {
		if p, ok := a.Payload.(WebSearchQuery); ok {
			ret = append(ret, p)
		}
	}
	return ret
}

// Citations returns the citation set carried by the frame, if any.
func (f *Frame) Citations() (CitationSet, bool) {
	a, ok := f.Find(AuxiliaryKindCitations)
	if !ok {
		return CitationSet{}, false
	}
	p, ok := a.Payload.(CitationSet)
	return p, ok
}

// ConcatText reconstructs the generated text by concatenating the deltas of
// all frames in order.
func ConcatText(fs []*Frame) string {
	var b strings.Builder
	for _, f := range fs {
		if f == nil {
			continue
		}
		b.WriteString(f.TextDelta)
	}
	return b.String()
}

func (f *Frame) MarshalZerologObject(ev *zerolog.Event) {
	ev.Int("delta_len", len(f.TextDelta)).Bool("is_done", f.IsDone)
	if f.Usage != nil {
		ev.Int("prompt_tokens", f.Usage.PromptTokens).
			Int("completion_tokens", f.Usage.CompletionTokens)
	}
	if len(f.Auxiliaries) > 0 {
		kinds := make([]string, 0, len(f.Auxiliaries))
		for _, a := range f.Auxiliaries {
			kinds = append(kinds, string(a.Kind))
		}
		ev.Strs("auxiliaries", kinds)
	}
	if f.Error != nil {
		ev.Str("error", f.Error.Message).Bool("fatal", f.Error.Fatal)
		if f.Error.Code != "" {
			ev.Str("error_code", f.Error.Code)
		}
	}
}

var _ zerolog.LogObjectMarshaler = (*Frame)(nil)

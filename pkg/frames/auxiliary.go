package frames

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type AuxiliaryKind string

const (
	AuxiliaryKindStatus               AuxiliaryKind = "status"
	AuxiliaryKindStatusLog            AuxiliaryKind = "status_log"
	AuxiliaryKindReasoningSummaryItem AuxiliaryKind = "reasoning_summary_item"
	AuxiliaryKindWebSearchQuery       AuxiliaryKind = "web_search_query"
	AuxiliaryKindMetadata             AuxiliaryKind = "metadata"
	AuxiliaryKindReasoningTrace       AuxiliaryKind = "reasoning_trace"
	AuxiliaryKindCitations            AuxiliaryKind = "citations"
	AuxiliaryKindDebugTimestamp       AuxiliaryKind = "debug_timestamp"
)

// Auxiliary is side-channel data riding alongside the text of a frame.
type Auxiliary struct {
	Kind    AuxiliaryKind `json:"type"`
	Payload any           `json:"content"`
}

type rawAuxiliary struct {
	Kind    AuxiliaryKind   `json:"type"`
	Payload json.RawMessage `json:"content"`
}

// UnmarshalJSON decodes the payload into the struct registered for the kind,
// so frames read back from a message bus carry typed payloads again.
// Unknown kinds keep the payload as a generic map.
func (a *Auxiliary) UnmarshalJSON(b []byte) error {
	var raw rawAuxiliary
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.Kind = raw.Kind
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		a.Payload = nil
		return nil
	}

	var err error
	switch raw.Kind {
	case AuxiliaryKindStatus:
		var p StatusLogEntry
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindStatusLog:
		var p StatusLog
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindReasoningSummaryItem:
		var p ReasoningSummaryItem
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindWebSearchQuery:
		var p WebSearchQuery
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindMetadata:
		var p ResponseMetadata
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindReasoningTrace:
		var p ReasoningTrace
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindCitations:
		var p CitationSet
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	case AuxiliaryKindDebugTimestamp:
		var p DebugTimestamp
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	default:
		var p map[string]any
		err = json.Unmarshal(raw.Payload, &p)
		a.Payload = p
	}
	if err != nil {
		return errors.Wrapf(err, "decode %s auxiliary", raw.Kind)
	}
	return nil
}

// NewFrameFromJSON decodes a frame previously marshalled with encoding/json.
func NewFrameFromJSON(b []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(b, f); err != nil {
		return nil, errors.Wrap(err, "decode frame")
	}
	return f, nil
}

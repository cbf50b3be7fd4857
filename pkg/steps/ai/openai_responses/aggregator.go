package openai_responses

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

type State int

const (
	StateNotStarted State = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Aggregator turns the events of one Responses stream into frames.
// It is bound to a single request and is not safe for concurrent use.
type Aggregator struct {
	id       string
	state    State
	terminal *frames.Frame
	seq      int

	*responseState

	// output indices of message items whose text was already emitted
	streamed map[int]bool
	// open summary buffers, keyed by (output index, summary index)
	summaryBuf map[summaryKey]*strings.Builder
	// queries seen before the web_search_call item is done
	queryHints map[int]string
	// live summary ordinal
	liveSummaries int
}

type AggregatorOption func(*Aggregator)

// WithNow replaces the clock used for status and debug timestamps.
func WithNow(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
		a.statusLog.now = now
	}
}

// WithID sets the id used in log lines. Defaults to a random UUID.
func WithID(id string) AggregatorOption {
	return func(a *Aggregator) {
		a.id = id
	}
}

func NewAggregator(model string, s *settings.AggregatorSettings, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		id:            uuid.NewString(),
		responseState: newResponseState(model, s, nil),
		streamed:      map[int]bool{},
		summaryBuf:    map[summaryKey]*strings.Builder{},
		queryHints:    map[int]string{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Aggregator) ID() string { return a.id }

func (a *Aggregator) State() State { return a.state }

// Terminal returns the terminal frame once it has been emitted.
func (a *Aggregator) Terminal() *frames.Frame { return a.terminal }

// ResponseID returns the provider response id seen so far.
func (a *Aggregator) ResponseID() string { return a.responseID }

// Text returns the text emitted so far.
func (a *Aggregator) Text() string { return a.text.String() }

func (a *Aggregator) isTerminal() bool {
	return a.state == StateCompleted || a.state == StateFailed
}

// HandleUnit decodes one transport unit and handles the resulting event.
// Decode failures are turned into error frames following the configured
// policy.
func (a *Aggregator) HandleUnit(unit []byte) *frames.Frame {
	if a.isTerminal() {
		return nil
	}
	ev, err := Decode(unit)
	if err != nil {
		if errors.Is(err, ErrSkipUnit) {
			return nil
		}
		fe := ClassifyDecodeError(err, a.settings.Policy())
		log.Warn().Err(err).Str("aggregator", a.id).Bool("fatal", fe.Fatal).Msg("Responses: failed to decode unit")
		a.start()
		if fe.Fatal {
			return a.fail(fe, "decode_error")
		}
		return a.stamp(ErrorFrame(fe, nil), "decode_error")
	}
	return a.Handle(ev)
}

func (a *Aggregator) start() {
	if a.state == StateNotStarted {
		a.state = StateStreaming
		a.statusLog.Start()
		log.Debug().Str("aggregator", a.id).Str("model", a.model).Msg("Responses: stream started")
	}
}

// Handle processes one decoded event and returns at most one frame.
// Once a terminal frame was emitted, every further event is ignored.
func (a *Aggregator) Handle(ev RawEvent) *frames.Frame {
	if a.isTerminal() {
		log.Debug().Str("aggregator", a.id).Str("event", string(ev.Type)).Msg("Responses: event after terminal frame ignored")
		return nil
	}
	a.start()
	a.seq++

	if fe := ClassifyEvent(ev); fe != nil {
		return a.fail(fe, string(ev.Type))
	}

	f := a.dispatch(ev)
	return a.stamp(f, string(ev.Type))
}

func (a *Aggregator) dispatch(ev RawEvent) *frames.Frame {
	outputIndex, _ := ev.OutputIndex()

	switch ev.Type {
	case EventResponseCreated:
		a.captureResponseID(ev.Response())
		return statusFrame(a.liveStatus(frames.StatusKindProcessing, frames.StatusStarted, "", nil))

	case EventResponseQueued, EventResponseInProgress:
		a.captureResponseID(ev.Response())
		return nil

	case EventOutputItemAdded:
		return a.handleItemAdded(outputIndex, ev.Item())

	case EventOutputItemDone:
		return a.handleItemDone(outputIndex, ev.Item())

	case EventOutputTextDelta, EventRefusalDelta:
		return a.emitText(outputIndex, ev.String("delta"))

	case EventOutputTextDone:
		return a.emitUnstreamedText(outputIndex, ev.String("text"))

	case EventRefusalDone:
		return a.emitUnstreamedText(outputIndex, ev.String("refusal"))

	case EventContentPartDone:
		part := ev.Map("part")
		a.addAnnotations(part)
		switch getString(part, "type") {
		case "output_text":
			return a.emitUnstreamedText(outputIndex, getString(part, "text"))
		case "refusal":
			return a.emitUnstreamedText(outputIndex, getString(part, "refusal"))
		}
		return nil

	case EventOutputTextAnnotationAdded:
		if ann := ev.Map("annotation"); ann != nil {
			a.addAnnotation(ann)
		}
		return nil

	case EventReasoningSummaryPartAdded, EventReasoningSummaryPartDone,
		EventReasoningSummaryTextDelta, EventReasoningSummaryTextDone:
		return a.handleSummary(ev, outputIndex)

	case EventReasoningTextDelta, EventReasoningDelta:
		a.appendReasoningText(ev.ItemID(), ev.String("delta"))
		return nil

	case EventReasoningTextDone, EventReasoningDone:
		text := ev.String("text")
		if text == "" {
			text = ev.String("content")
		}
		a.setReasoningText(ev.ItemID(), text)
		return nil

	case EventWebSearchInProgress:
		return statusFrame(a.liveStatus(frames.StatusKindWebSearch, frames.StatusInProgress, a.queryHints[outputIndex], frames.IntPtr(outputIndex)))
	case EventWebSearchSearching:
		return statusFrame(a.liveStatus(frames.StatusKindWebSearch, frames.StatusSearching, a.queryHints[outputIndex], frames.IntPtr(outputIndex)))
	case EventWebSearchCompleted:
		return statusFrame(a.liveStatus(frames.StatusKindWebSearch, frames.StatusCompleted, a.queryHints[outputIndex], frames.IntPtr(outputIndex)))

	case EventResponseCompleted, EventResponseIncomplete:
		return a.complete(ev)
	}

	if !ev.Type.IsKnown() {
		log.Debug().Str("aggregator", a.id).Str("event", string(ev.Type)).Msg("Responses: unknown event type ignored")
	}
	return nil
}

func statusFrame(aux frames.Auxiliary) *frames.Frame {
	return &frames.Frame{Auxiliaries: []frames.Auxiliary{aux}}
}

func (a *Aggregator) emitText(outputIndex int, delta string) *frames.Frame {
	if delta == "" {
		return nil
	}
	a.streamed[outputIndex] = true
	a.text.WriteString(delta)
	log.Trace().Str("aggregator", a.id).Int("output_index", outputIndex).Int("len", len(delta)).Msg("Responses: text delta")
	return &frames.Frame{TextDelta: delta}
}

// emitUnstreamedText emits the full text of a message item once, and only if
// no delta was streamed for that item.
func (a *Aggregator) emitUnstreamedText(outputIndex int, text string) *frames.Frame {
	if a.streamed[outputIndex] {
		return nil
	}
	return a.emitText(outputIndex, text)
}

func (a *Aggregator) handleItemAdded(outputIndex int, item map[string]any) *frames.Frame {
	switch getString(item, "type") {
	case ItemTypeReasoning:
		return statusFrame(a.liveStatus(frames.StatusKindReasoning, frames.StatusInProgress, "", frames.IntPtr(outputIndex)))
	case ItemTypeWebSearchCall:
		if q := webSearchQuery(item); q != "" {
			a.queryHints[outputIndex] = q
		}
		return statusFrame(a.liveStatus(frames.StatusKindWebSearch, frames.StatusInitiated, a.queryHints[outputIndex], frames.IntPtr(outputIndex)))
	}
	return nil
}

func (a *Aggregator) handleItemDone(outputIndex int, item map[string]any) *frames.Frame {
	switch getString(item, "type") {
	case ItemTypeReasoning:
		a.addReasoningOutputItem(outputIndex, item)
		return statusFrame(a.liveStatus(frames.StatusKindReasoning, frames.StatusCompleted, a.latestTitle(outputIndex), frames.IntPtr(outputIndex)))

	case ItemTypeWebSearchCall:
		q, status := a.addWebSearchOutputItem(outputIndex, item, a.queryHints[outputIndex])
		if q == nil {
			return nil
		}
		f := &frames.Frame{}
		f.AddAuxiliary(frames.AuxiliaryKindWebSearchQuery, *q)
		f.Auxiliaries = append(f.Auxiliaries, a.liveStatus(frames.StatusKindWebSearch, status, q.Query, frames.IntPtr(outputIndex)))
		return f

	case ItemTypeMessage:
		return a.emitUnstreamedText(outputIndex, a.addMessageOutputItem(item))
	}
	return nil
}

func (a *Aggregator) handleSummary(ev RawEvent, outputIndex int) *frames.Frame {
	summaryIndex, _ := ev.SummaryIndex()
	key := summaryKey{outputIndex, summaryIndex}
	buf, ok := a.summaryBuf[key]
	if !ok {
		buf = &strings.Builder{}
		a.summaryBuf[key] = buf
	}

	switch ev.Type {
	case EventReasoningSummaryPartAdded:
		if t := getString(ev.Map("part"), "text"); t != "" {
			buf.Reset()
			buf.WriteString(t)
		}
	case EventReasoningSummaryTextDelta:
		buf.WriteString(ev.String("delta"))
	case EventReasoningSummaryTextDone:
		if t := ev.String("text"); t != "" {
			buf.Reset()
			buf.WriteString(t)
		}
	case EventReasoningSummaryPartDone:
		text := getString(ev.Map("part"), "text")
		if text == "" {
			text = buf.String()
		}
		delete(a.summaryBuf, key)
		rs, ok := a.addSummary(outputIndex, summaryIndex, text)
		if !ok {
			return nil
		}
		idx := a.liveSummaries
		a.liveSummaries++
		f := &frames.Frame{}
		f.AddAuxiliary(frames.AuxiliaryKindReasoningSummaryItem, frames.ReasoningSummaryItem{
			Index:        idx,
			OutputIndex:  rs.OutputIndex,
			SummaryIndex: rs.SummaryIndex,
			Title:        rs.Title,
			Summary:      rs.Text,
		})
		return f
	}
	return nil
}

func (a *Aggregator) complete(ev RawEvent) *frames.Frame {
	resp := ev.Response()
	if resp == nil {
		resp = ev.Data
	}
	a.captureResponseID(resp)
	a.ingestOutput(resp, a.queryHints)

	var text string
	if a.text.Len() == 0 {
		text = firstMessageText(resp)
		a.text.WriteString(text)
	}

	closing := frames.StatusCompleted
	if ev.Type == EventResponseIncomplete {
		closing = frames.StatusIncomplete
	}
	f := a.doneFrame(resp, UsageFromEnvelope(a.model, ev.Data), closing)
	f.TextDelta = text

	a.state = StateCompleted
	a.terminal = f
	log.Debug().Str("aggregator", a.id).Object("frame", f).Str("response_id", a.responseID).Msg("Responses: stream completed")
	return a.terminal
}

func (a *Aggregator) fail(fe *frames.FrameError, eventType string) *frames.Frame {
	f := a.errorFrame(fe)
	a.state = StateFailed
	a.terminal = a.stamp(f, eventType)
	log.Debug().Str("aggregator", a.id).Str("error", fe.Message).Str("code", fe.Code).Msg("Responses: stream failed")
	return a.terminal
}

// stamp adds the debug timestamp auxiliary when enabled.
func (a *Aggregator) stamp(f *frames.Frame, eventType string) *frames.Frame {
	if f == nil || !a.settings.DebugTimestamps {
		return f
	}
	f.AddAuxiliary(frames.AuxiliaryKindDebugTimestamp, frames.DebugTimestamp{
		EventType:  eventType,
		Sequence:   a.seq,
		ReceivedAt: a.now().UnixMicro(),
	})
	return f
}

package openai_responses

import (
	"time"

	"github.com/huandu/go-clone"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

type statusKey struct {
	kind        frames.StatusKind
	status      frames.Status
	outputIndex int
	hasIndex    bool
}

// StatusLogBuilder accumulates the durable lifecycle transitions of one
// response. Entries are unique by (kind, status, output index) and transient
// statuses are never recorded, apart from the processing/started bracket.
type StatusLogBuilder struct {
	entries []frames.StatusLogEntry
	seen    map[statusKey]int
	sealed  bool
	now     func() time.Time
}

type StatusLogOption func(*StatusLogBuilder)

// WithClock replaces the wall clock used for entry timestamps.
func WithClock(now func() time.Time) StatusLogOption {
	return func(b *StatusLogBuilder) {
		b.now = now
	}
}

func NewStatusLogBuilder(opts ...StatusLogOption) *StatusLogBuilder {
	b := &StatusLogBuilder{
		seen: map[statusKey]int{},
		now:  time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Record appends an entry and reports whether it was kept.
func (b *StatusLogBuilder) Record(kind frames.StatusKind, status frames.Status, message string, outputIndex *int) bool {
	if b.sealed {
		return false
	}
	if status.IsTransient() && !(kind == frames.StatusKindProcessing && status == frames.StatusStarted) {
		log.Trace().Str("kind", string(kind)).Str("status", string(status)).Msg("Responses: transient status not logged")
		return false
	}

	key := statusKey{kind: kind, status: status}
	if outputIndex != nil {
		key.outputIndex = *outputIndex
		key.hasIndex = true
	}
	if _, ok := b.seen[key]; ok {
		return false
	}

	e := frames.StatusLogEntry{
		Kind:      kind,
		Status:    status,
		Message:   message,
		Timestamp: b.now().UnixMicro(),
	}
	if outputIndex != nil {
		e.OutputIndex = frames.IntPtr(*outputIndex)
	}
	b.seen[key] = len(b.entries)
	b.entries = append(b.entries, e)
	return true
}

// Start records the processing/started bracket. Calling it again is a no-op.
func (b *StatusLogBuilder) Start() {
	b.Record(frames.StatusKindProcessing, frames.StatusStarted, "", nil)
}

// Close records the closing processing bracket with the given status.
func (b *StatusLogBuilder) Close(status frames.Status) {
	b.Record(frames.StatusKindProcessing, status, "", nil)
}

func (b *StatusLogBuilder) Len() int {
	return len(b.entries)
}

func (b *StatusLogBuilder) Sealed() bool {
	return b.sealed
}

// Finalize back-fills the title and summary text of reasoning entries by
// output index, then seals the log. Later Record calls are ignored.
func (b *StatusLogBuilder) Finalize(titles, summaries map[int]string) []frames.StatusLogEntry {
	if !b.sealed {
		for i := range b.entries {
			e := &b.entries[i]
			if e.Kind != frames.StatusKindReasoning || e.OutputIndex == nil {
				continue
			}
			if title, ok := titles[*e.OutputIndex]; ok && title != "" {
				e.Message = title
			}
			if summary, ok := summaries[*e.OutputIndex]; ok && summary != "" {
				e.Summary = summary
			}
		}
		b.sealed = true
	}
	return b.Snapshot()
}

// Snapshot returns a deep copy of the entries recorded so far.
func (b *StatusLogBuilder) Snapshot() []frames.StatusLogEntry {
	if len(b.entries) == 0 {
		return []frames.StatusLogEntry{}
	}
	return clone.Clone(b.entries).([]frames.StatusLogEntry)
}

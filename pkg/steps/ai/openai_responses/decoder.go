package openai_responses

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// ErrSkipUnit is returned for units that carry no event, such as keep-alive
// blank lines or the [DONE] sentinel.
var ErrSkipUnit = errors.New("responses: unit carries no event")

// DecodeError reports a transport unit that is not a JSON object.
type DecodeError struct {
	Unit  string
	Cause error
}

func (e *DecodeError) Error() string {
	return "responses: invalid JSON chunk received: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// RawEvent is one decoded provider event.
type RawEvent struct {
	Type EventType
	Data map[string]any
	Raw  []byte
}

// HasError reports whether the event carries a top-level error, either an
// object or a non-empty string. A null error field, as found on completed
// payloads, does not count.
func (e RawEvent) HasError() bool {
	return topLevelError(e.Data) != nil
}

func (e RawEvent) OutputIndex() (int, bool) {
	return getInt(e.Data, "output_index")
}

func (e RawEvent) SummaryIndex() (int, bool) {
	return getInt(e.Data, "summary_index")
}

func (e RawEvent) ItemID() string {
	return getString(e.Data, "item_id")
}

func (e RawEvent) String(key string) string {
	return getString(e.Data, key)
}

func (e RawEvent) Map(key string) map[string]any {
	m, _ := getMap(e.Data, key)
	return m
}

// Item returns the output item carried by output_item.added/done events.
func (e RawEvent) Item() map[string]any {
	return e.Map("item")
}

// Response returns the response object of lifecycle events.
func (e RawEvent) Response() map[string]any {
	return e.Map("response")
}

var dataPrefix = []byte("data:")

// Decode parses one transport unit. An optional SSE "data:" prefix is
// stripped. Blank units and [DONE] yield ErrSkipUnit, anything that is not a
// JSON object yields a *DecodeError.
func Decode(unit []byte) (RawEvent, error) {
	b := bytes.TrimSpace(unit)
	if bytes.HasPrefix(b, dataPrefix) {
		b = bytes.TrimSpace(b[len(dataPrefix):])
	}
	if len(b) == 0 || bytes.Equal(b, []byte("[DONE]")) {
		return RawEvent{}, ErrSkipUnit
	}

	if !gjson.ValidBytes(b) {
		return RawEvent{}, &DecodeError{Unit: truncate(string(b), 200), Cause: errors.New("malformed JSON")}
	}
	parsed := gjson.ParseBytes(b)
	if !parsed.IsObject() {
		return RawEvent{}, &DecodeError{Unit: truncate(string(b), 200), Cause: errors.Errorf("expected object, got %s", parsed.Type)}
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return RawEvent{}, &DecodeError{Unit: truncate(string(b), 200), Cause: errors.Wrap(err, "unmarshal event")}
	}

	ev := RawEvent{
		Type: EventType(parsed.Get("type").String()),
		Data: m,
		Raw:  b,
	}

	if zerolog.GlobalLevel() <= zerolog.TraceLevel {
		if rb, err := json.Marshal(scrubForLog(m)); err == nil {
			log.Trace().Str("event", string(ev.Type)).RawJSON("data", rb).Msg("Responses: SSE event")
		}
	}
	return ev, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

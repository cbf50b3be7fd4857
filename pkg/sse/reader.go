// Package sse splits a Responses HTTP body into transport units.
//
// Two framings are supported: server-sent events, where each blank-line
// terminated block carries one event in its data lines, and a bare sequence
// of concatenated JSON objects as sent by some gateways.
package sse

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const doneSentinel = "[DONE]"

// Event is one transport unit. Name is the SSE event field, empty for bare
// JSON objects.
type Event struct {
	Name string
	Data []byte
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next unit. It returns io.EOF once the body is exhausted.
// The [DONE] sentinel and comment lines are dropped.
func (r *Reader) Next() (Event, error) {
	for {
		c, err := r.peekNonSpace()
		if err != nil {
			return Event{}, err
		}
		if c == '{' {
			b, err := r.readJSONObject()
			if err != nil {
				return Event{}, err
			}
			return Event{Data: b}, nil
		}

		ev, err := r.readBlock()
		if err != nil && !(errors.Is(err, io.EOF) && len(ev.Data) > 0) {
			return Event{}, err
		}
		if len(ev.Data) == 0 || string(ev.Data) == doneSentinel {
			if err != nil {
				return Event{}, err
			}
			continue
		}
		return ev, nil
	}
}

func (r *Reader) peekNonSpace() (byte, error) {
	for {
		b, err := r.r.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = r.r.ReadByte()
		default:
			return b[0], nil
		}
	}
}

// readBlock reads SSE lines up to the next blank line.
func (r *Reader) readBlock() (Event, error) {
	var ev Event
	var data [][]byte
	for {
		line, err := r.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		switch {
		case len(line) == 0:
		case line[0] == ':':
		default:
			field, value := splitField(line)
			switch field {
			case "event":
				ev.Name = string(value)
			case "data":
				data = append(data, value)
			case "id", "retry":
			default:
				log.Trace().Str("field", field).Msg("Responses: ignoring unknown SSE field")
			}
		}

		if len(line) == 0 || err != nil {
			ev.Data = bytes.Join(data, []byte("\n"))
			if err != nil {
				return ev, err
			}
			if len(data) > 0 || ev.Name != "" {
				return ev, nil
			}
		}
	}
}

func splitField(line []byte) (string, []byte) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return string(line), nil
	}
	value := line[i+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return string(line[:i]), value
}

// readJSONObject consumes one brace-balanced JSON object. Braces inside
// string literals are not counted.
func (r *Reader) readJSONObject() ([]byte, error) {
	var buf bytes.Buffer
	depth := 0
	inString := false
	escaped := false
	for {
		c, err := r.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.Wrap(io.ErrUnexpectedEOF, "truncated JSON object")
			}
			return nil, err
		}
		buf.WriteByte(c)

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return buf.Bytes(), nil
			}
		}
	}
}

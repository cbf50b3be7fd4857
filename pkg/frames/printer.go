package frames

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type PrinterFormat string

const (
	FormatText PrinterFormat = "text"
	FormatJSON PrinterFormat = "json"
	FormatYAML PrinterFormat = "yaml"
)

type PrinterOptions struct {
	Format PrinterFormat
	// Name prefixes the first text delta in text output.
	Name string
	// Statuses prints live status ticks in text output.
	Statuses bool
	// Full prints the auxiliaries of the terminal frame in text output.
	Full bool
}

// NewFramePrinter returns a handler for FrameRouter.AddFrameHandler that
// writes frames to w.
func NewFramePrinter(w io.Writer, options PrinterOptions) func(msg *message.Message, f *Frame) error {
	isFirst := true

	return func(_ *message.Message, f *Frame) error {
		switch options.Format {
		case FormatText, "":
			return printText(w, f, options, &isFirst)
		case FormatJSON:
			b, err := json.Marshal(f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\n", b)
			return err
		case FormatYAML:
			b, err := frameYAML(f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "---\n%s", b)
			return err
		default:
			return errors.Errorf("unknown format: %s", options.Format)
		}
	}
}

// frameYAML goes through JSON so the YAML keys match the wire names.
func frameYAML(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func printText(w io.Writer, f *Frame, options PrinterOptions, isFirst *bool) error {
	if f.TextDelta != "" {
		if *isFirst && options.Name != "" {
			if _, err := fmt.Fprintf(w, "\n%s: \n", options.Name); err != nil {
				return err
			}
		}
		*isFirst = false
		if _, err := fmt.Fprint(w, f.TextDelta); err != nil {
			return err
		}
	}

	if options.Statuses {
		for _, a := range f.All(AuxiliaryKindStatus) {
			e, ok := a.Payload.(StatusLogEntry)
			if !ok {
				continue
			}
			line := fmt.Sprintf("[%s] %s", e.Kind, e.Status)
			if e.Message != "" {
				line += ": " + e.Message
			}
			if _, err := fmt.Fprintf(w, "\n%s\n", line); err != nil {
				return err
			}
		}
	}

	if f.Error != nil {
		_, err := fmt.Fprintf(w, "\n[error] %s\n", f.Error.Error())
		return err
	}

	if f.IsDone {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if !options.Full {
			return nil
		}
		for _, a := range f.Auxiliaries {
			b, err := frameYAML(a)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s", b); err != nil {
				return err
			}
		}
		if f.Usage != nil {
			b, err := frameYAML(map[string]any{"usage": f.Usage})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, strings.TrimRight(string(b), "\n")+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

package openai_responses

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/sse"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

// ErrStreamAbandoned is returned when the body ends before a terminal event.
// No terminal frame is synthesized in that case.
var ErrStreamAbandoned = errors.New("responses: stream ended without a terminal event")

// Processor binds one aggregator to a frame sink and drives it from a
// response body.
type Processor struct {
	aggregator *Aggregator
	sink       frames.FrameSink
}

// NewProcessor creates a processor for one request. A nil sink publishes to
// the sinks attached to the context passed to Run, see frames.WithFrameSinks.
func NewProcessor(model string, s *settings.AggregatorSettings, sink frames.FrameSink, opts ...AggregatorOption) *Processor {
	return &Processor{
		aggregator: NewAggregator(model, s, opts...),
		sink:       sink,
	}
}

func (p *Processor) Aggregator() *Aggregator {
	return p.aggregator
}

// Process handles one transport unit and publishes the resulting frame, if
// any. It returns the frame and the sink error.
func (p *Processor) Process(ctx context.Context, unit []byte) (*frames.Frame, error) {
	f := p.aggregator.HandleUnit(unit)
	if f == nil {
		return nil, nil
	}
	return f, p.publish(ctx, f)
}

func (p *Processor) publish(ctx context.Context, f *frames.Frame) error {
	if p.sink == nil {
		frames.PublishFrameToContext(ctx, f)
		return nil
	}
	if err := p.sink.PublishFrame(f); err != nil {
		return errors.Wrap(err, "publish frame")
	}
	return nil
}

// Run reads units from body until a terminal frame was emitted, the body
// ends or the context is cancelled. It returns the terminal frame.
func (p *Processor) Run(ctx context.Context, body io.Reader) (*frames.Frame, error) {
	reader := sse.NewReader(body)
	log.Trace().Str("aggregator", p.aggregator.ID()).Msg("Responses: starting SSE read loop")

	for {
		if err := ctx.Err(); err != nil {
			log.Debug().Str("aggregator", p.aggregator.ID()).Msg("Responses: context cancelled")
			return nil, err
		}

		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Debug().Err(err).Str("aggregator", p.aggregator.ID()).Msg("Responses: read failed")
			return nil, errors.Wrap(err, "read stream")
		}

		if _, err := p.Process(ctx, ev.Data); err != nil {
			return nil, err
		}
		if t := p.aggregator.Terminal(); t != nil {
			if t.Error != nil {
				return t, t.Error
			}
			return t, nil
		}
	}

	log.Warn().
		Str("aggregator", p.aggregator.ID()).
		Str("state", p.aggregator.State().String()).
		Msg("Responses: stream abandoned")
	return nil, ErrStreamAbandoned
}

package frames

import (
	"context"

	"github.com/rs/zerolog/log"
)

type sinksKey struct{}

// WithFrameSinks returns a context carrying sinks in addition to the ones
// already attached. Frames are delivered to sinks in attachment order.
// The parent context's list is never modified.
func WithFrameSinks(ctx context.Context, sinks ...FrameSink) context.Context {
	if len(sinks) == 0 {
		return ctx
	}
	existing := GetFrameSinks(ctx)
	combined := make([]FrameSink, 0, len(existing)+len(sinks))
	combined = append(combined, existing...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, sinksKey{}, combined)
}

func GetFrameSinks(ctx context.Context) []FrameSink {
	sinks, _ := ctx.Value(sinksKey{}).([]FrameSink)
	return sinks
}

// PublishFrameToContext hands f to every sink attached to ctx and returns
// how many accepted it. A failing sink does not stop delivery to the others
// and still receives the following frames, so a terminal frame reaches every
// sink that is able to take it.
func PublishFrameToContext(ctx context.Context, f *Frame) int {
	if f == nil {
		return 0
	}
	sinks := GetFrameSinks(ctx)
	if len(sinks) == 0 {
		log.Trace().Bool("terminal", f.IsTerminal()).Msg("Responses: frame dropped, no sinks in context")
		return 0
	}

	delivered := 0
	for i, sink := range sinks {
		if err := sink.PublishFrame(f); err != nil {
			log.Warn().Err(err).
				Int("sink", i).
				Bool("terminal", f.IsTerminal()).
				Msg("Responses: sink rejected frame")
			continue
		}
		delivered++
	}
	return delivered
}

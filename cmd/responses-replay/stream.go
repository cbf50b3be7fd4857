package main

import (
	"context"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/openai_responses"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

const framesTopic = "frames"

type printOptions struct {
	format   string
	name     string
	statuses bool
	full     bool
}

func (p *printOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.format, "output", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&p.name, "name", "", "Prefix printed before the generated text")
	cmd.Flags().BoolVar(&p.statuses, "statuses", false, "Print live status ticks")
	cmd.Flags().BoolVar(&p.full, "full", false, "Print the auxiliaries of the terminal frame")
}

func (p *printOptions) printer(w io.Writer) func(*frames.Frame) error {
	printFrame := frames.NewFramePrinter(w, frames.PrinterOptions{
		Format:   frames.PrinterFormat(p.format),
		Name:     p.name,
		Statuses: p.statuses,
		Full:     p.full,
	})
	return func(f *frames.Frame) error {
		return printFrame(nil, f)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}

func newStreamCommand(loadSettings func() (*settings.AggregatorSettings, error)) *cobra.Command {
	var (
		model   string
		verbose bool
		popts   printOptions
	)

	cmd := &cobra.Command{
		Use:   "stream <file|->",
		Short: "Replay an SSE or JSON-lines capture through the streaming aggregator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			in, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = in.Close()
			}()

			_, err = replayStream(cmd.Context(), in, cmd.OutOrStdout(), model, s, popts, verbose)
			return err
		},
	}
	cmd.Flags().StringVar(&model, "model", "gpt-5", "Model id reported in usage")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log watermill router activity")
	popts.register(cmd)
	return cmd
}

// replayStream publishes every frame through a FrameRouter and prints it from
// a router handler, the way a consumer on the bus would see it.
func replayStream(
	ctx context.Context,
	body io.Reader,
	w io.Writer,
	model string,
	s *settings.AggregatorSettings,
	popts printOptions,
	verbose bool,
) (*frames.Frame, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	router, err := frames.NewFrameRouter(frames.WithVerbose(verbose))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frame router")
	}
	defer func() {
		_ = router.Close()
	}()

	printFrame := popts.printer(w)
	router.AddFrameHandler("printer", framesTopic, func(_ *message.Message, f *frames.Frame) error {
		return printFrame(f)
	})

	wmSink := frames.NewWatermillSink(router.Publisher, framesTopic)
	processor := openai_responses.NewProcessor(model, s, nil)
	agg := processor.Aggregator()
	sink := frames.SinkFunc(func(f *frames.Frame) error {
		if id := agg.ResponseID(); id != "" {
			wmSink.SetResponseID(id)
		}
		return wmSink.PublishFrame(f)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = frames.WithFrameSinks(ctx, sink)

	var result *frames.Frame
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()

		// publishing blocks until the printer acked, so every frame is
		// printed once Run returns
		t, err := processor.Run(ctx, body)
		result = t
		if err != nil {
			var fe *frames.FrameError
			if errors.As(err, &fe) {
				log.Debug().Str("aggregator", agg.ID()).Str("code", fe.Code).Msg("Responses: replay ended with error frame")
				return nil
			}
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return result, err
	}
	if result != nil && result.Error != nil {
		return result, result.Error
	}
	return result, nil
}

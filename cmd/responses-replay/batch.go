package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/openai_responses"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

func newBatchCommand(loadSettings func() (*settings.AggregatorSettings, error)) *cobra.Command {
	var (
		model string
		popts printOptions
	)

	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Build the terminal frame of a non-streaming response payload",
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
			b, err := io.ReadAll(in)
			if err != nil {
				return errors.Wrap(err, "read payload")
			}

			f := openai_responses.BuildFromJSON(model, s, b)
			if err := popts.printer(cmd.OutOrStdout())(f); err != nil {
				return err
			}
			if f.Error != nil {
				return f.Error
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "gpt-5", "Model id reported in usage")
	popts.register(cmd)
	return cmd
}

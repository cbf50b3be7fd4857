package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

func newFramesSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "frames-schema",
		Short: "Print the JSON schema of the frames emitted by the aggregator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(frames.JSONSchema())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate JSON-lines frames, as printed by stream --output json, against the frame schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = in.Close()
			}()

			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			line, invalid := 0, 0
			for scanner.Scan() {
				line++
				b := bytes.TrimSpace(scanner.Bytes())
				if len(b) == 0 {
					continue
				}
				if err := frames.ValidateFrameJSON(b); err != nil {
					invalid++
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "line %d: %v\n", line, err); err != nil {
						return err
					}
				}
			}
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, "read frames")
			}
			if invalid > 0 {
				return errors.Errorf("%d invalid frame(s)", invalid)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d line(s) valid\n", line)
			return err
		},
	}
}

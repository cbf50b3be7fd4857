package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	config    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	v := settings.NewViper()

	rootCmd := &cobra.Command{
		Use:           "responses-replay",
		Short:         "Replay recorded Responses API streams through the aggregator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	flags.StringVar(&opts.config, "config", "", "Aggregator settings file (yaml)")
	flags.String("decode-error-policy", "", "Decode error policy (fatal, continue)")
	flags.String("default-reasoning-title", "", "Title used for summaries without a bold heading")
	flags.Bool("debug-timestamps", false, "Attach debug_timestamp auxiliaries to every frame")
	flags.Bool("citations-https-only", false, "Drop citation and source links that are not https")
	flags.Bool("citations-allow-local-links", false, "Keep citation links to loopback and private hosts")

	for key, flag := range map[string]string{
		"decode_error_policy":     "decode-error-policy",
		"default_reasoning_title": "default-reasoning-title",
		"debug_timestamps":        "debug-timestamps",

		"citations_https_only":        "citations-https-only",
		"citations_allow_local_links": "citations-allow-local-links",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}

	loadSettings := func() (*settings.AggregatorSettings, error) {
		return settings.LoadAggregatorSettings(v, opts.config)
	}

	rootCmd.AddCommand(
		newStreamCommand(loadSettings),
		newBatchCommand(loadSettings),
		newModelsCommand(),
		newFramesSchemaCommand(),
		newValidateCommand(),
	)
	return rootCmd
}

func initLogger(w io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch format {
	case "json":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	case "text", "":
		noColor := true
		if f, ok := w.(*os.File); ok {
			noColor = !isatty.IsTerminal(f.Fd())
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: noColor})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

package main

import (
	"context"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	glazed_settings "github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/mb0/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/responses-aggregator/pkg/models"
)

type ModelsSettings struct {
	ModelsFile string   `glazed.parameter:"models-file"`
	Active     bool     `glazed.parameter:"active"`
	Match      string   `glazed.parameter:"match"`
	IDs        []string `glazed.parameter:"ids"`
}

// ModelsCommand lists model descriptors, or reports the Responses
// capabilities of the ids given as arguments.
type ModelsCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*ModelsCommand)(nil)

func NewModelsCommand() (*ModelsCommand, error) {
	glazedParameterLayer, err := glazed_settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create glazed parameter layer")
	}

	return &ModelsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"models",
			cmds.WithShort("List model descriptors, or report the capabilities of the given ids"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"models-file",
					parameters.ParameterTypeString,
					parameters.WithHelp("YAML model list (defaults to the built-in list)"),
				),
				parameters.NewParameterDefinition(
					"active",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Only list active models"),
					parameters.WithDefault(false),
				),
				parameters.NewParameterDefinition(
					"match",
					parameters.ParameterTypeString,
					parameters.WithHelp("Only list models whose id matches the glob"),
				),
			),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"ids",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Model ids to check"),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *ModelsCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &ModelsSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize models settings")
	}
	return emitModelRows(ctx, s, gp)
}

func selectModels(s *ModelsSettings) (models.List, error) {
	list := models.Default()
	if s.ModelsFile != "" {
		var err error
		if list, err = models.LoadFile(s.ModelsFile); err != nil {
			return nil, err
		}
	}
	if s.Active {
		list = list.Active()
	}
	if s.Match == "" {
		return list, nil
	}

	filtered := models.List{}
	for _, d := range list {
		matching, err := glob.Match(s.Match, d.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", s.Match)
		}
		if matching {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// emitModelRows adds one row per descriptor, or one capability row per
// requested id when ids were given.
func emitModelRows(ctx context.Context, s *ModelsSettings, gp middlewares.Processor) error {
	list, err := selectModels(s)
	if err != nil {
		return err
	}

	if len(s.IDs) > 0 {
		for _, id := range s.IDs {
			descriptor := ""
			if d, ok := list.Find(id); ok {
				descriptor = d.ID
			}
			row := types.NewRow(
				types.MRP("id", id),
				types.MRP("descriptor", descriptor),
				types.MRP("compatible", models.IsCompatible(id)),
				types.MRP("streaming", list.SupportsStreaming(id)),
				types.MRP("web_search", list.SupportsSearch(id)),
			)
			if err := gp.AddRow(ctx, row); err != nil {
				return err
			}
		}
		return nil
	}

	for _, d := range list {
		row := types.NewRow(
			types.MRP("id", d.ID),
			types.MRP("label", d.Label),
			types.MRP("active", d.Active),
			types.MRP("streamable", d.Streamable()),
			types.MRP("web_search", list.SupportsSearch(d.ID)),
			types.MRP("reasoning", d.Metadata.SupportsReasoning),
			types.MRP("api_format", d.Metadata.APIFormat),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func newModelsCommand() *cobra.Command {
	modelsCommand, err := NewModelsCommand()
	cobra.CheckErr(err)
	cobraCommand, err := cli.BuildCobraCommandFromGlazeCommand(modelsCommand)
	cobra.CheckErr(err)
	return cobraCommand
}

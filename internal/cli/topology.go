package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/render/topology"
)

// topologyCommand creates the topology command, which draws the room graph
// of a model file.
func (c *CLI) topologyCommand() *cobra.Command {
	var (
		output   string
		dotOnly  bool
		detailed bool
		noHub    bool
	)

	cmd := &cobra.Command{
		Use:   "topology [model.json]",
		Short: "Draw the room graph of a dungeon model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := model.ImportJSON(args[0])
			if err != nil {
				return fmt.Errorf("load model %s: %w", args[0], err)
			}
			data, err := topologyOf(ctx, m, topology.Options{Detailed: detailed, Hub: !noHub}, dotOnly)
			if err != nil {
				return err
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			if output != "" && output != "-" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "print Graphviz DOT instead of SVG")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label rooms with their size")
	cmd.Flags().BoolVar(&noHub, "no-hub", false, "do not highlight room 0")

	return cmd
}

func topologyOf(ctx context.Context, m *model.Model, opts topology.Options, dotOnly bool) ([]byte, error) {
	dot := topology.ToDOT(m, opts)
	loggerFromContext(ctx).Debug("built room graph", "rooms", len(m.Rooms()), "corridors", len(m.Corridors()))
	if dotOnly {
		return []byte(dot), nil
	}
	svg, err := topology.RenderSVG(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("render topology: %w", err)
	}
	return svg, nil
}

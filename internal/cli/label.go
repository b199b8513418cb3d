package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

type labelFlags struct {
	rows, cols int
	scheme     string
}

func (f *labelFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.rows, "rows", 8, "grid rows")
	cmd.Flags().IntVar(&f.cols, "cols", 12, "grid columns")
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "labeling scheme: alpha, num, none (default alpha)")
}

func (a *app) newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Convert between slot indices and labels",
	}
	cmd.AddCommand(a.newLabelEncodeCmd(), a.newLabelDecodeCmd())
	return cmd
}

func (a *app) newLabelEncodeCmd() *cobra.Command {
	var f labelFlags
	cmd := &cobra.Command{
		Use:   "encode INDEX",
		Short: "Print the label of a 0-based slot index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := types.ParseScheme(f.scheme)
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", types.ErrInvalidPositionFormat, args[0])
			}
			label, err := grid.Encode(pos, scheme, f.rows, f.cols)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(out(cmd), map[string]any{"position": pos, "label": label})
			}
			fmt.Fprintln(out(cmd), label)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) newLabelDecodeCmd() *cobra.Command {
	var f labelFlags
	cmd := &cobra.Command{
		Use:   "decode LABEL",
		Short: "Print the 0-based slot index of a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := types.ParseScheme(f.scheme)
			if err != nil {
				return err
			}
			pos, err := grid.Decode(args[0], scheme, f.rows, f.cols)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(out(cmd), map[string]any{"position": pos, "label": args[0]})
			}
			fmt.Fprintln(out(cmd), pos)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

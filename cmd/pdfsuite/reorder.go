package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/internal/pagespec"
)

func newReorderCmd() *cobra.Command {
	var order string
	var rotations []string
	var output string
	cmd := &cobra.Command{
		Use:   "reorder <input>",
		Short: "Reorder, duplicate, rotate or drop pages using qpdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			argv, err := reorderArgv(cfg.Tools.Qpdf, args[0], order, rotations, output)
			if err != nil {
				return err
			}
			if err := requireTools(cfg.Tools.Qpdf); err != nil {
				return err
			}
			if err := ensureFile(args[0], "input PDF"); err != nil {
				return err
			}
			return runTool(cmd.Context(), cmd.OutOrStdout(), argv...)
		},
	}
	cmd.Flags().StringVar(&order, "order", "", "comma separated page ranges (e.g. 5-7,1-4,8-z)")
	cmd.Flags().StringArrayVar(&rotations, "rotate", nil, "rotate output pages, <angle>:<pages> (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "reordered PDF output")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// reorderArgv builds the qpdf invocation for the reorder command.
func reorderArgv(qpdf, input, order string, rotations []string, output string) ([]string, error) {
	ranges, err := pagespec.ParseSequence(order)
	if err != nil {
		return nil, err
	}
	rots := make([]pagespec.Rotation, 0, len(rotations))
	for _, value := range rotations {
		rot, err := pagespec.ParseRotation(value)
		if err != nil {
			return nil, err
		}
		rots = append(rots, rot)
	}
	return append([]string{qpdf}, pagespec.QpdfArgs(input, ranges, rots, output)...), nil
}

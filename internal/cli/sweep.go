package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSweepCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark events dated before today as completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Coordinator.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(opts, cmd)
			if p.isJSON() {
				return p.JSON(map[string]int64{"completed": n})
			}
			fmt.Fprintf(p.w, "%d event(s) marked completed\n", n)
			return nil
		},
	}
}

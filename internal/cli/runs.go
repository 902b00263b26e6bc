package cli

import (
	"time"

	"github.com/david/campus-events/internal/db"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func NewRunsCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingestion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.Store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(newPrinter(opts, cmd), runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}

func printRuns(p *printer, runs []db.RunRecord) error {
	if p.isJSON() {
		return p.JSON(runs)
	}
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		duration := "Running..."
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, table.Row{
			r.ID.String()[:8], r.Status, r.TotalScraped, r.Inserted, r.Updated, r.Skipped,
			r.Completed, len(r.Errors), duration, r.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	p.Table(table.Row{"Run", "Status", "Scraped", "Inserted", "Updated", "Skipped", "Completed", "Errors", "Duration", "Started At"}, rows, nil)
	return nil
}

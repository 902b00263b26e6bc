package cli

import (
	"fmt"
	"sort"

	"github.com/david/campus-events/internal/app"
	"github.com/david/campus-events/internal/ingest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func NewScrapeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one ingestion pass over every enabled source",
		Long: `Fetch every enabled listing source, parse and upsert the events,
then mark past events completed. The run is journaled like an HTTP-triggered run.

Examples:
  eventctl scrape
  eventctl scrape --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireScraper(); err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result, runErr := a.Coordinator.Run(cmd.Context())
			if result != nil {
				if err := printRunResult(newPrinter(opts, cmd), result); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

func printRunResult(p *printer, r *ingest.RunResult) error {
	if p.isJSON() {
		return p.JSON(r)
	}

	ids := make([]string, 0, len(r.Sources))
	for id := range r.Sources {
		ids = append(ids, id)
	}
	for id := range r.SourceErrors {
		if _, ok := r.Sources[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, table.Row{id, r.Sources[id], r.SourceErrors[id]})
	}
	p.Table(table.Row{"Source", "Candidates", "Error"}, rows, nil)

	fmt.Fprintf(p.w, "status=%s scraped=%d inserted=%d updated=%d skipped=%d completed=%d\n",
		r.Status, r.TotalScraped, r.Inserted, r.Updated, r.Skipped, r.Completed)
	return nil
}

package cli

import (
	"strings"

	"github.com/david/campus-events/internal/colleges"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func NewCollegesCommand(opts *RootOptions) *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "colleges <query>",
		Short: "Search local and directory colleges",
		Example: `  eventctl colleges "iit"
  eventctl colleges delhi --country India`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Colleges.Search(cmd.Context(), strings.Join(args, " "), country)
			if err != nil {
				return err
			}
			return printColleges(newPrinter(opts, cmd), results)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "restrict to one country")
	return cmd
}

func printColleges(p *printer, results []colleges.Result) error {
	if p.isJSON() {
		return p.JSON(map[string]interface{}{"data": results, "total": len(results)})
	}
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		origin := "local"
		if r.IsExternal {
			origin = "directory"
		}
		rows = append(rows, table.Row{r.Name, r.Country, r.ReputationScore, r.TotalReviews, origin})
	}
	p.Table(table.Row{"Name", "Country", "Reputation", "Reviews", "Origin"}, rows,
		table.Row{"", "", "", "Total", len(results)})
	return nil
}

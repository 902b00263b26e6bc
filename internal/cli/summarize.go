package cli

import (
	"fmt"
	"strings"

	"github.com/david/campus-events/internal/reviews"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewSummarizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <event-id>",
		Short: "Regenerate the review summary for one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id %q: %w", args[0], err)
			}
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Summarizer.Summarize(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printSummary(newPrinter(opts, cmd), result)
		},
	}
}

func printSummary(p *printer, r *reviews.Result) error {
	if p.isJSON() {
		return p.JSON(r)
	}
	fmt.Fprintf(p.w, "%s (%s, score %.2f, %d review(s))\n", r.Summary, r.SentimentLabel, r.SentimentScore, r.TotalReviews)
	fmt.Fprintf(p.w, "organization %.1f  difficulty %.1f  worth %.1f  [%s]\n", r.AvgOrganization, r.AvgDifficulty, r.AvgWorth, r.Variant)
	for _, section := range []struct {
		label string
		items []string
	}{
		{"Pros", r.Pros},
		{"Cons", r.Cons},
		{"Common feedback", r.CommonFeedback},
	} {
		if len(section.items) > 0 {
			fmt.Fprintf(p.w, "%s: %s\n", section.label, strings.Join(section.items, "; "))
		}
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epfpro/reviewscope/pkg/gplaces"
	"github.com/epfpro/reviewscope/pkg/places"
	"github.com/epfpro/reviewscope/pkg/reviews"
)

// getCmd does a one-shot fetch of every configured place and prints the
// summaries. Useful to sanity-check the API key and place IDs.
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch and print review summaries for all configured places",
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, _ := cmd.Flags().GetString("variant")

		ids, err := places.FromConfig()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no places configured (add a 'places' list to the config file)")
		}

		v := gplaces.VariantLegacy
		if variant == "v1" {
			v = gplaces.VariantV1
		}

		apiKey := viper.GetString("google.api_key")
		client := gplaces.NewClient(apiKey, gplaces.DefaultTimeout)
		agg := reviews.NewAggregator(reviews.AggregatorConfig{
			APIKey: apiKey,
			Fetch: func(ctx context.Context, placeID string) (string, error) {
				return client.Details(ctx, placeID, v)
			},
			ReviewCap: viper.GetInt("reviews.cap"),
		})

		result, err := agg.Aggregate(context.Background(), ids)
		if err != nil {
			return err
		}

		for _, p := range result.Places {
			printPlace(p)
		}

		bold := color.New(color.Bold)
		bold.Printf("Combined: %.1f stars over %d reviews (%d locations)\n",
			result.CombinedRating, result.CombinedReviewCount, len(result.Places))
		return nil
	},
}

func printPlace(p reviews.PlaceSummary) {
	label := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	stars := color.New(color.FgYellow, color.Bold)

	label.Printf("%s — %s\n", p.Identity.Label, p.Name)
	switch p.Status {
	case reviews.StatusNotConfigured:
		warn.Println("  not configured (add a place_id for this location)")
		return
	case reviews.StatusUnavailable:
		warn.Println("  upstream unavailable, no cached data")
		return
	case reviews.StatusStale:
		warn.Println("  upstream unavailable, showing cached data")
	}

	if p.Rating != nil {
		stars.Printf("  %.1f stars", *p.Rating)
		fmt.Printf(" (%d reviews)\n", p.ReviewCount)
	} else {
		fmt.Println("  no rating yet")
	}
	if p.Address != "" {
		fmt.Printf("  %s\n", p.Address)
	}
	for _, rv := range p.Reviews {
		rating := "-"
		if rv.Rating != nil {
			rating = fmt.Sprintf("%.0f", *rv.Rating)
		}
		fmt.Printf("  [%s] %s (%s)\n", rating, rv.Author, rv.RelativeTime)
		if rv.Text != "" {
			fmt.Printf("      %s\n", truncate(rv.Text, 140))
		}
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().String("variant", "legacy", "Upstream endpoint to use: legacy or v1")
}

package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/epfpro/reviewscope/pkg/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded rating history per place",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No history recorded yet. Run 'reviewscope serve' with a poll interval first.")
			return nil
		}

		bold := color.New(color.Bold)
		for _, ps := range stats {
			bold.Printf("%s (%s)\n", ps.Label, ps.PlaceID)
			rating := "none"
			if ps.LatestRating != nil {
				rating = fmt.Sprintf("%.1f", *ps.LatestRating)
			}
			fmt.Printf("  latest rating: %s (%d reviews), %d snapshots", rating, ps.LatestCount, ps.Snapshots)
			if ps.LastFetchedAt != nil {
				fmt.Printf(", last fetched %s", ps.LastFetchedAt.Format("2006-01-02 15:04"))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("dbpath", "reviewscope.sqlite", "Rating history database path")
}

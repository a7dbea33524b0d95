package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epfpro/reviewscope/internal/server"
	"github.com/epfpro/reviewscope/pkg/places"
	"github.com/epfpro/reviewscope/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reviews API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		pollInterval, _ := cmd.Flags().GetInt("poll-interval")
		dbPath, _ := cmd.Flags().GetString("dbpath")

		ids, err := places.FromConfig()
		if err != nil {
			return err
		}

		var db *storage.DB
		if dbPath != "" {
			db, err = storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		srv := server.New(server.Config{
			ListenAddr:        listenAddr,
			APIKey:            viper.GetString("google.api_key"),
			Identities:        ids,
			ReviewCap:         viper.GetInt("reviews.cap"),
			SingleTTL:         time.Duration(viper.GetInt("cache.single_ttl_hours")) * time.Hour,
			WallTTL:           time.Duration(viper.GetInt("cache.wall_ttl_hours")) * time.Hour,
			PollIntervalHours: pollInterval,
			DB:                db,
		})
		return srv.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Int("poll-interval", 4, "Hours between background refresh cycles (0 to disable)")
	serveCmd.Flags().String("dbpath", "reviewscope.sqlite", "Rating history database path (empty to disable history)")
}

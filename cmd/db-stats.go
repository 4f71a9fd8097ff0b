package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/images"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of users, recipes, saved recipes and newsletter subscribers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := openDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Printf("Database Statistics (%s):\n", cfg.Database.Driver)
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Recipes: %s\n", humanize.Comma(stats.Recipes))
		for _, meal := range database.MealTypes {
			fmt.Printf("  %s: %s\n", meal, humanize.Comma(stats.RecipesByMeal[meal]))
		}
		fmt.Printf("Saved Recipes: %s\n", humanize.Comma(stats.SavedRecipes))
		fmt.Printf("Newsletter Subscribers: %s\n", humanize.Comma(stats.Subscribers))

		if cfg.Images != nil && cfg.Images.Enabled {
			used, err := images.DiskUsage(cmd.Context(), cfg.Images.CacheDir)
			if err != nil {
				log.Warn("Failed to get image cache disk usage", "error", err)
			} else {
				fmt.Printf("Image Cache Disk Usage: %.1f%%\n", used)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}

package cmd

import (
	"fmt"

	"github.com/mealshare/mealshare/internal/engine"
	"github.com/spf13/cobra"
)

var newsletterCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Manage the newsletter",
}

var newsletterSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the newsletter digest now",
	Long:  `Email the recipes of the configured lookback window to every subscriber, without waiting for the schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.Email == nil || !cfg.Email.Enabled {
			return fmt.Errorf("email is disabled, enable it to send the newsletter")
		}

		db, err := openDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		engine, err := engine.New(cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer engine.Close() //nolint: errcheck

		sent, err := engine.SendDigest(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to send newsletter: %w", err)
		}
		fmt.Printf("Newsletter sent to %d subscriber(s)\n", sent)
		return nil
	},
}

func init() {
	newsletterCmd.AddCommand(newsletterSendCmd)
	rootCmd.AddCommand(newsletterCmd)
}

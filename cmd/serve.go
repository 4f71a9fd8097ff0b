package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/api"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/internal/gravatar"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Mealshare server",
	Long:  `Start the Mealshare web server together with the scheduled newsletter and cache jobs.`,
	Example: `mealshare serve --config config.yml
mealshare serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		log.Fatalf("invalid gravatar config: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	engine, err := engine.New(cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close() //nolint:errcheck

	server, err := api.New(cfg, engine)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})

	log.Info("mealshare started successfully", "driver", cfg.Database.Driver, "cache", cfg.Cache.Type)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("mealshare stopped with error", "error", err)
		return
	}
	log.Info("shutting down gracefully...")
}

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.mealshare, /etc/mealshare)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   "mealshare",
	Short: "Mealshare is a recipe sharing website",
	Long:  `Mealshare lets people share their recipes, browse them by meal, save their favourites and get new recipes by email.`,
	Example: `mealshare serve --config config.yml
  mealshare serve -c /path/to/config.yml --log-level debug
  mealshare db-stats`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
	},
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Unknown log level, defaulting to info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// logToFile mirrors the log output into the --log-file file.
func logToFile() {
	path := rootCmdPersistentFlags.LogFile
	if path == "" {
		return
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Error("Failed to open log file", "file", path, "error", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.Debug("Logging to file", "file", path)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	return cfg
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(Version))
}

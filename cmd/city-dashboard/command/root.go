// Package command provides the city-dashboard CLI. The serve sub-command
// runs the HTTP API with periodic refresh; show fetches every feed once
// for a city and prints the result.
//
//	./city-dashboard serve [-c /path/of/config.yaml]
//	./city-dashboard show --city Paris [-c /path/of/config.yaml]
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/city-dashboard/internal/config"
	"github.com/i474232898/city-dashboard/internal/logging"
)

var (
	cfgPath string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "city-dashboard",
	Short: "Weather, air quality, news and parking for one selected city",
	Long: `city-dashboard aggregates four public data feeds (OpenWeatherMap,
OpenAQ, NewsAPI and Google Places) around a selected city. Feeds without
a configured API key serve deterministic synthetic data instead.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	if err := logging.Init(c.LogLevel, c.LogFormat); err != nil {
		return fmt.Errorf("logging.Init: %w", err)
	}
	cfg = c
	return nil
}

// Execute runs the rootCmd and exits non-zero when the selected command
// fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path (optional)",
	)
	rootCmd.AddCommand(serveCmd, showCmd)
}

// fixConfigPath falls back to the CONFIG_FILE environment variable when no
// --config flag was given. Without either, only .env and the environment
// are consulted.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	cfgPath = os.Getenv("CONFIG_FILE")
}

// Command agentcore supervises AI coding-agent CLIs and normalizes their
// streaming output into one canonical event model.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agentcore/agenterr"
	"agentcore/config"

	// Register the built-in agent parsers.
	_ "agentcore/parse/claudefmt"
	_ "agentcore/parse/codexfmt"
	_ "agentcore/parse/geminifmt"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "agentcore",
	Short: "Supervise AI coding-agent CLIs and normalize their output",
	Long: `Agentcore launches agent CLI processes (Claude, Codex, Gemini), parses
their JSON-lines output into one canonical event stream, classifies
failures into a stable error taxonomy, and aggregates token usage.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "agentcore.yaml", "Config file path (defaults apply if absent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger creates a structured logger with the configured verbosity.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and installs any pattern overrides into
// the default pattern registry.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyPatterns(agenterr.Defaults); err != nil {
		return nil, fmt.Errorf("apply pattern overrides: %w", err)
	}
	return cfg, nil
}

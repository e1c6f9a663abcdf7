// cmd/docgen/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/julianshen/docgen/internal/config"
	"github.com/julianshen/docgen/internal/logging"
	"github.com/julianshen/docgen/internal/runner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
	envFile    string
)

func versionString() string {
	return fmt.Sprintf("docgen %s (commit: %s, built: %s)", version, commit, date)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docgen",
		Short:         "Generate documentation for a repository with an AI assistant",
		Long:          "docgen walks a repository, asks an AI assistant to document every source directory, and writes a project overview.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/docgen/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment overrides")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(showCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file, the config file and the DOCGEN_*
// environment overrides, in that order.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(config.ExpandHome(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogging routes log output per cfg.Log. The caller closes the result.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	dir := cfg.Log.Dir
	if dir != "" {
		dir = config.ExpandHome(dir)
	}
	return logging.Setup(logging.Config{Dir: dir, Dev: cfg.Log.Dev})
}

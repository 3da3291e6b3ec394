package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/semmidev/argus/internal/app"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/usecase"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - database backup orchestrator",
	Long: `Argus backs up a configured set of databases, packages each backup as a
compressed archive, delivers copies to the configured storage targets,
prunes expired copies and reports the outcome.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(usecase.ExitConfig)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "path to config file")
}

// loadApp builds the application from the config file. Any failure here is
// fatal and happens before a single backup job starts.
func loadApp() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}

	return application, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

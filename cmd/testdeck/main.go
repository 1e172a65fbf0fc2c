// Package main is the entry point for the testdeck CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "testdeck",
		Short:   "testdeck: test-run orchestration dashboard",
		Version: version,
	}
	root.PersistentFlags().String("config", "", "path to "+config.FileName+" (default: search up from the working directory)")

	root.AddCommand(
		dashboardCmd(),
		runCmd(),
		historyCmd(),
		initCmd(),
	)

	return root
}

// loadConfig loads the config named by --config, or searches for one. When
// none exists the defaults are used with a project name detected from the
// working directory. The returned dir is where journals live.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		found, err := config.Find()
		if errors.Is(err, config.ErrNotFound) {
			dir, wdErr := os.Getwd()
			if wdErr != nil {
				return nil, "", fmt.Errorf("get working directory: %w", wdErr)
			}
			cfg := config.Defaults()
			cfg.Project.Name = config.DetectProjectName(dir)
			return &cfg, dir, nil
		}
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}

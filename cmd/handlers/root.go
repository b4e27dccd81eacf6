/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"necromancer/internal/config"
	"necromancer/internal/logger"
	"necromancer/internal/server"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "necromancer",
		Short: "Portfolio Necromancer builds a portfolio site from your digital wreckage.",
		Long: `Portfolio Necromancer scrapes your email, Drive, Slack, Figma and
screenshot folders for finished work, files every project under Writing,
Design, Code or Miscellaneous Unicorn Work, writes a short summary for each
and renders a static portfolio website.

AI classification and summaries use Gemini when an API key is configured;
without one the keyword rules and templates produce the same kind of output.

Examples:
  # Create an example config file
  necromancer init

  # Generate a portfolio with the default config
  necromancer generate

  # Use a custom config file and output name
  necromancer generate --config my-config.yaml --output my-portfolio`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./necromancer.yaml or $HOME/necromancer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewClassifyCmd())
	rootCmd.AddCommand(NewReviewCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewSourcesCmd())
	rootCmd.AddCommand(NewAuthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n\n⚠️  Operation cancelled by user")
			stop()
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "\n❌ Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger.Configure(level, cfg.Logging.Format)

	if cfgFile != "" {
		logger.Debug("Using config file", "path", cfgFile)
	}
	return cfg, nil
}

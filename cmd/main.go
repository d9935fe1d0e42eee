// Command skate-league runs the league registration server and its
// maintenance commands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	configPath string
	quiet      bool
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skate-league",
		Short:         "Atmos Skate League registration service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose = !quiet
			logger.Init("skate-league", verbose, false, io.Discard)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LEAGUE_CONFIG"), "optional config file (yaml, json, toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors (to stderr)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(eventsCmd)
	return rootCmd
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/git-pkgs/npmchart/all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "npmchart",
		Short:        "Charts of npm package downloads",
		Long:         "npmchart fetches npm registry metadata and daily download counts, and serves or prints download charts.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newDownloadsCmd(&configPath),
		newChartCmd(&configPath),
	)
	return rootCmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/npmchart/internal/chart"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

func newDownloadsCmd(configPath *string) *cobra.Command {
	var (
		flags  plotFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "downloads <package>",
		Short: "Print the shaped download series of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, plot, err := loadPlot(cmd.Context(), *configPath, args[0], &flags)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plot)
			}
			return printDownloads(cmd.OutOrStdout(), st, plot)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plot as JSON")
	return cmd
}

func printDownloads(w io.Writer, st view.State, plot core.Plot) error {
	meta := st.Metadata
	fmt.Fprintf(w, "%s@%s\n", meta.Name, meta.Version)
	if meta.Description != "" {
		fmt.Fprintln(w, meta.Description)
	}
	fmt.Fprintln(w)

	if len(plot.Points) == 0 {
		fmt.Fprintln(w, "No downloads recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, pt := range plot.Points {
		fmt.Fprintf(tw, "%s\t%s\t\n", pt.Date, humanize.Comma(pt.Count))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, chart.ColoredSparkline(plot))
	fmt.Fprintf(w, "%s total downloads in range (%s to %s)\n", humanize.Comma(plot.Total), plot.Start(), plot.End())
	return nil
}

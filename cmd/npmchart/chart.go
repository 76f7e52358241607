package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/npmchart/internal/chart"
)

func newChartCmd(configPath *string) *cobra.Command {
	var (
		flags         plotFlags
		output        string
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "chart <package>",
		Short: "Render the download chart of a package to an SVG or PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := chart.ParseFormat(filepath.Ext(output))
			if err != nil {
				return err
			}

			_, plot, err := loadPlot(cmd.Context(), *configPath, args[0], &flags)
			if err != nil {
				return err
			}

			opts := chart.Options{Width: width, Height: height, Format: format}
			var buf bytes.Buffer
			err = chart.Render(&buf, plot, opts)
			if errors.Is(err, chart.ErrNoData) {
				buf.Reset()
				err = chart.Placeholder(&buf, "No downloads recorded", opts)
			}
			if err != nil {
				return fmt.Errorf("rendering chart: %w", err)
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing chart: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d points)\n", output, len(plot.Points))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "chart.svg", "Output file; the extension picks svg or png, - writes SVG to stdout")
	cmd.Flags().IntVar(&width, "width", chart.DefaultWidth, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", chart.DefaultHeight, "Image height in pixels")
	return cmd
}

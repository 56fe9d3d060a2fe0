package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens/internal/logging"
	"github.com/KaramelBytes/datalens/internal/plot"
	"github.com/KaramelBytes/datalens/internal/session"
	"github.com/KaramelBytes/datalens/internal/utils"
)

var (
	plKind   string
	plX      string
	plY      string
	plOutput string
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Render a box, histogram, line or scatter chart to PNG",
	Example: `  datalens plot data.csv --x a
  datalens plot data.csv --kind hist --x a -o a.png
  datalens plot data.csv --kind scatter --x a --y b`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plot.ParseKind(plKind)
		if err != nil {
			return err
		}
		wb, err := openFile(args[0])
		if err != nil {
			return err
		}
		wb.SetKind(kind)
		if err := wb.SelectX(plX); err != nil {
			return err
		}
		if err := wb.SelectY(plY); err != nil {
			return err
		}
		ch, err := wb.Analyze()
		if err != nil {
			return fmt.Errorf("%s: %s", session.Title(err), session.Message(err))
		}
		out := plOutput
		if out == "" {
			out = defaultChartPath(args[0], kind, plX, plY)
		}
		if err := utils.SafeWriteFile(out, ch.PNG); err != nil {
			return err
		}
		ctx := logging.WithAttrs(cmd.Context(), "command", "plot", "session_id", wb.ID)
		logging.From(ctx).Info("chart written", "input", wb.Path(), "output", out, "bytes", len(ch.PNG))
		okColor.Fprintf(cmd.OutOrStdout(), "✓ %s written to %s\n", ch.Title, out)
		return nil
	},
}

// defaultChartPath names the chart after the input, e.g. data_scatter_a_b.png.
func defaultChartPath(input string, kind plot.Kind, x, y string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	parts := []string{base, kind.Slug(), x}
	if kind.NeedsY() && y != "" {
		parts = append(parts, y)
	}
	name := strings.Join(parts, "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '-'
		}
		return r
	}, name)
	return name + ".png"
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVarP(&plKind, "kind", "k", "box", "chart kind: box | histogram | line | scatter")
	plotCmd.Flags().StringVar(&plX, "x", "", "numeric column to plot (X for scatter)")
	plotCmd.Flags().StringVar(&plY, "y", "", "Y column (scatter only)")
	plotCmd.Flags().StringVarP(&plOutput, "output", "o", "", "output PNG path (default <file>_<kind>_<x>.png)")
}

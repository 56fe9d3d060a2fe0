package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/logging"
	"github.com/KaramelBytes/datalens/internal/textview"
	"github.com/KaramelBytes/datalens/internal/utils"
)

var (
	smFormat string
	smQuiet  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <files...>",
	Short: "Print summary statistics for the numeric columns of one or more files",
	Example: `  datalens summary data.csv
  datalens summary 'exports/*.parquet' --format markdown
  datalens summary a.dta b.sas7bdat --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(smFormat))
		switch format {
		case "text", "markdown", "md", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use text|markdown|json)", smFormat)
		}
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}

		ctx := logging.WithAttrs(cmd.Context(), "command", "summary", "format", format)
		out := cmd.OutOrStdout()
		var all []*analysis.Summary
		total := len(files)
		for i, path := range files {
			if !smQuiet && total > 1 && format != "json" {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			wb, err := openFile(path)
			if err != nil {
				return err
			}
			s, err := wb.Summary()
			if err != nil {
				return err
			}
			logging.From(ctx).Debug("summarized", "file", path, "session_id", wb.ID, "numeric", len(s.Cols))
			switch format {
			case "json":
				all = append(all, s)
			case "markdown", "md":
				fmt.Fprintln(out, s.Markdown())
			default:
				fmt.Fprintln(out, textview.Summary(s))
			}
		}
		if format == "json" {
			var v any = all
			if len(all) == 1 {
				v = all[0]
			}
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&smFormat, "format", "f", "text", "output format: text | markdown | json")
	summaryCmd.Flags().BoolVarP(&smQuiet, "quiet", "q", false, "suppress progress lines")
}

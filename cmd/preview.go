package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens/internal/textview"
)

var (
	pvRows int
	pvCols int
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the first rows and columns of a data file",
	Example: `  datalens preview data.csv
  datalens preview survey.sas7bdat --rows 20 --cols 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openFile(args[0])
		if err != nil {
			return err
		}
		t, _ := wb.Table()
		c := settings()
		rows, cols := c.PreviewRows, c.PreviewCols
		if pvRows > 0 {
			rows = pvRows
		}
		if pvCols > 0 {
			cols = pvCols
		}
		fmt.Fprint(cmd.OutOrStdout(), textview.Preview(wb.Name(), t, t.Head(rows, cols)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVar(&pvRows, "rows", 0, "rows to show (default from config, 10)")
	previewCmd.Flags().IntVar(&pvCols, "cols", 0, "columns to show (default from config, 5)")
}

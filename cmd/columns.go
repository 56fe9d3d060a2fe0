package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var colAll bool

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List the numeric columns available for plotting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !colAll {
			for _, name := range wb.Choices() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		t, _ := wb.Table()
		for i := 0; i < t.NumCols(); i++ {
			c := t.Column(i)
			fmt.Fprintf(out, "%s\t%s\n", c.Name, c.Kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().BoolVarP(&colAll, "all", "a", false, "list every column with its inferred kind")
}

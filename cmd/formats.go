package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens/internal/loader"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported file formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, f := range loader.Formats() {
			fmt.Fprintf(out, "%-10s %-10s %s\n", strings.Join(f.Extensions, ","), f.Format, f.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

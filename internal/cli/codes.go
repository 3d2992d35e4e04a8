package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the accepted coordinate system codes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, c := range crs.Codes() {
			marker := " "
			if c == crs.Default {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", marker, c, c.Name())
		}
	},
}

func init() {
	rootCmd.AddCommand(codesCmd)
}

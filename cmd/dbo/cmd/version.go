package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/dbo/cmd/dbo/common"
	"boscoin.io/dbo/lib/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(c *cobra.Command, args []string) {
		if !c.Flags().Changed("format") {
			fmt.Fprintf(c.OutOrStdout(), "%s\n", version.ToDetailVersion())
			return
		}

		if err := printOutput(c, version.Get()); err != nil {
			cmdcommon.PrintError(c, err)
		}
	},
}

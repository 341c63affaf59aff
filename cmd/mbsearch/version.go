package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mbsearch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if OutputFormat(formatFlag) == FormatJSON {
			return printResponse(cmd, version.Fields())
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

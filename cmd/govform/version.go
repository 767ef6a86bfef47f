package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of govform",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "govform version %s\n", strings.TrimSpace(govform.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ironlog"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ironlog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ironlog version %s\n", strings.TrimSpace(ironlog.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

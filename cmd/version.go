package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
// It is meant to be overridden at build time via ldflags:
//
//	go build -ldflags "-X github.com/mkollner/cfss/cmd.Version=1.0.0"
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

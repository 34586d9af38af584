package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stockmarket CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockmarket version %s\n", version)
		fmt.Println("An in-world virtual stock market engine")
		fmt.Println("https://github.com/rustyeddy/stockmarket")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

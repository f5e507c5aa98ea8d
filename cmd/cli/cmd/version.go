// Package cmd - version command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the catalog-sync version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("catalog-sync %s\n", version)
	},
}

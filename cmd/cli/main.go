// Package main - Entry point for the catalog sync CLI
package main

import (
	"fmt"
	"os"

	"catalog-sync/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

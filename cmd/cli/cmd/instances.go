// Package cmd - instances command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var instancesOrg string

// instancesCmd represents the instances command
var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List the provider instances registered for an organization",
	Long: `List every provider instance known for one organization, including
environment, status and last successful import time.

Examples:
  catalog-sync instances --org org_1`,
	RunE: runInstances,
}

func init() {
	instancesCmd.Flags().StringVar(&instancesOrg, "org", "", "organization id (required)")
	instancesCmd.MarkFlagRequired("org")
}

func runInstances(cmd *cobra.Command, args []string) error {
	_, store, err := newEngine()
	if err != nil {
		return err
	}

	instances, err := store.ListInstances(context.Background(), instancesOrg)
	if err != nil {
		return err
	}

	fmt.Printf("%d instances\n\n", len(instances))
	return printJSON(instances)
}

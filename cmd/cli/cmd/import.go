// Package cmd - import command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	importOrg      string
	importInstance string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a provider account's catalog into the local mirror",
	Long: `Fetch all products, prices and coupons from the configured payment
provider for one instance and upsert them into the local catalog store.

Re-running an import is safe: entities are keyed by (org, instance,
provider id) and existing rows are replaced in place.

Examples:
  catalog-sync import --org org_1 --instance inst_sandbox`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOrg, "org", "", "organization id (required)")
	importCmd.Flags().StringVar(&importInstance, "instance", "", "instance id to import (required)")
	importCmd.MarkFlagRequired("org")
	importCmd.MarkFlagRequired("instance")
}

func runImport(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	fmt.Printf("Importing catalog for instance %s...\n", importInstance)
	result, err := engine.ImportCatalog(context.Background(), importOrg, importInstance)
	if err != nil {
		return err
	}
	return printJSON(result)
}

// Package cmd - compare command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	compareOrg    string
	compareSource string
	compareTarget string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the imported catalogs of two instances",
	Long: `Match products between two previously imported instances and report
entities missing on either side plus field differences on matched pairs.

Comparison runs entirely against the local mirror; run import on both
instances first.

Examples:
  catalog-sync compare --org org_1 --source inst_sandbox --target inst_prod`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareOrg, "org", "", "organization id (required)")
	compareCmd.Flags().StringVar(&compareSource, "source", "", "source instance id (required)")
	compareCmd.Flags().StringVar(&compareTarget, "target", "", "target instance id (required)")
	compareCmd.MarkFlagRequired("org")
	compareCmd.MarkFlagRequired("source")
	compareCmd.MarkFlagRequired("target")
}

func runCompare(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Compare(context.Background(), compareOrg, compareSource, compareTarget)
	if err != nil {
		return err
	}

	fmt.Printf("Matched %d, missing in target %d, missing in source %d\n\n",
		len(result.Matched), len(result.MissingInTarget), len(result.MissingInSource))
	return printJSON(result)
}

// Package cmd - push command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"catalog-sync/internal/syncer"
)

var (
	pushOrg    string
	pushSource string
	pushTarget string
	pushIDs    []string
	pushBy     string
)

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push products from one instance to another",
	Long: `Replicate selected products, along with their active prices, from a
source instance into a target instance on the provider.

Every created entity carries provenance metadata naming its origin, and a
lineage record is written so re-pushing the same product is a no-op.

Examples:
  catalog-sync push --org org_1 --source inst_a --target inst_b --ids prod_123
  catalog-sync push --org org_1 --source inst_a --target inst_b --ids prod_123,prod_456`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushOrg, "org", "", "organization id (required)")
	pushCmd.Flags().StringVar(&pushSource, "source", "", "source instance id (required)")
	pushCmd.Flags().StringVar(&pushTarget, "target", "", "target instance id (required)")
	pushCmd.Flags().StringSliceVar(&pushIDs, "ids", nil, "provider product ids to push (required)")
	pushCmd.Flags().StringVar(&pushBy, "by", "cli", "actor recorded on lineage entries")
	pushCmd.MarkFlagRequired("org")
	pushCmd.MarkFlagRequired("source")
	pushCmd.MarkFlagRequired("target")
	pushCmd.MarkFlagRequired("ids")
}

func runPush(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Push(context.Background(), syncer.PushRequest{
		OrgID:            pushOrg,
		SourceInstanceID: pushSource,
		TargetInstanceID: pushTarget,
		SourceStripeIDs:  pushIDs,
		PushedBy:         pushBy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Pushed %d, skipped %d, errors %d\n\n", result.Pushed, result.Skipped, result.Errors)
	return printJSON(result)
}

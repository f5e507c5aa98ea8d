// Package cmd - promote command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"catalog-sync/internal/syncer"
)

var (
	promoteOrg    string
	promoteSource string
	promoteTarget string
	promoteIDs    []string
	promoteBy     string
)

// promoteCmd represents the promote command
var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote products from a sandbox instance to production",
	Long: `Replicate vetted sandbox products into a production instance. Unlike
push, a new price supersedes any active production price with the same
billing interval: the old price is archived before the replacement is
created, so the product never carries two active prices for one interval.

The source instance must be a sandbox and the target must be production.

Examples:
  catalog-sync promote --org org_1 --source inst_sandbox --target inst_prod --ids prod_123`,
	RunE: runPromote,
}

func init() {
	promoteCmd.Flags().StringVar(&promoteOrg, "org", "", "organization id (required)")
	promoteCmd.Flags().StringVar(&promoteSource, "source", "", "sandbox instance id (required)")
	promoteCmd.Flags().StringVar(&promoteTarget, "target", "", "production instance id (required)")
	promoteCmd.Flags().StringSliceVar(&promoteIDs, "ids", nil, "provider product ids to promote (required)")
	promoteCmd.Flags().StringVar(&promoteBy, "by", "cli", "actor recorded on lineage entries")
	promoteCmd.MarkFlagRequired("org")
	promoteCmd.MarkFlagRequired("source")
	promoteCmd.MarkFlagRequired("target")
	promoteCmd.MarkFlagRequired("ids")
}

func runPromote(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Promote(context.Background(), syncer.PromoteRequest{
		OrgID:            promoteOrg,
		SourceInstanceID: promoteSource,
		TargetInstanceID: promoteTarget,
		SourceStripeIDs:  promoteIDs,
		PushedBy:         promoteBy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Promoted %d, skipped %d, errors %d\n\n", result.Pushed, result.Skipped, result.Errors)
	return printJSON(result)
}

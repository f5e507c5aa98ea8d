package syncer

import (
	"context"
	"sort"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
)

// MatchStrategy decides which products of two instances represent the same
// logical product. External ids are instance-local and never comparable,
// so every strategy is a heuristic keyed on something else.
type MatchStrategy interface {
	// Name identifies the strategy in compare output
	Name() string

	// Key returns the cross-instance matching key for a product
	Key(p *catalog.Product) string
}

// NameMatch is the baseline fuzzy strategy: case-sensitive exact display
// name. Renamed products produce false misses and identically named but
// unrelated products produce false matches; callers must treat the result
// as best-effort.
type NameMatch struct{}

// Name identifies the strategy
func (NameMatch) Name() string { return "display_name_exact" }

// Key returns the product's display name
func (NameMatch) Key(p *catalog.Product) string { return p.Name }

// ProductSummary is one product in compare output
type ProductSummary struct {
	StripeID   string `json:"stripe_id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	PriceCount int    `json:"price_count"`
}

// MatchedPair is one cross-instance product match plus its field diff.
// An empty Diff means the pair is a true duplicate.
type MatchedPair struct {
	Key            string   `json:"key"`
	SourceStripeID string   `json:"source_stripe_id"`
	TargetStripeID string   `json:"target_stripe_id"`
	Diff           []string `json:"diff"`
}

// CompareResult is the three-way diff between two instances' catalogs
type CompareResult struct {
	Strategy        string           `json:"strategy"`
	Matched         []MatchedPair    `json:"matched"`
	MissingInTarget []ProductSummary `json:"missing_in_target"`
	MissingInSource []ProductSummary `json:"missing_in_source"`
}

// Compare computes the diff between two instances' last-imported
// snapshots. It reads only the local mirror, never the provider, and its
// output is deterministic for a fixed snapshot.
func (e *Engine) Compare(ctx context.Context, orgID, sourceInstanceID, targetInstanceID string) (*CompareResult, error) {
	if sourceInstanceID == targetInstanceID {
		return nil, errors.Validation("source and target instance must differ")
	}

	sourceProducts, err := e.store.ListProducts(ctx, orgID, sourceInstanceID)
	if err != nil {
		return nil, err
	}
	targetProducts, err := e.store.ListProducts(ctx, orgID, targetInstanceID)
	if err != nil {
		return nil, err
	}
	sourceCounts, err := e.priceCounts(ctx, orgID, sourceInstanceID)
	if err != nil {
		return nil, err
	}
	targetCounts, err := e.priceCounts(ctx, orgID, targetInstanceID)
	if err != nil {
		return nil, err
	}

	// First occurrence wins on duplicate keys; lists arrive sorted by
	// name so this is deterministic.
	targetByKey := make(map[string]*catalog.Product, len(targetProducts))
	for i := range targetProducts {
		key := e.match.Key(&targetProducts[i])
		if _, seen := targetByKey[key]; !seen {
			targetByKey[key] = &targetProducts[i]
		}
	}

	result := &CompareResult{
		Strategy:        e.match.Name(),
		Matched:         []MatchedPair{},
		MissingInTarget: []ProductSummary{},
		MissingInSource: []ProductSummary{},
	}

	matchedTargets := make(map[string]bool)
	for i := range sourceProducts {
		src := &sourceProducts[i]
		key := e.match.Key(src)
		tgt, ok := targetByKey[key]
		if !ok {
			result.MissingInTarget = append(result.MissingInTarget, summarize(src, sourceCounts))
			continue
		}
		matchedTargets[tgt.StripeID] = true
		result.Matched = append(result.Matched, MatchedPair{
			Key:            key,
			SourceStripeID: src.StripeID,
			TargetStripeID: tgt.StripeID,
			Diff:           fieldDiff(src, tgt, sourceCounts[src.StripeID], targetCounts[tgt.StripeID]),
		})
	}

	for i := range targetProducts {
		tgt := &targetProducts[i]
		if !matchedTargets[tgt.StripeID] {
			result.MissingInSource = append(result.MissingInSource, summarize(tgt, targetCounts))
		}
	}

	sortCompareResult(result)
	return result, nil
}

// priceCounts groups an instance's price rows by owning product
func (e *Engine) priceCounts(ctx context.Context, orgID, instanceID string) (map[string]int, error) {
	prices, err := e.store.ListPrices(ctx, orgID, instanceID, "")
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(prices))
	for i := range prices {
		counts[prices[i].ProductStripeID]++
	}
	return counts, nil
}

func summarize(p *catalog.Product, counts map[string]int) ProductSummary {
	return ProductSummary{
		StripeID:   p.StripeID,
		Name:       p.Name,
		Active:     p.Active,
		PriceCount: counts[p.StripeID],
	}
}

// fieldDiff reports the shallow fields that differ between a matched pair
func fieldDiff(src, tgt *catalog.Product, srcPrices, tgtPrices int) []string {
	diff := []string{}
	if src.UnitLabel != tgt.UnitLabel {
		diff = append(diff, "unit_label")
	}
	if src.Active != tgt.Active {
		diff = append(diff, "active")
	}
	if src.Description != tgt.Description {
		diff = append(diff, "description")
	}
	if src.TaxCode != tgt.TaxCode {
		diff = append(diff, "tax_code")
	}
	if src.Type != tgt.Type {
		diff = append(diff, "type")
	}
	if srcPrices != tgtPrices {
		diff = append(diff, "price_count")
	}
	return diff
}

// sortCompareResult orders every section by name then stripe id so output
// never depends on map iteration order
func sortCompareResult(r *CompareResult) {
	sort.Slice(r.Matched, func(i, j int) bool {
		if r.Matched[i].Key != r.Matched[j].Key {
			return r.Matched[i].Key < r.Matched[j].Key
		}
		return r.Matched[i].SourceStripeID < r.Matched[j].SourceStripeID
	})
	sortSummaries(r.MissingInTarget)
	sortSummaries(r.MissingInSource)
}

func sortSummaries(list []ProductSummary) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].StripeID < list[j].StripeID
	})
}

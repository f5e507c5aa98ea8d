package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"catalog-sync/internal/catalog"
)

// ImportResult summarizes one catalog import
type ImportResult struct {
	ImportedProducts int `json:"imported_products"`
	ImportedPrices   int `json:"imported_prices"`
	ImportedCoupons  int `json:"imported_coupons"`

	// Totals seen on the provider side; a gap against the imported
	// counts means individual rows failed to map or persist.
	TotalStripeProducts int `json:"total_stripe_products"`
	TotalStripePrices   int `json:"total_stripe_prices"`
	TotalStripeCoupons  int `json:"total_stripe_coupons"`
}

// ImportCatalog pulls the full catalog of one instance and upserts it into
// the local mirror. Re-running against an unchanged provider catalog is a
// no-op: every write is an upsert on the natural key.
//
// Individual malformed entries are logged and skipped; partial success is
// the norm for real catalogs and is reported through the count gap, never
// as an operation failure.
func (e *Engine) ImportCatalog(ctx context.Context, orgID, instanceID string) (*ImportResult, error) {
	inst, err := e.resolveInstance(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	client := e.clients(inst)
	now := time.Now().UTC()
	result := &ImportResult{}

	log := e.log.With(
		zap.String("org_id", orgID),
		zap.String("instance", inst.Name),
	)

	// The provider's default product listing silently excludes one type
	// discriminant, so both types are fetched explicitly and concatenated.
	var rawProducts []map[string]interface{}
	for _, productType := range []string{catalog.ProductTypeService, catalog.ProductTypeGood} {
		batch, err := client.PaginateAll(ctx, "/v1/products", map[string]string{"type": productType})
		if err != nil {
			return nil, err
		}
		rawProducts = append(rawProducts, batch...)
	}
	result.TotalStripeProducts = len(rawProducts)

	for _, raw := range rawProducts {
		product := mapProduct(orgID, instanceID, raw, now)
		if product.StripeID == "" {
			log.Warn("skipping product without id")
			continue
		}
		if err := e.store.UpsertProduct(ctx, product); err != nil {
			log.Warn("product upsert failed",
				zap.String("stripe_id", product.StripeID),
				zap.Error(err))
			continue
		}
		result.ImportedProducts++
	}

	rawPrices, err := client.PaginateAll(ctx, "/v1/prices", map[string]string{"expand[0]": "data.tiers"})
	if err != nil {
		return nil, err
	}
	result.TotalStripePrices = len(rawPrices)
	for _, raw := range rawPrices {
		price := mapPrice(orgID, instanceID, raw, now)
		if price.StripeID == "" || price.ProductStripeID == "" {
			log.Warn("skipping price without id or product reference",
				zap.String("stripe_id", price.StripeID))
			continue
		}
		if err := e.store.UpsertPrice(ctx, price); err != nil {
			log.Warn("price upsert failed",
				zap.String("stripe_id", price.StripeID),
				zap.Error(err))
			continue
		}
		result.ImportedPrices++
	}

	rawCoupons, err := client.PaginateAll(ctx, "/v1/coupons", nil)
	if err != nil {
		return nil, err
	}
	result.TotalStripeCoupons = len(rawCoupons)
	for _, raw := range rawCoupons {
		coupon := mapCoupon(orgID, instanceID, raw, now)
		if coupon.StripeID == "" {
			log.Warn("skipping coupon without id")
			continue
		}
		if err := e.store.UpsertCoupon(ctx, coupon); err != nil {
			log.Warn("coupon upsert failed",
				zap.String("stripe_id", coupon.StripeID),
				zap.Error(err))
			continue
		}
		result.ImportedCoupons++
	}

	if err := e.store.UpdateLastSync(ctx, orgID, instanceID); err != nil {
		log.Warn("failed to update last_sync_at", zap.Error(err))
	}
	if err := e.store.AppendSyncLog(ctx, &catalog.SyncLogEntry{
		OrgID:      orgID,
		InstanceID: instanceID,
		EntityType: "catalog",
		Action:     "import",
		Detail: datatypes.JSONMap{
			"imported_products": result.ImportedProducts,
			"imported_prices":   result.ImportedPrices,
			"imported_coupons":  result.ImportedCoupons,
			"total_products":    result.TotalStripeProducts,
			"total_prices":      result.TotalStripePrices,
			"total_coupons":     result.TotalStripeCoupons,
		},
	}); err != nil {
		log.Warn("failed to append sync log", zap.Error(err))
	}

	log.Info("catalog import complete",
		zap.Int("products", result.ImportedProducts),
		zap.Int("prices", result.ImportedPrices),
		zap.Int("coupons", result.ImportedCoupons))
	return result, nil
}

package syncer

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
	"catalog-sync/internal/provider"
)

// Push statuses reported per source id
const (
	StatusPushed        = "pushed"
	StatusPromoted      = "promoted"
	StatusAlreadyPushed = "already_pushed"
	StatusError         = "error"
)

// PushRequest identifies one cross-instance push batch
type PushRequest struct {
	OrgID            string
	SourceInstanceID string
	TargetInstanceID string
	SourceStripeIDs  []string
	PushedBy         string
}

// PushDetail is the per-item outcome
type PushDetail struct {
	SourceStripeID string `json:"source_stripe_id"`
	TargetStripeID string `json:"target_stripe_id,omitempty"`
	Status         string `json:"status"`
	PricesPushed   int    `json:"prices_pushed"`
	Error          string `json:"error,omitempty"`
}

// PushResult aggregates a push batch
type PushResult struct {
	Pushed  int          `json:"pushed_products"`
	Skipped int          `json:"skipped"`
	Errors  int          `json:"errors"`
	Details []PushDetail `json:"details"`
}

// trace is the provenance metadata injected into every entity created on
// the target instance
type trace struct {
	orgID            string
	sourceInstanceID string
	sourceStripeID   string
}

// createWithTrace decorates the generic create call with traceability
// metadata so target-side entities always carry their origin. This is the
// single injection point for every entity type.
func (e *Engine) createWithTrace(ctx context.Context, client ProviderAPI, path string, params map[string]string, tr trace) (map[string]interface{}, error) {
	params["metadata[synced_org_id]"] = tr.orgID
	params["metadata[synced_from_instance]"] = tr.sourceInstanceID
	params["metadata[synced_from_id]"] = tr.sourceStripeID
	return client.Request(ctx, http.MethodPost, path, params)
}

// Push replicates the named source products, with their active prices,
// onto the target instance. Each id is handled independently: a failure is
// recorded and the batch continues. A product whose lineage edge already
// exists is skipped without any network or store write.
func (e *Engine) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	if req.SourceInstanceID == req.TargetInstanceID {
		return nil, errors.Validation("source and target instance must differ")
	}
	if _, err := e.resolveInstance(ctx, req.OrgID, req.SourceInstanceID); err != nil {
		return nil, err
	}
	target, err := e.resolveInstance(ctx, req.OrgID, req.TargetInstanceID)
	if err != nil {
		return nil, err
	}
	client := e.clients(target)

	result := &PushResult{Details: []PushDetail{}}
	for _, sourceID := range req.SourceStripeIDs {
		detail := e.pushProduct(ctx, client, req, sourceID)
		switch detail.Status {
		case StatusPushed:
			result.Pushed++
		case StatusAlreadyPushed:
			result.Skipped++
		default:
			result.Errors++
		}
		result.Details = append(result.Details, detail)
	}

	e.log.Info("push batch complete",
		zap.String("org_id", req.OrgID),
		zap.String("source", req.SourceInstanceID),
		zap.String("target", req.TargetInstanceID),
		zap.Int("pushed", result.Pushed),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return result, nil
}

// pushProduct handles one source id end to end
func (e *Engine) pushProduct(ctx context.Context, client ProviderAPI, req PushRequest, sourceID string) PushDetail {
	detail := PushDetail{SourceStripeID: sourceID}

	source, err := e.store.GetProduct(ctx, req.OrgID, req.SourceInstanceID, sourceID)
	if err != nil {
		return e.failDetail(ctx, req, detail, "failed to read source product", err)
	}
	if source == nil {
		detail.Status = StatusError
		detail.Error = "source product not found"
		e.appendPushLog(ctx, req, catalog.EntityProduct, sourceID, detail.Error)
		return detail
	}

	// Idempotency guard: an existing lineage edge means this product was
	// already pushed to this target. No network call, no store write.
	existing, err := e.store.FindLineage(ctx, req.OrgID, catalog.EntityProduct,
		req.SourceInstanceID, sourceID, req.TargetInstanceID)
	if err != nil {
		return e.failDetail(ctx, req, detail, "failed to check lineage", err)
	}
	if existing != nil {
		detail.Status = StatusAlreadyPushed
		detail.TargetStripeID = existing.TargetStripeID
		return detail
	}

	created, err := e.createWithTrace(ctx, client, "/v1/products",
		buildProductParams(source),
		trace{req.OrgID, req.SourceInstanceID, sourceID})
	if err != nil {
		return e.failDetail(ctx, req, detail, "product create failed", err)
	}
	targetID, _ := created["id"].(string)
	if targetID == "" {
		detail.Status = StatusError
		detail.Error = "provider returned no product id"
		e.appendPushLog(ctx, req, catalog.EntityProduct, sourceID, detail.Error)
		return detail
	}
	detail.TargetStripeID = targetID

	now := time.Now().UTC()
	targetProduct := mapProduct(req.OrgID, req.TargetInstanceID, created, now)
	if err := e.store.UpsertProduct(ctx, targetProduct); err != nil {
		return e.failDetail(ctx, req, detail, "failed to persist target product", err)
	}
	if err := e.store.RecordLineage(ctx, &catalog.LineageRecord{
		OrgID:            req.OrgID,
		EntityType:       catalog.EntityProduct,
		SourceInstanceID: req.SourceInstanceID,
		SourceStripeID:   sourceID,
		TargetInstanceID: req.TargetInstanceID,
		TargetStripeID:   targetID,
		PushedBy:         req.PushedBy,
	}); err != nil {
		return e.failDetail(ctx, req, detail, "failed to record product lineage", err)
	}
	e.appendPushLog(ctx, req, catalog.EntityProduct, sourceID, "")

	detail.PricesPushed = e.pushPrices(ctx, client, req, source, targetID)
	detail.Status = StatusPushed
	return detail
}

// pushPrices replicates every active source price of one product. A price
// failure is logged and counted but never fails the containing product.
func (e *Engine) pushPrices(ctx context.Context, client ProviderAPI, req PushRequest, source *catalog.Product, targetProductID string) int {
	prices, err := e.store.ListActivePrices(ctx, req.OrgID, req.SourceInstanceID, source.StripeID)
	if err != nil {
		e.log.Warn("failed to load source prices",
			zap.String("product", source.StripeID),
			zap.Error(err))
		return 0
	}

	pushed := 0
	for i := range prices {
		price := &prices[i]
		if err := e.pushOnePrice(ctx, client, req, price, targetProductID); err != nil {
			e.log.Warn("price push failed",
				zap.String("price", price.StripeID),
				zap.String("product", source.StripeID),
				zap.Error(err))
			e.appendPushLog(ctx, req, catalog.EntityPrice, price.StripeID, err.Error())
			continue
		}
		pushed++
	}
	return pushed
}

func (e *Engine) pushOnePrice(ctx context.Context, client ProviderAPI, req PushRequest, price *catalog.Price, targetProductID string) error {
	if err := catalog.ValidateTiers(price.Tiers); err != nil {
		return err
	}
	created, err := e.createWithTrace(ctx, client, "/v1/prices",
		buildPriceParams(price, targetProductID),
		trace{req.OrgID, req.SourceInstanceID, price.StripeID})
	if err != nil {
		return err
	}
	targetID, _ := created["id"].(string)
	if targetID == "" {
		return errors.New(errors.TypeProvider, "provider returned no price id")
	}

	now := time.Now().UTC()
	targetPrice := mapPrice(req.OrgID, req.TargetInstanceID, created, now)
	if err := e.store.UpsertPrice(ctx, targetPrice); err != nil {
		return err
	}
	if err := e.store.RecordLineage(ctx, &catalog.LineageRecord{
		OrgID:            req.OrgID,
		EntityType:       catalog.EntityPrice,
		SourceInstanceID: req.SourceInstanceID,
		SourceStripeID:   price.StripeID,
		TargetInstanceID: req.TargetInstanceID,
		TargetStripeID:   targetID,
		PushedBy:         req.PushedBy,
	}); err != nil {
		return err
	}
	e.appendPushLog(ctx, req, catalog.EntityPrice, price.StripeID, "")
	return nil
}

// buildProductParams constructs the create-product request from a source
// row. Empty optional fields are omitted rather than sent as empty
// strings.
func buildProductParams(p *catalog.Product) map[string]string {
	params := map[string]string{
		"name": p.Name,
	}
	if p.Description != "" {
		params["description"] = p.Description
	}
	if p.UnitLabel != "" {
		params["unit_label"] = p.UnitLabel
	}
	if p.URL != "" {
		params["url"] = p.URL
	}
	if p.StatementDescriptor != "" {
		params["statement_descriptor"] = p.StatementDescriptor
	}
	// Metadata values come back from the store as JSON scalars; flatten
	// handles the stringification and drops nils.
	for k, v := range provider.FlattenParams(map[string]interface{}{"metadata": map[string]interface{}(p.Metadata)}) {
		params[k] = v
	}
	return params
}

// buildPriceParams constructs a create-price request preserving the
// source's billing scheme, carrying a tiered schedule verbatim.
func buildPriceParams(p *catalog.Price, targetProductID string) map[string]string {
	body := map[string]interface{}{
		"product":  targetProductID,
		"currency": p.Currency,
	}
	if p.Nickname != "" {
		body["nickname"] = p.Nickname
	}
	if p.LookupKey != "" {
		body["lookup_key"] = p.LookupKey
	}
	if p.TaxBehavior != "" {
		body["tax_behavior"] = p.TaxBehavior
	}
	if p.Type == catalog.PriceRecurring {
		recurring := map[string]interface{}{
			"interval": p.Interval,
		}
		if p.IntervalCount > 0 {
			recurring["interval_count"] = p.IntervalCount
		}
		if p.UsageType != "" {
			recurring["usage_type"] = p.UsageType
		}
		body["recurring"] = recurring
	}
	if p.BillingScheme == catalog.BillingTiered {
		body["billing_scheme"] = catalog.BillingTiered
		if p.TiersMode != "" {
			body["tiers_mode"] = p.TiersMode
		}
		tiers := make([]interface{}, 0, len(p.Tiers))
		for _, tier := range p.Tiers {
			entry := map[string]interface{}{}
			if tier.UpTo != nil {
				entry["up_to"] = *tier.UpTo
			} else {
				entry["up_to"] = "inf"
			}
			if tier.UnitAmount != nil {
				entry["unit_amount"] = *tier.UnitAmount
			} else if tier.UnitAmountDecimal.Valid {
				entry["unit_amount_decimal"] = tier.UnitAmountDecimal.Decimal
			}
			if tier.FlatAmount != nil {
				entry["flat_amount"] = *tier.FlatAmount
			}
			tiers = append(tiers, entry)
		}
		body["tiers"] = tiers
	} else {
		if p.UnitAmount != nil {
			body["unit_amount"] = *p.UnitAmount
		} else if p.UnitAmountDecimal.Valid {
			body["unit_amount_decimal"] = p.UnitAmountDecimal.Decimal
		}
	}
	if len(p.Metadata) > 0 {
		body["metadata"] = map[string]interface{}(p.Metadata)
	}
	return provider.FlattenParams(body)
}

func (e *Engine) failDetail(ctx context.Context, req PushRequest, detail PushDetail, msg string, err error) PushDetail {
	detail.Status = StatusError
	detail.Error = msg + ": " + err.Error()
	e.appendPushLog(ctx, req, catalog.EntityProduct, detail.SourceStripeID, detail.Error)
	return detail
}

// appendPushLog writes the audit row for one push mutation; audit failures
// are logged and swallowed, they never affect control flow
func (e *Engine) appendPushLog(ctx context.Context, req PushRequest, entityType, stripeID, errMsg string) {
	if err := e.store.AppendSyncLog(ctx, &catalog.SyncLogEntry{
		OrgID:      req.OrgID,
		InstanceID: req.TargetInstanceID,
		EntityType: entityType,
		Action:     "push",
		StripeID:   stripeID,
		Error:      errMsg,
	}); err != nil {
		e.log.Warn("failed to append sync log", zap.Error(err))
	}
}

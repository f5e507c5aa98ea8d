package syncer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
)

// PromoteRequest identifies one sandbox-to-production promotion batch
type PromoteRequest struct {
	OrgID            string
	SourceInstanceID string
	TargetInstanceID string
	SourceStripeIDs  []string
	PushedBy         string
}

// Promote replicates vetted sandbox products into production with the same
// mechanics as Push, except that a new price replaces any active
// production price for the same product and billing interval. The
// superseded price is archived on the provider and marked inactive locally
// BEFORE the replacement is created; two simultaneously active prices for
// one interval must never exist, even transiently.
//
// Unlike Push, a product whose lineage edge already exists is not skipped
// outright: its target identity is reused and any sandbox prices not yet
// promoted are still replicated, which is what makes re-promotion after a
// sandbox price change useful.
func (e *Engine) Promote(ctx context.Context, req PromoteRequest) (*PushResult, error) {
	if req.SourceInstanceID == req.TargetInstanceID {
		return nil, errors.Validation("source and target instance must differ")
	}
	source, err := e.resolveInstance(ctx, req.OrgID, req.SourceInstanceID)
	if err != nil {
		return nil, err
	}
	target, err := e.resolveInstance(ctx, req.OrgID, req.TargetInstanceID)
	if err != nil {
		return nil, err
	}
	if source.Environment != catalog.EnvSandbox {
		return nil, errors.Newf(errors.TypeValidation, "promotion source must be a sandbox instance, %s is %s", source.Name, source.Environment)
	}
	if target.Environment != catalog.EnvProduction {
		return nil, errors.Newf(errors.TypeValidation, "promotion target must be a production instance, %s is %s", target.Name, target.Environment)
	}
	client := e.clients(target)

	result := &PushResult{Details: []PushDetail{}}
	for _, sourceID := range req.SourceStripeIDs {
		detail := e.promoteProduct(ctx, client, req, sourceID)
		switch detail.Status {
		case StatusPromoted:
			result.Pushed++
		case StatusAlreadyPushed:
			result.Skipped++
		default:
			result.Errors++
		}
		result.Details = append(result.Details, detail)
	}

	e.log.Info("promotion batch complete",
		zap.String("org_id", req.OrgID),
		zap.String("sandbox", source.Name),
		zap.String("production", target.Name),
		zap.Int("promoted", result.Pushed),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return result, nil
}

func (e *Engine) promoteProduct(ctx context.Context, client ProviderAPI, req PromoteRequest, sourceID string) PushDetail {
	detail := PushDetail{SourceStripeID: sourceID}
	pushReq := PushRequest(req)

	source, err := e.store.GetProduct(ctx, req.OrgID, req.SourceInstanceID, sourceID)
	if err != nil {
		return e.failDetail(ctx, pushReq, detail, "failed to read source product", err)
	}
	if source == nil {
		detail.Status = StatusError
		detail.Error = "source product not found"
		e.appendPushLog(ctx, pushReq, catalog.EntityProduct, sourceID, detail.Error)
		return detail
	}

	// A previously promoted product keeps its production identity; only
	// the product create is skipped, price promotion still runs.
	var targetID string
	existing, err := e.store.FindLineage(ctx, req.OrgID, catalog.EntityProduct,
		req.SourceInstanceID, sourceID, req.TargetInstanceID)
	if err != nil {
		return e.failDetail(ctx, pushReq, detail, "failed to check lineage", err)
	}
	if existing != nil {
		targetID = existing.TargetStripeID
	} else {
		created, err := e.createWithTrace(ctx, client, "/v1/products",
			buildProductParams(source),
			trace{req.OrgID, req.SourceInstanceID, sourceID})
		if err != nil {
			return e.failDetail(ctx, pushReq, detail, "product create failed", err)
		}
		targetID, _ = created["id"].(string)
		if targetID == "" {
			detail.Status = StatusError
			detail.Error = "provider returned no product id"
			e.appendPushLog(ctx, pushReq, catalog.EntityProduct, sourceID, detail.Error)
			return detail
		}
		now := time.Now().UTC()
		if err := e.store.UpsertProduct(ctx, mapProduct(req.OrgID, req.TargetInstanceID, created, now)); err != nil {
			return e.failDetail(ctx, pushReq, detail, "failed to persist target product", err)
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
			return e.failDetail(ctx, pushReq, detail, "failed to record product lineage", err)
		}
		e.appendPushLog(ctx, pushReq, catalog.EntityProduct, sourceID, "")
	}
	detail.TargetStripeID = targetID

	pushed, promoteErr := e.promotePrices(ctx, client, req, source, targetID)
	detail.PricesPushed = pushed
	if promoteErr != "" {
		detail.Error = promoteErr
	}
	if existing != nil && pushed == 0 {
		// Nothing new reached production for this product
		if promoteErr != "" {
			detail.Status = StatusError
		} else {
			detail.Status = StatusAlreadyPushed
		}
		return detail
	}
	detail.Status = StatusPromoted
	return detail
}

// promotePrices replicates each active sandbox price not yet promoted,
// archiving any active production price for the same billing interval
// first. Returns the promoted count and the last per-price error, if any.
func (e *Engine) promotePrices(ctx context.Context, client ProviderAPI, req PromoteRequest, source *catalog.Product, targetProductID string) (int, string) {
	pushReq := PushRequest(req)
	prices, err := e.store.ListActivePrices(ctx, req.OrgID, req.SourceInstanceID, source.StripeID)
	if err != nil {
		return 0, "failed to load source prices: " + err.Error()
	}

	promoted := 0
	lastErr := ""
	for i := range prices {
		price := &prices[i]

		existing, err := e.store.FindLineage(ctx, req.OrgID, catalog.EntityPrice,
			req.SourceInstanceID, price.StripeID, req.TargetInstanceID)
		if err != nil {
			lastErr = err.Error()
			continue
		}
		if existing != nil {
			continue
		}

		// Archive-then-create: the superseded production price must be
		// inactive before the replacement exists.
		if err := e.archiveSupersededPrices(ctx, client, req, price, targetProductID); err != nil {
			lastErr = err.Error()
			e.appendPushLog(ctx, pushReq, catalog.EntityPrice, price.StripeID, lastErr)
			continue
		}
		if err := e.pushOnePrice(ctx, client, pushReq, price, targetProductID); err != nil {
			lastErr = err.Error()
			e.appendPushLog(ctx, pushReq, catalog.EntityPrice, price.StripeID, lastErr)
			continue
		}
		promoted++
	}
	return promoted, lastErr
}

// archiveSupersededPrices deactivates every active production price of the
// target product that shares the incoming price's billing interval. An
// "already archived" rejection from the provider is tolerated; any other
// failure aborts the replacement so two active prices never coexist.
func (e *Engine) archiveSupersededPrices(ctx context.Context, client ProviderAPI, req PromoteRequest, incoming *catalog.Price, targetProductID string) error {
	current, err := e.store.ListActivePrices(ctx, req.OrgID, req.TargetInstanceID, targetProductID)
	if err != nil {
		return err
	}
	for i := range current {
		old := &current[i]
		if !sameInterval(old, incoming) {
			continue
		}
		_, err := client.Request(ctx, http.MethodPost, "/v1/prices/"+old.StripeID,
			map[string]string{"active": "false"})
		if err != nil && !isAlreadyArchived(err) {
			return fmt.Errorf("failed to archive price %s: %w", old.StripeID, err)
		}
		if err := e.store.MarkPriceInactive(ctx, req.OrgID, req.TargetInstanceID, old.StripeID); err != nil {
			return err
		}
		e.appendPushLog(ctx, PushRequest(req), catalog.EntityPrice, old.StripeID, "")
	}
	return nil
}

// sameInterval reports whether two prices compete for the same billing
// interval; one-time prices all share the empty interval.
func sameInterval(a, b *catalog.Price) bool {
	if a.Type != b.Type {
		return false
	}
	return a.Interval == b.Interval && a.IntervalCount == b.IntervalCount
}

// isAlreadyArchived recognizes provider rejections for a price that is
// already inactive
func isAlreadyArchived(err error) bool {
	derr, ok := err.(*errors.Error)
	if !ok {
		return false
	}
	body, _ := derr.Context["body"].(string)
	lower := strings.ToLower(body + " " + derr.Message)
	return strings.Contains(lower, "already") &&
		(strings.Contains(lower, "archiv") || strings.Contains(lower, "inactive"))
}

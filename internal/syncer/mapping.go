package syncer

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"catalog-sync/internal/catalog"
)

// The provider is the source of truth: mapping is wholesale, every field
// taken from the wire object so an upsert fully replaces the local row.

func mapProduct(orgID, instanceID string, raw map[string]interface{}, now time.Time) *catalog.Product {
	p := &catalog.Product{
		OrgID:               orgID,
		InstanceID:          instanceID,
		StripeID:            jsonString(raw, "id"),
		Name:                jsonString(raw, "name"),
		Description:         jsonString(raw, "description"),
		Active:              jsonBool(raw, "active"),
		UnitLabel:           jsonString(raw, "unit_label"),
		TaxCode:             jsonString(raw, "tax_code"),
		URL:                 jsonString(raw, "url"),
		StatementDescriptor: jsonString(raw, "statement_descriptor"),
		Metadata:            jsonMap(raw, "metadata"),
		PackageDimensions:   jsonMap(raw, "package_dimensions"),
		Type:                jsonStringDefault(raw, "type", catalog.ProductTypeService),
		ProviderCreatedAt:   jsonUnix(raw, "created"),
		SyncedAt:            now,
	}
	if v, ok := raw["shippable"].(bool); ok {
		p.Shippable = &v
	}
	// marketing_features arrives as a list of {name} objects
	var features []string
	if list, ok := raw["marketing_features"].([]interface{}); ok {
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				if name := jsonString(m, "name"); name != "" {
					features = append(features, name)
				}
			}
		}
	}
	p.Features = datatypes.NewJSONSlice(features)
	return p
}

func mapPrice(orgID, instanceID string, raw map[string]interface{}, now time.Time) *catalog.Price {
	p := &catalog.Price{
		OrgID:             orgID,
		InstanceID:        instanceID,
		StripeID:          jsonString(raw, "id"),
		ProductStripeID:   productRef(raw),
		Active:            jsonBool(raw, "active"),
		Currency:          jsonString(raw, "currency"),
		UnitAmount:        jsonInt64Ptr(raw, "unit_amount"),
		BillingScheme:     jsonStringDefault(raw, "billing_scheme", catalog.BillingPerUnit),
		TiersMode:         jsonString(raw, "tiers_mode"),
		Type:              jsonStringDefault(raw, "type", catalog.PriceOneTime),
		TaxBehavior:       jsonString(raw, "tax_behavior"),
		Nickname:          jsonString(raw, "nickname"),
		LookupKey:         jsonString(raw, "lookup_key"),
		Metadata:          jsonMap(raw, "metadata"),
		ProviderCreatedAt: jsonUnix(raw, "created"),
		SyncedAt:          now,
	}
	if s := jsonString(raw, "unit_amount_decimal"); s != "" {
		if d, err := decimal.NewFromString(s); err == nil {
			p.UnitAmountDecimal = decimal.NewNullDecimal(d)
		}
	}
	if rec, ok := raw["recurring"].(map[string]interface{}); ok {
		p.Interval = jsonString(rec, "interval")
		if n := jsonInt64Ptr(rec, "interval_count"); n != nil {
			p.IntervalCount = int(*n)
		}
		p.UsageType = jsonString(rec, "usage_type")
	}
	if list, ok := raw["tiers"].([]interface{}); ok {
		tiers := make([]catalog.Tier, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			tier := catalog.Tier{
				UpTo:       jsonInt64Ptr(m, "up_to"),
				UnitAmount: jsonInt64Ptr(m, "unit_amount"),
				FlatAmount: jsonInt64Ptr(m, "flat_amount"),
			}
			if s := jsonString(m, "unit_amount_decimal"); s != "" {
				if d, err := decimal.NewFromString(s); err == nil {
					tier.UnitAmountDecimal = decimal.NewNullDecimal(d)
				}
			}
			tiers = append(tiers, tier)
		}
		p.Tiers = datatypes.NewJSONSlice(tiers)
	}
	return p
}

func mapCoupon(orgID, instanceID string, raw map[string]interface{}, now time.Time) *catalog.Coupon {
	c := &catalog.Coupon{
		OrgID:             orgID,
		InstanceID:        instanceID,
		StripeID:          jsonString(raw, "id"),
		Name:              jsonString(raw, "name"),
		AmountOff:         jsonInt64Ptr(raw, "amount_off"),
		Currency:          jsonString(raw, "currency"),
		Duration:          jsonStringDefault(raw, "duration", "once"),
		Valid:             jsonBool(raw, "valid"),
		ProviderCreatedAt: jsonUnix(raw, "created"),
		SyncedAt:          now,
	}
	if f, ok := raw["percent_off"].(float64); ok {
		c.PercentOff = decimal.NewNullDecimal(decimal.NewFromFloat(f))
	}
	if n := jsonInt64Ptr(raw, "duration_in_months"); n != nil {
		months := int(*n)
		c.DurationInMonths = &months
	}
	if applies, ok := raw["applies_to"].(map[string]interface{}); ok {
		var products []string
		if list, ok := applies["products"].([]interface{}); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					products = append(products, s)
				}
			}
		}
		c.AppliesTo = datatypes.NewJSONSlice(products)
	}
	return c
}

// productRef extracts the owning product id; the provider returns either
// the bare id or the expanded product object.
func productRef(raw map[string]interface{}) string {
	switch v := raw["product"].(type) {
	case string:
		return v
	case map[string]interface{}:
		return jsonString(v, "id")
	default:
		return ""
	}
}

func jsonString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func jsonStringDefault(m map[string]interface{}, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func jsonBool(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func jsonInt64Ptr(m map[string]interface{}, key string) *int64 {
	f, ok := m[key].(float64)
	if !ok {
		return nil
	}
	n := int64(f)
	return &n
}

func jsonMap(m map[string]interface{}, key string) datatypes.JSONMap {
	inner, ok := m[key].(map[string]interface{})
	if !ok || len(inner) == 0 {
		return nil
	}
	return datatypes.JSONMap(inner)
}

func jsonUnix(m map[string]interface{}, key string) *time.Time {
	f, ok := m[key].(float64)
	if !ok || f == 0 {
		return nil
	}
	t := time.Unix(int64(f), 0).UTC()
	return &t
}

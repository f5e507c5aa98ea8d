// Package catalog contains the persistence model for the local catalog
// mirror and the provenance records that guard cross-instance pushes.
//
// Products, prices and coupons are keyed by (org_id, instance_id,
// stripe_id); the provider is the source of truth and every import fully
// replaces the row. Lineage records are permanent and never mutated.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"catalog-sync/internal/errors"
)

// Instance environments
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Entity types for lineage and sync-log rows
const (
	EntityProduct = "product"
	EntityPrice   = "price"
	EntityCoupon  = "coupon"
)

// Product type discriminants
const (
	ProductTypeService = "service"
	ProductTypeGood    = "good"
)

// Billing schemes
const (
	BillingPerUnit = "per_unit"
	BillingTiered  = "tiered"
)

// Price types
const (
	PriceOneTime   = "one_time"
	PriceRecurring = "recurring"
)

// Instance is one external provider account scoped to an organization.
type Instance struct {
	ID          string     `gorm:"column:id;primaryKey"`
	OrgID       string     `gorm:"column:org_id;not null;uniqueIndex:idx_instances_org_name"`
	Name        string     `gorm:"column:name;type:text;not null;uniqueIndex:idx_instances_org_name"`
	Environment string     `gorm:"column:environment;type:text;not null;default:sandbox"`
	APIKey      string     `gorm:"column:api_key;type:text" json:"-"`
	Active      bool       `gorm:"column:active;not null;default:true"`
	LastSyncAt  *time.Time `gorm:"column:last_sync_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (Instance) TableName() string { return "instances" }

// Product mirrors one provider product for one instance.
type Product struct {
	ID         uint   `gorm:"primaryKey"`
	OrgID      string `gorm:"column:org_id;not null;uniqueIndex:idx_products_natural"`
	InstanceID string `gorm:"column:instance_id;not null;uniqueIndex:idx_products_natural"`
	StripeID   string `gorm:"column:stripe_id;type:text;not null;uniqueIndex:idx_products_natural"`

	Name                string                      `gorm:"column:name;type:text;not null"`
	Description         string                      `gorm:"column:description;type:text"`
	Active              bool                        `gorm:"column:active;not null;default:true"`
	UnitLabel           string                      `gorm:"column:unit_label;type:text"`
	TaxCode             string                      `gorm:"column:tax_code;type:text"`
	URL                 string                      `gorm:"column:url;type:text"`
	StatementDescriptor string                      `gorm:"column:statement_descriptor;type:text"`
	Features            datatypes.JSONSlice[string] `gorm:"column:features;type:jsonb"`
	Metadata            datatypes.JSONMap           `gorm:"column:metadata;type:jsonb"`
	Shippable           *bool                       `gorm:"column:shippable"`
	PackageDimensions   datatypes.JSONMap           `gorm:"column:package_dimensions;type:jsonb"`
	Type                string                      `gorm:"column:type;type:text;not null;default:service"`

	ProviderCreatedAt *time.Time `gorm:"column:provider_created_at"`
	SyncedAt          time.Time  `gorm:"column:synced_at;not null"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// Tier is one band of a tiered price schedule. A nil UpTo means the tier
// is unbounded; that tier must be last and unique within the schedule.
type Tier struct {
	UpTo              *int64              `json:"up_to"`
	UnitAmount        *int64              `json:"unit_amount,omitempty"`
	UnitAmountDecimal decimal.NullDecimal `json:"unit_amount_decimal,omitempty"`
	FlatAmount        *int64              `json:"flat_amount,omitempty"`
}

// ValidateTiers checks a tier schedule's shape: exactly one unbounded
// tier, and it must be last. An empty schedule is valid (the price is not
// tiered).
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return nil
	}
	for i, tier := range tiers {
		if tier.UpTo == nil && i != len(tiers)-1 {
			return errors.Validation("unbounded tier must be the last tier in the schedule")
		}
	}
	if tiers[len(tiers)-1].UpTo != nil {
		return errors.Validation("tier schedule must end with an unbounded tier")
	}
	return nil
}

// Price mirrors one provider price for one instance.
type Price struct {
	ID         uint   `gorm:"primaryKey"`
	OrgID      string `gorm:"column:org_id;not null;uniqueIndex:idx_prices_natural"`
	InstanceID string `gorm:"column:instance_id;not null;uniqueIndex:idx_prices_natural"`
	StripeID   string `gorm:"column:stripe_id;type:text;not null;uniqueIndex:idx_prices_natural"`

	ProductStripeID   string                    `gorm:"column:product_stripe_id;type:text;not null;index"`
	Active            bool                      `gorm:"column:active;not null;default:true"`
	Currency          string                    `gorm:"column:currency;type:text;not null"`
	UnitAmount        *int64                    `gorm:"column:unit_amount"`
	UnitAmountDecimal decimal.NullDecimal       `gorm:"column:unit_amount_decimal;type:numeric"`
	BillingScheme     string                    `gorm:"column:billing_scheme;type:text;not null;default:per_unit"`
	Tiers             datatypes.JSONSlice[Tier] `gorm:"column:tiers;type:jsonb"`
	TiersMode         string                    `gorm:"column:tiers_mode;type:text"`
	Type              string                    `gorm:"column:type;type:text;not null;default:one_time"`
	Interval          string                    `gorm:"column:interval;type:text"`
	IntervalCount     int                       `gorm:"column:interval_count"`
	UsageType         string                    `gorm:"column:usage_type;type:text"`
	TaxBehavior       string                    `gorm:"column:tax_behavior;type:text"`
	Nickname          string                    `gorm:"column:nickname;type:text"`
	LookupKey         string                    `gorm:"column:lookup_key;type:text"`
	Metadata          datatypes.JSONMap         `gorm:"column:metadata;type:jsonb"`

	ProviderCreatedAt *time.Time `gorm:"column:provider_created_at"`
	SyncedAt          time.Time  `gorm:"column:synced_at;not null"`
}

// TableName sets the database table name.
func (Price) TableName() string { return "prices" }

// Coupon mirrors one provider coupon for one instance. Exactly one of
// PercentOff or AmountOff (with Currency) is set.
type Coupon struct {
	ID         uint   `gorm:"primaryKey"`
	OrgID      string `gorm:"column:org_id;not null;uniqueIndex:idx_coupons_natural"`
	InstanceID string `gorm:"column:instance_id;not null;uniqueIndex:idx_coupons_natural"`
	StripeID   string `gorm:"column:stripe_id;type:text;not null;uniqueIndex:idx_coupons_natural"`

	Name             string                      `gorm:"column:name;type:text"`
	PercentOff       decimal.NullDecimal         `gorm:"column:percent_off;type:numeric"`
	AmountOff        *int64                      `gorm:"column:amount_off"`
	Currency         string                      `gorm:"column:currency;type:text"`
	Duration         string                      `gorm:"column:duration;type:text;not null;default:once"`
	DurationInMonths *int                        `gorm:"column:duration_in_months"`
	AppliesTo        datatypes.JSONSlice[string] `gorm:"column:applies_to;type:jsonb"`
	Valid            bool                        `gorm:"column:valid;not null;default:true"`

	ProviderCreatedAt *time.Time `gorm:"column:provider_created_at"`
	SyncedAt          time.Time  `gorm:"column:synced_at;not null"`
}

// TableName sets the database table name.
func (Coupon) TableName() string { return "coupons" }

// LineageRecord is one provenance edge: "the target entity was created by
// pushing the source entity". The unique index is the push idempotency
// guard: at most one outbound edge per source entity per target instance.
type LineageRecord struct {
	ID               uint   `gorm:"primaryKey"`
	OrgID            string `gorm:"column:org_id;not null;uniqueIndex:idx_lineage_edge"`
	EntityType       string `gorm:"column:entity_type;type:text;not null;uniqueIndex:idx_lineage_edge"`
	SourceInstanceID string `gorm:"column:source_instance_id;not null;uniqueIndex:idx_lineage_edge"`
	SourceStripeID   string `gorm:"column:source_stripe_id;type:text;not null;uniqueIndex:idx_lineage_edge"`
	TargetInstanceID string `gorm:"column:target_instance_id;not null;uniqueIndex:idx_lineage_edge"`
	TargetStripeID   string `gorm:"column:target_stripe_id;type:text;not null"`

	PushedBy string    `gorm:"column:pushed_by;type:text"`
	PushedAt time.Time `gorm:"column:pushed_at;not null"`
}

// TableName sets the database table name.
func (LineageRecord) TableName() string { return "lineage_records" }

// SyncLogEntry is one append-only audit row per mutating operation.
type SyncLogEntry struct {
	ID         string            `gorm:"column:id;primaryKey"`
	OrgID      string            `gorm:"column:org_id;not null;index"`
	InstanceID string            `gorm:"column:instance_id;not null"`
	EntityType string            `gorm:"column:entity_type;type:text;not null"`
	Action     string            `gorm:"column:action;type:text;not null"`
	StripeID   string            `gorm:"column:stripe_id;type:text"`
	Error      string            `gorm:"column:error;type:text"`
	Detail     datatypes.JSONMap `gorm:"column:detail;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName sets the database table name.
func (SyncLogEntry) TableName() string { return "sync_log_entries" }

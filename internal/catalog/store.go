package catalog

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/google/uuid"

	"catalog-sync/internal/errors"
)

// naturalKey is the conflict target for catalog upserts
var naturalKey = []clause.Column{
	{Name: "org_id"},
	{Name: "instance_id"},
	{Name: "stripe_id"},
}

// Open connects to Postgres and returns a gorm handle
func Open(dsn string, maxOpenConns int, logQueries bool) (*gorm.DB, error) {
	level := gormlogger.Silent
	if logQueries {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Store("failed to connect to database", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Store("failed to access connection pool", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	return db, nil
}

// AutoMigrate creates or updates the catalog schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Instance{},
		&Product{},
		&Price{},
		&Coupon{},
		&LineageRecord{},
		&SyncLogEntry{},
	)
}

// Store is the typed data-access boundary over the catalog tables.
// It contains no business logic.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an open gorm handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertProduct inserts or fully replaces a product row on its natural key
func (s *Store) UpsertProduct(ctx context.Context, p *Product) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   naturalKey,
		UpdateAll: true,
	}).Create(p).Error
	if err != nil {
		return errors.Store("failed to upsert product", err)
	}
	return nil
}

// UpsertPrice inserts or fully replaces a price row on its natural key.
// A malformed tier schedule is rejected before touching the database.
func (s *Store) UpsertPrice(ctx context.Context, p *Price) error {
	if err := ValidateTiers(p.Tiers); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   naturalKey,
		UpdateAll: true,
	}).Create(p).Error
	if err != nil {
		return errors.Store("failed to upsert price", err)
	}
	return nil
}

// UpsertCoupon inserts or fully replaces a coupon row on its natural key
func (s *Store) UpsertCoupon(ctx context.Context, c *Coupon) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   naturalKey,
		UpdateAll: true,
	}).Create(c).Error
	if err != nil {
		return errors.Store("failed to upsert coupon", err)
	}
	return nil
}

// GetProduct returns one product by natural key, or nil if absent
func (s *Store) GetProduct(ctx context.Context, orgID, instanceID, stripeID string) (*Product, error) {
	var p Product
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ? AND stripe_id = ?", orgID, instanceID, stripeID).
		First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Store("failed to load product", err)
	}
	return &p, nil
}

// GetPrice returns one price by natural key, or nil if absent
func (s *Store) GetPrice(ctx context.Context, orgID, instanceID, stripeID string) (*Price, error) {
	var p Price
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ? AND stripe_id = ?", orgID, instanceID, stripeID).
		First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Store("failed to load price", err)
	}
	return &p, nil
}

// ListProducts returns every product of one instance, ordered by name then
// stripe id so output is deterministic for a fixed snapshot
func (s *Store) ListProducts(ctx context.Context, orgID, instanceID string) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ?", orgID, instanceID).
		Order("name, stripe_id").
		Find(&products).Error
	if err != nil {
		return nil, errors.Store("failed to list products", err)
	}
	return products, nil
}

// ListPrices returns an instance's prices, optionally filtered to one
// owning product, ordered by stripe id
func (s *Store) ListPrices(ctx context.Context, orgID, instanceID, productStripeID string) ([]Price, error) {
	q := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ?", orgID, instanceID)
	if productStripeID != "" {
		q = q.Where("product_stripe_id = ?", productStripeID)
	}
	var prices []Price
	if err := q.Order("stripe_id").Find(&prices).Error; err != nil {
		return nil, errors.Store("failed to list prices", err)
	}
	return prices, nil
}

// ListActivePrices returns a product's active prices, ordered by stripe id
func (s *Store) ListActivePrices(ctx context.Context, orgID, instanceID, productStripeID string) ([]Price, error) {
	var prices []Price
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ? AND product_stripe_id = ? AND active = ?",
			orgID, instanceID, productStripeID, true).
		Order("stripe_id").
		Find(&prices).Error
	if err != nil {
		return nil, errors.Store("failed to list active prices", err)
	}
	return prices, nil
}

// MarkPriceInactive flips one price row's active flag off
func (s *Store) MarkPriceInactive(ctx context.Context, orgID, instanceID, stripeID string) error {
	err := s.db.WithContext(ctx).Model(&Price{}).
		Where("org_id = ? AND instance_id = ? AND stripe_id = ?", orgID, instanceID, stripeID).
		Update("active", false).Error
	if err != nil {
		return errors.Store("failed to mark price inactive", err)
	}
	return nil
}

// ListCoupons returns every coupon of one instance, ordered by stripe id
func (s *Store) ListCoupons(ctx context.Context, orgID, instanceID string) ([]Coupon, error) {
	var coupons []Coupon
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND instance_id = ?", orgID, instanceID).
		Order("stripe_id").
		Find(&coupons).Error
	if err != nil {
		return nil, errors.Store("failed to list coupons", err)
	}
	return coupons, nil
}

// GetInstance returns one instance by id, or nil if unknown
func (s *Store) GetInstance(ctx context.Context, orgID, instanceID string) (*Instance, error) {
	var inst Instance
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, instanceID).
		First(&inst).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Store("failed to load instance", err)
	}
	return &inst, nil
}

// ListInstances returns an organization's instances ordered by name
func (s *Store) ListInstances(ctx context.Context, orgID string) ([]Instance, error) {
	var instances []Instance
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name").
		Find(&instances).Error
	if err != nil {
		return nil, errors.Store("failed to list instances", err)
	}
	return instances, nil
}

// SaveInstance inserts or updates an instance row
func (s *Store) SaveInstance(ctx context.Context, inst *Instance) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Save(inst).Error; err != nil {
		return errors.Store("failed to save instance", err)
	}
	return nil
}

// UpdateLastSync stamps the instance's last successful import time
func (s *Store) UpdateLastSync(ctx context.Context, orgID, instanceID string) error {
	err := s.db.WithContext(ctx).Model(&Instance{}).
		Where("org_id = ? AND id = ?", orgID, instanceID).
		Update("last_sync_at", time.Now().UTC()).Error
	if err != nil {
		return errors.Store("failed to update last_sync_at", err)
	}
	return nil
}

// AppendSyncLog inserts one append-only audit row
func (s *Store) AppendSyncLog(ctx context.Context, entry *SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Store("failed to append sync log entry", err)
	}
	return nil
}

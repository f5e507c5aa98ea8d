package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"catalog-sync/internal/errors"
)

// FindLineage returns the provenance edge for one source entity toward one
// target instance, or nil if the entity has never been pushed there.
func (s *Store) FindLineage(ctx context.Context, orgID, entityType, sourceInstanceID, sourceStripeID, targetInstanceID string) (*LineageRecord, error) {
	var rec LineageRecord
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND entity_type = ? AND source_instance_id = ? AND source_stripe_id = ? AND target_instance_id = ?",
			orgID, entityType, sourceInstanceID, sourceStripeID, targetInstanceID).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Store("failed to query lineage", err)
	}
	return &rec, nil
}

// RecordLineage inserts one permanent provenance edge. The unique index on
// (org, entity_type, source_instance, source_stripe_id, target_instance)
// rejects a duplicate edge, which is the last line of defense should two
// pushes for the same source entity ever race.
func (s *Store) RecordLineage(ctx context.Context, rec *LineageRecord) error {
	if rec.PushedAt.IsZero() {
		rec.PushedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Store("failed to record lineage", err)
	}
	return nil
}

// ListLineage returns every edge from one source instance to one target
// instance, ordered by entity type then source stripe id.
func (s *Store) ListLineage(ctx context.Context, orgID, sourceInstanceID, targetInstanceID string) ([]LineageRecord, error) {
	var recs []LineageRecord
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND source_instance_id = ? AND target_instance_id = ?",
			orgID, sourceInstanceID, targetInstanceID).
		Order("entity_type, source_stripe_id").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Store("failed to list lineage", err)
	}
	return recs, nil
}

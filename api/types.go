package api

import (
	"catalog-sync/internal/errors"
	"catalog-sync/internal/syncer"
)

// ImportRequest triggers a full catalog import for one instance
type ImportRequest struct {
	OrgID      string `json:"org_id"`
	InstanceID string `json:"instance_id"`
}

func validateImportRequest(req *ImportRequest) error {
	if req.OrgID == "" {
		return errors.Validation("org_id is required")
	}
	if req.InstanceID == "" {
		return errors.Validation("instance_id is required")
	}
	return nil
}

// PushRequest triggers a cross-instance push batch
type PushRequest struct {
	OrgID            string   `json:"org_id"`
	SourceInstanceID string   `json:"source_instance_id"`
	TargetInstanceID string   `json:"target_instance_id"`
	EntityType       string   `json:"entity_type"`
	SourceStripeIDs  []string `json:"source_stripe_ids"`
	PushedBy         string   `json:"pushed_by,omitempty"`
}

func validatePushRequest(req *PushRequest) error {
	if req.OrgID == "" {
		return errors.Validation("org_id is required")
	}
	if req.SourceInstanceID == "" || req.TargetInstanceID == "" {
		return errors.Validation("source_instance_id and target_instance_id are required")
	}
	if req.SourceInstanceID == req.TargetInstanceID {
		return errors.Validation("source_instance_id and target_instance_id must differ")
	}
	// Only product pushes are supported; prices travel with their product.
	if req.EntityType != "" && req.EntityType != "product" {
		return errors.Validation("unsupported entity_type: " + req.EntityType)
	}
	if len(req.SourceStripeIDs) == 0 {
		return errors.Validation("source_stripe_ids must not be empty")
	}
	return nil
}

// PromoteRequest triggers a sandbox-to-production promotion batch
type PromoteRequest struct {
	OrgID            string   `json:"org_id"`
	SourceInstanceID string   `json:"source_instance_id"`
	TargetInstanceID string   `json:"target_instance_id"`
	SourceStripeIDs  []string `json:"source_stripe_ids"`
	PushedBy         string   `json:"pushed_by,omitempty"`
}

func validatePromoteRequest(req *PromoteRequest) error {
	if req.OrgID == "" {
		return errors.Validation("org_id is required")
	}
	if req.SourceInstanceID == "" || req.TargetInstanceID == "" {
		return errors.Validation("source_instance_id and target_instance_id are required")
	}
	if req.SourceInstanceID == req.TargetInstanceID {
		return errors.Validation("source_instance_id and target_instance_id must differ")
	}
	if len(req.SourceStripeIDs) == 0 {
		return errors.Validation("source_stripe_ids must not be empty")
	}
	return nil
}

// CompareRequest computes the snapshot diff between two instances
type CompareRequest struct {
	OrgID            string `json:"org_id"`
	SourceInstanceID string `json:"source_instance_id"`
	TargetInstanceID string `json:"target_instance_id"`
}

func validateCompareRequest(req *CompareRequest) error {
	if req.OrgID == "" {
		return errors.Validation("org_id is required")
	}
	if req.SourceInstanceID == "" || req.TargetInstanceID == "" {
		return errors.Validation("source_instance_id and target_instance_id are required")
	}
	return nil
}

// PushResponse is the API shape of a push or promote batch result
type PushResponse struct {
	PushedProducts int                 `json:"pushed_products"`
	Skipped        int                 `json:"skipped"`
	Errors         int                 `json:"errors"`
	Details        []syncer.PushDetail `json:"details"`
}

func toPushResponse(result *syncer.PushResult) *PushResponse {
	return &PushResponse{
		PushedProducts: result.Pushed,
		Skipped:        result.Skipped,
		Errors:         result.Errors,
		Details:        result.Details,
	}
}

// Package api - HTTP layer for the catalog sync service.
// The API is only responsible for input validation, engine orchestration
// and output serialization; it never performs sync logic itself.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
	"catalog-sync/internal/syncer"
)

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	engine  *syncer.Engine
	store   *catalog.Store
	version string
}

// NewServer creates the API server
func NewServer(version string, store *catalog.Store, engine *syncer.Engine) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		engine:  engine,
		store:   store,
		version: version,
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /catalog/import", s.handleImport)
	s.mux.HandleFunc("POST /catalog/push", s.handlePush)
	s.mux.HandleFunc("POST /catalog/promote", s.handlePromote)
	s.mux.HandleFunc("POST /catalog/compare", s.handleCompare)

	// Supporting endpoints
	s.mux.HandleFunc("GET /instances", s.handleListInstances)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleImport handles POST /catalog/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateImportRequest(&req); err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.engine.ImportCatalog(r.Context(), req.OrgID, req.InstanceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handlePush handles POST /catalog/push
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := validatePushRequest(&req); err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.engine.Push(r.Context(), syncer.PushRequest{
		OrgID:            req.OrgID,
		SourceInstanceID: req.SourceInstanceID,
		TargetInstanceID: req.TargetInstanceID,
		SourceStripeIDs:  req.SourceStripeIDs,
		PushedBy:         req.PushedBy,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, toPushResponse(result), http.StatusOK)
}

// handlePromote handles POST /catalog/promote
func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := validatePromoteRequest(&req); err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.engine.Promote(r.Context(), syncer.PromoteRequest{
		OrgID:            req.OrgID,
		SourceInstanceID: req.SourceInstanceID,
		TargetInstanceID: req.TargetInstanceID,
		SourceStripeIDs:  req.SourceStripeIDs,
		PushedBy:         req.PushedBy,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, toPushResponse(result), http.StatusOK)
}

// handleCompare handles POST /catalog/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateCompareRequest(&req); err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.engine.Compare(r.Context(), req.OrgID, req.SourceInstanceID, req.TargetInstanceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleListInstances handles GET /instances
func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		s.writeError(w, "VALIDATION_ERROR", "org_id is required", http.StatusBadRequest)
		return
	}
	instances, err := s.store.ListInstances(r.Context(), orgID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"instances": instances,
		"count":     len(instances),
	}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"service":     "catalog-sync",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}, status)
}

// writeDomainError maps the error taxonomy onto HTTP statuses
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	derr, ok := err.(*errors.Error)
	if !ok {
		s.writeError(w, string(errors.TypeInternal), err.Error(), http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch derr.Type {
	case errors.TypeValidation, errors.TypeConfig:
		status = http.StatusBadRequest
	case errors.TypeNotFound:
		status = http.StatusNotFound
	case errors.TypeProvider:
		status = http.StatusBadGateway
	}
	s.writeError(w, string(derr.Type), derr.Message, status)
}

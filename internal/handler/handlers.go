// Package handler provides the HTTP handlers for event ingestion.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/auth"
	"github.com/l4m1fy/playerpop/internal/config"
	apierrors "github.com/l4m1fy/playerpop/internal/errors"
	"github.com/l4m1fy/playerpop/internal/metrics"
	"github.com/l4m1fy/playerpop/internal/model"
	"github.com/l4m1fy/playerpop/internal/store"
	"github.com/l4m1fy/playerpop/internal/validation"
)

// Handlers contains the ingestion handler and its dependencies.
type Handlers struct {
	tenants      map[string]config.TenantConfig
	store        *store.StateStore
	errorHandler *apierrors.Handler
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	tenants map[string]config.TenantConfig,
	st *store.StateStore,
	errorHandler *apierrors.Handler,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		tenants:      tenants,
		store:        st,
		errorHandler: errorHandler,
		metrics:      m,
		logger:       logger,
	}
}

// IngestEvent handles POST /events/{tenant_id} requests. Each step is a
// possible exit point: tenant resolution (404), signature verification over
// the exact raw body (401), event validation (400), and only then the state
// mutation. A request that fails any step leaves the store untouched.
func (h *Handlers) IngestEvent(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	tenantID := mux.Vars(r)["tenant_id"]

	// Unknown tenants are rejected before any signature work, so no
	// secret-dependent timing is observable for them.
	tenant, ok := h.tenants[tenantID]
	if !ok {
		h.errorHandler.WriteTenantNotFound(w, requestID)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validation.MaxBodySize))
	if err != nil {
		h.errorHandler.WriteValidationError(w, "failed to read request body", requestID)
		return
	}

	signature := r.Header.Get(auth.SignatureHeader)
	if !auth.Verify([]byte(tenant.Secret), body, signature) {
		h.metrics.RecordAuthFailure(tenantID)
		h.errorHandler.WriteUnauthorized(w, requestID)
		return
	}

	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.errorHandler.WriteValidationError(w, "invalid JSON body", requestID)
		return
	}
	if err := validation.ValidateEvent(&ev); err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID)
		return
	}

	state, err := h.store.Apply(tenantID, &ev)
	if err != nil {
		h.errorHandler.WriteInternalError(w, err.Error(), requestID)
		return
	}

	h.metrics.RecordEvent(tenantID, string(ev.Type))
	h.logger.Info("event applied",
		zap.String("tenant", tenantID),
		zap.String("type", string(ev.Type)),
		zap.String("players", state.Players()),
		zap.Bool("online", state.Online),
		zap.String("request_id", requestID),
	)

	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSONResponse writes a JSON response with the given status code.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/GianScala/wrappr-core/internal/catalog"
)

// ModelsHandler serves the model catalog to onboarding and settings
// surfaces.
type ModelsHandler struct {
	svc    *catalog.Service
	logger *zap.Logger
}

func NewModelsHandler(svc *catalog.Service, logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the catalog routes on the provided mux.
func (h *ModelsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/models", h.handleList)
	mux.HandleFunc("GET /v1/models/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/models/refresh", h.handleRefresh)
}

// handleList returns the available text models, forwarding the caller's
// bearer token to the backend on a cache miss.
func (h *ModelsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	resp := h.svc.GetAvailableModels(r.Context(), token, nil)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ModelsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m := h.svc.GetModelByID(id)
	if m == nil {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, m)
}

func (h *ModelsHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.RefreshModels(r.Context(), nil)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

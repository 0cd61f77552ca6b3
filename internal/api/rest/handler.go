// Package rest exposes the assembled graph over a request/response API.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/snowviz/snowviz-backend/internal/service"
)

// Pinger reports data-source connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler manages HTTP request handlers.
type Handler struct {
	graphService service.GraphService
	pinger       Pinger
}

// NewHandler creates a new HTTP handler.
func NewHandler(gs service.GraphService, pinger Pinger) *Handler {
	return &Handler{
		graphService: gs,
		pinger:       pinger,
	}
}

// SetupRoutes configures API routes.
func SetupRoutes(router *mux.Router, h *Handler) {
	router.HandleFunc("/graph", h.GetGraph).Methods("GET")
	router.HandleFunc("/graph/refresh", h.RefreshGraph).Methods("POST")
	router.HandleFunc("/graph/pools/{name}/toggle", h.TogglePool).Methods("POST")
	router.HandleFunc("/graph/collapse-all", h.CollapseAll).Methods("POST")
	router.HandleFunc("/graph/expand-all", h.ExpandAll).Methods("POST")

	router.HandleFunc("/compute-pools", h.ListComputePools).Methods("GET")
	router.HandleFunc("/services", h.ListServices).Methods("GET")
	router.HandleFunc("/notebooks", h.ListNotebooks).Methods("GET")
	router.HandleFunc("/external-access-integrations", h.ListIntegrations).Methods("GET")
}

// GetGraph handles GET /graph: the assembled graph with positions and pool
// view metadata. A degraded warehouse yields a degraded-or-empty graph, not
// an error; the client decides how to present it.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.graphService.GetGraph(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

// RefreshGraph handles POST /graph/refresh: drops the cached snapshot and
// reassembles.
func (h *Handler) RefreshGraph(w http.ResponseWriter, r *http.Request) {
	h.graphService.Refresh()
	graph, err := h.graphService.GetGraph(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

// TogglePool handles POST /graph/pools/{name}/toggle: flips the pool's
// collapse state and returns the re-rendered graph.
func (h *Handler) TogglePool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing pool name")
		return
	}

	graph, err := h.graphService.TogglePool(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

// CollapseAll handles POST /graph/collapse-all.
func (h *Handler) CollapseAll(w http.ResponseWriter, r *http.Request) {
	h.setAll(w, r, true)
}

// ExpandAll handles POST /graph/expand-all.
func (h *Handler) ExpandAll(w http.ResponseWriter, r *http.Request) {
	h.setAll(w, r, false)
}

func (h *Handler) setAll(w http.ResponseWriter, r *http.Request, collapsed bool) {
	graph, err := h.graphService.SetAllPools(r.Context(), collapsed)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

// ListComputePools handles GET /compute-pools.
func (h *Handler) ListComputePools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.graphService.ListComputePools(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, pools)
}

// ListServices handles GET /services: the reconciled service set.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.graphService.ListServices(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, services)
}

// ListNotebooks handles GET /notebooks.
func (h *Handler) ListNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := h.graphService.ListNotebooks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, notebooks)
}

// ListIntegrations handles GET /external-access-integrations.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.graphService.ListIntegrations(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, integrations)
}

// Healthz handles GET /healthz. Reports warehouse reachability without
// failing the probe; the process is healthy even when the warehouse is not.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy", "warehouse": "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			status["warehouse"] = "unreachable"
		}
	}
	respondJSON(w, http.StatusOK, status)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

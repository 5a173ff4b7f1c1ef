package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// HTTPHandler exposes the router over HTTP for development and testing
type HTTPHandler struct {
	router    *router.Router
	version   string
	startTime time.Time
}

// NewHTTPHandler creates the HTTP surface
func NewHTTPHandler(r *router.Router, version string) *HTTPHandler {
	return &HTTPHandler{router: r, version: version, startTime: time.Now()}
}

// HandleInvoke handles POST /v1/invoke with a wire Request body
func (h *HTTPHandler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mediaproc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Op == "" {
		http.Error(w, "op is required", http.StatusBadRequest)
		return
	}

	res := h.router.Dispatch(r.Context(), req)
	outcome := toWire(res)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(outcome)
}

// HandleHealth handles GET /health
func (h *HTTPHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"service":   "simple-media-preproc",
		"version":   h.version,
		"uptime_ms": time.Since(h.startTime).Milliseconds(),
	})
}

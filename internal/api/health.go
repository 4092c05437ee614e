package api

import (
	"net/http"

	"pickleballshannon/internal/config"
	"pickleballshannon/internal/database"
)

// HealthHandler implements the health check endpoint
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.cfg.Database.IsConfigured() {
		if err := database.HealthCheck(); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  status,
		Service: h.cfg.App.Name,
	})
}

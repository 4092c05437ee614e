package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pickleballshannon/internal/config"
	apperrors "pickleballshannon/pkg/errors"
)

// errorResponse is the JSON body for every non-2xx reply.
type errorResponse struct {
	Error   string                 `json:"error"`
	Details []apperrors.FieldIssue `json:"details,omitempty"`
}

// NewRouter builds the HTTP route tree
func NewRouter(cfg *config.Config, contact *ContactHandler, health *HealthHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	r.Get("/health", health.Check)
	r.Post("/api/contact", contact.Submit)

	return r
}

// Recoverer converts panics into the generic 500 JSON response. No stack
// trace or internal error detail crosses the boundary.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[API] panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError,
					"An unexpected error occurred. Please try again.", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

// writeError writes an error JSON response with the given status code
func writeError(w http.ResponseWriter, status int, message string, details []apperrors.FieldIssue) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

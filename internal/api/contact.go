package api

import (
	"encoding/json"
	"log"
	"net/http"

	"pickleballshannon/internal/services"
	apperrors "pickleballshannon/pkg/errors"
)

// ContactHandler exposes the contact submission pipeline over HTTP
type ContactHandler struct {
	svc *services.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc *services.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please fill in all required fields correctly.", nil)
		return
	}

	result, err := h.svc.Submit(r.Context(), &req)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeSubmitError maps pipeline errors onto the fixed response shapes.
func (h *ContactHandler) writeSubmitError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		log.Printf("[API] unexpected contact error: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.", nil)
		return
	}

	switch appErr.Code {
	case apperrors.ErrCodeNotConfigured:
		writeError(w, http.StatusServiceUnavailable, appErr.Message, nil)
	case apperrors.ErrCodeValidation:
		writeError(w, http.StatusBadRequest, appErr.Message, appErr.Details)
	case apperrors.ErrCodeVerificationRequired, apperrors.ErrCodeVerificationFailed:
		writeError(w, http.StatusBadRequest, appErr.Message, nil)
	case apperrors.ErrCodePersistence:
		writeError(w, http.StatusInternalServerError, appErr.Message, nil)
	default:
		log.Printf("[API] unexpected contact error: %v", appErr)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.", nil)
	}
}

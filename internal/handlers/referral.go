package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/workoai/referrals/internal/services"
)

// ReferralHandler provides HTTP handlers for the caller's referrals.
type ReferralHandler struct {
	referralService *services.ReferralService
}

// NewReferralHandler constructs a handler with the provided service.
func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// ReferralRouter registers referral routes on the given router. Every route
// requires authentication.
func ReferralRouter(r chi.Router, referralService *services.ReferralService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewReferralHandler(referralService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListReferrals)
	r.Post("/", handler.CreateReferral)
	r.Route("/{referralID}", func(r chi.Router) {
		r.Get("/", handler.GetReferral)
		r.Patch("/status", handler.UpdateStatus)
	})
}

func (h *ReferralHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	referrals, err := h.referralService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, referrals)
}

func (h *ReferralHandler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateReferralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.referralService.Create(r.Context(), userID, services.CreateReferralInput{
		Name:       req.Name,
		Email:      req.Email,
		Experience: req.Experience,
		ResumeURL:  req.ResumeURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ReferralHandler) GetReferral(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	referral, err := h.referralService.Get(r.Context(), userID, chi.URLParam(r, "referralID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, referral)
}

func (h *ReferralHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.referralService.UpdateStatus(r.Context(), userID, chi.URLParam(r, "referralID"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// CreateReferralRequest is the referral submission payload.
type CreateReferralRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Experience *float64 `json:"experience"`
	ResumeURL  string   `json:"resumeUrl"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

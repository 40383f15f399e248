package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackingtorch/hackingtorch/middleware"
	"github.com/hackingtorch/hackingtorch/services"
)

var (
	errMissingSerial    = errors.New("certificate serial is required")
	errMissingRecipient = errors.New("recipient profile_id is required")
)

type CertificateHandler struct {
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Issue выдаёт сертификат указанному участнику события. Маршрут закрыт
// ролями organizer/admin, получатель приходит в теле запроса.
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ProfileID int `json:"profile_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ProfileID <= 0 {
		badRequestResponse(w, r, errMissingRecipient)
		return
	}

	certificate, err := h.certificateService.Issue(r.Context(), eventID, input.ProfileID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"certificate": certificate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Verify — публичная проверка сертификата по серийному номеру.
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	if serial == "" {
		badRequestResponse(w, r, errMissingSerial)
		return
	}

	certificate, err := h.certificateService.GetBySerial(r.Context(), serial)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"certificate": certificate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CertificateHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	certificates, err := h.certificateService.ListByProfile(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"certificates": certificates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"net/http"

	"github.com/hackingtorch/hackingtorch/middleware"
	"github.com/hackingtorch/hackingtorch/services"
)

type EvaluationHandler struct {
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.EvaluationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	evaluation, err := h.evaluationService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"evaluation": evaluation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	evaluationID, err := getIDFromURL(r, "evaluationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EvaluationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	evaluation, err := h.evaluationService.Update(r.Context(), currentUserID, evaluationID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"evaluation": evaluation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvaluationHandler) ListBySubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := getIDFromURL(r, "submissionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	evaluations, err := h.evaluationService.ListBySubmission(r.Context(), submissionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"evaluations": evaluations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EvaluationHandler) StatsByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.evaluationService.StatsByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

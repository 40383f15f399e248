package handlers

import (
	"errors"
	"net/http"

	"github.com/hackingtorch/hackingtorch/metrics"
	"github.com/hackingtorch/hackingtorch/wallet"
)

type WalletHandler struct {
	client *wallet.Client
}

// NewWalletHandler принимает nil-клиент: провайдер опционален, маршруты
// тогда отвечают 503.
func NewWalletHandler(client *wallet.Client) *WalletHandler {
	return &WalletHandler{client: client}
}

func (h *WalletHandler) CreateTestClass(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		h.failure(w, r, wallet.ErrNotConfigured)
		return
	}

	class, err := h.client.CreateTestClass(r.Context())
	if err != nil {
		h.failure(w, r, err)
		return
	}

	response := jsonResponse{
		"success":   true,
		"message":   "test class created",
		"testClass": class,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WalletHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		h.failure(w, r, wallet.ErrNotConfigured)
		return
	}

	var req wallet.TicketRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.EventID <= 0 || req.EventName == "" || req.AttendeeName == "" || req.AttendeeEmail == "" {
		badRequestResponse(w, r, errors.New("event_id, event_name, attendee_name and attendee_email are required"))
		return
	}

	ticket, saveURL, err := h.client.CreateTicket(r.Context(), req)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	metrics.TicketsIssued.Inc()
	response := jsonResponse{
		"success": true,
		"ticket":  ticket,
		"saveUrl": saveURL,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// failure пишет конверт {success:false, error} со статусом 500,
// провайдерские и конфигурационные сбои для клиента неразличимы.
func (h *WalletHandler) failure(w http.ResponseWriter, r *http.Request, err error) {
	env := jsonResponse{"success": false, "error": err.Error()}
	if writeErr := writeJSON(w, http.StatusInternalServerError, env, nil); writeErr != nil {
		serverErrorResponse(w, r, writeErr)
	}
}

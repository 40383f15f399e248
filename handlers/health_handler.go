package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/hackingtorch/hackingtorch/db"
)

type HealthHandler struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewHealthHandler(database *sql.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: database, logger: logger}
}

// Check отвечает 200 всегда, состояние БД отражается в теле ответа.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbOK := db.HealthCheck(r.Context(), h.db, h.logger)

	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	response := jsonResponse{
		"status":   status,
		"database": dbOK,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hackingtorch/hackingtorch/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin проверяется CORS-слоем на уровне роутера.
		return true
	},
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeEventRoom подключает клиента к комнате события /ws/events/{eventID}.
// Клиент только слушает, сервисы публикуют обновления через hub.
func (h *WebSocketHandler) ServeEventRoom(w http.ResponseWriter, r *http.Request) {
	eventIDStr := chi.URLParam(r, "eventID")
	if _, err := strconv.Atoi(eventIDStr); err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет HTTP-ошибку клиенту.
		h.logger.Warn("websocket upgrade failed",
			slog.String("event_id", eventIDStr), slog.Any("error", err))
		return
	}

	roomID := "event_" + eventIDStr
	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client joined room", slog.String("room", roomID))
}

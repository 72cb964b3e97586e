package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	gorilla "github.com/gorilla/websocket"

	"github.com/pionia-project/pionia/internal/config"
	"github.com/pionia-project/pionia/internal/websocket"
)

// EventsHandler upgrades HTTP connections to websocket subscribers on
// the record-change hub.
type EventsHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates a handler serving websocket subscriptions.
func NewEventsHandler(hub *websocket.Hub, cfg config.WebSocketConfig, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin policy is enforced by the CORS middleware
				// on the REST surface; the event stream is read-only.
				return true
			},
		},
		logger: logger.With(slog.String("handler", "events")),
	}
}

// Routes returns the chi router for the events endpoint.
func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Subscribe)
	return r
}

// Subscribe handles GET /events, upgrading to a websocket connection.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	client.Register()

	h.logger.Debug("websocket subscriber connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.Int("subscribers", h.hub.ClientCount()))
}

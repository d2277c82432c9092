package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"hotparts/internal/infrastructure"
)

// NewUpgrader returns an upgrader accepting requests without an Origin
// header, same-host origins and any origin in allowed. "*" allows all.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Handler upgrades the request and attaches the connection to hub
func Handler(hub *Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	upgrader := NewUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// The upgrader has already written an HTTP error
			logger.WarnContext(ctx, "WebSocket upgrade failed",
				slog.String("error", err.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			return
		}

		client := ServeWS(hub, NewConnectionWrapper(conn), infrastructure.GetTraceID(ctx), logger)
		logger.InfoContext(ctx, "WebSocket client connected",
			slog.String("client_id", client.ID()),
			slog.String("remote_addr", client.remoteAddr))
	}
}

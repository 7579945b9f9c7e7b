package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/reframe-labs/reframe/internal/domain"
)

// StatusFeed streams status transitions over a WebSocket: the current
// status on connect, then every transition as it happens.
func (h *Handler) StatusFeed(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept status WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("Status WebSocket close", "error", closeErr)
		}
	}()

	feed, cancel := h.svc.StatusFeed().Subscribe()
	defer cancel()

	ctx := r.Context()
	if err := writeStatus(ctx, ws, h.svc.Status()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-feed:
			if err := writeStatus(ctx, ws, st); err != nil {
				return
			}
		}
	}
}

func writeStatus(ctx context.Context, ws *websocket.Conn, st domain.Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lysyi3m/sanskrithi-site/app/content"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamListing pushes a listing view as a server-sent event after every change.
// The subscription lives as long as the connection.
func (h *Handler) StreamListing(c *gin.Context) {
	ctx := c.Request.Context()

	listing, ok := h.openListing(ctx, c)
	if !ok {
		return
	}
	defer listing.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-listing.Changes():
			view := listing.View()
			if view.Loading {
				return true
			}
			c.SSEvent("view", view)
			return true
		}
	})
}

// ListingSocket serves an interactive listing over a WebSocket. The client sends
// listingAction messages and receives a fresh view after every change.
func (h *Handler) ListingSocket(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	listing, ok := h.openListing(ctx, c)
	if !ok {
		return
	}
	defer listing.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	go readActions(ctx, cancel, conn, listing)

	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-listing.Changes():
			view := listing.View()
			if view.Loading {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteJSON(view); err != nil {
				slog.Debug("WebSocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readActions applies client filter actions until the connection closes
func readActions(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, listing *content.Listing) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(socketPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	for {
		var action listingAction
		if err := conn.ReadJSON(&action); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read failed", "error", err)
			}
			return
		}

		if ctx.Err() != nil {
			return
		}

		applyAction(listing, action)
	}
}

func applyAction(listing *content.Listing, action listingAction) {
	switch action.Action {
	case "search":
		listing.SetSearchTerm(action.Value)
	case "category":
		listing.SetCategory(action.Value)
	case "level":
		listing.SetLevel(action.Value)
	case "clear":
		listing.ClearFilters()
	default:
		slog.Debug("Unknown listing action", "action", action.Action)
	}
}

// Package stream pushes now-playing updates to websocket clients.
package stream

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler upgrades requests to websocket connections attached to a Hub.
type Handler struct {
	hub      *Hub
	poller   *Poller
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHandler creates a websocket handler. An empty allowedOrigins accepts
// every origin.
func NewHandler(hub *Hub, poller *Poller, allowedOrigins []string, logger *logrus.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		poller: poller,
		log:    logger.WithField("component", "stream"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if slices.Contains(allowedOrigins, origin) {
				return true
			}
			h.log.WithField("origin", origin).Warn("origin not allowed, rejecting connection")
			return false
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, h.log)

	// The send queue is empty here, so the last known state never blocks.
	payload := h.poller.LastPayload()
	if payload != nil {
		client.send <- payload
	}

	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	if payload == nil {
		h.poller.Kick()
	}

	go client.writePump()
	go client.readPump()
}

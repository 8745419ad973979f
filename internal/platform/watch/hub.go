// Package watch pushes the canonical patient state to live viewers. Each
// open view holds one WebSocket connection; after any mutation the full
// ordered patient list and fleet KPIs are re-read from the store and
// broadcast to every connection. Viewers never apply optimistic local
// updates: they wait for this feed to reflect the change.
package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ams/ams/internal/domain/patient"
	"github.com/ams/ams/internal/domain/risk"
)

// Snapshot is one push of the canonical state.
type Snapshot struct {
	Patients  []*patient.Patient `json:"patients"`
	KPIs      risk.KPIs          `json:"kpis"`
	Timestamp time.Time          `json:"timestamp"`
}

type client struct {
	send chan []byte
}

// Hub tracks connected viewers and rebroadcasts the patient list after
// every change. All operations are safe for concurrent use.
type Hub struct {
	repo   patient.Repository
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(repo patient.Repository, logger zerolog.Logger) *Hub {
	return &Hub{
		repo:    repo,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = struct{}{}
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// snapshot re-reads the full list and recomputes KPIs. Derivation is pure,
// so running it on every change needs no extra synchronization.
func (h *Hub) snapshot(ctx context.Context) (*Snapshot, error) {
	patients, err := h.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Patients:  patients,
		KPIs:      risk.Fleet(patients, time.Now()),
		Timestamp: time.Now(),
	}, nil
}

func (h *Hub) broadcast(s *Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal snapshot")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			// Viewer buffer full; it will catch up on the next push.
		}
	}
}

// PatientsChanged implements patient.Notifier: reload and push to all
// viewers. A failed reload is logged and dropped; the viewers keep their
// last known state and the store remains the source of truth.
func (h *Hub) PatientsChanged(ctx context.Context) {
	if h.ClientCount() == 0 {
		return
	}
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("reload patients for broadcast")
		return
	}
	h.broadcast(snap)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin allow-list is enforced by the CORS layer.
	},
}

// Handler upgrades viewers to WebSocket connections.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (wh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wh.HandleConnect)
}

// HandleConnect upgrades the connection, sends an initial snapshot, and
// streams every subsequent change until the viewer disconnects.
// Unsubscribing by closing the view is the only cancellation primitive.
func (wh *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{send: make(chan []byte, 16)}
	wh.hub.register(cl)

	if snap, err := wh.hub.snapshot(c.Request().Context()); err == nil {
		if data, err := json.Marshal(snap); err == nil {
			cl.send <- data
		}
	}

	go wh.writePump(cl, ws)
	go wh.readPump(cl, ws)
	return nil
}

// readPump drains inbound frames so close and ping control messages are
// processed; viewers send no application messages.
func (wh *Handler) readPump(cl *client, ws *gorillawebsocket.Conn) {
	defer func() {
		wh.hub.unregister(cl)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (wh *Handler) writePump(cl *client, ws *gorillawebsocket.Conn) {
	defer ws.Close()
	for message := range cl.send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}

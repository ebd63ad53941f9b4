// Package ws is the realtime fan-out layer: one subscriber group per board,
// fire-and-forget delivery of confirmed pixel changes. It knows nothing about
// how pixels are stored.
package ws

import (
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

var broadcastsTotal = metrics.NewCounter("pixelboard_ws_broadcasts_total")

// Envelope is the wire format of every server-to-client message.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// PixelUpdate is the broadcast payload for one confirmed placement.
// Intentionally minimal: clients already hold the palette, and attribution
// is fetched separately on demand.
type PixelUpdate struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// Hub maintains the per-board subscriber groups. A client views exactly one
// board at a time; joining a board leaves the previous one.
type Hub struct {
	mu         sync.RWMutex
	boards     map[uuid.UUID]map[*Client]struct{}
	membership map[*Client]uuid.UUID
}

func NewHub() *Hub {
	return &Hub{
		boards:     make(map[uuid.UUID]map[*Client]struct{}),
		membership: make(map[*Client]uuid.UUID),
	}
}

// Join adds the client to a board's group, removing it from any previous
// group first.
func (h *Hub) Join(c *Client, boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)

	group, ok := h.boards[boardID]
	if !ok {
		group = make(map[*Client]struct{})
		h.boards[boardID] = group
	}
	group[c] = struct{}{}
	h.membership[c] = boardID
}

// Leave removes the client from its board group, if any.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	boardID, ok := h.membership[c]
	if !ok {
		return
	}
	delete(h.membership, c)
	if group, ok := h.boards[boardID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.boards, boardID)
		}
	}
}

// Publish delivers a confirmed pixel change to every subscriber of the
// board, including the originator, which uses its own echo as the write
// confirmation. Slow subscribers are skipped, never waited on.
func (h *Hub) Publish(boardID uuid.UUID, x, y int, color string) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.boards[boardID]))
	for c := range h.boards[boardID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	env := Envelope{Type: "pixel-update", Payload: PixelUpdate{X: x, Y: y, Color: color}}
	for _, c := range members {
		c.Send(env)
	}
	broadcastsTotal.Inc()
}

// Subscribers reports the current group size for a board.
func (h *Hub) Subscribers(boardID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[boardID])
}

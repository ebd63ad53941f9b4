package handler

import (
	"errors"
	"log"
	"net/http"

	"pixelboard/internal/pixel"
	"pixelboard/internal/service"
	"pixelboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browsers connect from arbitrary canvas frontends; access control is
	// the deployment's concern, not this engine's.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the single inbound frame shape; fields beyond Type are
// read depending on the message type.
type clientMessage struct {
	Type    string `json:"type"`
	BoardID string `json:"boardId,omitempty"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Color   string `json:"color,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

type WSHandler struct {
	hub    *ws.Hub
	boards BoardGetter
	store  RegionReader
	placer Placer
}

func NewWSHandler(hub *ws.Hub, boards BoardGetter, store RegionReader, placer Placer) *WSHandler {
	return &WSHandler{hub: hub, boards: boards, store: store, placer: placer}
}

// Serve upgrades the connection and runs the read loop until the client
// disconnects. Writes go through the client's buffered send channel.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn)
	defer func() {
		h.hub.Leave(client)
		client.Close()
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(c, client, msg)
	}
}

func (h *WSHandler) dispatch(c *gin.Context, client *ws.Client, msg clientMessage) {
	switch msg.Type {
	case "join-board":
		h.handleJoin(c, client, msg)
	case "place-pixel":
		h.handlePlace(c, client, msg)
	case "get-region":
		h.handleGetRegion(c, client, msg)
	default:
		sendError(client, "Unknown message type")
	}
}

// handleJoin switches the client's subscription and hydrates it with the
// full board state so it can render before the first broadcast arrives.
func (h *WSHandler) handleJoin(c *gin.Context, client *ws.Client, msg clientMessage) {
	boardID, err := uuid.Parse(msg.BoardID)
	if err != nil {
		sendError(client, "Invalid board ID format")
		return
	}

	board, err := h.boards.Get(c.Request.Context(), boardID)
	if err != nil {
		sendError(client, "Board not found")
		return
	}

	h.hub.Join(client, board.ID)

	pixels, err := h.store.ReadRegion(c.Request.Context(), board, 0, 0, board.Width, board.Height)
	if err != nil {
		sendError(client, "Failed to load board state")
		return
	}

	client.Send(ws.Envelope{Type: "board-data", Payload: RegionResponse{
		BoardID:      board.ID.String(),
		X:            0,
		Y:            0,
		Width:        board.Width,
		Height:       board.Height,
		DefaultColor: pixel.Hex(pixel.DefaultIndex),
		Pixels:       pixels,
	}})
	client.Send(ws.Envelope{Type: "message", Payload: "Joined board " + board.ID.String()})
}

// handlePlace runs the normal placement flow; the confirmation reaches the
// client through the hub echo, only failures are answered directly.
func (h *WSHandler) handlePlace(c *gin.Context, client *ws.Client, msg clientMessage) {
	boardID, err := uuid.Parse(msg.BoardID)
	if err != nil {
		sendError(client, "Invalid board ID format")
		return
	}
	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		sendError(client, "Invalid user ID format")
		return
	}

	_, err = h.placer.Place(c.Request.Context(), service.PlaceRequest{
		BoardID: boardID,
		X:       msg.X,
		Y:       msg.Y,
		Color:   msg.Color,
		UserID:  userID,
	})
	if err != nil {
		sendError(client, placementErrorMessage(err))
	}
}

func (h *WSHandler) handleGetRegion(c *gin.Context, client *ws.Client, msg clientMessage) {
	boardID, err := uuid.Parse(msg.BoardID)
	if err != nil {
		sendError(client, "Invalid board ID format")
		return
	}

	board, err := h.boards.Get(c.Request.Context(), boardID)
	if err != nil {
		sendError(client, "Board not found")
		return
	}

	width, height := msg.Width, msg.Height
	if width == 0 {
		width = board.Width
	}
	if height == 0 {
		height = board.Height
	}

	pixels, err := h.store.ReadRegion(c.Request.Context(), board, msg.X, msg.Y, width, height)
	if err != nil {
		sendError(client, "Failed to read region")
		return
	}

	client.Send(ws.Envelope{Type: "board-data", Payload: RegionResponse{
		BoardID:      board.ID.String(),
		X:            msg.X,
		Y:            msg.Y,
		Width:        width,
		Height:       height,
		DefaultColor: pixel.Hex(pixel.DefaultIndex),
		Pixels:       pixels,
	}})
}

func sendError(client *ws.Client, text string) {
	client.Send(ws.Envelope{Type: "error", Payload: text})
}

func placementErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return "Placement cooldown active"
	case err == service.ErrOutOfBounds:
		return "Coordinates outside board bounds"
	case err == service.ErrInvalidColor:
		return "Color is not in the palette"
	case err == service.ErrBoardNotActive:
		return "Board is not accepting placements"
	case err == service.ErrBoardBusy:
		return "Board is being resized, try again"
	case err == service.ErrBoardNotFound:
		return "Board not found"
	default:
		return "Placement failed"
	}
}

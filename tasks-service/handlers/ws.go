package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/chepyr/go-kanban/shared"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Event types pushed to board subscribers.
const (
	EventBoardUpdated   = "board_updated"
	EventBoardDeleted   = "board_deleted"
	EventListCreated    = "list_created"
	EventListUpdated    = "list_updated"
	EventListDeleted    = "list_deleted"
	EventListsReordered = "lists_reordered"
	EventCardCreated    = "card_created"
	EventCardUpdated    = "card_updated"
	EventCardDeleted    = "card_deleted"
	EventCardMoved      = "card_moved"
)

type Event struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"boardId"`
	Payload any       `json:"payload,omitempty"`
}

// WSHub fans board events out to the WebSocket connections subscribed to
// that board. Writes happen under the hub mutex, so a connection never sees
// concurrent writers.
type WSHub struct {
	connections map[uuid.UUID]map[*websocket.Conn]bool
	mutex       sync.Mutex
	closed      bool
	logger      *zap.Logger
}

func NewWSHub(logger *zap.Logger) *WSHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHub{
		connections: make(map[uuid.UUID]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// register adds conn to the board's subscribers. It reports false once the
// hub is closed.
func (h *WSHub) register(boardID uuid.UUID, conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return false
	}
	if h.connections[boardID] == nil {
		h.connections[boardID] = make(map[*websocket.Conn]bool)
	}
	h.connections[boardID][conn] = true
	return true
}

func (h *WSHub) unregister(boardID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if conns, ok := h.connections[boardID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, boardID)
		}
	}
}

// Subscribers returns how many connections listen on boardID.
func (h *WSHub) Subscribers(boardID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[boardID])
}

// Broadcast sends event to every connection of the board. A connection that
// fails a write is dropped.
func (h *WSHub) Broadcast(boardID uuid.UUID, event Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns := h.connections[boardID]
	if len(conns) == 0 {
		return
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal board event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warn("websocket write failed", zap.Stringer("board_id", boardID), zap.Error(err))
			delete(conns, conn)
			conn.Close()
		}
	}
}

// Close disconnects every subscriber. Read loops blocked on those
// connections return, and later registrations are refused.
func (h *WSHub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.closed = true
	for boardID, conns := range h.connections {
		for conn := range conns {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
		}
		delete(h.connections, boardID)
	}
}

// checkOrigin allows every origin when none are configured.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// HandleWebSocket subscribes the caller to events of the board named by the
// board_id query parameter. The caller has to own the board.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := shared.ClientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow("ws:"+clientIP) {
		shared.SendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, err := uuid.Parse(r.URL.Query().Get("board_id"))
	if err != nil {
		shared.SendError(w, "board_id is required (uuid)", http.StatusBadRequest)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	_, err = h.BoardRepo.Authorize(ctx, boardID, userID)
	cancel()
	if err != nil {
		h.sendStoreError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if !h.WSHub.register(boardID, conn) {
		conn.Close()
		return
	}
	defer func() {
		h.WSHub.unregister(boardID, conn)
		conn.Close()
	}()

	// Clients only listen; reading keeps control frames flowing and notices
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log().Debug("websocket closed", zap.Stringer("board_id", boardID), zap.Error(err))
			}
			return
		}
	}
}

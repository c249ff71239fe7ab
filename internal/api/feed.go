package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"studiosim/internal/game"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 64
)

// FeedMessage is pushed to feed subscribers after every simulated week.
type FeedMessage struct {
	GameID  string          `json:"game_id"`
	Report  game.StepReport `json:"report"`
	Summary game.Summary    `json:"summary"`
}

type feedClient struct {
	hub    *Hub
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

type publication struct {
	gameID  string
	payload []byte
}

// Hub fans step reports out to websocket subscribers of each game.
type Hub struct {
	clients    map[string]map[*feedClient]bool
	broadcast  chan publication
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
	log        *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    map[string]map[*feedClient]bool{},
		broadcast:  make(chan publication, sendBuffer),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
		log:        logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*feedClient]bool{}
			return
		case c := <-h.register:
			if h.clients[c.gameID] == nil {
				h.clients[c.gameID] = map[*feedClient]bool{}
			}
			h.clients[c.gameID][c] = true
			h.log.Info("feed client connected", "game_id", c.gameID)
		case c := <-h.unregister:
			h.drop(c)
		case pub := <-h.broadcast:
			for c := range h.clients[pub.gameID] {
				select {
				case c.send <- pub.payload:
				default:
					// Slow reader; cut it loose rather than stall the game.
					h.drop(c)
				}
			}
		}
	}
}

// add reports false once the hub has stopped.
func (h *Hub) add(c *feedClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *feedClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(c *feedClient) {
	set := h.clients[c.gameID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.gameID)
	}
	close(c.send)
	h.log.Info("feed client disconnected", "game_id", c.gameID)
}

// Publish never blocks the caller; messages are dropped when the hub is
// backed up or not running.
func (h *Hub) Publish(gameID string, msg FeedMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode feed message", "err", err)
		return
	}
	select {
	case h.broadcast <- publication{gameID: gameID, payload: payload}:
	default:
		h.log.Warn("feed backlog full, dropping message", "game_id", gameID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sink.Load(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	// Register before upgrading so no step published after the handshake
	// can miss this subscriber.
	c := &feedClient{hub: s.feed, gameID: id, send: make(chan []byte, sendBuffer)}
	if !s.feed.add(c) {
		writeError(w, http.StatusServiceUnavailable, "feed is not running")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.feed.remove(c)
		s.log.Warn("feed upgrade failed", "game_id", id, "err", err)
		return
	}
	c.conn = conn
	go c.writePump()
	go c.readPump()
}

// readPump only services control frames; subscribers never send commands.
func (c *feedClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

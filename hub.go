package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// websocket frame commands
const (
	// server to client, [cmd, key, value]
	CMD_TRANSFORM = 0x01 // value is tilt scaled to 0..127
	CMD_COLOR     = 0x02 // value is a color id

	// client to server, [cmd, key]
	CMD_POINTER_DOWN   = 0x10
	CMD_POINTER_UP     = 0x11
	CMD_POINTER_UP_ALL = 0x12 // no key byte, releases everything
)

// PointerEvent is a pointer interaction reported by a browser.
type PointerEvent struct {
	Key  int
	Down bool
	All  bool // release-all, the global pointer-up variant
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // CORS is handled upstream
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans key transforms and colors out to every connected
// browser and feeds their pointer input back to the run loop.
// It is the core's rendering surface.
type Hub struct {
	keys    []KeyAttributes
	pointer chan<- PointerEvent
	log     *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*client]bool
}

func newHub(keys []KeyAttributes, pointer chan<- PointerEvent, log *zap.SugaredLogger) *Hub {
	return &Hub{
		keys:    keys,
		pointer: pointer,
		log:     log,
		clients: make(map[*client]bool),
	}
}

// ServeHTTP upgrades the connection, sends the keyboard layout
// (the frontend builds one key object per entry), then pumps frames.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "err", err)
		return
	}
	if err := conn.WriteJSON(h.keys); err != nil {
		h.log.Warnw("layout send failed", "err", err)
		conn.Close()
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.log.Infow("frontend connected", "addr", conn.RemoteAddr())

	go c.writePump()
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
		h.log.Infow("frontend disconnected", "addr", c.conn.RemoteAddr())
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handle(data)
	}
}

// handle parses a pointer frame from a browser.
// Unknown or truncated frames are dropped.
func (h *Hub) handle(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case CMD_POINTER_DOWN, CMD_POINTER_UP:
		if len(data) < 2 {
			return
		}
		h.pointer <- PointerEvent{Key: int(data[1]), Down: data[0] == CMD_POINTER_DOWN}
	case CMD_POINTER_UP_ALL:
		h.pointer <- PointerEvent{All: true}
	default:
		h.log.Debugw("unknown pointer frame", "cmd", data[0])
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}

// broadcast sends a frame to every client,
// dropping it for clients that cannot keep up.
func (h *Hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
		}
	}
}

// SetKeyTransform implements Surface.
func (h *Hub) SetKeyTransform(key int, tilt float64) {
	h.broadcast([]byte{CMD_TRANSFORM, byte(key), toVal(tilt / pressedTilt)})
}

// SetKeyColor implements Surface.
func (h *Hub) SetKeyColor(key int, color int) {
	h.broadcast([]byte{CMD_COLOR, byte(key), byte(color)})
}

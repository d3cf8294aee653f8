package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection. Each client has its own action budget.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	limiter *rate.Limiter

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opt.ClientSendBuffer),
		limiter: rate.NewLimiter(rate.Limit(hub.opt.MaxActionsPerSecond), hub.opt.ActionBurst),
	}
}

// ServeWS upgrades an HTTP request and runs the client pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.Get().RecordWSError()
		hub.logger.Error(fmt.Sprintf("Failed to upgrade websocket: %v", err))
		return
	}
	client := NewClient(hub, conn)
	hub.add(client)
	client.reply(FrameState, hub.game.State())

	go client.WritePump()
	go client.ReadPump()
}

// enqueue queues a frame without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(kind string, payload interface{}) {
	raw, err := encodeFrame(kind, payload)
	if err != nil {
		c.hub.logger.Error(err.Error())
		return
	}
	if c.enqueue(raw) {
		metrics.Get().RecordWSMessage(false)
	}
}

// ReadPump pumps actions from the websocket connection into the game.
func (c *Client) ReadPump() {
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.Get().RecordWSError()
				c.hub.logger.Warn(fmt.Sprintf("WebSocket read error: %v", err))
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			c.reply(FrameActionResult, ActionResult{Message: "malformed action"})
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	if !c.limiter.Allow() {
		metrics.Get().RecordWSRateLimited()
		c.reply(FrameActionResult, ActionResult{Action: action.Type, ID: action.ID, Message: "rate limited"})
		return
	}
	res := Dispatch(c.hub.game, action)
	if res.OK && action.Type != ActionClick {
		c.hub.logger.Event("PLAYER_ACTION_"+action.Type, action.ID, "accepted")
	}
	c.reply(FrameActionResult, res)
}

// WritePump pumps frames from the hub to the websocket connection.
func (c *Client) WritePump() {
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
				// The hub closed the channel.
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

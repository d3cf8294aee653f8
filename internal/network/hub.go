package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
	"github.com/KottenAlin/reb-wbsite/internal/platform/optimization"
)

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	game       Game
	opt        *optimization.Config
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewHub initializes a new WebSocket Hub in front of a game. A nil opt uses
// the default tuning profile.
func NewHub(game Game, opt *optimization.Config, log *logger.Logger) *Hub {
	if opt == nil {
		opt = optimization.DefaultConfig()
	}
	return &Hub{
		game:       game,
		opt:        opt,
		broadcast:  make(chan []byte, opt.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.dropLocked(client)
			}
			h.mu.Unlock()
			close(h.done)
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			full := len(h.clients) >= h.opt.MaxClients
			if full {
				client.close()
			} else {
				h.clients[client] = true
				metrics.Get().RecordWSConnection(1)
			}
			h.mu.Unlock()
			if full {
				h.logger.Warn("WebSocket client refused, hub is full")
			} else {
				h.logger.Info("New WebSocket client connected")
			}
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropLocked(client)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.enqueue(message) {
					metrics.Get().RecordWSMessage(false)
				} else {
					metrics.Get().RecordWSError()
					h.dropLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	client.close()
	metrics.Get().RecordWSConnection(-1)
}

func (h *Hub) add(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes a frame and queues it for every client. Frames are
// dropped when the queue is full.
func (h *Hub) Broadcast(kind string, payload interface{}) {
	raw, err := encodeFrame(kind, payload)
	if err != nil {
		h.logger.Error(fmt.Sprintf("Failed to serialize frame for WebSocket broadcast: %v", err))
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		h.logger.Warn("Broadcast queue full, dropping " + kind + " frame")
	}
}

// BroadcastEvent fans one notification out to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	h.Broadcast(FrameNotification, event)
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// notifications to the Hub. Notifications older than the call are skipped.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration) {
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		lastSeq := eventLog.LastSeq()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				for _, event := range eventLog.Since(lastSeq) {
					h.BroadcastEvent(event)
					lastSeq = event.Seq
				}
			}
		}
	}()
}

// StartStatePusher broadcasts the full game state every interval while any
// client is connected.
func (h *Hub) StartStatePusher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				h.Broadcast(FrameState, h.game.State())
			}
		}
	}()
}

package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/optimization"
)

type rawFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsFixture struct {
	hub *Hub
	log *events.EventLog
	url string
}

func newWSFixture(t *testing.T, opt *optimization.Config) *wsFixture {
	t.Helper()
	g, log := newGame()
	hub := NewHub(g, opt, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, log, 5*time.Millisecond)

	mux := http.NewServeMux()
	NewAPIHandler(hub, nil, nil, log, "default", logger.NewNop()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &wsFixture{hub: hub, log: log, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, kind string) rawFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f rawFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == kind {
			return f
		}
	}
}

func testOpt() *optimization.Config {
	opt := optimization.LowResourceConfig()
	opt.MaxClients = 2
	return opt
}

func TestClientReceivesStateThenActionResult(t *testing.T) {
	f := newWSFixture(t, testOpt())
	conn := f.dial(t)

	state := next(t, conn, FrameState)
	assert.Contains(t, string(state.Payload), `"cookie_count":0`)

	require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionClick}))
	frame := next(t, conn, FrameActionResult)

	var res ActionResult
	require.NoError(t, json.Unmarshal(frame.Payload, &res))
	assert.Equal(t, ActionClick, res.Action)
	assert.True(t, res.OK)
}

func TestClientActionsAreRateLimited(t *testing.T) {
	opt := testOpt()
	opt.MaxActionsPerSecond = 0.001
	opt.ActionBurst = 1
	f := newWSFixture(t, opt)
	conn := f.dial(t)
	next(t, conn, FrameState)

	var results []ActionResult
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(PlayerAction{Type: ActionClick}))
		var res ActionResult
		require.NoError(t, json.Unmarshal(next(t, conn, FrameActionResult).Payload, &res))
		results = append(results, res)
	}
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, "rate limited", results[1].Message)
}

func TestMalformedActionIsAnswered(t *testing.T) {
	f := newWSFixture(t, testOpt())
	conn := f.dial(t)
	next(t, conn, FrameState)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
	var res ActionResult
	require.NoError(t, json.Unmarshal(next(t, conn, FrameActionResult).Payload, &res))
	assert.Equal(t, "malformed action", res.Message)
}

func TestNotificationsFanOut(t *testing.T) {
	f := newWSFixture(t, testOpt())
	a, b := f.dial(t), f.dial(t)
	next(t, a, FrameState)
	next(t, b, FrameState)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	f.log.Append(events.GameEvent{Type: events.EventTypeGoldenSpawned, SubjectID: "golden", Title: "Golden cookie!"})

	for _, conn := range []*websocket.Conn{a, b} {
		var ev events.GameEvent
		require.NoError(t, json.Unmarshal(next(t, conn, FrameNotification).Payload, &ev))
		assert.Equal(t, events.EventTypeGoldenSpawned, ev.Type)
	}
}

func TestHubRefusesClientsBeyondLimit(t *testing.T) {
	opt := testOpt()
	opt.MaxClients = 1
	f := newWSFixture(t, opt)

	first := f.dial(t)
	next(t, first, FrameState)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	second := f.dial(t)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := second.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			assert.ErrorAs(t, err, &closeErr, "refused clients are closed")
			break
		}
	}
	assert.Equal(t, 1, f.hub.ClientCount())
}

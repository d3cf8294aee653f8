// Package main - autoclicker
// Bot client for a running clicker server: clicks, collects golden cookies
// and buys the cheapest affordable upgrade. With many clients it doubles as
// a load generator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
	"github.com/KottenAlin/reb-wbsite/internal/network"
)

// Config for the bot run.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	BuyEvery       int
	ResultsFile    string
}

// Stats tracks what the bots did.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Accepted         int64
	Refused          int64
	RateLimited      int64
	Errors           int64
	Purchases        int64
	GoldenCollected  int64

	mu        sync.Mutex
	lastState engine.State
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 1, "Number of concurrent bots")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per bot")
	duration := flag.Duration("duration", 60*time.Second, "Run duration")
	buyEvery := flag.Int("buy-every", 10, "Try a purchase every N actions (0 disables buying)")
	results := flag.String("results", "", "Write a JSON summary to this file")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		BuyEvery:       *buyEvery,
		ResultsFile:    *results,
	}

	fmt.Printf("Autoclicker: %d bot(s) against %s for %v\n", config.NumClients, config.ServerURL, config.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := run(ctx, config)
	printResults(stats, config)
}

func run(ctx context.Context, config Config) *Stats {
	stats := &Stats{}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger bot starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := stats.snapshot()
				fmt.Printf("Progress: cookies=%s cps=%.1f sent=%d limited=%d errors=%d\n",
					humanize.Commaf(float64(int64(st.CookieCount))), st.EffectiveCookiesPerSecond,
					atomic.LoadInt64(&stats.MessagesSent), atomic.LoadInt64(&stats.RateLimited),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func (s *Stats) snapshot() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastState
}

func (s *Stats) setState(st engine.State) {
	s.mu.Lock()
	s.lastState = st
	s.mu.Unlock()
}

// record tallies one server frame.
func (s *Stats) record(raw []byte) {
	atomic.AddInt64(&s.MessagesReceived, 1)

	var frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		atomic.AddInt64(&s.Errors, 1)
		return
	}

	switch frame.Type {
	case network.FrameState:
		var st engine.State
		if err := json.Unmarshal(frame.Payload, &st); err == nil {
			s.setState(st)
		}
	case network.FrameActionResult:
		var res network.ActionResult
		if err := json.Unmarshal(frame.Payload, &res); err != nil {
			atomic.AddInt64(&s.Errors, 1)
			return
		}
		switch {
		case res.OK && res.Action == network.ActionBuyUpgrade:
			atomic.AddInt64(&s.Purchases, 1)
			atomic.AddInt64(&s.Accepted, 1)
		case res.OK && res.Action == network.ActionCollectGolden:
			atomic.AddInt64(&s.GoldenCollected, 1)
			atomic.AddInt64(&s.Accepted, 1)
		case res.OK:
			atomic.AddInt64(&s.Accepted, 1)
		case res.Message == "rate limited":
			atomic.AddInt64(&s.RateLimited, 1)
		default:
			atomic.AddInt64(&s.Refused, 1)
		}
	}
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Bot %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			stats.record(raw)
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
			return
		case <-ticker.C:
			action := nextAction(stats.snapshot(), n, config.BuyEvery)
			if err := conn.WriteJSON(action); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)
		}
	}
}

// nextAction picks the bot's move: collect a visible golden cookie first,
// buy the cheapest affordable upgrade every buyEvery actions, otherwise click.
func nextAction(st engine.State, n, buyEvery int) network.PlayerAction {
	if st.Golden.Active {
		return network.PlayerAction{Type: network.ActionCollectGolden}
	}
	if buyEvery > 0 && n%buyEvery == 0 {
		if id, ok := cheapestAffordable(st); ok {
			return network.PlayerAction{Type: network.ActionBuyUpgrade, ID: id}
		}
	}
	return network.PlayerAction{Type: network.ActionClick}
}

func cheapestAffordable(st engine.State) (string, bool) {
	best := ""
	bestCost := 0.0
	for _, u := range st.Upgrades {
		if u.Cost > st.CookieCount {
			continue
		}
		if best == "" || u.Cost < bestCost {
			best, bestCost = u.ID, u.Cost
		}
	}
	return best, best != ""
}

func printResults(stats *Stats, config Config) {
	sent := atomic.LoadInt64(&stats.MessagesSent)
	errs := atomic.LoadInt64(&stats.Errors)
	final := stats.snapshot()

	fmt.Println("=========================================")
	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", atomic.LoadInt64(&stats.MessagesReceived))
	fmt.Printf("Accepted:          %d\n", atomic.LoadInt64(&stats.Accepted))
	fmt.Printf("Refused:           %d\n", atomic.LoadInt64(&stats.Refused))
	fmt.Printf("Rate Limited:      %d\n", atomic.LoadInt64(&stats.RateLimited))
	fmt.Printf("Purchases:         %d\n", atomic.LoadInt64(&stats.Purchases))
	fmt.Printf("Golden Collected:  %d\n", atomic.LoadInt64(&stats.GoldenCollected))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Final Cookies:     %s\n", humanize.Commaf(float64(int64(final.CookieCount))))
	fmt.Printf("Throughput:        %.2f msg/sec\n", float64(sent)/config.TestDuration.Seconds())
	fmt.Println("=========================================")

	if config.ResultsFile == "" {
		return
	}
	results := map[string]interface{}{
		"messages_sent":     sent,
		"messages_received": atomic.LoadInt64(&stats.MessagesReceived),
		"rate_limited":      atomic.LoadInt64(&stats.RateLimited),
		"purchases":         atomic.LoadInt64(&stats.Purchases),
		"errors":            errs,
		"final_cookies":     final.CookieCount,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.ResultsFile, jsonData, 0644); err != nil {
		log.Printf("Failed to write results: %v", err)
		return
	}
	fmt.Println("Results saved to " + config.ResultsFile)
}

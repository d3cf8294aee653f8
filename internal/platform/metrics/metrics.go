// Package metrics provides observability for the clicker server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and gameplay counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Gameplay
	Clicks           int64
	Purchases        int64
	PurchaseRefusals int64
	GoldenCollected  int64
	ThreatsTriggered int64
	Prestiges        int64

	// Persistence
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64
	Saves            int64
	SaveErrors       int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64
	WSRateLimited       int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records a production tick.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

func (c *Collector) RecordClick() {
	atomic.AddInt64(&c.Clicks, 1)
}

// RecordPurchase counts a purchase attempt and whether it was refused.
func (c *Collector) RecordPurchase(ok bool) {
	if ok {
		atomic.AddInt64(&c.Purchases, 1)
		return
	}
	atomic.AddInt64(&c.PurchaseRefusals, 1)
}

func (c *Collector) RecordGoldenCollected() {
	atomic.AddInt64(&c.GoldenCollected, 1)
}

func (c *Collector) RecordThreat() {
	atomic.AddInt64(&c.ThreatsTriggered, 1)
}

func (c *Collector) RecordPrestige() {
	atomic.AddInt64(&c.Prestiges, 1)
}

// RecordEventWrite records a notification write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordSave records a snapshot save.
func (c *Collector) RecordSave(err error) {
	atomic.AddInt64(&c.Saves, 1)
	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordWSRateLimited records an inbound action dropped by the rate limiter.
func (c *Collector) RecordWSRateLimited() {
	atomic.AddInt64(&c.WSRateLimited, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"gameplay": map[string]interface{}{
			"clicks":            atomic.LoadInt64(&c.Clicks),
			"purchases":         atomic.LoadInt64(&c.Purchases),
			"purchase_refusals": atomic.LoadInt64(&c.PurchaseRefusals),
			"golden_collected":  atomic.LoadInt64(&c.GoldenCollected),
			"threats_triggered": atomic.LoadInt64(&c.ThreatsTriggered),
			"prestiges":         atomic.LoadInt64(&c.Prestiges),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
			"saves":            atomic.LoadInt64(&c.Saves),
			"save_errors":      atomic.LoadInt64(&c.SaveErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
			"rate_limited":       atomic.LoadInt64(&c.WSRateLimited),
		},
	}
}

// Handler returns an HTTP handler for the JSON metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value any) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	switch v := value.(type) {
	case float64:
		fmt.Fprintf(w, "%s %.2f\n\n", name, v)
	default:
		fmt.Fprintf(w, "%s %v\n\n", name, v)
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		writeMetric(w, "clicker_tick_count", "counter", "Total production ticks", atomic.LoadInt64(&c.TickCount))
		writeMetric(w, "clicker_tick_latency_max_ms", "gauge", "Maximum tick latency",
			float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		writeMetric(w, "clicker_clicks_total", "counter", "Total cookie clicks", atomic.LoadInt64(&c.Clicks))
		writeMetric(w, "clicker_purchases_total", "counter", "Completed purchases", atomic.LoadInt64(&c.Purchases))
		writeMetric(w, "clicker_purchase_refusals_total", "counter", "Refused purchases", atomic.LoadInt64(&c.PurchaseRefusals))
		writeMetric(w, "clicker_golden_collected_total", "counter", "Golden cookies collected", atomic.LoadInt64(&c.GoldenCollected))
		writeMetric(w, "clicker_threats_triggered_total", "counter", "Threats triggered", atomic.LoadInt64(&c.ThreatsTriggered))
		writeMetric(w, "clicker_prestiges_total", "counter", "Prestige resets", atomic.LoadInt64(&c.Prestiges))

		writeMetric(w, "clicker_events_written", "counter", "Total notifications written", atomic.LoadInt64(&c.EventsWritten))
		writeMetric(w, "clicker_event_write_errors", "counter", "Total notification write errors", atomic.LoadInt64(&c.EventWriteErrors))
		writeMetric(w, "clicker_saves_total", "counter", "Snapshot saves", atomic.LoadInt64(&c.Saves))
		writeMetric(w, "clicker_save_errors_total", "counter", "Snapshot save errors", atomic.LoadInt64(&c.SaveErrors))

		writeMetric(w, "clicker_ws_connections", "gauge", "Active WebSocket connections", atomic.LoadInt64(&c.WSConnectionsActive))
		fmt.Fprintf(w, "# HELP clicker_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE clicker_ws_messages_total counter\n")
		fmt.Fprintf(w, "clicker_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "clicker_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))
		writeMetric(w, "clicker_ws_rate_limited_total", "counter", "Inbound actions dropped by rate limiting", atomic.LoadInt64(&c.WSRateLimited))
	}
}

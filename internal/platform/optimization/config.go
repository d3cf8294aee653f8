// Package optimization provides buffer, pool and rate-limit tuning profiles.
package optimization

import (
	"runtime"
)

// Config holds tuned parameters for the transport and storage layers.
type Config struct {
	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Per-client inbound action rate limiting
	MaxActionsPerSecond float64
	ActionBurst         int
	MaxClients          int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		// Humans top out around 15 clicks per second; bursts cover macros.
		MaxActionsPerSecond: 30,
		ActionBurst:         60,
		MaxClients:          200,
	}
}

// StressTestConfig returns aggressive settings for load testing with bots.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		BroadcastChannelBuffer: 512,
		ClientSendBuffer:       128,

		DBMaxOpenConns: numCPU * 8,
		DBMaxIdleConns: numCPU * 4,

		MaxActionsPerSecond: 500,
		ActionBurst:         1000,
		MaxClients:          500,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		BroadcastChannelBuffer: 16,
		ClientSendBuffer:       8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,

		MaxActionsPerSecond: 10,
		ActionBurst:         20,
		MaxClients:          20,
	}
}

// ForProfile picks a profile by name, falling back to the default.
func ForProfile(name string) *Config {
	switch name {
	case "stress":
		return StressTestConfig()
	case "low":
		return LowResourceConfig()
	default:
		return DefaultConfig()
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseBroadcastBuffer bool
	IncreaseDBConnections   bool
	RelaxRateLimit          bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if tick, ok := metrics["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 100 {
			rec.Notes = append(rec.Notes, "Tick latency exceeds one production period - simulation is falling behind")
		}
	}

	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if maxLat, ok := events["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write latency exceeds 50ms - increase DB connections")
		}
		if errors, ok := events["errors"].(int64); ok && errors > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write errors detected - check DB connection pool")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
		if limited, ok := ws["rate_limited"].(int64); ok && limited > 0 {
			rec.RelaxRateLimit = true
			rec.Notes = append(rec.Notes, "Actions dropped by rate limiting - raise the per-client burst")
		}
	}

	return rec
}

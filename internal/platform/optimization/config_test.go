package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForProfile(t *testing.T) {
	assert.Equal(t, LowResourceConfig(), ForProfile("low"))
	assert.Equal(t, 500, ForProfile("stress").MaxClients)
	assert.Equal(t, DefaultConfig().ClientSendBuffer, ForProfile("unknown").ClientSendBuffer)
}

func TestAnalyze(t *testing.T) {
	snapshot := map[string]interface{}{
		"events":    map[string]interface{}{"max_write_lat_ms": 80.0, "errors": int64(0)},
		"websocket": map[string]interface{}{"errors": int64(2), "rate_limited": int64(5)},
	}
	rec := Analyze(snapshot)
	assert.True(t, rec.IncreaseDBConnections)
	assert.True(t, rec.IncreaseBroadcastBuffer)
	assert.True(t, rec.RelaxRateLimit)
	assert.Len(t, rec.Notes, 3)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTickKeepsMax(t *testing.T) {
	c := &Collector{StartTime: time.Now()}
	c.RecordTick(2 * time.Millisecond)
	c.RecordTick(5 * time.Millisecond)
	c.RecordTick(1 * time.Millisecond)

	assert.Equal(t, int64(3), c.TickCount)
	assert.Equal(t, int64(5*time.Millisecond), c.TickLatencyMax)
}

func TestRecordPurchase(t *testing.T) {
	c := &Collector{StartTime: time.Now()}
	c.RecordPurchase(true)
	c.RecordPurchase(false)
	c.RecordPurchase(false)

	snap := c.Snapshot()
	gameplay := snap["gameplay"].(map[string]interface{})
	assert.Equal(t, int64(1), gameplay["purchases"])
	assert.Equal(t, int64(2), gameplay["purchase_refusals"])
}

func TestPrometheusHandler(t *testing.T) {
	Get().RecordClick()

	rec := httptest.NewRecorder()
	PrometheusHandler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "# TYPE clicker_clicks_total counter")
	assert.Contains(t, body, `clicker_ws_messages_total{direction="in"}`)
}

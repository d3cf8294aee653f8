package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/infra/storage"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

type stubSaver struct {
	at  time.Time
	err error
}

func (s stubSaver) SaveNow(context.Context) (time.Time, error) { return s.at, s.err }

func newAPI(t *testing.T, saver Saver, history storage.EventRepository) (*http.ServeMux, *events.EventLog) {
	t.Helper()
	g, log := newGame()
	hub := NewHub(g, testOpt(), logger.NewNop())
	mux := http.NewServeMux()
	NewAPIHandler(hub, saver, history, log, "default", logger.NewNop()).RegisterRoutes(mux)
	return mux, log
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStateEndpoint(t *testing.T) {
	mux, _ := newAPI(t, stubSaver{}, nil)

	rec := do(mux, http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "upgrades")
	assert.Contains(t, body, "golden")

	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodPost, "/api/state").Code)
}

func TestSaveEndpoint(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mux, _ := newAPI(t, stubSaver{at: at}, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/api/save").Code)

	rec := do(mux, http.MethodPost, "/api/save")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","saved_at":"2024-05-01T12:00:00Z"}`, rec.Body.String())

	failing, _ := newAPI(t, stubSaver{err: errors.New("disk full")}, nil)
	rec = do(failing, http.MethodPost, "/api/save")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestHistoryFromMemory(t *testing.T) {
	mux, log := newAPI(t, stubSaver{}, nil)
	log.Append(events.GameEvent{Type: events.EventTypeThreatTriggered, SubjectID: "cookie_thief"})
	log.Append(events.GameEvent{Type: events.EventTypeGoldenSpawned, SubjectID: "golden"})
	log.Append(events.GameEvent{Type: events.EventTypeThreatTriggered, SubjectID: "oven_breakdown"})

	rec := do(mux, http.MethodGet, "/api/history?kind=THREAT_TRIGGERED&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "oven_breakdown", resp.Events[0].SubjectID)
	assert.Equal(t, "THREAT_TRIGGERED", resp.Kind)

	rec = do(mux, http.MethodGet, "/api/history")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, int64(3), resp.Events[0].Seq, "newest first")

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/api/history?limit=-2").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/api/history?limit=abc").Code)

	rec = do(mux, http.MethodGet, "/api/history/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Stats map[string]int64 `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Stats["THREAT_TRIGGERED"])
}

func TestHistoryFromRepository(t *testing.T) {
	db, err := storage.InitSQLite(filepath.Join(t.TempDir(), "clicker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := storage.NewSQLiteEventRepository(db)

	mux, log := newAPI(t, stubSaver{}, repo)
	rec, err := storage.ToRecord("default", events.GameEvent{
		ID: events.GenerateEventID(), Seq: 7, Timestamp: time.Now(),
		Type: events.EventTypePrestige, SubjectID: "prestige", Payload: map[string]int{"points": 2},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), rec))
	log.Append(events.GameEvent{Type: events.EventTypeGoldenSpawned})

	resp := do(mux, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, resp.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Events, 1, "the repository is the source when configured")
	assert.JSONEq(t, `{"points":2}`, string(body.Events[0].Payload))
}

func TestMetricsEndpoints(t *testing.T) {
	mux, _ := newAPI(t, stubSaver{}, nil)

	rec := do(mux, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clicker_clicks_total")

	rec = do(mux, http.MethodGet, "/metrics/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gameplay"`)
}

package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/infra/storage"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// Saver writes the current snapshot on demand.
type Saver interface {
	SaveNow(ctx context.Context) (time.Time, error)
}

// APIHandler serves the REST surface next to the websocket.
type APIHandler struct {
	hub     *Hub
	saver   Saver
	history storage.EventRepository // nil falls back to the in-memory log
	log     *events.EventLog
	saveID  string
	logger  *logger.Logger
}

// NewAPIHandler wires the REST endpoints. history may be nil.
func NewAPIHandler(hub *Hub, saver Saver, history storage.EventRepository, el *events.EventLog, saveID string, log *logger.Logger) *APIHandler {
	return &APIHandler{
		hub:     hub,
		saver:   saver,
		history: history,
		log:     el,
		saveID:  saveID,
		logger:  log,
	}
}

// HistoryEntry is one notification in a history response.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	SubjectID string          `json:"subject_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Kind        string         `json:"kind,omitempty"`
	Total       int            `json:"total"`
	GeneratedAt string         `json:"generated_at"`
	Events      []HistoryEntry `json:"events"`
}

// HandleState returns the full read model.
// GET /api/state
func (a *APIHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.writeJSON(w, http.StatusOK, a.hub.game.State())
}

// HandleSave writes a snapshot now.
// POST /api/save
func (a *APIHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	at, err := a.saver.SaveNow(r.Context())
	if err != nil {
		a.logger.Error("Manual save failed: " + err.Error())
		a.jsonError(w, "save failed", http.StatusInternalServerError)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"saved_at": at.UTC().Format(time.RFC3339),
	})
}

// HandleHistory returns the newest notifications, newest first.
// GET /api/history?kind=THREAT_TRIGGERED&limit=20
func (a *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := storage.EventQuery{EventType: r.URL.Query().Get("kind")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		q.Limit = n
	}

	entries, err := a.historyEntries(r.Context(), q)
	if err != nil {
		a.logger.Error("History query failed: " + err.Error())
		a.jsonError(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	a.writeJSON(w, http.StatusOK, HistoryResponse{
		Kind:        q.EventType,
		Total:       len(entries),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      entries,
	})
}

// HandleHistoryStats counts the notification history per type.
// GET /api/history/stats
func (a *APIHandler) HandleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var counts map[string]int64
	if a.history != nil {
		var err error
		counts, err = a.history.CountByType(r.Context(), a.saveID)
		if err != nil {
			a.logger.Error("History stats failed: " + err.Error())
			a.jsonError(w, "history unavailable", http.StatusInternalServerError)
			return
		}
	} else {
		counts = make(map[string]int64)
		for _, e := range a.log.Replay() {
			counts[string(e.Type)]++
		}
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"stats":        counts,
	})
}

func (a *APIHandler) historyEntries(ctx context.Context, q storage.EventQuery) ([]HistoryEntry, error) {
	if a.history != nil {
		recs, err := a.history.List(ctx, a.saveID, q)
		if err != nil {
			return nil, err
		}
		out := make([]HistoryEntry, 0, len(recs))
		for _, rec := range recs {
			out = append(out, entryFromRecord(rec))
		}
		return out, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}
	all := a.log.Replay()
	out := make([]HistoryEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		rec, err := storage.ToRecord(a.saveID, all[i])
		if err != nil {
			return nil, err
		}
		if q.EventType != "" && rec.EventType != q.EventType {
			continue
		}
		out = append(out, entryFromRecord(rec))
	}
	return out, nil
}

func entryFromRecord(rec storage.EventRecord) HistoryEntry {
	return HistoryEntry{
		ID:        rec.ID,
		Seq:       rec.Seq,
		Timestamp: rec.Timestamp,
		Type:      rec.EventType,
		SubjectID: rec.SubjectID,
		Title:     rec.Title,
		Message:   rec.Message,
		Payload:   rec.Payload,
	}
}

// RegisterRoutes sets up the websocket and REST routes.
func (a *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(a.hub, w, r)
	})
	mux.HandleFunc("/api/state", a.HandleState)
	mux.HandleFunc("/api/save", a.HandleSave)
	mux.HandleFunc("/api/history", a.HandleHistory)
	mux.HandleFunc("/api/history/stats", a.HandleHistoryStats)
	mux.HandleFunc("/metrics", metrics.PrometheusHandler())
	mux.HandleFunc("/metrics/json", metrics.Handler())
}

func (a *APIHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Warn("Failed to write response: " + err.Error())
	}
}

// jsonError sends an error response.
func (a *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	a.writeJSON(w, status, map[string]string{"error": message})
}

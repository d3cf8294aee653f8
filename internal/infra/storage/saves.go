package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// Snapshotter is the part of the engine that can be saved and restored.
type Snapshotter interface {
	Save() engine.SaveState
	Restore(s engine.SaveState)
}

// SaveManager moves engine snapshots in and out of a SaveRepository.
type SaveManager struct {
	repo   SaveRepository
	game   Snapshotter
	saveID string
	logger *logger.Logger
}

func NewSaveManager(repo SaveRepository, game Snapshotter, saveID string, log *logger.Logger) *SaveManager {
	return &SaveManager{repo: repo, game: game, saveID: saveID, logger: log}
}

// SaveNow encodes the current snapshot and stores it.
func (m *SaveManager) SaveNow(ctx context.Context) (time.Time, error) {
	state := m.game.Save()
	raw, err := state.Encode()
	if err != nil {
		metrics.Get().RecordSave(err)
		return time.Time{}, err
	}

	at := time.UnixMilli(state.Timestamp)
	err = m.repo.Put(ctx, SaveRecord{ID: m.saveID, Data: raw, SavedAt: at})
	metrics.Get().RecordSave(err)
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// Load restores the stored snapshot. It reports false when there is none;
// a corrupt save is an error and leaves the engine untouched.
func (m *SaveManager) Load(ctx context.Context) (bool, error) {
	rec, err := m.repo.Get(ctx, m.saveID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	state, err := engine.DecodeSave(rec.Data)
	if err != nil {
		return false, fmt.Errorf("save %q: %w", m.saveID, err)
	}
	if len(state.Defaulted) > 0 {
		m.logger.Warn(fmt.Sprintf("Save %q: unreadable fields reset to defaults: %s",
			m.saveID, strings.Join(state.Defaulted, ", ")))
	}
	m.game.Restore(state)
	return true, nil
}

// Run saves every interval until ctx is done, then saves once more.
func (m *SaveManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), DefaultWriteTimeout)
			if _, err := m.SaveNow(final); err != nil {
				m.logger.Error("Final save failed: " + err.Error())
			} else {
				m.logger.Info("Final save written")
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := m.SaveNow(ctx); err != nil {
				m.logger.Error("Autosave failed: " + err.Error())
			}
		}
	}
}

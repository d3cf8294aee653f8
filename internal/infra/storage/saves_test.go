package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

func newEngine() (*engine.Engine, *engine.FakeClock) {
	clock := engine.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	e := engine.NewEngine(events.NewEventLog(nil), logger.NewNop(), engine.Config{Clock: clock})
	return e, clock
}

func TestSaveManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSaveRepository(openTestDB(t))

	src, _ := newEngine()
	for i := 0; i < 3; i++ {
		src.Click()
	}
	at, err := NewSaveManager(repo, src, "default", logger.NewNop()).SaveNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), at.UTC())

	dst, _ := newEngine()
	found, err := NewSaveManager(repo, dst, "default", logger.NewNop()).Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), dst.View().TotalClicks)
	assert.Equal(t, 3.0, dst.View().CookieCount)
}

func TestSaveManagerLoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSaveRepository(openTestDB(t))
	e, _ := newEngine()
	m := NewSaveManager(repo, e, "default", logger.NewNop())

	found, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, SaveRecord{ID: "default", Data: []byte(`{"cookieCount":`)}))
	found, err = m.Load(ctx)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestSaveManagerLoadKeepsReadableFields(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSaveRepository(openTestDB(t))
	data := []byte(`{"cookieCount":1234,"totalCookiesEarned":5000,"totalClicks":7,"playTime":"oops"}`)
	require.NoError(t, repo.Put(ctx, SaveRecord{ID: "default", Data: data}))

	e, _ := newEngine()
	found, err := NewSaveManager(repo, e, "default", logger.NewNop()).Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1234.0, e.View().CookieCount)
	assert.Equal(t, 5000.0, e.View().TotalCookiesEarned)
	assert.Equal(t, int64(7), e.View().TotalClicks)
	assert.Zero(t, e.View().PlayTime)
}

func TestSaveManagerRunSavesOnShutdown(t *testing.T) {
	repo := NewSQLiteSaveRepository(openTestDB(t))
	e, _ := newEngine()
	e.Click()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewSaveManager(repo, e, "default", logger.NewNop()).Run(ctx, time.Hour)

	rec, err := repo.Get(context.Background(), "default")
	require.NoError(t, err)
	s, err := engine.DecodeSave(rec.Data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TotalClicks)
}

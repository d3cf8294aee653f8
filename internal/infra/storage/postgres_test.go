package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepositories(t *testing.T) {
	url := os.Getenv("CLICKER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLICKER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := OpenPostgres(ctx, url, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	saveID := "test-" + uuid.NewString()
	saves := NewPostgresSaveRepository(pool)
	t.Cleanup(func() { saves.Delete(context.Background(), saveID) })

	_, err = saves.Get(ctx, saveID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, saves.Put(ctx, SaveRecord{ID: saveID, Data: []byte(`{"cookieCount":42}`)}))
	rec, err := saves.Get(ctx, saveID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cookieCount":42}`, string(rec.Data))

	eventsRepo := NewPostgresEventRepository(pool)
	require.NoError(t, eventsRepo.Append(ctx, EventRecord{
		ID: uuid.NewString(), SaveID: saveID, Seq: 1, Timestamp: time.Now(),
		EventType: "PRESTIGE", SubjectID: "prestige", Title: "Prestige", Message: "+1 point",
		Payload: []byte(`{"points":1}`),
	}))

	got, err := eventsRepo.List(ctx, saveID, EventQuery{EventType: "PRESTIGE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"points":1}`, string(got[0].Payload))

	counts, err := eventsRepo.CountByType(ctx, saveID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["PRESTIGE"])
}

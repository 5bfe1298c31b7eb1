package clientdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path: "file:clientdata_test?mode=memory&cache=shared",
		Name: "cache-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db.Conn())
	require.NoError(t, repo.EnsureSchema())
	return repo
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := newTestRepo(t)

	payload := map[string]float64{"close": 123.45}
	require.NoError(t, repo.Store("market_data", "AAPL_1d_1d", payload, time.Minute))

	data, err := repo.GetIfFresh("market_data", "AAPL_1d_1d")
	require.NoError(t, err)
	require.NotNil(t, data)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 123.45, got["close"])
}

func TestGetIfFreshMissesExpired(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Store("market_data", "expired", "x", -time.Minute))

	data, err := repo.GetIfFresh("market_data", "expired")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Stale fallback still sees it.
	stale, err := repo.Get("market_data", "expired")
	require.NoError(t, err)
	assert.NotNil(t, stale)
}

func TestGetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	data, err := repo.Get("news", "nothing")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestInvalidTableRejected(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Store("positions; DROP TABLE news", "k", "v", time.Minute)
	assert.Error(t, err)

	_, err = repo.GetIfFresh("bogus", "k")
	assert.Error(t, err)
}

func TestDeleteExpired(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Store("earnings", "fresh", "a", time.Hour))
	require.NoError(t, repo.Store("earnings", "old", "b", -time.Hour))

	deleted, err := repo.DeleteExpired("earnings")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	data, err := repo.Get("earnings", "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Store("news", "old", "b", -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["news"])
	assert.Equal(t, int64(0), results["market_data"])
}

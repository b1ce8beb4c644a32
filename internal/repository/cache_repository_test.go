package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

func TestCacheRepositoryGetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client)

	mock.ExpectGet("ranking:5").SetVal(`[{"id_user":"u1","rank":1,"total":7.5}]`)

	var views []models.RankingView
	require.NoError(t, repo.Get(context.Background(), "ranking:5", &views))
	require.Len(t, views, 1)
	assert.Equal(t, "u1", views[0].UserID)
	assert.Equal(t, 1, views[0].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client)

	mock.ExpectGet("ranking:5").RedisNil()

	var views []models.RankingView
	err := repo.Get(context.Background(), "ranking:5", &views)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositorySet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client)

	mock.ExpectSet("ranking:5", []byte(`{"rank":1}`), time.Minute).SetVal("OK")

	err := repo.Set(context.Background(), "ranking:5", map[string]int{"rank": 1}, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client)

	mock.ExpectScan(0, "ranking:*", 0).SetVal([]string{"ranking:5", "ranking:6"}, 0)
	mock.ExpectDel("ranking:5", "ranking:6").SetVal(2)

	require.NoError(t, repo.DeleteByPattern(context.Background(), "ranking:*"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryDeleteError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client)

	mock.ExpectDel("ranking:5").SetErr(errors.New("connection refused"))

	err := repo.Delete(context.Background(), "ranking:5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil)

	var dest []models.RankingView
	assert.ErrorIs(t, repo.Get(context.Background(), "ranking:5", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "ranking:5", dest, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "ranking:*"))
}

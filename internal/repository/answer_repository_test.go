package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleEntries(n int) []models.AnswerEntry {
	entries := make([]models.AnswerEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, models.AnswerEntry{
			UserID:     "u1",
			TryoutID:   "5",
			SubjectID:  "A",
			QuestionNo: i,
			Status:     models.AnswerStatusCorrect,
			Answer:     "B",
			Track:      "saintek",
		})
	}
	return entries
}

func TestAnswerRepositoryListBatches(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db, 0)

	rows := sqlmock.NewRows([]string{"id", "id_user", "id_tryout", "id_mapel", "jawaban_user_permapel", "peminatan", "kosong", "salah", "benar"}).
		AddRow(1, "u1", "5", "A", `[{"no_soal":1}]`, "saintek", 1, 0, 3).
		AddRow(2, "u2", "5", "A", `[]`, nil, 4, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, id_user, id_tryout, id_mapel, jawaban_user_permapel, peminatan, kosong, salah, benar\nFROM jawaban_user_tryout_v2 WHERE id_tryout = $1")).
		WithArgs("5").
		WillReturnRows(rows)

	batches, err := repo.ListBatches(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "u1", batches[0].UserID)
	require.NotNil(t, batches[0].Track)
	assert.Equal(t, "saintek", *batches[0].Track)
	assert.Nil(t, batches[1].Track)
	assert.Equal(t, 4, batches[1].Blank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepositoryReplaceEntriesChunksInOneTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db, 2)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jawaban_user_tryout WHERE id_tryout = $1")).
		WithArgs("5").
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jawaban_user_tryout (id_user, id_tryout, id_mapel, no_soal, status, jawaban, peminatan)")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jawaban_user_tryout (id_user, id_tryout, id_mapel, no_soal, status, jawaban, peminatan)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted, err := repo.ReplaceEntries(context.Background(), "5", sampleEntries(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepositoryReplaceEntriesRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db, 2)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jawaban_user_tryout WHERE id_tryout = $1")).
		WithArgs("5").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jawaban_user_tryout")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jawaban_user_tryout")).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	inserted, err := repo.ReplaceEntries(context.Background(), "5", sampleEntries(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert answer entries: value too long")
	assert.Zero(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepositoryReplaceEntriesDeleteFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db, 2)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jawaban_user_tryout WHERE id_tryout = $1")).
		WithArgs("5").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := repo.ReplaceEntries(context.Background(), "5", sampleEntries(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear answer entries: lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepositoryReplaceEntriesEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db, 0)

	inserted, err := repo.ReplaceEntries(context.Background(), "5", nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkWindows(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, chunk(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, chunk(3, 0))
	assert.Empty(t, chunk(0, 10))
}

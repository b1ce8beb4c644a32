package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
)

const defaultInsertBatchSize = 1000

// AnswerRepository reads raw answer batches and writes normalized answers.
type AnswerRepository struct {
	db        *sqlx.DB
	batchSize int
}

// NewAnswerRepository constructs the repository. batchSize bounds the rows per INSERT statement.
func NewAnswerRepository(db *sqlx.DB, batchSize int) *AnswerRepository {
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}
	return &AnswerRepository{db: db, batchSize: batchSize}
}

// ListBatches returns every stored per-subject batch for a tryout.
func (r *AnswerRepository) ListBatches(ctx context.Context, tryoutID string) ([]models.AnswerBatch, error) {
	const query = `SELECT id, id_user, id_tryout, id_mapel, jawaban_user_permapel, peminatan, kosong, salah, benar
FROM jawaban_user_tryout_v2 WHERE id_tryout = $1 ORDER BY id`
	var batches []models.AnswerBatch
	if err := r.db.SelectContext(ctx, &batches, query, tryoutID); err != nil {
		return nil, fmt.Errorf("list answer batches: %w", err)
	}
	return batches, nil
}

// ReplaceEntries swaps the tryout's normalized answers for entries in one transaction:
// existing rows for the tryout are deleted, then entries are inserted in chunks.
// It returns the inserted row count.
func (r *AnswerRepository) ReplaceEntries(ctx context.Context, tryoutID string, entries []models.AnswerEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	const deleteQuery = `DELETE FROM jawaban_user_tryout WHERE id_tryout = $1`
	const insertQuery = `INSERT INTO jawaban_user_tryout (id_user, id_tryout, id_mapel, no_soal, status, jawaban, peminatan)
VALUES (:id_user, :id_tryout, :id_mapel, :no_soal, :status, :jawaban, :peminatan)`

	var inserted int64
	err := withTx(ctx, r.db, func(exec sqlx.ExtContext) error {
		if _, err := exec.ExecContext(ctx, deleteQuery, tryoutID); err != nil {
			return fmt.Errorf("clear answer entries: %w", err)
		}
		for _, w := range chunk(len(entries), r.batchSize) {
			res, err := sqlx.NamedExecContext(ctx, exec, insertQuery, entries[w[0]:w[1]])
			if err != nil {
				return fmt.Errorf("insert answer entries: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("answer entries rows affected: %w", err)
			}
			inserted += affected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

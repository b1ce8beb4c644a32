package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
)

// RankingRepository owns the ranking table and both review snapshot tables.
// Write methods take the executor of the caller's transaction.
type RankingRepository struct {
	db        *sqlx.DB
	batchSize int
}

// NewRankingRepository constructs the repository.
func NewRankingRepository(db *sqlx.DB, batchSize int) *RankingRepository {
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}
	return &RankingRepository{db: db, batchSize: batchSize}
}

// WithTx runs fn inside one transaction.
func (r *RankingRepository) WithTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	return withTx(ctx, r.db, fn)
}

// LockTryout takes a transaction-scoped advisory lock so runs for the same tryout serialize.
func (r *RankingRepository) LockTryout(ctx context.Context, exec sqlx.ExtContext, tryoutID string) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := exec.ExecContext(ctx, query, "rank:"+tryoutID); err != nil {
		return fmt.Errorf("lock tryout ranking: %w", err)
	}
	return nil
}

// DeleteRanking removes every ranking row of the tryout.
func (r *RankingRepository) DeleteRanking(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error) {
	const query = `DELETE FROM rank_tryout WHERE id_tryout = $1`
	res, err := exec.ExecContext(ctx, query, tryoutID)
	if err != nil {
		return 0, fmt.Errorf("delete rank_tryout: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rank_tryout rows affected: %w", err)
	}
	return affected, nil
}

// AggregateScores sums question points of correct answers per (user, track) and applies the divisor.
// Answers without a matching question still produce a row, worth zero points.
func (r *RankingRepository) AggregateScores(ctx context.Context, exec sqlx.ExtContext, tryoutID string, params models.ScoreParams) ([]models.ScoreRow, error) {
	const query = `SELECT jut.id_user, COALESCE(jut.peminatan, '') AS peminatan,
       COALESCE(SUM(CASE WHEN jut.status = $2 THEN st.point * $3 ELSE 0 END), 0)::float8 / $4 AS total
FROM jawaban_user_tryout jut
LEFT JOIN soal_tryout st
       ON st.no_soal = jut.no_soal
      AND st.id_mapel = jut.id_mapel
      AND st.id_tryout = jut.id_tryout
WHERE jut.id_tryout = $1
GROUP BY jut.id_user, COALESCE(jut.peminatan, '')`
	var rows []models.ScoreRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, tryoutID, string(params.CorrectStatus), params.PointMultiplier, params.SubjectDivisor); err != nil {
		return nil, fmt.Errorf("aggregate tryout scores: %w", err)
	}
	return rows, nil
}

// ListProfiles loads username, institution and region for the given users. The users and
// userdata halves are looked up independently, so either may be missing. Users with neither
// row are absent from the map.
func (r *RankingRepository) ListProfiles(ctx context.Context, exec sqlx.ExtContext, userIDs []string) (map[string]models.UserProfile, error) {
	profiles := make(map[string]models.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}
	const query = `SELECT ids.id, COALESCE(u.username, '') AS username, ud.instansi, ud.provinsi
FROM unnest($1::text[]) AS ids(id)
LEFT JOIN users u ON u.id = ids.id
LEFT JOIN userdata ud ON ud.id_user = ids.id
WHERE u.id IS NOT NULL OR ud.id_user IS NOT NULL`
	var rows []models.UserProfile
	if err := sqlx.SelectContext(ctx, exec, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list user profiles: %w", err)
	}
	for _, row := range rows {
		profiles[row.UserID] = row
	}
	return profiles, nil
}

// InsertRanking writes the ranked rows in multi-row statements.
func (r *RankingRepository) InsertRanking(ctx context.Context, exec sqlx.ExtContext, entries []models.RankEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `INSERT INTO rank_tryout (id_user, username, peminatan, total, instansi, provinsi, "rank", id_tryout, year)
VALUES (:id_user, :username, :peminatan, :total, :instansi, :provinsi, :rank, :id_tryout, :year)`
	for _, w := range chunk(len(entries), r.batchSize) {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, entries[w[0]:w[1]]); err != nil {
			return fmt.Errorf("insert rank_tryout: %w", err)
		}
	}
	return nil
}

// SnapshotAnswers replaces the flattened review copy of the tryout's answers.
func (r *RankingRepository) SnapshotAnswers(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error) {
	const deleteQuery = `DELETE FROM jawaban_user_tryout_pembahasan WHERE id_tryout = $1`
	const copyQuery = `INSERT INTO jawaban_user_tryout_pembahasan
    (id_user, id_tryout, id_mapel, no_soal, status, jawaban, peminatan)
SELECT id_user, id_tryout, id_mapel, no_soal, status, jawaban, peminatan
FROM jawaban_user_tryout
WHERE id_tryout = $1`
	return r.replaceSnapshot(ctx, exec, tryoutID, deleteQuery, copyQuery, "jawaban_user_tryout_pembahasan")
}

// SnapshotBatches replaces the batch-form review copy of the tryout's answers.
func (r *RankingRepository) SnapshotBatches(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error) {
	const deleteQuery = `DELETE FROM jawaban_user_tryout_pembahasan_v2 WHERE id_tryout = $1`
	const copyQuery = `INSERT INTO jawaban_user_tryout_pembahasan_v2
    (id, id_user, id_tryout, id_mapel, jawaban_user_permapel, peminatan, kosong, salah, benar)
SELECT id, id_user, id_tryout, id_mapel, jawaban_user_permapel, peminatan, kosong, salah, benar
FROM jawaban_user_tryout_v2
WHERE id_tryout = $1`
	return r.replaceSnapshot(ctx, exec, tryoutID, deleteQuery, copyQuery, "jawaban_user_tryout_pembahasan_v2")
}

func (r *RankingRepository) replaceSnapshot(ctx context.Context, exec sqlx.ExtContext, tryoutID, deleteQuery, copyQuery, table string) (int64, error) {
	if _, err := exec.ExecContext(ctx, deleteQuery, tryoutID); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	res, err := exec.ExecContext(ctx, copyQuery, tryoutID)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", table, err)
	}
	return copied, nil
}

// ListRanking returns the display projection ordered by score.
func (r *RankingRepository) ListRanking(ctx context.Context, tryoutID string) ([]models.RankingView, error) {
	const query = `SELECT r.id_user,
       COALESCE(u.username, r.username) AS username,
       r.peminatan,
       COALESCE(r.total, 0) AS total,
       COALESCE(r.instansi, '-') AS instansi,
       COALESCE(r.provinsi, 0) AS provinsi,
       r."rank",
       p.province_name,
       u.image
FROM rank_tryout r
LEFT JOIN users u ON u.id = r.id_user
LEFT JOIN province p ON p.id = r.provinsi
WHERE r.id_tryout = $1
ORDER BY r.total DESC, r."rank" ASC`
	var rows []models.RankingView
	if err := r.db.SelectContext(ctx, &rows, query, tryoutID); err != nil {
		return nil, fmt.Errorf("list ranking: %w", err)
	}
	return rows, nil
}

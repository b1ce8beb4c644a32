package models

import "time"

// AnswerStatus is the per-question outcome recorded by the test-taking client.
type AnswerStatus string

const (
	AnswerStatusCorrect   AnswerStatus = "benar"
	AnswerStatusIncorrect AnswerStatus = "salah"
	AnswerStatusBlank     AnswerStatus = "kosong"
)

// Sentinels used when a ranked user has no profile row.
const (
	UnknownInstitution       = "-"
	UnknownRegion      int64 = 0
)

// AnswerBatch is one stored blob of a user's answers for one subject of a tryout.
type AnswerBatch struct {
	ID        int64   `db:"id" json:"id"`
	UserID    string  `db:"id_user" json:"id_user"`
	TryoutID  string  `db:"id_tryout" json:"id_tryout"`
	SubjectID string  `db:"id_mapel" json:"id_mapel"`
	Answers   string  `db:"jawaban_user_permapel" json:"jawaban_user_permapel"`
	Track     *string `db:"peminatan" json:"peminatan,omitempty"`
	Blank     int     `db:"kosong" json:"kosong"`
	Wrong     int     `db:"salah" json:"salah"`
	Correct   int     `db:"benar" json:"benar"`
}

// AnswerEntry is one normalized per-question answer.
type AnswerEntry struct {
	UserID     string       `db:"id_user" json:"id_user" validate:"required"`
	TryoutID   string       `db:"id_tryout" json:"id_tryout" validate:"required"`
	SubjectID  string       `db:"id_mapel" json:"id_mapel" validate:"required"`
	QuestionNo int          `db:"no_soal" json:"no_soal" validate:"gte=1"`
	Status     AnswerStatus `db:"status" json:"status" validate:"oneof=benar salah kosong"`
	Answer     string       `db:"jawaban" json:"jawaban"`
	Track      string       `db:"peminatan" json:"peminatan"`
}

// ScoreRow is the aggregated score of one (user, track) pair.
type ScoreRow struct {
	UserID string  `db:"id_user"`
	Track  string  `db:"peminatan"`
	Total  float64 `db:"total"`
}

// ScoreParams carries the constants of the composite score formula.
type ScoreParams struct {
	CorrectStatus   AnswerStatus
	PointMultiplier float64
	SubjectDivisor  float64
}

// UserProfile holds the display and demographic fields used to enrich a ranking row.
type UserProfile struct {
	UserID      string  `db:"id"`
	Username    string  `db:"username"`
	Institution *string `db:"instansi"`
	RegionID    *int64  `db:"provinsi"`
}

// RankEntry is one persisted ranking row.
type RankEntry struct {
	UserID      string  `db:"id_user" json:"id_user"`
	Username    string  `db:"username" json:"username"`
	Track       string  `db:"peminatan" json:"peminatan"`
	Total       float64 `db:"total" json:"total"`
	Institution string  `db:"instansi" json:"instansi"`
	RegionID    int64   `db:"provinsi" json:"provinsi"`
	Rank        int     `db:"rank" json:"rank"`
	TryoutID    string  `db:"id_tryout" json:"id_tryout"`
	Year        int     `db:"year" json:"year"`
}

// RankingView is the display projection of a ranking row.
type RankingView struct {
	UserID       string  `db:"id_user" json:"id_user"`
	Username     string  `db:"username" json:"username"`
	Track        *string `db:"peminatan" json:"peminatan"`
	Total        float64 `db:"total" json:"total"`
	Institution  string  `db:"instansi" json:"instansi"`
	RegionID     int64   `db:"provinsi" json:"provinsi"`
	Rank         int     `db:"rank" json:"rank"`
	ProvinceName *string `db:"province_name" json:"province_name"`
	Image        *string `db:"image" json:"image"`
}

// ProcessResult summarises one ranking run.
type ProcessResult struct {
	TryoutID      string        `json:"tryoutId"`
	Ranked        int           `json:"ranked"`
	ReviewAnswers int64         `json:"reviewAnswers"`
	ReviewBatches int64         `json:"reviewBatches"`
	Duration      time.Duration `json:"-"`
}

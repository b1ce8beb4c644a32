package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

type answerStoreStub struct {
	batches   []models.AnswerBatch
	listErr   error
	insertErr error
	inserted  [][]models.AnswerEntry
	rows      map[string][]models.AnswerEntry
}

func (s *answerStoreStub) ListBatches(ctx context.Context, tryoutID string) ([]models.AnswerBatch, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.AnswerBatch
	for _, b := range s.batches {
		if b.TryoutID == tryoutID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *answerStoreStub) ReplaceEntries(ctx context.Context, tryoutID string, entries []models.AnswerEntry) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	if s.rows == nil {
		s.rows = make(map[string][]models.AnswerEntry)
	}
	s.rows[tryoutID] = append([]models.AnswerEntry(nil), entries...)
	s.inserted = append(s.inserted, entries)
	return int64(len(entries)), nil
}

func TestIngestionServiceIngest(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[
			{"id_user":"u1","id_tryout":"5","id_mapel":"A","no_soal":1,"status":"\"benar\"","jawaban":"\"B\"","peminatan":"\"saintek\""},
			{"id_user":"u1","id_tryout":"5","id_mapel":"A","no_soal":2,"status":"salah","jawaban":"C","peminatan":"saintek"}
		]`},
		{ID: 2, UserID: "u2", TryoutID: "5", SubjectID: "A", Answers: `[{"id_user":"u2","id_tryout":"5","id_mapel":"A","no_soal":1,"status":"kosong","jawaban":"","peminatan":"soshum"}]`},
	}}
	metrics := NewMetricsService()
	svc := NewIngestionService(store, nil, metrics, nil)

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)
	require.Len(t, store.inserted, 1)

	first := store.inserted[0][0]
	assert.Equal(t, models.AnswerEntry{
		UserID: "u1", TryoutID: "5", SubjectID: "A", QuestionNo: 1,
		Status: models.AnswerStatusCorrect, Answer: "B", Track: "saintek",
	}, first)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ingestedEntries))
}

func TestIngestionServiceSkipsUndecodableBatches(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":1,"status":"benar"`},
		{ID: 2, UserID: "u2", TryoutID: "5", SubjectID: "A", Answers: `{"no_soal":1}`},
		{ID: 3, UserID: "u3", TryoutID: "5", SubjectID: "B", Answers: `[{"id_user":"u3","id_tryout":"5","id_mapel":"B","no_soal":4,"status":"benar","jawaban":"D"}]`},
	}}
	metrics := NewMetricsService()
	svc := NewIngestionService(store, nil, metrics, zap.New(core))

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.Equal(t, "u3", store.inserted[0][0].UserID)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.decodeFailures))

	skipped := logs.FilterMessage("skipping undecodable answer batch").All()
	require.Len(t, skipped, 2)
	assert.Equal(t, int64(1), skipped[0].ContextMap()["batch_id"])
}

func TestIngestionServiceFallsBackToBatchFields(t *testing.T) {
	track := "saintek"
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 7, UserID: "u7", TryoutID: "5", SubjectID: "MAT", Track: &track, Answers: `[{"no_soal":"3","status":"benar","jawaban":"A"},{"id_user":12,"no_soal":4,"status":"salah","jawaban":"B","id_tryout":null}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	entries := store.inserted[0]
	assert.Equal(t, "u7", entries[0].UserID)
	assert.Equal(t, "5", entries[0].TryoutID)
	assert.Equal(t, "MAT", entries[0].SubjectID)
	assert.Equal(t, 3, entries[0].QuestionNo)
	assert.Equal(t, "saintek", entries[0].Track)
	assert.Equal(t, "12", entries[1].UserID)
	assert.Equal(t, "5", entries[1].TryoutID)
}

func TestIngestionServiceDropsInvalidEntries(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"status":"benar"},"oops",{"no_soal":2,"status":"benar"}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.Equal(t, 2, store.inserted[0][0].QuestionNo)
}

func TestIngestionServiceCollapsesRepeatedQuestions(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":1,"status":"salah","jawaban":"C"},{"no_soal":1,"status":"benar","jawaban":"B"},{"no_soal":2,"status":"kosong"}]`},
		{ID: 2, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":2,"status":"benar","jawaban":"D"}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	rows := store.rows["5"]
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].QuestionNo)
	assert.Equal(t, models.AnswerStatusCorrect, rows[0].Status)
	assert.Equal(t, "B", rows[0].Answer)
	assert.Equal(t, 2, rows[1].QuestionNo)
	assert.Equal(t, "D", rows[1].Answer)
}

func TestIngestionServiceRepeatedIngestReplacesRows(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":1,"status":"benar"},{"no_soal":2,"status":"salah"}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	for i := 0; i < 2; i++ {
		inserted, err := svc.Ingest(context.Background(), "5")
		require.NoError(t, err)
		assert.Equal(t, int64(2), inserted)
	}
	assert.Len(t, store.rows["5"], 2)
}

func TestIngestionServiceDropsUnknownStatus(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":1,"status":"maybe"},{"no_soal":2},{"no_soal":3,"status":"kosong"}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	inserted, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.Equal(t, models.AnswerStatusBlank, store.rows["5"][0].Status)
}

func TestIngestionServiceEntriesBelongToRequestedTryout(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"id_tryout":"6","no_soal":1,"status":"benar"}]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	_, err := svc.Ingest(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "5", store.rows["5"][0].TryoutID)
	assert.NotContains(t, store.rows, "6")
}

func TestIngestionServiceTryoutNotFound(t *testing.T) {
	store := &answerStoreStub{}
	svc := NewIngestionService(store, nil, nil, nil)

	_, err := svc.Ingest(context.Background(), "404")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTryoutNotFound)
	assert.Equal(t, "Data tidak ditemukan", appErrors.FromError(err).Message)
	assert.Empty(t, store.inserted)
}

func TestIngestionServiceNoValidAnswers(t *testing.T) {
	store := &answerStoreStub{batches: []models.AnswerBatch{
		{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `not json`},
		{ID: 2, UserID: "u2", TryoutID: "5", SubjectID: "A", Answers: `[]`},
	}}
	svc := NewIngestionService(store, nil, nil, nil)

	_, err := svc.Ingest(context.Background(), "5")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Tidak ada jawaban valid", appErr.Message)
	assert.Empty(t, store.inserted)
}

func TestIngestionServiceStoreErrors(t *testing.T) {
	svc := NewIngestionService(&answerStoreStub{listErr: errors.New("timeout")}, nil, nil, nil)
	_, err := svc.Ingest(context.Background(), "5")
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)

	store := &answerStoreStub{
		batches:   []models.AnswerBatch{{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A", Answers: `[{"no_soal":1,"status":"benar"}]`}},
		insertErr: errors.New("duplicate key"),
	}
	_, err = NewIngestionService(store, nil, nil, nil).Ingest(context.Background(), "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestDecodeBatchStripsQuotes(t *testing.T) {
	entries, err := decodeBatch(models.AnswerBatch{ID: 1, UserID: "u1", TryoutID: "5", SubjectID: "A",
		Answers: `[{"no_soal":1,"status":"\"salah\"","jawaban":"\"\"C\"\"","peminatan":"so\"shum"}]`})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AnswerStatusIncorrect, entries[0].Status)
	assert.Equal(t, "C", entries[0].Answer)
	assert.Equal(t, "soshum", entries[0].Track)
}

func TestDecodeBatchRejectsNonArray(t *testing.T) {
	_, err := decodeBatch(models.AnswerBatch{ID: 9, Answers: `{"no_soal":1}`})
	assert.ErrorIs(t, err, errNotAnArray)

	_, err = decodeBatch(models.AnswerBatch{ID: 9, Answers: ``})
	assert.Error(t, err)
}

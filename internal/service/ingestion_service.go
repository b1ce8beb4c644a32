package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

type answerStore interface {
	ListBatches(ctx context.Context, tryoutID string) ([]models.AnswerBatch, error)
	ReplaceEntries(ctx context.Context, tryoutID string, entries []models.AnswerEntry) (int64, error)
}

// IngestionService flattens stored answer batches into per-question answer rows.
type IngestionService struct {
	repo      answerStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewIngestionService constructs the service.
func NewIngestionService(repo answerStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *IngestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// Ingest decodes every batch of the tryout and replaces the tryout's normalized answers with
// the valid entries, returning the inserted count. Batches that fail to decode are skipped.
// A repeated (user, subject, question) keeps its last occurrence. Nothing is written unless
// at least one entry is valid.
func (s *IngestionService) Ingest(ctx context.Context, tryoutID string) (int64, error) {
	batches, err := s.repo.ListBatches(ctx, tryoutID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer batches")
	}
	if len(batches) == 0 {
		return 0, appErrors.ErrTryoutNotFound
	}

	var entries []models.AnswerEntry
	positions := make(map[answerKey]int)
	skippedBatches, droppedEntries, duplicates := 0, 0, 0
	for _, batch := range batches {
		decoded, err := decodeBatch(batch)
		if err != nil {
			skippedBatches++
			s.metrics.IncDecodeFailure()
			s.logger.Warn("skipping undecodable answer batch",
				zap.Int64("batch_id", batch.ID),
				zap.String("user_id", batch.UserID),
				zap.String("subject_id", batch.SubjectID),
				zap.Error(err),
			)
			continue
		}
		for _, entry := range decoded {
			if err := s.validator.Struct(entry); err != nil {
				droppedEntries++
				s.logger.Debug("dropping invalid answer entry", zap.Int64("batch_id", batch.ID), zap.Error(err))
				continue
			}
			key := keyOf(entry)
			if i, seen := positions[key]; seen {
				duplicates++
				entries[i] = entry
				continue
			}
			positions[key] = len(entries)
			entries = append(entries, entry)
		}
	}

	if droppedEntries > 0 {
		s.logger.Warn("dropped invalid answer entries", zap.String("tryout_id", tryoutID), zap.Int("count", droppedEntries))
	}
	if duplicates > 0 {
		s.logger.Warn("collapsed repeated answer entries", zap.String("tryout_id", tryoutID), zap.Int("count", duplicates))
	}
	if len(entries) == 0 {
		return 0, appErrors.ErrNoValidAnswers
	}

	inserted, err := s.repo.ReplaceEntries(ctx, tryoutID, entries)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert answer entries")
	}
	s.metrics.AddIngestedEntries(inserted)
	s.logger.Info("answer entries ingested",
		zap.String("tryout_id", tryoutID),
		zap.Int("batches", len(batches)),
		zap.Int("skipped_batches", skippedBatches),
		zap.Int64("inserted", inserted),
	)
	return inserted, nil
}

// answerKey identifies one answer slot in the normalized set.
type answerKey struct {
	userID     string
	tryoutID   string
	subjectID  string
	questionNo int
}

func keyOf(entry models.AnswerEntry) answerKey {
	return answerKey{userID: entry.UserID, tryoutID: entry.TryoutID, subjectID: entry.SubjectID, questionNo: entry.QuestionNo}
}

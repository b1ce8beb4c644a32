package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

const (
	defaultSubjectDivisor = 7
	defaultRankingYear    = 2026
	rankingCachePrefix    = "ranking:"
)

type rankingStore interface {
	WithTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
	LockTryout(ctx context.Context, exec sqlx.ExtContext, tryoutID string) error
	DeleteRanking(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error)
	AggregateScores(ctx context.Context, exec sqlx.ExtContext, tryoutID string, params models.ScoreParams) ([]models.ScoreRow, error)
	ListProfiles(ctx context.Context, exec sqlx.ExtContext, userIDs []string) (map[string]models.UserProfile, error)
	InsertRanking(ctx context.Context, exec sqlx.ExtContext, entries []models.RankEntry) error
	SnapshotAnswers(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error)
	SnapshotBatches(ctx context.Context, exec sqlx.ExtContext, tryoutID string) (int64, error)
	ListRanking(ctx context.Context, tryoutID string) ([]models.RankingView, error)
}

// RankingServiceConfig tunes scoring and run behaviour.
type RankingServiceConfig struct {
	Scoring      models.ScoreParams
	Year         int
	AdvisoryLock bool
	CacheTTL     time.Duration
}

// RankingService recomputes and serves per-tryout rankings.
type RankingService struct {
	repo    rankingStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     RankingServiceConfig
	now     func() time.Time
	reads   singleflight.Group

	// generations counts committed runs per tryout. A read that started under an older
	// generation must not populate the cache.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewRankingService constructs the service. cache and metrics may be nil.
func NewRankingService(repo rankingStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg RankingServiceConfig) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Scoring.SubjectDivisor <= 0 {
		cfg.Scoring.SubjectDivisor = defaultSubjectDivisor
	}
	if cfg.Scoring.PointMultiplier <= 0 {
		cfg.Scoring.PointMultiplier = 1
	}
	if cfg.Scoring.CorrectStatus == "" {
		cfg.Scoring.CorrectStatus = models.AnswerStatusCorrect
	}
	if cfg.Year <= 0 {
		cfg.Year = defaultRankingYear
	}
	return &RankingService{
		repo:        repo,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

// ProcessedMessage is the confirmation returned after a successful run.
func ProcessedMessage(tryoutID string) string {
	return fmt.Sprintf("Ranking & pembahasan berhasil diproses untuk tryout %s", tryoutID)
}

func rankingCacheKey(tryoutID string) string {
	return rankingCachePrefix + tryoutID
}

func (s *RankingService) generation(tryoutID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[tryoutID]
}

// markCommitted bumps the tryout's generation and detaches any in-flight read so later
// callers do not share a result loaded before the commit.
func (s *RankingService) markCommitted(tryoutID string) {
	s.genMu.Lock()
	s.generations[tryoutID]++
	s.genMu.Unlock()
	s.reads.Forget(rankingCacheKey(tryoutID))
}

// Process rebuilds the tryout's ranking and review snapshots in a single transaction.
// On failure nothing from the run is visible and the previous ranking stays in place.
func (s *RankingService) Process(ctx context.Context, tryoutID string) (*models.ProcessResult, error) {
	start := s.now()
	result := &models.ProcessResult{TryoutID: tryoutID}

	err := s.repo.WithTx(ctx, func(exec sqlx.ExtContext) error {
		if s.cfg.AdvisoryLock {
			if err := s.repo.LockTryout(ctx, exec, tryoutID); err != nil {
				return err
			}
		}
		if _, err := s.repo.DeleteRanking(ctx, exec, tryoutID); err != nil {
			return err
		}

		scores, err := s.repo.AggregateScores(ctx, exec, tryoutID, s.cfg.Scoring)
		if err != nil {
			return err
		}
		profiles, err := s.repo.ListProfiles(ctx, exec, userIDs(scores))
		if err != nil {
			return err
		}
		entries := BuildRankEntries(AssignRanks(scores), profiles, tryoutID, s.cfg.Year)
		if err := s.repo.InsertRanking(ctx, exec, entries); err != nil {
			return err
		}
		result.Ranked = len(entries)

		if result.ReviewAnswers, err = s.repo.SnapshotAnswers(ctx, exec, tryoutID); err != nil {
			return err
		}
		if result.ReviewBatches, err = s.repo.SnapshotBatches(ctx, exec, tryoutID); err != nil {
			return err
		}
		return nil
	})
	result.Duration = s.now().Sub(start)

	if err != nil {
		s.metrics.ObserveRankingRun(OutcomeFailure, 0, result.Duration)
		s.logger.Error("ranking run failed", zap.String("tryout_id", tryoutID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrProcessFailed.Code, appErrors.ErrProcessFailed.Status, appErrors.ErrProcessFailed.Message)
	}

	s.metrics.ObserveRankingRun(OutcomeSuccess, result.Ranked, result.Duration)
	s.markCommitted(tryoutID)
	if err := s.cache.Invalidate(ctx, rankingCacheKey(tryoutID)); err != nil {
		s.logger.Warn("ranking cache not invalidated", zap.String("tryout_id", tryoutID), zap.Error(err))
	}
	s.logger.Info("ranking processed",
		zap.String("tryout_id", tryoutID),
		zap.Int("ranked", result.Ranked),
		zap.Int64("review_answers", result.ReviewAnswers),
		zap.Int64("review_batches", result.ReviewBatches),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// List returns the tryout's ranking ordered by total desc then rank asc.
// An unknown tryout yields an empty list. Concurrent misses for one tryout share a single read,
// and a read overtaken by a committed run is returned but not cached.
func (s *RankingService) List(ctx context.Context, tryoutID string) ([]models.RankingView, error) {
	key := rankingCacheKey(tryoutID)
	var cached []models.RankingView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	res, err, _ := s.reads.Do(key, func() (interface{}, error) {
		gen := s.generation(tryoutID)
		rows, err := s.repo.ListRanking(ctx, tryoutID)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []models.RankingView{}
		}
		if s.generation(tryoutID) != gen {
			s.logger.Debug("ranking changed during read; not caching", zap.String("tryout_id", tryoutID))
			return rows, nil
		}
		if err := s.cache.Set(ctx, key, rows, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("ranking not cached", zap.String("tryout_id", tryoutID), zap.Error(err))
			return rows, nil
		}
		// A run committed between the check and the write: drop what was just stored.
		if s.generation(tryoutID) != gen {
			if err := s.cache.Invalidate(ctx, key); err != nil {
				s.logger.Warn("stale ranking left in cache", zap.String("tryout_id", tryoutID), zap.Error(err))
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ranking")
	}
	return res.([]models.RankingView), nil
}

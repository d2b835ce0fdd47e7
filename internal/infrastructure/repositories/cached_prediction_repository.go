package repositories

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/logging"
	"golang.org/x/sync/singleflight"
)

// statsLoadTimeout bounds a shared store read once it is detached from the
// caller that started it
const statsLoadTimeout = 5 * time.Second

// CachedPredictionRepository serves StatsForUser through a StatsCache.
// Writes go straight through and invalidate the writer's entry. A fill that
// raced a write is returned to its callers but not cached.
type CachedPredictionRepository struct {
	next   domain.PredictionRepository
	cache  *StatsCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedPredictionRepository decorates next. A nil cache returns next unchanged.
func NewCachedPredictionRepository(next domain.PredictionRepository, cache *StatsCache, log *slog.Logger) domain.PredictionRepository {
	if cache == nil {
		return next
	}
	return &CachedPredictionRepository{
		next:   next,
		cache:  cache,
		logger: logging.OrNop(log).With("component", "stats_cache"),
	}
}

// Record implements domain.PredictionRepository
func (r *CachedPredictionRepository) Record(ctx context.Context, userID string, input domain.Features, result *domain.ClassificationResult, accuracy, latencyMs float64) (*domain.Prediction, error) {
	p, err := r.next.Record(ctx, userID, input, result, accuracy, latencyMs)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		r.logger.WarnContext(ctx, "stats invalidation failed", "user_id", userID, "error", err)
	}
	return p, nil
}

// ListForUser implements domain.PredictionRepository
func (r *CachedPredictionRepository) ListForUser(ctx context.Context, userID string, limit, skip int) ([]domain.Prediction, error) {
	return r.next.ListForUser(ctx, userID, limit, skip)
}

// StatsForUser implements domain.PredictionRepository
func (r *CachedPredictionRepository) StatsForUser(ctx context.Context, userID string) (*domain.PredictionStats, error) {
	stats, ok, err := r.cache.Get(ctx, userID)
	if err != nil {
		r.logger.WarnContext(ctx, "stats cache read failed", "user_id", userID, "error", err)
	}
	if ok {
		return stats, nil
	}

	gen, genErr := r.cache.Generation(ctx, userID)
	if genErr != nil {
		r.logger.WarnContext(ctx, "stats generation read failed", "user_id", userID, "error", genErr)
	}

	v, err, _ := r.group.Do(userID+":"+strconv.FormatInt(gen, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsLoadTimeout)
		defer cancel()

		fresh, err := r.next.StatsForUser(loadCtx, userID)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			return fresh, nil
		}
		stored, err := r.cache.SetIfGeneration(loadCtx, userID, gen, fresh)
		if err != nil {
			r.logger.WarnContext(ctx, "stats cache write failed", "user_id", userID, "error", err)
		} else if !stored {
			r.logger.DebugContext(ctx, "stats changed during load, not cached", "user_id", userID)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PredictionStats), nil
}

package nlu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"conversation-relay/internal/common/database"
	relayerrors "conversation-relay/internal/common/errors"
	"conversation-relay/internal/common/logger"
	"conversation-relay/internal/common/metrics"
	"conversation-relay/internal/models"
)

const cacheKeyPrefix = "nlu:analysis:"

// Analyzer is anything that can analyze text.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error)
}

// Cache is the storage used by CachedAnalyzer.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedAnalyzer serves repeated texts from Redis. Cache problems never fail
// a call; analyzer failures are never stored.
type CachedAnalyzer struct {
	next   Analyzer
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAnalyzer(next Analyzer, cache Cache, ttl time.Duration, log logger.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "analysis-cache"}),
	}
}

// CacheKey is the Redis key for an analysis of text with the default features.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (a *CachedAnalyzer) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	key := CacheKey(req.Text)

	if cached, ok := a.lookup(ctx, key); ok {
		return cached, nil
	}

	result, err := a.next.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, result)
	return result, nil
}

func (a *CachedAnalyzer) lookup(ctx context.Context, key string) (*models.AnalysisResult, bool) {
	data, err := a.cache.Get(ctx, key)
	if errors.Is(err, database.ErrCacheMiss) {
		metrics.ObserveCacheLookup(metrics.CacheMiss)
		return nil, false
	}
	if err != nil {
		metrics.ObserveCacheLookup(metrics.CacheError)
		a.logger.Warn("analysis cache read failed", map[string]interface{}{
			"error": relayerrors.NewCacheFailedError("get", err).Details,
		})
		return nil, false
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		metrics.ObserveCacheLookup(metrics.CacheError)
		a.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	metrics.ObserveCacheLookup(metrics.CacheHit)
	return &result, true
}

func (a *CachedAnalyzer) store(ctx context.Context, key string, result *models.AnalysisResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		a.logger.Warn("analysis cache write failed", map[string]interface{}{
			"error": relayerrors.NewCacheFailedError("set", err).Details,
		})
	}
}

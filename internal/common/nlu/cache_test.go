package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-relay/internal/common/database"
	"conversation-relay/internal/common/logger"
	"conversation-relay/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type countingAnalyzer struct {
	calls  int
	result *models.AnalysisResult
	err    error
}

func (a *countingAnalyzer) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	a.calls++
	return a.result, a.err
}

func newMiniredisCache(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, database.NewRedisFromClient(rdb)
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Entities:   []models.Entity{{Label: "car", Score: 0.9}},
		Categories: []models.Category{{Label: "/automotive and vehicles/cars", Score: 0.77}},
	}
}

// ==========================
// Tests
// ==========================

func TestCachedAnalyzer_MissThenHit(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	next := &countingAnalyzer{result: sampleResult()}
	analyzer := NewCachedAnalyzer(next, cache, time.Minute, logger.NewTestLogger(t))

	req := &models.AnalyzeRequest{Text: "I want a car", Features: models.DefaultFeatures()}

	first, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), first)
	assert.Equal(t, 1, next.calls)

	assert.True(t, mr.Exists(CacheKey("I want a car")))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey("I want a car")))

	second, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), second)
	assert.Equal(t, 1, next.calls, "second call is served from cache")
}

func TestCachedAnalyzer_FailuresAreNotCached(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	next := &countingAnalyzer{err: errors.New("analyzer down")}
	analyzer := NewCachedAnalyzer(next, cache, time.Minute, logger.NewNoOpLogger())

	_, err := analyzer.Analyze(context.Background(), &models.AnalyzeRequest{Text: "hello"})
	require.Error(t, err)
	assert.False(t, mr.Exists(CacheKey("hello")))

	_, err = analyzer.Analyze(context.Background(), &models.AnalyzeRequest{Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedAnalyzer_CorruptEntryIsIgnored(t *testing.T) {
	mr, cache := newMiniredisCache(t)
	require.NoError(t, mr.Set(CacheKey("hello"), "{not json"))

	next := &countingAnalyzer{result: sampleResult()}
	analyzer := NewCachedAnalyzer(next, cache, time.Minute, logger.NewNoOpLogger())

	result, err := analyzer.Analyze(context.Background(), &models.AnalyzeRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), result)
	assert.Equal(t, 1, next.calls)

	stored, err := mr.Get(CacheKey("hello"))
	require.NoError(t, err)
	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded), "entry is overwritten with a fresh result")
}

func TestCachedAnalyzer_RedisErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := CacheKey("hello")
	mock.ExpectGet(key).SetErr(errors.New("connection reset by peer"))

	next := &countingAnalyzer{result: sampleResult()}
	analyzer := NewCachedAnalyzer(next, database.NewRedisFromClient(rdb), time.Minute, logger.NewNoOpLogger())

	result, err := analyzer.Analyze(context.Background(), &models.AnalyzeRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), result)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a"), CacheKey("a"))
	assert.NotEqual(t, CacheKey("a"), CacheKey("b"))
	assert.Contains(t, CacheKey("a"), cacheKeyPrefix)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// AnalysisCache implements domain.AnalysisCache with JSON values and index
// sets so a period, or everything, can be dropped at once.
//
// Key schema:
//
//	lotto:memo:{scope}:analysis:{period}          - hash, field "data" holds the Analysis
//	lotto:memo:{scope}:rec:{period}:{strategy}    - hash, field "data" holds the Recommendation
//	lotto:memo:{scope}:strategies:{period}        - set of strategies memoised for period
//	lotto:memo:{scope}:periods                    - set of periods with any entry in scope
//	lotto:memo:scopes                             - set of scopes with any entry
type AnalysisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnalysisCache creates an AnalysisCache whose entries expire after ttl.
// A zero ttl keeps entries until invalidated.
func NewAnalysisCache(c *Client, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{rdb: c.Underlying(), ttl: ttl}
}

func memoKey(scope string) string {
	return keyPrefix + "memo:" + scope + ":"
}

func analysisKey(scope string, period int) string {
	return memoKey(scope) + "analysis:" + strconv.Itoa(period)
}

func recommendationKey(scope string, period int, strategy string) string {
	return memoKey(scope) + "rec:" + strconv.Itoa(period) + ":" + strategy
}

func strategiesKey(scope string, period int) string {
	return memoKey(scope) + "strategies:" + strconv.Itoa(period)
}

func periodsKey(scope string) string {
	return memoKey(scope) + "periods"
}

const scopesKey = keyPrefix + "memo:scopes"

// GetAnalysis returns the memoised analysis for period or domain.ErrNotFound.
func (ac *AnalysisCache) GetAnalysis(ctx context.Context, scope string, period int) (domain.Analysis, error) {
	var a domain.Analysis
	if err := ac.get(ctx, analysisKey(scope, period), &a); err != nil {
		return domain.Analysis{}, fmt.Errorf("redis: get analysis %s/%d: %w", scope, period, err)
	}
	return a, nil
}

// SetAnalysis memoises a for period.
func (ac *AnalysisCache) SetAnalysis(ctx context.Context, scope string, period int, a domain.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redis: marshal analysis %d: %w", period, err)
	}
	pipe := ac.rdb.TxPipeline()
	ac.put(ctx, pipe, analysisKey(scope, period), data)
	ac.index(ctx, pipe, scope, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set analysis %s/%d: %w", scope, period, err)
	}
	return nil
}

// GetRecommendation returns the memoised recommendation for (period,
// strategy) or domain.ErrNotFound.
func (ac *AnalysisCache) GetRecommendation(ctx context.Context, scope string, period int, strategy string) (domain.Recommendation, error) {
	var rec domain.Recommendation
	if err := ac.get(ctx, recommendationKey(scope, period, strategy), &rec); err != nil {
		return domain.Recommendation{}, fmt.Errorf("redis: get recommendation %s/%d/%s: %w", scope, period, strategy, err)
	}
	return rec, nil
}

// SetRecommendation memoises rec under (period, rec.Strategy).
func (ac *AnalysisCache) SetRecommendation(ctx context.Context, scope string, period int, rec domain.Recommendation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: marshal recommendation %s: %w", rec.ID, err)
	}
	pipe := ac.rdb.TxPipeline()
	ac.put(ctx, pipe, recommendationKey(scope, period, rec.Strategy), data)
	pipe.SAdd(ctx, strategiesKey(scope, period), rec.Strategy)
	ac.index(ctx, pipe, scope, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set recommendation %s/%d/%s: %w", scope, period, rec.Strategy, err)
	}
	return nil
}

// Invalidate removes the analysis and every recommendation for period in
// every scope.
func (ac *AnalysisCache) Invalidate(ctx context.Context, period int) error {
	scopes, err := ac.members(ctx, scopesKey)
	if err != nil {
		return fmt.Errorf("redis: invalidate %d: %w", period, err)
	}
	for _, scope := range scopes {
		if err := ac.invalidate(ctx, scope, period); err != nil {
			return fmt.Errorf("redis: invalidate %s/%d: %w", scope, period, err)
		}
	}
	return nil
}

// InvalidateAll removes every memoised entry.
func (ac *AnalysisCache) InvalidateAll(ctx context.Context) error {
	scopes, err := ac.members(ctx, scopesKey)
	if err != nil {
		return fmt.Errorf("redis: invalidate all: %w", err)
	}
	for _, scope := range scopes {
		periods, err := ac.members(ctx, periodsKey(scope))
		if err != nil {
			return fmt.Errorf("redis: invalidate all: %w", err)
		}
		for _, p := range periods {
			period, err := strconv.Atoi(p)
			if err != nil {
				continue
			}
			if err := ac.invalidate(ctx, scope, period); err != nil {
				return fmt.Errorf("redis: invalidate %s/%d: %w", scope, period, err)
			}
		}
		if err := ac.rdb.SRem(ctx, scopesKey, scope).Err(); err != nil {
			return fmt.Errorf("redis: invalidate all: %w", err)
		}
	}
	return nil
}

func (ac *AnalysisCache) invalidate(ctx context.Context, scope string, period int) error {
	strategies, err := ac.members(ctx, strategiesKey(scope, period))
	if err != nil {
		return err
	}
	keys := []string{analysisKey(scope, period), strategiesKey(scope, period)}
	for _, s := range strategies {
		keys = append(keys, recommendationKey(scope, period, s))
	}

	pipe := ac.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, periodsKey(scope), period)
	_, err = pipe.Exec(ctx)
	return err
}

func (ac *AnalysisCache) index(ctx context.Context, pipe redis.Pipeliner, scope string, period int) {
	pipe.SAdd(ctx, periodsKey(scope), period)
	pipe.SAdd(ctx, scopesKey, scope)
}

func (ac *AnalysisCache) members(ctx context.Context, key string) ([]string, error) {
	members, err := ac.rdb.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return members, nil
}

func (ac *AnalysisCache) get(ctx context.Context, key string, dst any) error {
	data, err := ac.rdb.HGet(ctx, key, "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (ac *AnalysisCache) put(ctx context.Context, pipe redis.Pipeliner, key string, data []byte) {
	pipe.HSet(ctx, key, "data", data)
	if ac.ttl > 0 {
		pipe.Expire(ctx, key, ac.ttl)
	}
}

// Compile-time interface check.
var _ domain.AnalysisCache = (*AnalysisCache)(nil)

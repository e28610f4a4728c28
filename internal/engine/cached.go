package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// flightTimeout bounds a shared engine call. Callers give up at their own
// deadline; the call itself is detached from any single caller.
const flightTimeout = 2 * time.Minute

// EvalCache stores finished evaluations by key.
type EvalCache interface {
	Get(ctx context.Context, key string) (analysis.EvaluationResult, bool, error)
	Set(ctx context.Context, key string, res analysis.EvaluationResult, ttl time.Duration) error
}

// Cached decorates an Evaluator with a shared cache and collapses concurrent
// evaluations of the same position into one engine call. Cache failures are
// logged and never fail an evaluation.
type Cached struct {
	next  Evaluator
	cache EvalCache
	ttl   time.Duration
	group singleflight.Group
	log   *zap.SugaredLogger
}

func NewCached(next Evaluator, cache EvalCache, ttl time.Duration, log *zap.SugaredLogger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

// CacheKey ignores the move clocks so transpositions share an entry.
func CacheKey(fen string, depth int) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return fmt.Sprintf("eval:%d:%s", depth, strings.Join(fields, " "))
}

func (c *Cached) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	key := CacheKey(fen, depth)

	res, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warnw("eval cache read failed", "key", key, "error", err)
	} else if ok {
		return res, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		res, err := c.next.Evaluate(flightCtx, fen, depth)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(flightCtx, key, res, c.ttl); err != nil {
			c.log.Warnw("eval cache write failed", "key", key, "error", err)
		}
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return analysis.EvaluationResult{}, r.Err
		}
		return r.Val.(analysis.EvaluationResult), nil
	case <-ctx.Done():
		return analysis.EvaluationResult{}, ctxError(ctx)
	}
}

func (c *Cached) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]analysis.EvaluationResult
	failGet bool
	failSet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]analysis.EvaluationResult{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (analysis.EvaluationResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return analysis.EvaluationResult{}, false, errors.New("connection refused")
	}
	res, ok := m.entries[key]
	return res, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, res analysis.EvaluationResult, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("connection refused")
	}
	m.entries[key] = res
	return nil
}

type countingEvaluator struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *countingEvaluator) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return analysis.EvaluationResult{BestMove: "e2e4", Score: analysis.Score{Cp: 25}, SearchDepth: depth}, nil
}

func (c *countingEvaluator) Ping(context.Context) error { return nil }

// slowEvaluator honors ctx like the pool does.
type slowEvaluator struct {
	delay time.Duration
}

func (s *slowEvaluator) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	select {
	case <-time.After(s.delay):
		return analysis.EvaluationResult{BestMove: "e2e4", Score: analysis.Score{Cp: 25}, SearchDepth: depth}, nil
	case <-ctx.Done():
		return analysis.EvaluationResult{}, ctxError(ctx)
	}
}

func (s *slowEvaluator) Ping(context.Context) error { return nil }

func TestCacheKeyIgnoresClocks(t *testing.T) {
	a := CacheKey("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", 15)
	b := CacheKey("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 4 9", 15)
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a == CacheKey("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", 12) {
		t.Fatal("depth must be part of the key")
	}
}

func TestCachedServesHits(t *testing.T) {
	next := &countingEvaluator{}
	cached := NewCached(next, newMemoryCache(), time.Hour, zap.NewNop().Sugar())

	for i := 0; i < 3; i++ {
		res, err := cached.Evaluate(context.Background(), pingFEN, 10)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if res.Score.Cp != 25 {
			t.Fatalf("score = %d", res.Score.Cp)
		}
	}
	if got := next.calls.Load(); got != 1 {
		t.Fatalf("engine called %d times, want 1", got)
	}
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	next := &countingEvaluator{delay: 30 * time.Millisecond}
	cached := NewCached(next, newMemoryCache(), time.Hour, zap.NewNop().Sugar())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached.Evaluate(context.Background(), pingFEN, 10); err != nil {
				t.Errorf("Evaluate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := next.calls.Load(); got > 2 {
		t.Fatalf("engine called %d times for one position", got)
	}
}

func TestCachedToleratesCacheFailures(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	cache.failSet = true
	cached := NewCached(&countingEvaluator{}, cache, time.Hour, zap.NewNop().Sugar())

	if _, err := cached.Evaluate(context.Background(), pingFEN, 10); err != nil {
		t.Fatalf("cache failure leaked into evaluation: %v", err)
	}
}

func TestCachedCallersKeepIndependentDeadlines(t *testing.T) {
	cached := NewCached(&slowEvaluator{delay: 300 * time.Millisecond}, newMemoryCache(), time.Hour, zap.NewNop().Sugar())

	shortErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := cached.Evaluate(ctx, pingFEN, 10)
		shortErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := cached.Evaluate(ctx, pingFEN, 10)
	if err != nil {
		t.Fatalf("long deadline caller failed: %v", err)
	}
	if res.BestMove != "e2e4" {
		t.Fatalf("best move = %q", res.BestMove)
	}

	if err := <-shortErr; !errors.Is(err, apperrors.ErrEngineTimeout) {
		t.Fatalf("short deadline caller err = %v, want engine timeout", err)
	}
}

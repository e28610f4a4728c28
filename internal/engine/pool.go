package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

var ErrPoolClosed = errors.New("engine pool closed")

// Pool is a fixed-size set of engine instances. Instances are spawned lazily
// by the factory; callers queue in Acquire when every slot is taken.
type Pool struct {
	factory Factory
	log     *zap.SugaredLogger

	slots chan struct{}
	idle  chan Instance

	mu     sync.Mutex
	closed bool
}

func NewPool(size int, factory Factory, log *zap.SugaredLogger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		factory: factory,
		log:     log,
		slots:   make(chan struct{}, size),
		idle:    make(chan Instance, size),
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

func (p *Pool) Size() int {
	return cap(p.slots)
}

// Acquire blocks until an instance is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Instance, error) {
	select {
	case <-p.slots:
	case <-ctx.Done():
		return nil, ctxError(ctx)
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.slots <- struct{}{}
		return nil, ErrPoolClosed
	}

	select {
	case inst := <-p.idle:
		return inst, nil
	default:
	}

	inst, err := p.factory()
	if err != nil {
		p.slots <- struct{}{}
		if errors.Is(err, apperrors.ErrEngineUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEngineUnavailable, err)
	}

	return inst, nil
}

// Release returns a healthy instance to the pool.
// The push happens under p.mu so Close cannot drain idle in between.
func (p *Pool) Release(inst Instance) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.Discard(inst)
		return
	}
	p.idle <- inst
	p.mu.Unlock()

	p.slots <- struct{}{}
}

// Discard kills an instance that may still be searching and frees its slot;
// the next Acquire spawns a replacement.
func (p *Pool) Discard(inst Instance) {
	if err := inst.Close(); err != nil {
		p.log.Warnw("failed to close engine instance", "error", err)
	}
	p.slots <- struct{}{}
}

// Do runs fn with an acquired instance and always gives the slot back. If
// ctx expires while fn is still running, the instance is discarded because
// its process is left mid-search.
func (p *Pool) Do(ctx context.Context, fn func(Instance) error) error {
	inst, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: engine call panicked: %v", apperrors.ErrInternal, r)
			}
		}()
		done <- fn(inst)
	}()

	select {
	case err := <-done:
		if errors.Is(err, apperrors.ErrEngineUnavailable) || errors.Is(err, apperrors.ErrInternal) {
			p.Discard(inst)
		} else {
			p.Release(inst)
		}
		return err
	case <-ctx.Done():
		p.Discard(inst)
		return ctxError(ctx)
	}
}

// Evaluate implements Evaluator.
func (p *Pool) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	var res analysis.EvaluationResult
	err := p.Do(ctx, func(inst Instance) error {
		raw, err := inst.Analyze(fen, depth)
		if err != nil {
			return err
		}
		res = Normalize(raw)
		return nil
	})
	if err != nil {
		return analysis.EvaluationResult{}, err
	}
	return res, nil
}

// Ping makes sure at least one instance can be spawned.
func (p *Pool) Ping(ctx context.Context) error {
	inst, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	p.Release(inst)
	return nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case inst := <-p.idle:
			if err := inst.Close(); err != nil {
				p.log.Warnw("failed to close engine instance", "error", err)
			}
		default:
			return
		}
	}
}

func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrEngineTimeout, ctx.Err())
	}
	return ctx.Err()
}

package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/bootstrap"
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/engine"
)

// EngineRepository owns the microservice's pool of local engine processes.
type EngineRepository struct {
	cfg  *bootstrap.Config
	log  *zap.SugaredLogger
	pool *engine.Pool
}

func NewEngineRepository(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineRepository {
	factory := engine.UCIFactory(engine.UCIOptions{
		Path:    cfg.EnginePath,
		HashMB:  cfg.EngineHashMB,
		Threads: cfg.EngineThreads,
	})
	return NewEngineRepositoryWithPool(cfg, log, engine.NewPool(cfg.EnginePoolSize, factory, log))
}

func NewEngineRepositoryWithPool(cfg *bootstrap.Config, log *zap.SugaredLogger, pool *engine.Pool) *EngineRepository {
	return &EngineRepository{
		cfg:  cfg,
		log:  log,
		pool: pool,
	}
}

// Warmup spawns one instance so a broken engine path fails at startup.
func (r *EngineRepository) Warmup(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *EngineRepository) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	if depth <= 0 {
		depth = r.cfg.EngineDepth
	}
	return r.pool.Evaluate(ctx, fen, depth)
}

func (r *EngineRepository) Close() {
	r.pool.Close()
	r.log.Infow("engine pool closed", "size", r.pool.Size())
}

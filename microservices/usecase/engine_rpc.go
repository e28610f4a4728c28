package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/engine"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/microservices/enginerpc"
)

type EngineStore interface {
	Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error)
}

type EngineUseCase struct {
	store EngineStore
	log   *zap.SugaredLogger
}

func NewEngineUseCase(store EngineStore, log *zap.SugaredLogger) *EngineUseCase {
	return &EngineUseCase{
		store: store,
		log:   log,
	}
}

func (e *EngineUseCase) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fen, depth, err := enginerpc.ParseEvaluateRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	started := time.Now()
	res, err := e.store.Evaluate(ctx, fen, depth)
	if err != nil {
		e.log.Warnw("evaluation failed", "fen", fen, "depth", depth, "error", err)
		return nil, toStatus(err)
	}
	e.log.Debugw("position evaluated", "fen", fen, "depth", depth, "duration", time.Since(started))

	out, err := enginerpc.NewEvaluateResponse(engine.Raw(res))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus is the server half of the client's status mapping in engine.Remote.
func toStatus(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrMalformedPosition):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, apperrors.ErrEngineTimeout), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, apperrors.ErrInternal):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

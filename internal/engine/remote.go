package engine

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/microservices/enginerpc"
)

// pingFEN is the initial position, used to check the remote service end to end.
const pingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Remote evaluates positions through the engine microservice.
type Remote struct {
	conn   *grpc.ClientConn
	client enginerpc.EngineServiceClient
}

func DialRemote(addr string) (*Remote, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", apperrors.ErrEngineUnavailable, addr, err)
	}
	return &Remote{conn: conn, client: enginerpc.NewEngineServiceClient(conn)}, nil
}

// NewRemote wraps an existing client; used with in-memory connections in tests.
func NewRemote(client enginerpc.EngineServiceClient) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	req, err := enginerpc.NewEvaluateRequest(fen, depth)
	if err != nil {
		return analysis.EvaluationResult{}, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	out, err := r.client.Evaluate(ctx, req)
	if err != nil {
		return analysis.EvaluationResult{}, mapStatus(err)
	}

	raw, err := enginerpc.ParseEvaluateResponse(out)
	if err != nil {
		return analysis.EvaluationResult{}, fmt.Errorf("%w: %v", apperrors.ErrEngineUnavailable, err)
	}
	return Normalize(raw), nil
}

func (r *Remote) Ping(ctx context.Context) error {
	_, err := r.Evaluate(ctx, pingFEN, 1)
	return err
}

func (r *Remote) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func mapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", apperrors.ErrEngineUnavailable, err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", apperrors.ErrEngineTimeout, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", apperrors.ErrMalformedPosition, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("%w: %s: %s", apperrors.ErrEngineUnavailable, st.Code(), st.Message())
	}
}

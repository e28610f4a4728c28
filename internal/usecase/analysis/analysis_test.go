package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/commentary"
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/internal/features"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// openingMoves are ten independent first moves from the start position.
var openingMoves = []string{"e2e4", "d2d4", "c2c4", "g1f3", "b1c3", "e2e3", "d2d3", "g2g3", "b2b3", "f2f4"}

type fakeEvaluator struct {
	mu       sync.Mutex
	calls    map[string]int
	before   analysis.EvaluationResult
	after    analysis.EvaluationResult
	block    map[string]bool
	failOnce map[string]bool
	pingErr  error
	delay    time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{
		calls:    map[string]int{},
		before:   analysis.EvaluationResult{BestMove: "e2e4", Score: analysis.Score{Cp: 30}, SearchDepth: 12},
		after:    analysis.EvaluationResult{Score: analysis.Score{Cp: -30}, SearchDepth: 12},
		block:    map[string]bool{},
		failOnce: map[string]bool{},
	}
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[fen]++
	calls := f.calls[fen]
	blocked := f.block[fen]
	failing := f.failOnce[fen] && calls == 1
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return analysis.EvaluationResult{}, ctx.Err()
	}
	if failing {
		return analysis.EvaluationResult{}, fmt.Errorf("%w: engine crashed", apperrors.ErrEngineUnavailable)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if fen == startFEN {
		return f.before, nil
	}
	return f.after, nil
}

func (f *fakeEvaluator) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeEvaluator) callsFor(fen string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fen]
}

type zeroExtractor struct{}

func (zeroExtractor) Extract(string) (analysis.FeatureSet, error) {
	return analysis.FeatureSet{PieceCount: 32}, nil
}

// degradedExtractor reports a failed piece count with its zero default.
type degradedExtractor struct{}

func (degradedExtractor) Extract(string) (analysis.FeatureSet, error) {
	return analysis.FeatureSet{PieceCount: 0, Degraded: []string{features.MetricPieceCount}}, nil
}

type countingAnnotator struct {
	calls atomic.Int32
}

func (a *countingAnnotator) Annotate(_ context.Context, m analysis.AnalyzedMoment, _ analysis.UserProfile) commentary.Annotation {
	a.calls.Add(1)
	return commentary.Annotation{Text: "note on " + m.Move}
}

func defaults() Options {
	return Options{
		Depth:             12,
		Concurrency:       4,
		ChunkSize:         50,
		ItemTimeout:       time.Second,
		BookPlies:         8,
		TacticalThreshold: 0.6,
	}
}

func newUseCase(ev *fakeEvaluator, ann Annotator) *AnalysisUseCase {
	return NewAnalysisUseCase(ev, zeroExtractor{}, ann, defaults(), zap.NewNop().Sugar())
}

func openingRequests() []analysis.PositionRequest {
	reqs := make([]analysis.PositionRequest, len(openingMoves))
	for i, mv := range openingMoves {
		reqs[i] = analysis.PositionRequest{ID: fmt.Sprintf("p%d", i+1), FEN: startFEN, Move: mv}
	}
	return reqs
}

func fenAfter(t *testing.T, move string) string {
	t.Helper()
	applied, err := features.ApplyMove(startFEN, move)
	if err != nil {
		t.Fatalf("apply %s: %v", move, err)
	}
	return applied.FENAfter
}

func TestAnalyzeBatchIsolatesTimeout(t *testing.T) {
	ev := newFakeEvaluator()
	ev.block[fenAfter(t, openingMoves[4])] = true

	uc := newUseCase(ev, &countingAnnotator{})
	res, err := uc.AnalyzeBatch(context.Background(), openingRequests(), analysis.UserProfile{Rating: 1500}, Options{ItemTimeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	if len(res.Results) != 10 {
		t.Fatalf("results = %d, want 10", len(res.Results))
	}
	for i, r := range res.Results {
		if r.PositionID != fmt.Sprintf("p%d", i+1) {
			t.Fatalf("result %d has id %s", i, r.PositionID)
		}
		if i == 4 {
			if r.Failure == nil || r.Failure.Kind != analysis.FailureEngineTimeout {
				t.Fatalf("p5 failure = %+v, want engine_timeout", r.Failure)
			}
			if r.Moment != nil {
				t.Fatal("p5 has a moment")
			}
			continue
		}
		if r.Moment == nil {
			t.Fatalf("p%d failed: %+v", i+1, r.Failure)
		}
		if r.Moment.Move != openingMoves[i] {
			t.Errorf("p%d move = %s", i+1, r.Moment.Move)
		}
	}
	if res.Stats.Total != 10 || res.Stats.Successful != 9 || res.Stats.Failed != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}

func TestAnalyzeBatchRetriesUnavailable(t *testing.T) {
	ev := newFakeEvaluator()
	flaky := fenAfter(t, "d2d4")
	ev.failOnce[flaky] = true

	uc := newUseCase(ev, &countingAnnotator{})
	res, err := uc.AnalyzeBatch(context.Background(), openingRequests(), analysis.UserProfile{}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if res.Stats.Failed != 0 {
		t.Fatalf("failed = %d, results %+v", res.Stats.Failed, res.Results[1].Failure)
	}
	if got := ev.callsFor(flaky); got != 2 {
		t.Fatalf("flaky position evaluated %d times, want 2", got)
	}
}

func TestAnalyzeBatchPingFailureIsFatal(t *testing.T) {
	ev := newFakeEvaluator()
	ev.pingErr = fmt.Errorf("%w: no engine", apperrors.ErrEngineUnavailable)

	res, err := newUseCase(ev, &countingAnnotator{}).AnalyzeBatch(context.Background(), openingRequests(), analysis.UserProfile{}, Options{})
	if !errors.Is(err, apperrors.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want engine unavailable", err)
	}
	if len(res.Results) != 0 {
		t.Fatalf("results = %d, want none", len(res.Results))
	}
}

func TestAnalyzeBatchRejectsDuplicateIDs(t *testing.T) {
	reqs := []analysis.PositionRequest{
		{ID: "a", FEN: startFEN, Move: "e2e4"},
		{ID: "a", FEN: startFEN, Move: "d2d4"},
	}
	_, err := newUseCase(newFakeEvaluator(), &countingAnnotator{}).AnalyzeBatch(context.Background(), reqs, analysis.UserProfile{}, Options{})
	if !errors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid request", err)
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	res, err := newUseCase(newFakeEvaluator(), &countingAnnotator{}).AnalyzeBatch(context.Background(), nil, analysis.UserProfile{}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if len(res.Results) != 0 || res.Stats.Total != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAnalyzeBatchInputFailures(t *testing.T) {
	reqs := []analysis.PositionRequest{
		{FEN: "not a fen", Move: "e2e4"},
		{FEN: startFEN, Move: "e2e5"},
		{FEN: startFEN, Move: "e2e4"},
	}
	res, err := newUseCase(newFakeEvaluator(), &countingAnnotator{}).AnalyzeBatch(context.Background(), reqs, analysis.UserProfile{}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	want := []analysis.FailureKind{analysis.FailureMalformedPosition, analysis.FailureIllegalMove}
	for i, kind := range want {
		r := res.Results[i]
		if r.PositionID != fmt.Sprintf("%d", i) {
			t.Errorf("result %d id = %q", i, r.PositionID)
		}
		if r.Failure == nil || r.Failure.Kind != kind {
			t.Errorf("result %d failure = %+v, want %s", i, r.Failure, kind)
		}
	}
	if res.Results[2].Moment == nil {
		t.Fatalf("legal move failed: %+v", res.Results[2].Failure)
	}
}

func TestAnalyzeBatchBeginnerMistakeCap(t *testing.T) {
	ev := newFakeEvaluator()
	ev.before = analysis.EvaluationResult{BestMove: "a2a3", Score: analysis.Score{Cp: 100}}
	// From the opponent's side: +100 for them is -100 for the mover.
	ev.after = analysis.EvaluationResult{Score: analysis.Score{Cp: 100}}

	ann := &countingAnnotator{}
	res, err := newUseCase(ev, ann).AnalyzeBatch(context.Background(), openingRequests(), analysis.UserProfile{Rating: 800}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	for i, m := range res.Moments() {
		if m.Verdict.Label != analysis.Mistake || m.Verdict.DeltaCp != 200 {
			t.Fatalf("moment %d verdict = %+v", i, m.Verdict)
		}
		if m.Context.MistakesSoFar != i {
			t.Errorf("moment %d mistakes so far = %d", i, m.Context.MistakesSoFar)
		}
		if want := i < 3; m.AnnotationUsed != want {
			t.Errorf("moment %d annotated = %v, want %v", i, m.AnnotationUsed, want)
		}
	}
	if res.Stats.AnnotationsMade != 3 || res.Stats.AnnotationsSaved != 7 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if got := ann.calls.Load(); got != 3 {
		t.Fatalf("annotator called %d times, want 3", got)
	}
}

func TestAnalyzeBatchBookMoveIsQuiet(t *testing.T) {
	reqs := []analysis.PositionRequest{{ID: "book", FEN: startFEN, Move: "e2e4"}}
	res, err := newUseCase(newFakeEvaluator(), &countingAnnotator{}).AnalyzeBatch(context.Background(), reqs, analysis.UserProfile{Rating: 2000}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	m := res.Results[0].Moment
	if m == nil {
		t.Fatalf("failure: %+v", res.Results[0].Failure)
	}
	if m.Verdict.Label != analysis.Book || !m.Verdict.IsBook || m.Verdict.DeltaCp != 0 {
		t.Fatalf("verdict = %+v", m.Verdict)
	}
	if m.Ply != 1 || m.Context.Phase != analysis.Opening {
		t.Fatalf("ply %d phase %s", m.Ply, m.Context.Phase)
	}
	if m.AnnotationUsed || m.Annotation != nil {
		t.Fatal("book move was annotated")
	}
	if m.MoveSAN != "e4" {
		t.Errorf("san = %q", m.MoveSAN)
	}
}

func TestAnalyzeBatchFillsMoment(t *testing.T) {
	reqs := []analysis.PositionRequest{{ID: "x", FEN: startFEN, Move: "e4", Commentary: "king's pawn"}}
	res, err := newUseCase(newFakeEvaluator(), &countingAnnotator{}).AnalyzeBatch(context.Background(), reqs, analysis.UserProfile{}, Options{GameID: "g-1"})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	m := res.Results[0].Moment
	if m == nil {
		t.Fatalf("failure: %+v", res.Results[0].Failure)
	}
	if m.ID == "" || m.GameID != "g-1" || m.Commentary != "king's pawn" || m.CreatedAt.IsZero() {
		t.Fatalf("moment = %+v", m)
	}
	if m.Move != "e2e4" {
		t.Errorf("move = %q, want uci", m.Move)
	}
	if m.EvalAfter.Score.Cp != 30 {
		t.Errorf("after eval = %d, want mover perspective 30", m.EvalAfter.Score.Cp)
	}
	if m.WinProbability <= 0.5 {
		t.Errorf("win probability = %f", m.WinProbability)
	}
}

func TestAnalyzeBatchBoundsConcurrency(t *testing.T) {
	ev := newFakeEvaluator()
	ev.delay = 5 * time.Millisecond

	var progressed []string
	opts := Options{
		Concurrency: 2,
		ChunkSize:   4,
		Progress: func(r analysis.Result) {
			progressed = append(progressed, r.PositionID)
		},
	}
	res, err := newUseCase(ev, &countingAnnotator{}).AnalyzeBatch(context.Background(), openingRequests(), analysis.UserProfile{}, opts)
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if res.Stats.Successful != 10 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if peak := ev.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
	if len(progressed) != 10 || progressed[0] != "p1" || progressed[9] != "p10" {
		t.Fatalf("progress order = %v", progressed)
	}
}

func TestAnalyzeBatchIgnoresDegradedPieceCount(t *testing.T) {
	ann := &countingAnnotator{}
	uc := NewAnalysisUseCase(newFakeEvaluator(), degradedExtractor{}, ann, defaults(), zap.NewNop().Sugar())

	lateFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 30"
	reqs := []analysis.PositionRequest{{ID: "late", FEN: lateFEN, Move: "e2e4"}}
	res, err := uc.AnalyzeBatch(context.Background(), reqs, analysis.UserProfile{Rating: 1000}, Options{})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}

	m := res.Results[0].Moment
	if m == nil {
		t.Fatalf("failure: %+v", res.Results[0].Failure)
	}
	if m.Context.Phase != analysis.Middlegame {
		t.Fatalf("phase = %s, want middlegame", m.Context.Phase)
	}
	if m.Context.PieceCount >= 0 {
		t.Fatalf("piece count = %d, want unknown", m.Context.PieceCount)
	}
	if m.Decision.Annotate || ann.calls.Load() != 0 {
		t.Fatalf("annotated on a degraded piece count: %s", m.Decision.Reason)
	}
}

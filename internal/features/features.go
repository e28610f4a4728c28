package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

// Neutral values substituted when a metric cannot be computed.
const (
	DefaultScore = 0.5
	DefaultCount = 0
)

const (
	MetricMaterial      = "material_balance"
	MetricActivity      = "piece_activity"
	MetricKingSafety    = "king_safety"
	MetricPawnStructure = "pawn_structure"
	MetricCenterControl = "center_control"
	MetricTactical      = "tactical_complexity"
	MetricThreats       = "threat_count"
	MetricHanging       = "hanging_pieces"
	MetricMotifs        = "motifs"
	MetricPieceCount    = "piece_count"
)

// Extractor computes FeatureSets. It holds no per-position state and is safe
// for concurrent use.
type Extractor struct {
	log *zap.SugaredLogger
}

func NewExtractor(log *zap.SugaredLogger) *Extractor {
	return &Extractor{log: log}
}

// Extract fails only when fen cannot be parsed; metric failures degrade to
// neutral defaults and are listed in FeatureSet.Degraded.
func (e *Extractor) Extract(fen string) (analysis.FeatureSet, error) {
	snap, err := newSnapshot(fen)
	if err != nil {
		return analysis.FeatureSet{}, err
	}
	return e.build(fen, snap, defaultMetrics), nil
}

type metricSet struct {
	material      func(*snapshot) (int, error)
	activity      func(*snapshot) (float64, error)
	kingSafety    func(*snapshot) (float64, error)
	pawnStructure func(*snapshot) (float64, error)
	centerControl func(*snapshot) (float64, error)
	tactical      func(*snapshot) (float64, error)
	threats       func(*snapshot) (int, error)
	hanging       func(*snapshot) ([]string, error)
	motifs        func(*snapshot) ([]string, error)
	pieceCount    func(*snapshot) (int, error)
}

var defaultMetrics = metricSet{
	material:      materialBalance,
	activity:      pieceActivity,
	kingSafety:    kingSafety,
	pawnStructure: pawnStructure,
	centerControl: centerControl,
	tactical:      tacticalComplexity,
	threats:       threatCount,
	hanging:       hangingPieces,
	motifs:        motifs,
	pieceCount:    pieceCount,
}

func (e *Extractor) build(fen string, snap *snapshot, m metricSet) analysis.FeatureSet {
	b := &builder{log: e.log, fen: fen}

	fs := analysis.FeatureSet{
		MaterialBalance:    compute(b, MetricMaterial, 0, func() (int, error) { return m.material(snap) }),
		PieceActivity:      b.unit(MetricActivity, func() (float64, error) { return m.activity(snap) }),
		KingSafety:         b.unit(MetricKingSafety, func() (float64, error) { return m.kingSafety(snap) }),
		PawnStructure:      b.unit(MetricPawnStructure, func() (float64, error) { return m.pawnStructure(snap) }),
		CenterControl:      b.unit(MetricCenterControl, func() (float64, error) { return m.centerControl(snap) }),
		TacticalComplexity: b.unit(MetricTactical, func() (float64, error) { return m.tactical(snap) }),
		ThreatCount:        compute(b, MetricThreats, DefaultCount, func() (int, error) { return m.threats(snap) }),
		HangingPieces:      compute(b, MetricHanging, []string{}, func() ([]string, error) { return m.hanging(snap) }),
		Motifs:             compute(b, MetricMotifs, []string{}, func() ([]string, error) { return m.motifs(snap) }),
		PieceCount:         compute(b, MetricPieceCount, DefaultCount, func() (int, error) { return m.pieceCount(snap) }),
	}
	fs.Degraded = b.degraded
	return fs
}

// -----------------------------------------------------
// Per-metric builder
// -----------------------------------------------------

type builder struct {
	log      *zap.SugaredLogger
	fen      string
	degraded []string
}

// compute runs one metric in isolation. An error or panic yields def.
func compute[T any](b *builder, name string, def T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			b.fallback(name, fmt.Errorf("panic: %v", r))
			out = def
		}
	}()

	v, err := fn()
	if err != nil {
		b.fallback(name, err)
		return def
	}
	return v
}

func (b *builder) unit(name string, fn func() (float64, error)) float64 {
	v := compute(b, name, DefaultScore, fn)
	if math.IsNaN(v) {
		b.fallback(name, fmt.Errorf("NaN result"))
		return DefaultScore
	}
	return clamp01(v)
}

func (b *builder) fallback(name string, err error) {
	b.degraded = append(b.degraded, name)
	b.log.Warnw("feature metric fell back to default",
		"metric", name,
		"fen", b.fen,
		"error", fmt.Errorf("%w: %v", apperrors.ErrFeatureExtraction, err),
	)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// -----------------------------------------------------
// Snapshot
// -----------------------------------------------------

type snapshot struct {
	pos   *chess.Position
	board board
	us    chess.Color
	them  chess.Color
}

func newSnapshot(fen string) (*snapshot, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedPosition, err)
	}
	pos := chess.NewGame(opt).Position()
	us := pos.Turn()
	return &snapshot{
		pos:   pos,
		board: newBoard(pos.Board()),
		us:    us,
		them:  otherColor(us),
	}, nil
}

func (s *snapshot) moves() []*chess.Move {
	return s.pos.ValidMoves()
}

func sortedSquares(squares []chess.Square) []string {
	sort.Slice(squares, func(i, j int) bool { return squares[i] < squares[j] })
	out := make([]string, 0, len(squares))
	for _, sq := range squares {
		out = append(out, sq.String())
	}
	return out
}

// -----------------------------------------------------
// Win probability
// -----------------------------------------------------

// WinProbability maps a score to the expected result for the side it is
// measured from. Mates are certain.
func WinProbability(s analysis.Score) float64 {
	if s.IsMate {
		if s.Cp > 0 {
			return 1
		}
		return 0
	}
	return 1 / (1 + math.Pow(10, -float64(s.Cp)/400))
}

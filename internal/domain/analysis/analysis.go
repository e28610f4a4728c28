package analysis

import "time"

// -----------------------------------------------------
// Position & evaluation
// -----------------------------------------------------

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Position is an immutable board snapshot taken when a game is decomposed.
type Position struct {
	FEN        string `json:"fen" bson:"fen"`
	SideToMove Color  `json:"side_to_move" bson:"side_to_move"`
	FullMove   int    `json:"full_move" bson:"full_move"`
}

// PositionRequest is one played move submitted for analysis.
type PositionRequest struct {
	ID         string `json:"id"`
	FEN        string `json:"fen"`
	Move       string `json:"move"`
	Commentary string `json:"commentary,omitempty"`
}

type ScoreType string

const (
	ScoreCp   ScoreType = "cp"
	ScoreMate ScoreType = "mate"
)

// MateScore is the magnitude of a mate-in-zero score. Mate in n is
// MateScore-n, so shorter mates always outrank longer ones and every
// centipawn score.
const MateScore = 10000

// RawEvaluation is what an engine oracle reports, in the perspective of
// the side to move of the evaluated position.
type RawEvaluation struct {
	BestMove   string    `json:"best_move"`
	ScoreType  ScoreType `json:"score_type"`
	ScoreValue int       `json:"score_value"`
	Depth      int       `json:"depth"`
}

// Score is a normalized evaluation. Cp always holds a finite number usable
// in arithmetic; for mates it holds the ±MateScore sentinel. Mate keeps the
// signed distance when IsMate is set (0 means the side is already mated).
type Score struct {
	Cp     int  `json:"cp" bson:"cp"`
	Mate   int  `json:"mate,omitempty" bson:"mate,omitempty"`
	IsMate bool `json:"is_mate" bson:"is_mate"`
}

// Negate flips the perspective of the score.
func (s Score) Negate() Score {
	return Score{Cp: -s.Cp, Mate: -s.Mate, IsMate: s.IsMate}
}

type EvaluationResult struct {
	BestMove    string `json:"best_move" bson:"best_move"`
	Score       Score  `json:"score" bson:"score"`
	SearchDepth int    `json:"search_depth" bson:"search_depth"`
}

// -----------------------------------------------------
// Features
// -----------------------------------------------------

const (
	MotifCheck           = "check"
	MotifHangingPiece    = "hanging_piece"
	MotifFork            = "fork"
	MotifPromotionThreat = "promotion_threat"
	MotifExposedKing     = "exposed_king"
	MotifIsolatedPawn    = "isolated_pawn"
	MotifDoubledPawn     = "doubled_pawn"
	MotifBishopPair      = "bishop_pair"
)

// FeatureSet holds position-intrinsic attributes. MaterialBalance is in pawn
// units from White's perspective; scores are in [0,1] and relate to the side
// to move.
type FeatureSet struct {
	MaterialBalance    int      `json:"material_balance" bson:"material_balance"`
	PieceActivity      float64  `json:"piece_activity" bson:"piece_activity"`
	KingSafety         float64  `json:"king_safety" bson:"king_safety"`
	PawnStructure      float64  `json:"pawn_structure" bson:"pawn_structure"`
	CenterControl      float64  `json:"center_control" bson:"center_control"`
	TacticalComplexity float64  `json:"tactical_complexity" bson:"tactical_complexity"`
	ThreatCount        int      `json:"threat_count" bson:"threat_count"`
	HangingPieces      []string `json:"hanging_pieces" bson:"hanging_pieces"`
	Motifs             []string `json:"motifs" bson:"motifs"`
	PieceCount         int      `json:"piece_count" bson:"piece_count"`
	Degraded           []string `json:"degraded,omitempty" bson:"degraded,omitempty"`
}

// HasMotif reports whether tag was detected.
func (f FeatureSet) HasMotif(tag string) bool {
	for _, m := range f.Motifs {
		if m == tag {
			return true
		}
	}
	return false
}

// IsDegraded reports whether metric fell back to its default.
func (f FeatureSet) IsDegraded(metric string) bool {
	for _, m := range f.Degraded {
		if m == metric {
			return true
		}
	}
	return false
}

// MaterialFor returns the material balance from c's point of view.
func (f FeatureSet) MaterialFor(c Color) int {
	if c == Black {
		return -f.MaterialBalance
	}
	return f.MaterialBalance
}

// -----------------------------------------------------
// Classification
// -----------------------------------------------------

type Label string

const (
	Brilliant  Label = "Brilliant"
	Great      Label = "Great"
	Best       Label = "Best"
	Excellent  Label = "Excellent"
	Good       Label = "Good"
	Book       Label = "Book"
	Inaccuracy Label = "Inaccuracy"
	Mistake    Label = "Mistake"
	Miss       Label = "Miss"
	Blunder    Label = "Blunder"
)

var severity = map[Label]int{
	Best:       0,
	Excellent:  1,
	Good:       2,
	Inaccuracy: 3,
	Mistake:    4,
	Miss:       5,
	Blunder:    6,
}

// Severity orders the delta ladder labels; overrides report -1.
func (l Label) Severity() int {
	if s, ok := severity[l]; ok {
		return s
	}
	return -1
}

// IsError reports whether the label counts towards the per-game mistake counter.
func (l Label) IsError() bool {
	return l == Mistake || l == Miss || l == Blunder
}

type AccuracyVerdict struct {
	DeltaCp     int   `json:"delta_cp" bson:"delta_cp"`
	Label       Label `json:"label" bson:"label"`
	IsBrilliant bool  `json:"is_brilliant" bson:"is_brilliant"`
	IsGreat     bool  `json:"is_great" bson:"is_great"`
	IsBook      bool  `json:"is_book" bson:"is_book"`
}

// -----------------------------------------------------
// Context & gating
// -----------------------------------------------------

type Phase string

const (
	Opening    Phase = "opening"
	Middlegame Phase = "middlegame"
	Endgame    Phase = "endgame"
)

// MoveContext is the per-move snapshot of game state handed to the gate.
type MoveContext struct {
	MoveIndex       int   `json:"move_index" bson:"move_index"`
	Phase           Phase `json:"phase" bson:"phase"`
	PreviousPhase   Phase `json:"previous_phase,omitempty" bson:"previous_phase,omitempty"`
	PhaseTransition bool  `json:"phase_transition" bson:"phase_transition"`
	MistakesSoFar   int   `json:"mistakes_so_far" bson:"mistakes_so_far"`
	EvalSwingCp     int   `json:"eval_swing_cp" bson:"eval_swing_cp"`
	IsTactical      bool  `json:"is_tactical" bson:"is_tactical"`
	PieceCount      int   `json:"piece_count" bson:"piece_count"`
	IsForcedMate    bool  `json:"is_forced_mate" bson:"is_forced_mate"`
}

type UserProfile struct {
	Rating int    `json:"rating" bson:"rating"`
	Level  string `json:"level,omitempty" bson:"level,omitempty"`
}

type AnnotationDecision struct {
	Annotate bool   `json:"annotate" bson:"annotate"`
	Reason   string `json:"reason" bson:"reason"`
}

// -----------------------------------------------------
// Output
// -----------------------------------------------------

// AnalyzedMoment is the exported per-move record. All scores are from the
// perspective of the player who made the move.
type AnalyzedMoment struct {
	ID                 string             `json:"id" bson:"_id"`
	GameID             string             `json:"game_id,omitempty" bson:"game_id,omitempty"`
	PositionID         string             `json:"position_id" bson:"position_id"`
	Ply                int                `json:"ply" bson:"ply"`
	Position           Position           `json:"position" bson:"position"`
	Move               string             `json:"move" bson:"move"`
	MoveSAN            string             `json:"move_san" bson:"move_san"`
	FENAfter           string             `json:"fen_after" bson:"fen_after"`
	EvalBefore         EvaluationResult   `json:"eval_before" bson:"eval_before"`
	EvalAfter          EvaluationResult   `json:"eval_after" bson:"eval_after"`
	WinProbability     float64            `json:"win_probability" bson:"win_probability"`
	FeaturesBefore     FeatureSet         `json:"features_before" bson:"features_before"`
	FeaturesAfter      FeatureSet         `json:"features_after" bson:"features_after"`
	Verdict            AccuracyVerdict    `json:"verdict" bson:"verdict"`
	Context            MoveContext        `json:"context" bson:"context"`
	Decision           AnnotationDecision `json:"decision" bson:"decision"`
	Annotation         *string            `json:"annotation" bson:"annotation"`
	AnnotationUsed     bool               `json:"annotation_used" bson:"annotation_used"`
	AnnotationFallback bool               `json:"annotation_fallback" bson:"annotation_fallback"`
	Commentary         string             `json:"commentary,omitempty" bson:"commentary,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
}

type FailureKind string

const (
	FailureEngineUnavailable FailureKind = "engine_unavailable"
	FailureEngineTimeout     FailureKind = "engine_timeout"
	FailureMalformedPosition FailureKind = "malformed_position"
	FailureIllegalMove       FailureKind = "illegal_move"
	FailureInternal          FailureKind = "internal"
)

type Failure struct {
	PositionID string      `json:"position_id"`
	Kind       FailureKind `json:"kind"`
	Reason     string      `json:"reason"`
}

// Result is exactly one of Moment or Failure.
type Result struct {
	PositionID string          `json:"position_id"`
	Moment     *AnalyzedMoment `json:"moment,omitempty"`
	Failure    *Failure        `json:"failure,omitempty"`
}

type Stats struct {
	Total               int `json:"total" bson:"total"`
	Successful          int `json:"successful" bson:"successful"`
	Failed              int `json:"failed" bson:"failed"`
	AnnotationsMade     int `json:"annotations_made" bson:"annotations_made"`
	AnnotationsSaved    int `json:"annotations_saved" bson:"annotations_saved"`
	AnnotationFallbacks int `json:"annotation_fallbacks" bson:"annotation_fallbacks"`
}

type BatchResult struct {
	ID      string   `json:"id"`
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

// Moments returns the successful moments in result order.
func (b BatchResult) Moments() []AnalyzedMoment {
	out := make([]AnalyzedMoment, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Moment != nil {
			out = append(out, *r.Moment)
		}
	}
	return out
}

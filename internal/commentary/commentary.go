package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/internal/gate"
)

// LlmStore is the text generator oracle.
type LlmStore interface {
	SendRequestToLlm(ctx context.Context, request string) (string, error)
}

type Annotation struct {
	Text     string
	Fallback bool
}

// Annotator turns analyzed moments into coaching text. It never fails: any
// generator problem yields the templated Summary instead.
type Annotator struct {
	llm     LlmStore
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewAnnotator accepts a nil llm, in which case every annotation is a summary.
func NewAnnotator(llm LlmStore, timeout time.Duration, log *zap.SugaredLogger) *Annotator {
	return &Annotator{llm: llm, timeout: timeout, log: log}
}

func (a *Annotator) Annotate(ctx context.Context, m analysis.AnalyzedMoment, profile analysis.UserProfile) Annotation {
	text, err := a.generate(ctx, BuildPrompt(m, profile))
	if err != nil {
		a.log.Warnw("annotation fell back to summary",
			"position_id", m.PositionID,
			"game_id", m.GameID,
			"error", err,
		)
		return Annotation{Text: Summary(m), Fallback: true}
	}
	return Annotation{Text: text}
}

func (a *Annotator) generate(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%w: no generator configured", apperrors.ErrAnnotationFailed)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.llm.SendRequestToLlm(ctx, prompt)
	if err != nil {
		if errors.Is(err, apperrors.ErrAnnotationFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrAnnotationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrAnnotationFailed)
	}
	return text, nil
}

// BuildPrompt describes the move to the language model.
func BuildPrompt(m analysis.AnalyzedMoment, profile analysis.UserProfile) string {
	var sb strings.Builder

	tier := gate.TierFor(profile.Rating)
	fmt.Fprintf(&sb, "You are a chess coach explaining a single move to a %s player (rating %d).\n", tier.Name, profile.Rating)
	sb.WriteString("Answer in at most three sentences, concrete and encouraging.\n\n")

	fmt.Fprintf(&sb, "Position (FEN): %s\n", m.Position.FEN)
	fmt.Fprintf(&sb, "Side to move: %s, move %d, phase: %s\n", m.Position.SideToMove, m.Position.FullMove, m.Context.Phase)
	fmt.Fprintf(&sb, "Played move: %s\n", moveName(m))
	if m.EvalBefore.BestMove != "" {
		fmt.Fprintf(&sb, "Engine best move: %s\n", m.EvalBefore.BestMove)
	}
	fmt.Fprintf(&sb, "Evaluation before: %s, after: %s (from the player's side)\n",
		FormatScore(m.EvalBefore.Score), FormatScore(m.EvalAfter.Score))
	fmt.Fprintf(&sb, "Classification: %s (%d centipawns from best)\n", m.Verdict.Label, m.Verdict.DeltaCp)

	if motifs := m.FeaturesAfter.Motifs; len(motifs) > 0 {
		fmt.Fprintf(&sb, "Motifs after the move: %s\n", strings.Join(motifs, ", "))
	}
	if hanging := m.FeaturesAfter.HangingPieces; len(hanging) > 0 {
		fmt.Fprintf(&sb, "Pieces left hanging: %s\n", strings.Join(hanging, ", "))
	}
	if m.Context.PhaseTransition {
		fmt.Fprintf(&sb, "This move moves the game from the %s into the %s.\n", m.Context.PreviousPhase, m.Context.Phase)
	}
	if m.Commentary != "" {
		fmt.Fprintf(&sb, "Existing comment in the game record: %s\n", m.Commentary)
	}

	return sb.String()
}

// Summary is the deterministic annotation built only from computed numbers.
func Summary(m analysis.AnalyzedMoment) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s was %s", moveName(m), article(m.Verdict.Label))

	switch {
	case m.Verdict.DeltaCp == 0:
		sb.WriteString(", matching the engine's choice.")
	case m.EvalBefore.BestMove != "":
		fmt.Fprintf(&sb, ", %d centipawns worse than %s.", m.Verdict.DeltaCp, m.EvalBefore.BestMove)
	default:
		fmt.Fprintf(&sb, ", %d centipawns from the best line.", m.Verdict.DeltaCp)
	}

	fmt.Fprintf(&sb, " Evaluation went from %s to %s.", FormatScore(m.EvalBefore.Score), FormatScore(m.EvalAfter.Score))

	if len(m.FeaturesAfter.HangingPieces) > 0 {
		fmt.Fprintf(&sb, " Watch the loose pieces on %s.", strings.Join(m.FeaturesAfter.HangingPieces, ", "))
	}
	if m.Context.PhaseTransition {
		fmt.Fprintf(&sb, " The game enters the %s.", m.Context.Phase)
	}
	return sb.String()
}

// FormatScore renders a score as "+0.35" or "#3"/"#-2".
func FormatScore(s analysis.Score) string {
	if s.IsMate {
		if s.Mate == 0 {
			if s.Cp > 0 {
				return "checkmate"
			}
			return "mated"
		}
		return fmt.Sprintf("#%d", s.Mate)
	}
	return fmt.Sprintf("%+.2f", float64(s.Cp)/100)
}

func moveName(m analysis.AnalyzedMoment) string {
	if m.MoveSAN != "" {
		return m.MoveSAN
	}
	return m.Move
}

func article(l analysis.Label) string {
	switch l {
	case analysis.Excellent, analysis.Inaccuracy:
		return "an " + strings.ToLower(string(l)) + " move"
	case analysis.Book:
		return "a book move"
	case analysis.Miss:
		return "a missed opportunity"
	default:
		return "a " + strings.ToLower(string(l)) + " move"
	}
}

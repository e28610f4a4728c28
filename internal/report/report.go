package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/anthon-sd/rookify-sub000/internal/commentary"
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	"github.com/anthon-sd/rookify-sub000/internal/gate"
)

var labelOrder = []analysis.Label{
	analysis.Brilliant, analysis.Great, analysis.Best, analysis.Excellent, analysis.Good,
	analysis.Book, analysis.Inaccuracy, analysis.Mistake, analysis.Miss, analysis.Blunder,
}

// Highlights are the moments worth a block in the report: everything that
// was annotated plus any severe error or special move.
func Highlights(moments []analysis.AnalyzedMoment) []analysis.AnalyzedMoment {
	var out []analysis.AnalyzedMoment
	for _, m := range moments {
		l := m.Verdict.Label
		if m.AnnotationUsed || l.Severity() >= analysis.Mistake.Severity() || l == analysis.Brilliant || l == analysis.Great {
			out = append(out, m)
		}
	}
	return out
}

func LabelCounts(moments []analysis.AnalyzedMoment) map[analysis.Label]int {
	counts := make(map[analysis.Label]int, len(labelOrder))
	for _, m := range moments {
		counts[m.Verdict.Label]++
	}
	return counts
}

// Render writes a coaching report for one analyzed game as PDF.
func Render(w io.Writer, rec game.AnalysisRecord, moments []analysis.AnalyzedMoment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Game report "+rec.GameID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Game report: %s", rec.GameID)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	if rec.White != "" || rec.Black != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s vs %s  %s", rec.White, rec.Black, rec.Result)))
		pdf.Ln(6)
	}
	tier := gate.TierFor(rec.UserRating)
	pdf.Cell(0, 6, fmt.Sprintf("Player rating %d (%s tier)", rec.UserRating, tier.Name))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Moves analyzed: %d of %d, annotated: %d, skipped: %d",
		rec.Stats.Successful, rec.Stats.Total, rec.Stats.AnnotationsMade, rec.Stats.AnnotationsSaved))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Move quality")
	pdf.Ln(7)
	pdf.SetFont("Courier", "", 10)
	counts := LabelCounts(moments)
	for _, l := range labelOrder {
		if counts[l] == 0 {
			continue
		}
		pdf.Cell(40, 5, string(l))
		pdf.Cell(20, 5, fmt.Sprintf("%3d", counts[l]))
		pdf.Ln(5)
	}
	pdf.Ln(5)

	for _, m := range Highlights(moments) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s %s: %s (%d cp)", moveNumber(m), moveName(m), m.Verdict.Label, m.Verdict.DeltaCp)))
		pdf.Ln(6)

		pdf.SetFont("Courier", "", 8)
		pdf.MultiCell(0, 4, m.Position.FEN, "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		text := commentary.Summary(m)
		if m.Annotation != nil {
			text = *m.Annotation
		}
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report %s: %w", rec.GameID, err)
	}
	return pdf.Output(w)
}

func moveNumber(m analysis.AnalyzedMoment) string {
	if m.Position.SideToMove == analysis.Black {
		return fmt.Sprintf("%d...", m.Position.FullMove)
	}
	return fmt.Sprintf("%d.", m.Position.FullMove)
}

func moveName(m analysis.AnalyzedMoment) string {
	if m.MoveSAN != "" {
		return m.MoveSAN
	}
	return strings.ToLower(m.Move)
}

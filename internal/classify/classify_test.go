package classify

import (
	"testing"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

func TestLadderBoundaries(t *testing.T) {
	tests := []struct {
		delta int
		want  analysis.Label
	}{
		{0, analysis.Best},
		{1, analysis.Excellent},
		{20, analysis.Excellent},
		{21, analysis.Good},
		{50, analysis.Good},
		{51, analysis.Inaccuracy},
		{150, analysis.Inaccuracy},
		{151, analysis.Mistake},
		{300, analysis.Mistake},
		{301, analysis.Miss},
		{350, analysis.Miss},
		{800, analysis.Miss},
		{801, analysis.Blunder},
		{20000, analysis.Blunder},
	}

	for _, tt := range tests {
		got := Classify(tt.delta, Flags{})
		if got.Label != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.delta, got.Label, tt.want)
		}
		if got.DeltaCp != tt.delta {
			t.Errorf("Classify(%d).DeltaCp = %d", tt.delta, got.DeltaCp)
		}
	}
}

func TestLadderIsMonotonic(t *testing.T) {
	points := []int{0, 20, 21, 50, 51, 150, 151, 300, 301, 800, 801}
	for i := 1; i < len(points); i++ {
		prev := Classify(points[i-1], Flags{}).Label.Severity()
		cur := Classify(points[i], Flags{}).Label.Severity()
		if cur < prev {
			t.Errorf("severity dropped from %d to %d between %d and %dcp", prev, cur, points[i-1], points[i])
		}
	}

	prev := -1
	for d := 0; d <= 1000; d++ {
		s := Ladder(d).Severity()
		if s < prev {
			t.Fatalf("severity decreased at %dcp", d)
		}
		prev = s
	}
}

func TestClassifyNeverNegative(t *testing.T) {
	if v := Classify(-120, Flags{}); v.DeltaCp != 120 || v.Label != analysis.Inaccuracy {
		t.Fatalf("Classify(-120) = %+v", v)
	}
}

func TestDeltaCp(t *testing.T) {
	tests := []struct {
		name          string
		played, best  string
		player, bestE int
		want          int
	}{
		{name: "engine move", played: "e2e4", best: "e2e4", player: 10, bestE: 40, want: 0},
		{name: "worse move", played: "a2a3", best: "e2e4", player: -20, bestE: 40, want: 60},
		{name: "deeper search found better", played: "a2a3", best: "e2e4", player: 70, bestE: 40, want: 30},
		{name: "missed mate", played: "a2a3", best: "d1h5", player: 0, bestE: analysis.MateScore - 1, want: analysis.MateScore - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeltaCp(tt.played, tt.best, tt.player, tt.bestE); got != tt.want {
				t.Fatalf("DeltaCp = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverridesShortCircuitLadder(t *testing.T) {
	tests := []struct {
		name  string
		delta int
		flags Flags
		want  analysis.Label
	}{
		{name: "brilliant beats blunder delta", delta: 900, flags: Flags{Brilliant: true}, want: analysis.Brilliant},
		{name: "great", delta: 120, flags: Flags{Great: true}, want: analysis.Great},
		{name: "brilliant wins over great", delta: 0, flags: Flags{Brilliant: true, Great: true}, want: analysis.Brilliant},
		{name: "book", delta: 10, flags: Flags{Book: true}, want: analysis.Book},
		{name: "great wins over book", delta: 10, flags: Flags{Great: true, Book: true}, want: analysis.Great},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.delta, tt.flags)
			if v.Label != tt.want {
				t.Fatalf("label = %s, want %s", v.Label, tt.want)
			}
			if v.DeltaCp != tt.delta {
				t.Fatalf("DeltaCp = %d, want %d", v.DeltaCp, tt.delta)
			}
		})
	}
}

func TestDetectors(t *testing.T) {
	tests := []struct {
		name          string
		in            SpecialInput
		brilliant     bool
		great         bool
		wantDetection Flags
	}{
		{
			name:          "rook sacrifice into a winning attack",
			in:            SpecialInput{PrevEval: 30, PlayerEval: 250, BestEval: 0, MaterialBefore: 2, MaterialAfter: -3},
			brilliant:     true,
			great:         true,
			wantDetection: Flags{Brilliant: true},
		},
		{
			name:          "same sacrifice but engine line already winning",
			in:            SpecialInput{PlayerEval: 250, BestEval: 260, MaterialBefore: 2, MaterialAfter: -3},
			great:         true,
			wantDetection: Flags{Great: true},
		},
		{
			name:          "pawn sacrifice with initiative",
			in:            SpecialInput{PlayerEval: 140, BestEval: 150, MaterialBefore: 0, MaterialAfter: -1},
			great:         true,
			wantDetection: Flags{Great: true},
		},
		{
			name: "sacrifice that loses",
			in:   SpecialInput{PlayerEval: -300, BestEval: 0, MaterialBefore: 0, MaterialAfter: -5},
		},
		{
			name: "no sacrifice",
			in:   SpecialInput{PlayerEval: 500, BestEval: 0, MaterialBefore: 3, MaterialAfter: 3},
		},
		{
			name:          "exactly two hundred is not enough",
			in:            SpecialInput{PlayerEval: 200, BestEval: 0, MaterialBefore: 3, MaterialAfter: 0},
			great:         true,
			wantDetection: Flags{Great: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBrilliant(tt.in); got != tt.brilliant {
				t.Errorf("IsBrilliant = %v, want %v", got, tt.brilliant)
			}
			if got := IsGreat(tt.in); got != tt.great {
				t.Errorf("IsGreat = %v, want %v", got, tt.great)
			}
			if got := Detect(tt.in); got != tt.wantDetection {
				t.Errorf("Detect = %+v, want %+v", got, tt.wantDetection)
			}
		})
	}
}

func TestDetectorsAreIdempotent(t *testing.T) {
	inputs := []SpecialInput{
		{PrevEval: 30, PlayerEval: 250, BestEval: 0, MaterialBefore: 2, MaterialAfter: -3},
		{PrevEval: -10, PlayerEval: 140, BestEval: 150, MaterialBefore: 0, MaterialAfter: -1},
		{PrevEval: 0, PlayerEval: 0, BestEval: 0, MaterialBefore: 0, MaterialAfter: 0},
	}
	for _, in := range inputs {
		first := Detect(in)
		for i := 0; i < 5; i++ {
			if got := Detect(in); got != first {
				t.Fatalf("Detect(%+v) changed between calls: %+v vs %+v", in, first, got)
			}
		}
	}
}

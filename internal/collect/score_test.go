package collect

import (
	"strings"
	"testing"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestScoreLongSummary(t *testing.T) {
	if got := Score(2, words(90), "Quiet day", nil); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestScoreKeywordInTitle(t *testing.T) {
	if got := Score(3, words(10), "Election Results", []string{"election"}); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestScoreKeywordCaseInsensitive(t *testing.T) {
	if got := Score(2, "", "Breaking BOMB attack", []string{"bomb"}); got != 3 {
		t.Errorf("expected keyword bonus (3), got %d", got)
	}
	if got := Score(2, "a Bombastic claim", "", []string{"BOMB"}); got != 3 {
		t.Errorf("expected substring match in summary (3), got %d", got)
	}
}

func TestScoreThresholds(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 2},
		{40, 2},
		{41, 3},
		{80, 3},
		{81, 4},
		{500, 4},
	}
	for _, tt := range tests {
		if got := Score(2, words(tt.words), "", nil); got != tt.want {
			t.Errorf("%d words: expected %d, got %d", tt.words, tt.want, got)
		}
	}
}

func TestScoreWordSplitting(t *testing.T) {
	text := "  one\ttwo\n\nthree   " + words(38) + "  "
	if got := Score(0, text, "", nil); got != 1 {
		t.Errorf("expected 41 words to score 1, got %d", got)
	}
}

func TestScoreCap(t *testing.T) {
	if got := Score(5, words(100), "bomb", []string{"bomb"}); got != 5 {
		t.Errorf("expected cap at 5, got %d", got)
	}
	if got := Score(4, words(81), "", nil); got != 5 {
		t.Errorf("expected 4+2 capped to 5, got %d", got)
	}
}

func TestScoreNoKeywords(t *testing.T) {
	if got := Score(2, "bomb", "bomb", nil); got != 2 {
		t.Errorf("expected no bonus without keywords, got %d", got)
	}
	if got := Score(2, "bomb", "bomb", []string{}); got != 2 {
		t.Errorf("expected no bonus with empty keyword set, got %d", got)
	}
	if got := Score(2, "bomb", "bomb", []string{"", "  "}); got != 2 {
		t.Errorf("expected blank keywords to never match, got %d", got)
	}
}

func TestScoreBoundsAndMonotonic(t *testing.T) {
	keywordSets := [][]string{nil, {"word"}, {"absent"}}
	for base := 0; base <= 6; base++ {
		for _, kws := range keywordSets {
			prev := -1
			for n := 0; n <= 120; n++ {
				got := Score(base, words(n), "title", kws)
				if got < 0 || got > 5 {
					t.Fatalf("Score(%d, %d words, %v) = %d out of range", base, n, kws, got)
				}
				if got < prev {
					t.Fatalf("Score decreased from %d to %d at %d words (base %d)", prev, got, n, base)
				}
				prev = got
			}
		}
	}
}

func TestScoreNegativeBase(t *testing.T) {
	if got := Score(-3, "", "", nil); got != 0 {
		t.Errorf("expected negative base to floor at 0, got %d", got)
	}
}

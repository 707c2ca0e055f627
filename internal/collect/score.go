package collect

import "strings"

const (
	maxPriority        = 5
	longSummaryWords   = 80
	mediumSummaryWords = 40
)

// Score computes an entry's priority: the feed's base priority, plus 2 for a
// summary over 80 words or 1 for one over 40, plus 1 when any keyword occurs
// in the title or summary (case-insensitive), capped at 5.
func Score(base int, summary, title string, keywords []string) int {
	if base < 0 {
		base = 0
	}
	score := base + lengthBonus(summary) + keywordBonus(title+" "+summary, keywords)
	if score > maxPriority {
		return maxPriority
	}
	return score
}

func lengthBonus(summary string) int {
	words := len(strings.Fields(summary))
	switch {
	case words > longSummaryWords:
		return 2
	case words > mediumSummaryWords:
		return 1
	}
	return 0
}

// keywordBonus ignores blank keywords.
func keywordBonus(text string, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.TrimSpace(kw) == "" {
			continue
		}
		if strings.Contains(haystack, kw) {
			return 1
		}
	}
	return 0
}

package collect

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/feedboard/internal/relage"
	"github.com/TobiSchelling/feedboard/internal/snapshot"
)

const (
	// SummaryLimit is the longest summary kept, in characters.
	SummaryLimit = 320

	ellipsis = "…"
	untitled = "Untitled"
)

// Truncate shortens text to max characters, trims trailing whitespace and
// appends an ellipsis. Text within the limit is returned unchanged.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace) + ellipsis
}

// Normalize converts a feed entry into an article for feed. Priority is
// scored on the full summary text; only the stored summary is truncated.
func Normalize(e RawEntry, feed snapshot.Feed, now time.Time) snapshot.Article {
	summary := e.Snippet
	if summary == "" {
		summary = e.Content
	}

	title := e.Title
	if title == "" {
		title = untitled
	}

	publishedAt := e.ISODate
	if publishedAt == "" {
		publishedAt = e.PubDate
	}

	var uploadedAgo string
	if publishedAt != "" {
		uploadedAgo = relage.Since(publishedAt, now)
	}

	return snapshot.Article{
		Title:       title,
		Summary:     Truncate(summary, SummaryLimit),
		Link:        e.Link,
		PublishedAt: publishedAt,
		UploadedAgo: uploadedAgo,
		Priority:    Score(feed.Base(), summary, e.Title, feed.KeywordBoost),
	}
}

// NormalizeEntries normalizes the first MaxArticlesPerFeed entries.
func NormalizeEntries(entries []RawEntry, feed snapshot.Feed, now time.Time) []snapshot.Article {
	n := min(len(entries), MaxArticlesPerFeed)
	articles := make([]snapshot.Article, 0, n)
	for _, e := range entries[:n] {
		articles = append(articles, Normalize(e, feed, now))
	}
	return articles
}

package collect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/feedboard/internal/snapshot"
)

// RawEntry is one parsed feed item before normalization.
type RawEntry struct {
	Title   string
	ISODate string // parsed publish (or update) time, ISO-8601 UTC
	PubDate string // publish (or update) time as written in the feed
	Snippet string // Content with markup removed
	Content string // item content, else description; may contain HTML
	Link    string
}

func entryFromItem(item *gofeed.Item) RawEntry {
	content := item.Content
	if content == "" {
		content = item.Description
	}

	e := RawEntry{
		Title:   strings.TrimSpace(item.Title),
		Content: content,
		Snippet: plainText(content),
		Link:    item.Link,
		PubDate: item.Published,
	}
	if e.Link == "" && len(item.Links) > 0 {
		e.Link = item.Links[0]
	}
	if e.PubDate == "" {
		e.PubDate = item.Updated
	}

	switch {
	case item.PublishedParsed != nil:
		e.ISODate = snapshot.Timestamp(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		e.ISODate = snapshot.Timestamp(*item.UpdatedParsed)
	}
	return e
}

// plainText strips markup and entities from an HTML fragment and collapses
// whitespace.
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Package snapshot holds the persisted document read by the rendering layer
// and the atomic load/publish of that document.
package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultBasePriority applies when a feed's basePriority is missing or not a
// usable number.
const DefaultBasePriority = 2

// TimeLayout is the ISO-8601 form used for updatedAt and publishedAt.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC using TimeLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Document is the root of the snapshot file.
type Document struct {
	SiteTitle string   `json:"siteTitle"`
	Tagline   string   `json:"tagline"`
	Sources   []Source `json:"sources"`
	UpdatedAt string   `json:"updatedAt,omitempty"`

	extra map[string]json.RawMessage
}

// Source is a named group of feeds, such as a publisher.
type Source struct {
	Name  string `json:"name"`
	Feeds []Feed `json:"feeds"`

	extra map[string]json.RawMessage
}

// Feed is one RSS endpoint plus its scoring configuration.
type Feed struct {
	Topic  string `json:"topic"`
	RSSURL string `json:"rssUrl"`
	// BasePriority is kept as written so it round-trips untouched; use Base.
	BasePriority json.RawMessage `json:"basePriority,omitempty"`
	KeywordBoost []string        `json:"keywordBoost,omitempty"`
	Articles     []Article       `json:"articles"`

	// keywordsRaw holds keywordBoost as written when it was not a list of
	// strings; it is published back unchanged.
	keywordsRaw json.RawMessage
	extra       map[string]json.RawMessage
}

// Article is one normalized story.
type Article struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Link        string `json:"link"`
	PublishedAt string `json:"publishedAt"`
	UploadedAgo string `json:"uploadedAgo"`
	Priority    int    `json:"priority"`

	extra map[string]json.RawMessage
}

// Base returns the feed's effective base priority. Numbers and numeric
// strings are accepted and truncated toward zero; anything missing, negative
// or non-numeric yields DefaultBasePriority. Values above the priority ceiling
// are capped there.
func (f Feed) Base() int {
	raw := bytes.TrimSpace(f.BasePriority)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultBasePriority
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return DefaultBasePriority
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return DefaultBasePriority
		}
		n = v
	}

	switch {
	case math.IsNaN(n) || n < 0:
		return DefaultBasePriority
	case n > 5:
		return 5
	}
	return int(n)
}

// SetBase stores an integer base priority.
func (f *Feed) SetBase(p int) {
	f.BasePriority = json.RawMessage(strconv.Itoa(p))
}

// Clone returns a copy that shares no slices with d. Preserved unknown
// fields are immutable and shared.
func (d Document) Clone() Document {
	out := d
	if d.Sources == nil {
		return out
	}
	out.Sources = make([]Source, len(d.Sources))
	for i, s := range d.Sources {
		out.Sources[i] = s
		if s.Feeds == nil {
			continue
		}
		out.Sources[i].Feeds = make([]Feed, len(s.Feeds))
		for j, f := range s.Feeds {
			f.KeywordBoost = append([]string(nil), f.KeywordBoost...)
			if f.Articles != nil {
				f.Articles = append([]Article{}, f.Articles...)
			}
			out.Sources[i].Feeds[j] = f
		}
	}
	return out
}

// FeedCount returns the number of feeds across all sources.
func (d Document) FeedCount() int {
	var n int
	for _, s := range d.Sources {
		n += len(s.Feeds)
	}
	return n
}

package snapshot

import (
	"bytes"
	"encoding/json"
)

// The rendering layer and hand edits may add keys this package does not know
// about. They are kept in each value's extra map and written back on publish.

var (
	documentKeys = []string{"siteTitle", "tagline", "sources", "updatedAt"}
	sourceKeys   = []string{"name", "feeds"}
	feedKeys     = []string{"topic", "rssUrl", "basePriority", "keywordBoost", "articles"}
	articleKeys  = []string{"title", "summary", "link", "publishedAt", "uploadedAgo", "priority"}
)

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, documentKeys)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.extra = extra
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	if d.Sources == nil {
		d.Sources = []Source{}
	}
	return withExtra(plain(d), d.extra)
}

func (s *Source) UnmarshalJSON(data []byte) error {
	type plain Source
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, sourceKeys)
	if err != nil {
		return err
	}
	*s = Source(p)
	s.extra = extra
	return nil
}

func (s Source) MarshalJSON() ([]byte, error) {
	type plain Source
	if s.Feeds == nil {
		s.Feeds = []Feed{}
	}
	return withExtra(plain(s), s.extra)
}

// UnmarshalJSON is lenient about keywordBoost: a single string counts as one
// keyword, non-string list members are skipped and any other value means no
// keywords. A malformed list never fails the whole document.
func (f *Feed) UnmarshalJSON(data []byte) error {
	type plain Feed
	var p struct {
		plain
		KeywordBoost json.RawMessage `json:"keywordBoost"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, feedKeys)
	if err != nil {
		return err
	}
	*f = Feed(p.plain)
	f.KeywordBoost, f.keywordsRaw = decodeKeywords(p.KeywordBoost)
	f.extra = extra
	return nil
}

func (f Feed) MarshalJSON() ([]byte, error) {
	type plain Feed
	if f.Articles == nil {
		f.Articles = []Article{}
	}
	extra := f.extra
	if f.keywordsRaw != nil {
		f.KeywordBoost = nil
		extra = make(map[string]json.RawMessage, len(f.extra)+1)
		for k, v := range f.extra {
			extra[k] = v
		}
		extra["keywordBoost"] = f.keywordsRaw
	}
	return withExtra(plain(f), extra)
}

// decodeKeywords returns the usable keywords in raw and, when raw is not a
// plain list of strings, raw itself so it can be written back.
func decodeKeywords(raw json.RawMessage) ([]string, json.RawMessage) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	keep := append(json.RawMessage(nil), raw...)

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, keep
	}

	var mixed []any
	if err := json.Unmarshal(raw, &mixed); err == nil {
		var out []string
		for _, v := range mixed {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out, keep
	}
	return nil, keep
}

func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, articleKeys)
	if err != nil {
		return err
	}
	*a = Article(p)
	a.extra = extra
	return nil
}

func (a Article) MarshalJSON() ([]byte, error) {
	type plain Article
	return withExtra(plain(a), a.extra)
}

// unknownFields returns the members of the JSON object in data whose keys are
// not in known, or nil when there are none.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withExtra marshals v and merges extra into the resulting object. Keys
// already produced by v win.
func withExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

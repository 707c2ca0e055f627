package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/feedboard/internal/collect"
	"github.com/TobiSchelling/feedboard/internal/logger"
	"github.com/TobiSchelling/feedboard/internal/snapshot"
)

// Options tunes a refresh.
type Options struct {
	// Concurrency caps how many feeds are fetched at once. 0 means no cap.
	Concurrency int
	// Now supplies the clock; defaults to time.Now.
	Now func() time.Time
}

// FeedOutcome describes what happened to one feed during a refresh.
type FeedOutcome struct {
	Source     string
	Topic      string
	URL        string
	Articles   int // articles now in the feed slot
	Err        error
	HTTPStatus int // non-zero when the server answered with a non-2xx status
	Duration   time.Duration
}

// OK reports whether the feed was refreshed.
func (o FeedOutcome) OK() bool { return o.Err == nil }

// Report summarizes a refresh. Feeds follow document order.
type Report struct {
	UpdatedAt string
	Feeds     []FeedOutcome
}

// Succeeded returns the number of feeds refreshed.
func (r *Report) Succeeded() int {
	var n int
	for _, f := range r.Feeds {
		if f.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of feeds that kept their prior articles.
func (r *Report) Failed() int {
	return len(r.Feeds) - r.Succeeded()
}

type feedRef struct {
	source, feed int
}

type feedResult struct {
	articles []snapshot.Article
	err      error
	duration time.Duration
}

// Refresh fetches every feed of doc concurrently and returns an updated copy.
// A feed whose fetch fails keeps the articles it already had. doc itself is
// never modified.
func Refresh(ctx context.Context, doc snapshot.Document, fetcher collect.Fetcher, opts Options) (snapshot.Document, *Report) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	out := doc.Clone()

	var refs []feedRef
	for i, s := range out.Sources {
		for j := range s.Feeds {
			refs = append(refs, feedRef{source: i, feed: j})
		}
	}

	results := make([]feedResult, len(refs))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for k, ref := range refs {
		k := k
		feed := out.Sources[ref.source].Feeds[ref.feed]
		g.Go(func() error {
			start := time.Now()
			articles, err := refreshFeed(ctx, fetcher, feed, now)
			results[k] = feedResult{articles: articles, err: err, duration: time.Since(start)}
			if err != nil {
				logger.Warnf("[rss] failed for %s: %v", feed.RSSURL, err)
			}
			// Failures are per feed; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Feeds: make([]FeedOutcome, len(refs))}
	for k, ref := range refs {
		src := &out.Sources[ref.source]
		feed := &src.Feeds[ref.feed]
		res := results[k]

		if res.err == nil {
			feed.Articles = res.articles
		}

		outcome := FeedOutcome{
			Source:   src.Name,
			Topic:    feed.Topic,
			URL:      feed.RSSURL,
			Articles: len(feed.Articles),
			Err:      res.err,
			Duration: res.duration,
		}
		var se *collect.StatusError
		if errors.As(res.err, &se) {
			outcome.HTTPStatus = se.Code
		}
		report.Feeds[k] = outcome
	}

	out.UpdatedAt = snapshot.Timestamp(now())
	report.UpdatedAt = out.UpdatedAt
	logger.Debugf("[rss] refreshed %d/%d feeds", report.Succeeded(), len(report.Feeds))
	return out, report
}

func refreshFeed(ctx context.Context, fetcher collect.Fetcher, feed snapshot.Feed, now func() time.Time) (articles []snapshot.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles = nil
			err = fmt.Errorf("feed %s: panic: %v", feed.RSSURL, r)
		}
	}()

	entries, err := fetcher.Fetch(ctx, feed.RSSURL)
	if err != nil {
		return nil, err
	}
	return collect.NormalizeEntries(entries, feed, now()), nil
}

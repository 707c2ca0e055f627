package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/feedboard/internal/collect"
	"github.com/TobiSchelling/feedboard/internal/config"
	"github.com/TobiSchelling/feedboard/internal/database"
	"github.com/TobiSchelling/feedboard/internal/logger"
	"github.com/TobiSchelling/feedboard/internal/snapshot"
)

// Result holds the outcome of one pipeline run.
type Result struct {
	RunID     string // empty for dry runs
	Path      string
	UpdatedAt string
	Report    *Report
	DryRun    bool
}

// Pipeline loads the snapshot, refreshes every feed and republishes it.
type Pipeline struct {
	cfg     *config.Config
	db      *database.DB
	fetcher collect.Fetcher
	now     func() time.Time
}

// New creates a pipeline that fetches feeds over HTTP. db may be nil, in
// which case runs are not recorded.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return NewWithFetcher(cfg, db, collect.NewHTTPFetcher(cfg.FetchTimeout(), cfg.Refresh.UserAgent))
}

// NewWithFetcher creates a pipeline with a custom fetcher.
func NewWithFetcher(cfg *config.Config, db *database.DB, fetcher collect.Fetcher) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		db:      db,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Run executes load, refresh and publish. Load and publish failures are
// returned; individual feed failures only show up in the report. A canceled
// ctx fails the run and leaves the snapshot untouched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	path := p.cfg.Snapshot.Path
	started := p.now()
	r := &Result{RunID: uuid.NewString(), Path: path}

	logger.Infof("[snapshot] loading %s", path)
	doc, err := snapshot.Load(path)
	if err != nil {
		p.record(r, started, err)
		return r, err
	}

	logger.Infof("[rss] refreshing %d feeds", doc.FeedCount())
	updated, report := Refresh(ctx, doc, p.fetcher, p.options())
	r.Report = report

	// A canceled run is never published. Its per-feed outcomes are not
	// recorded either, so cancellations do not count toward failure streaks.
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("refresh interrupted: %w", err)
		p.record(&Result{RunID: r.RunID, Path: path}, started, err)
		return r, err
	}

	if err := snapshot.Publish(path, updated); err != nil {
		err = fmt.Errorf("publishing snapshot: %w", err)
		p.record(r, started, err)
		return r, err
	}
	r.UpdatedAt = updated.UpdatedAt

	logger.Infof("[snapshot] refreshed feeds at %s (%d ok, %d failed)",
		r.UpdatedAt, report.Succeeded(), report.Failed())
	p.record(r, started, nil)
	return r, nil
}

// DryRun refreshes the snapshot in memory without publishing or recording it.
func (p *Pipeline) DryRun(ctx context.Context) (*Result, error) {
	path := p.cfg.Snapshot.Path
	r := &Result{Path: path, DryRun: true}

	doc, err := snapshot.Load(path)
	if err != nil {
		return r, err
	}

	updated, report := Refresh(ctx, doc, p.fetcher, p.options())
	r.Report = report
	if err := ctx.Err(); err != nil {
		return r, fmt.Errorf("refresh interrupted: %w", err)
	}
	r.UpdatedAt = updated.UpdatedAt
	logger.Infof("[dry-run] %d of %d feeds would be refreshed", report.Succeeded(), len(report.Feeds))
	return r, nil
}

func (p *Pipeline) options() Options {
	return Options{Concurrency: p.cfg.Refresh.Concurrency, Now: p.now}
}

// record stores the run in the history database. Failures are logged only.
func (p *Pipeline) record(r *Result, started time.Time, runErr error) {
	if p.db == nil {
		return
	}

	run := &database.Run{
		ID:           r.RunID,
		StartedAt:    snapshot.Timestamp(started),
		FinishedAt:   snapshot.Timestamp(p.now()),
		SnapshotPath: r.Path,
		Status:       database.StatusPublished,
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Status = database.StatusFailed
		run.Error = &msg
	} else {
		updatedAt := r.UpdatedAt
		run.UpdatedAt = &updatedAt
	}

	if r.Report != nil {
		for i, o := range r.Report.Feeds {
			fr := database.FeedResult{
				Position:     i,
				SourceName:   o.Source,
				Topic:        o.Topic,
				RSSURL:       o.URL,
				OK:           o.OK(),
				ArticleCount: o.Articles,
				DurationMS:   o.Duration.Milliseconds(),
			}
			if o.Err != nil {
				msg := o.Err.Error()
				fr.Error = &msg
				run.FeedsFailed++
			} else {
				run.FeedsOK++
			}
			if o.HTTPStatus != 0 {
				status := o.HTTPStatus
				fr.HTTPStatus = &status
			}
			run.Results = append(run.Results, fr)
		}
		run.FeedsTotal = len(r.Report.Feeds)
	}

	if err := p.db.InsertRun(run); err != nil {
		logger.Warnf("[history] failed to record run %s: %v", run.ID, err)
		return
	}
	if n, err := p.db.PruneRuns(p.cfg.Output.HistoryRuns); err != nil {
		logger.Warnf("[history] failed to prune runs: %v", err)
	} else if n > 0 {
		logger.Debugf("[history] pruned %d old runs", n)
	}
}

package database

// Run statuses.
const (
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Run records one refresh of the snapshot.
type Run struct {
	ID           string
	StartedAt    string
	FinishedAt   string
	SnapshotPath string
	UpdatedAt    *string // snapshot updatedAt stamp, nil when not published
	Status       string
	Error        *string
	FeedsTotal   int
	FeedsOK      int
	FeedsFailed  int
	Results      []FeedResult
}

// FeedResult is the outcome of one feed within a run.
type FeedResult struct {
	RunID        string
	Position     int
	SourceName   string
	Topic        string
	RSSURL       string
	OK           bool
	ArticleCount int
	Error        *string
	HTTPStatus   *int
	DurationMS   int64
}

// FailingFeed is a feed that failed in the latest run, with how many runs in
// a row it has failed.
type FailingFeed struct {
	FeedResult
	ConsecutiveFailures int
}

// Stats contains aggregate run history statistics.
type Stats struct {
	TotalRuns     int
	PublishedRuns int
	FailedRuns    int
	LastRun       *Run
}

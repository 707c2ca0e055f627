package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/TobiSchelling/feedboard/internal/logger"
	"github.com/TobiSchelling/feedboard/internal/pipeline"
)

// Runner executes one refresh.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Scheduler refreshes the snapshot on a cron schedule. A tick that arrives
// while the previous refresh is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates spec and prepares a scheduler. spec accepts the standard
// five-field format as well as descriptors such as "@every 15m".
func New(spec string, runner Runner) (*Scheduler, error) {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, runner: runner, ctx: ctx, cancel: cancel}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Start begins running scheduled refreshes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		logger.Infof("[scheduler] next refresh at %s", e.Next.Format(time.RFC3339))
	}
}

// Stop cancels an in-flight refresh and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce triggers a refresh outside the schedule.
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	logger.Infof("[scheduler] starting refresh")
	r, err := s.runner.Run(s.ctx)
	if err != nil {
		logger.Errorf("[scheduler] refresh failed: %v", err)
		return
	}
	logger.Infof("[scheduler] refreshed feeds at %s", r.UpdatedAt)
}

// cronLogger routes cron's own messages to the global logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L.Debugw("[scheduler] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L.Errorw("[scheduler] "+msg, append(keysAndValues, "error", err)...)
}

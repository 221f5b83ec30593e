package tracker

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nmt-project/nmt/pkg/log"
)

// Scheduler drives the tracker's periodic background jobs the way the
// teacher's internal/taskManager drives its own cron-style jobs: a
// summary-to-log snapshot so an operator tailing logs sees live
// totals without hitting the HTTP endpoint, and a self-check that
// clears a stale degraded flag once the tree and counters agree again.
type Scheduler struct {
	sched gocron.Scheduler
}

// NewScheduler builds (but does not start) a Scheduler bound to t.
func NewScheduler(t *Tracker, summaryEvery, selfCheckEvery time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(summaryEvery),
		gocron.NewTask(func() { t.logSummary() }),
	); err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(selfCheckEvery),
		gocron.NewTask(t.selfCheck),
	); err != nil {
		return nil, err
	}

	return &Scheduler{sched: sched}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.sched.Start() }

// Stop waits for in-flight jobs to finish and stops the scheduler.
func (s *Scheduler) Stop() error { return s.sched.Shutdown() }

func (t *Tracker) logSummary() {
	snap := t.Snapshot()
	status := t.Status()
	log.Infof("%s", status)
	for tag, v := range snap {
		if v.Reserve == 0 && v.Commit == 0 {
			continue
		}
		log.Infof("nmt: %s: reserved=%dKB committed=%dKB", t.tagName(tag), v.Reserve/1024, v.Commit/1024)
	}
}

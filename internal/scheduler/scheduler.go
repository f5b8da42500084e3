package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ms-eventus/internal/logger"
)

// Stable job identifiers, used in logs and for the overlap guard.
const (
	JobRefresh = "refresh_system_events"
	JobSweep   = "sweep_expired_events"
)

// Lifecycle is the slice of the event service the scheduler drives.
type Lifecycle interface {
	RefreshSystemEvents() (int, error)
	SweepExpiredEvents() (int64, error)
}

// Scheduler owns the two periodic maintenance jobs: the system event refresh
// and the expiry sweep. Start is idempotent so wiring it from multiple code
// paths cannot double-register the jobs. Overlap policy is skip-if-running:
// a job whose previous run is still going is skipped, not queued.
type Scheduler struct {
	cron         *cron.Cron
	service      Lifecycle
	logger       *logger.Logger
	refreshEvery time.Duration
	sweepEvery   time.Duration

	mu      sync.Mutex
	started bool
}

func New(service Lifecycle, log *logger.Logger, refreshEvery, sweepEvery time.Duration) *Scheduler {
	s := &Scheduler{
		cron:         cron.New(),
		service:      service,
		logger:       log,
		refreshEvery: refreshEvery,
		sweepEvery:   sweepEvery,
	}
	// Jobs are registered once; Start/Stop only toggle the cron loop.
	s.register(JobRefresh, refreshEvery, s.runRefresh)
	s.register(JobSweep, sweepEvery, s.runSweep)
	return s
}

// Start launches the cron loop. Calling it again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Debug("SCHEDULER", "Start called on a running scheduler, ignoring")
		return
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("SCHEDULER", fmt.Sprintf("Scheduler started (refresh every %s, sweep every %s)", s.refreshEvery, s.sweepEvery))
}

// Stop halts the cron loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	s.logger.Info("SCHEDULER", "Scheduler stopped")
}

// Started reports whether the scheduler is currently running.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Scheduler) register(name string, every time.Duration, run func()) {
	job := cron.NewChain(cron.SkipIfStillRunning(s.cronLogger(name))).Then(cron.FuncJob(run))
	s.cron.Schedule(cron.Every(every), job)
}

// Job funcs swallow store errors: a failed run is logged and retried on the
// next interval, never propagated to the cron loop.

func (s *Scheduler) runRefresh() {
	s.logger.LogJob(JobRefresh, "Starting system event refresh")
	count, err := s.service.RefreshSystemEvents()
	if err != nil {
		s.logger.Error("SCHEDULER", fmt.Sprintf("[%s] Refresh failed: %v", JobRefresh, err))
		return
	}
	s.logger.LogJob(JobRefresh, fmt.Sprintf("Inserted %d system events", count))
}

func (s *Scheduler) runSweep() {
	count, err := s.service.SweepExpiredEvents()
	if err != nil {
		s.logger.Error("SCHEDULER", fmt.Sprintf("[%s] Sweep failed: %v", JobSweep, err))
		return
	}
	if count > 0 {
		s.logger.LogJob(JobSweep, fmt.Sprintf("Marked %d expired events inactive", count))
	} else {
		s.logger.Debug("SCHEDULER", fmt.Sprintf("[%s] No expired events", JobSweep))
	}
}

// cronLogger adapts the service logger to the cron.Logger interface so the
// skip-if-running wrapper can report skipped runs.
func (s *Scheduler) cronLogger(job string) cron.Logger {
	return &jobLogger{logger: s.logger, job: job}
}

type jobLogger struct {
	logger *logger.Logger
	job    string
}

func (l *jobLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Warn("SCHEDULER", fmt.Sprintf("[%s] %s %v", l.job, msg, keysAndValues))
}

func (l *jobLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("SCHEDULER", fmt.Sprintf("[%s] %s: %v %v", l.job, msg, err, keysAndValues))
}

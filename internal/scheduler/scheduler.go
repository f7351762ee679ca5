package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// SessionExpirer drops in-progress test sessions that have gone idle
type SessionExpirer interface {
	ExpireIdle(maxIdle time.Duration) int
}

// Scheduler manages periodic maintenance tasks
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionExpirer
	maxIdle   time.Duration
	interval  time.Duration
}

// New creates a scheduler that sweeps sessions idle for longer than maxIdle.
// The sweep runs every tenth of maxIdle, at least once a minute.
func New(sessions SessionExpirer, maxIdle time.Duration) *Scheduler {
	interval := maxIdle / 10
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		maxIdle:   maxIdle,
		interval:  interval,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.expireIdleSessions); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) expireIdleSessions() {
	if removed := s.sessions.ExpireIdle(s.maxIdle); removed > 0 {
		log.Printf("Expired %d idle test sessions", removed)
	}
}

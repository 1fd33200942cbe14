package backup

import (
	"context"
	"fmt"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"sync"
	"time"
)

type (
	// Scheduler runs a task on a fixed interval. The next run is armed only
	// after the previous one returned, so runs never overlap and a slow run
	// pushes the following one back.
	Scheduler interface {
		Start(interval time.Duration) error
		Stop()
		Restart(interval time.Duration) error
		State() State
		NextRun() (time.Time, bool)
	}

	Task func(ctx context.Context) error

	State string

	scheduler struct {
		task  Task
		clock clockwork.Clock

		lock  sync.Mutex
		state State
		stop  chan struct{}
		next  time.Time
		timer clockwork.Timer
	}
)

const (
	StateStopped   State = "stopped"
	StateScheduled State = "scheduled"
)

func NewScheduler(task Task, clock clockwork.Clock) Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &scheduler{task: task, clock: clock, state: StateStopped}
}

// Start arms the first run interval from now. Starting a scheduled
// scheduler replaces its pending timer.
func (s *scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return newError(KindInvalidArgument, "start scheduler", "", fmt.Errorf("interval must be positive, got %s", interval))
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopLocked()

	schedule := cron.Every(interval)
	now := s.clock.Now()
	next := schedule.Next(now)
	timer := s.clock.NewTimer(next.Sub(now))

	stop := make(chan struct{})
	s.stop = stop
	s.state = StateScheduled
	s.next = next
	s.timer = timer

	go s.loop(stop, timer, schedule)

	logger.Info("backup scheduled",
		zap.Duration("interval", schedule.Delay),
		zap.Time("next_run", next))
	return nil
}

// Stop cancels the pending run. A run already in progress is allowed to
// finish but is not followed by another.
func (s *scheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopLocked() {
		logger.Info("scheduled backup stopped")
	}
}

func (s *scheduler) Restart(interval time.Duration) error {
	s.Stop()
	return s.Start(interval)
}

func (s *scheduler) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

func (s *scheduler) NextRun() (time.Time, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state != StateScheduled {
		return time.Time{}, false
	}
	return s.next, true
}

func (s *scheduler) stopLocked() bool {
	if s.stop == nil {
		return false
	}
	close(s.stop)
	s.timer.Stop()
	s.stop = nil
	s.timer = nil
	s.state = StateStopped
	s.next = time.Time{}
	return true
}

func (s *scheduler) loop(stop chan struct{}, timer clockwork.Timer, schedule cron.Schedule) {
	for {
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.Chan():
		}

		select {
		case <-stop:
			return
		default:
		}

		s.run()

		s.lock.Lock()
		if s.stop != stop {
			s.lock.Unlock()
			return
		}
		now := s.clock.Now()
		s.next = schedule.Next(now)
		timer = s.clock.NewTimer(s.next.Sub(now))
		s.timer = timer
		logger.Info("next backup scheduled", zap.Time("next_run", s.next))
		s.lock.Unlock()
	}
}

// run never lets a failure escape, so the loop always re-arms.
func (s *scheduler) run() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled backup panicked",
				zap.Error(errors.Errorf("%v", r)),
				zap.Stack("stack"))
		}
	}()

	if err := s.task(context.Background()); err != nil {
		logger.Error("scheduled backup failed", zap.Error(err))
	}
}

package rectifier

import (
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
)

// Scheduled drives a Rectifier's Tick calls off a clock.Scheduler, one
// frame period apart, re-scheduling itself after every tick until Stop is
// called. This is the production wiring; tests typically call Tick
// directly against a TestScheduler-backed clock instead.
type Scheduled struct {
	r         *Rectifier
	sched     clock.Scheduler
	mu        sync.Mutex
	pending   clock.TaskID
	stopped   bool
}

// NewScheduled wraps r to tick once per r's configured frame period; the
// first tick fires one frame period after NewScheduled is called.
func NewScheduled(r *Rectifier, sched clock.Scheduler) *Scheduled {
	s := &Scheduled{r: r, sched: sched}
	s.scheduleNext()
	return s
}

func (s *Scheduled) scheduleNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = s.sched.ScheduleIn(s.fire, s.r.cfg.FramePeriod)
}

func (s *Scheduled) fire(now clock.Fraction) {
	s.r.Tick()
	s.scheduleNext()
}

// Stop cancels the next pending tick and prevents further rescheduling.
func (s *Scheduled) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.sched.Cancel(s.pending)
}

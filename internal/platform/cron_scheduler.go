package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CronScheduler implements Scheduler on top of robfig/cron: every alert is
// one cron entry with a weekly spec, and the cron entry id is the handle.
type CronScheduler struct {
	cron *cron.Cron

	mu       sync.Mutex
	entries  map[cron.EntryID]Payload
	received ReceivedFunc
}

func NewCronScheduler(loc *time.Location) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		entries: make(map[cron.EntryID]Payload),
	}
}

// OnReceived registers the callback invoked when an alert fires. Must be set
// before Start.
func (s *CronScheduler) OnReceived(fn ReceivedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = fn
}

// ScheduleWeekly registers a trigger that fires every week on the trigger's
// weekday at hour:minute.
func (s *CronScheduler) ScheduleWeekly(trigger Trigger, payload Payload) (Handle, error) {
	if err := trigger.Validate(); err != nil {
		return 0, err
	}

	// cron format: second minute hour dom month dow
	spec := fmt.Sprintf("0 %d %d * * %d", trigger.Minute, trigger.Hour, trigger.Weekday.CronDOW())
	id, err := s.cron.AddFunc(spec, func() { s.dispatch(payload) })
	if err != nil {
		return 0, fmt.Errorf("platform: register weekly trigger: %w", err)
	}

	s.mu.Lock()
	s.entries[id] = payload
	s.mu.Unlock()
	return Handle(id), nil
}

// Cancel removes a registered alert. Cancelling an unknown handle is an
// error so sweeps can log it, but it leaves the scheduler untouched.
func (s *CronScheduler) Cancel(handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := cron.EntryID(handle)
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("platform: no pending alert for handle %d", handle)
	}
	s.cron.Remove(id)
	delete(s.entries, id)
	return nil
}

// Pending returns the authoritative list of live alerts.
func (s *CronScheduler) Pending() []PendingAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingAlert, 0, len(s.entries))
	for id, payload := range s.entries {
		out = append(out, PendingAlert{Handle: Handle(id), Payload: payload})
	}
	return out
}

// ScheduleInterval registers a periodic job every given duration, for the
// reconciliation sweep.
func (s *CronScheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *CronScheduler) dispatch(payload Payload) {
	s.mu.Lock()
	fn := s.received
	s.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
	"task-reminder/internal/platform"
	"task-reminder/internal/repository"
)

// 2026-02-16 is a Monday.
var baseMonday = time.Date(2026, 2, 16, 8, 50, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

// testClock exposes a movable now for walking through a scenario.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) (*clock.Clock, *testClock) {
	tc := &testClock{now: start}
	return clock.NewFixed(time.UTC, tc.Now), tc
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type scheduledAlert struct {
	trigger platform.Trigger
	payload platform.Payload
}

// fakeScheduler records weekly registrations in memory and can be told to
// reject individual alert kinds.
type fakeScheduler struct {
	mu      sync.Mutex
	next    platform.Handle
	entries map[platform.Handle]scheduledAlert
	fail    map[model.AlertKind]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{entries: make(map[platform.Handle]scheduledAlert)}
}

func (f *fakeScheduler) ScheduleWeekly(trigger platform.Trigger, payload platform.Payload) (platform.Handle, error) {
	if err := trigger.Validate(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[payload.Kind] {
		return 0, fmt.Errorf("fake: %s alerts rejected", payload.Kind)
	}
	f.next++
	f.entries[f.next] = scheduledAlert{trigger: trigger, payload: payload}
	return f.next, nil
}

func (f *fakeScheduler) Cancel(handle platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[handle]; !ok {
		return fmt.Errorf("fake: no pending alert for handle %d", handle)
	}
	delete(f.entries, handle)
	return nil
}

func (f *fakeScheduler) Pending() []platform.PendingAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.PendingAlert, 0, len(f.entries))
	for handle, entry := range f.entries {
		out = append(out, platform.PendingAlert{Handle: handle, Payload: entry.payload})
	}
	return out
}

func (f *fakeScheduler) triggers() []platform.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.Trigger, 0, len(f.entries))
	for _, entry := range f.entries {
		out = append(out, entry.trigger)
	}
	return out
}

func standupTask() model.Task {
	return model.Task{
		ID:         "standup",
		Name:       "Standup",
		Status:     model.StatusIncomplete,
		Time:       time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
		RepeatDays: []model.Weekday{model.Monday},
	}
}

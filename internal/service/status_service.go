package service

import (
	"context"
	"sync"
	"time"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
	"task-reminder/internal/repository"
)

// StatusService reconciles task lifecycle state against the display-timezone
// clock. All comparisons use minute-of-day arithmetic on civil times; raw
// instant subtraction would break across date rollovers.
type StatusService struct {
	tasks        *repository.TaskStore
	clock        *clock.Clock
	graceMinutes int

	// Sweeps must not overlap; the mutex doubles as the re-entrancy guard.
	mu sync.Mutex
}

func NewStatusService(tasks *repository.TaskStore, clk *clock.Clock, graceMinutes int) *StatusService {
	return &StatusService{tasks: tasks, clock: clk, graceMinutes: graceMinutes}
}

// ReconcileAll recomputes every task's status for the current instant and
// persists only when something changed, so repeated calls with an unchanged
// clock produce no additional writes. The second return lists tasks it
// reopened from complete to incomplete: completion cancelled their alerts,
// and the caller must register them again.
func (s *StatusService) ReconcileAll(ctx context.Context) ([]model.Task, []model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	tasks := s.tasks.Load(ctx)

	changed := false
	var reopened []model.Task
	for i, t := range tasks {
		next := t.Status
		if t.Status == model.StatusComplete {
			if s.resetDue(t, now) {
				next = model.StatusIncomplete
			}
		} else {
			next = s.statusAt(t, now)
		}
		if next != t.Status {
			tasks[i].Status = next
			tasks[i].UpdatedAt = now
			changed = true
			if t.Status == model.StatusComplete {
				reopened = append(reopened, tasks[i])
			}
		}
	}

	if !changed {
		return tasks, nil, nil
	}
	if err := s.tasks.Save(ctx, tasks); err != nil {
		return tasks, reopened, err
	}
	return tasks, reopened, nil
}

// ResetCompletedIfDue reopens a completed task at the start of its next
// occurrence. Returns whether a reset happened.
func (s *StatusService) ResetCompletedIfDue(ctx context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, t := range s.tasks.Load(ctx) {
		if t.ID != taskID {
			continue
		}
		if t.Status != model.StatusComplete || !s.resetDue(t, now) {
			return false, nil
		}
		status := model.StatusIncomplete
		_, err := s.tasks.Update(ctx, taskID, model.TaskPatch{Status: &status})
		return err == nil, err
	}
	return false, nil
}

// statusAt derives the lifecycle state of a non-complete task. A task not
// scheduled today can never be overdue.
func (s *StatusService) statusAt(t model.Task, now time.Time) model.TaskStatus {
	if !t.ScheduledOn(model.WeekdayOf(now.Weekday())) {
		return model.StatusIncomplete
	}
	at := s.clock.ToDisplay(t.Time)
	delta := (now.Hour()*60 + now.Minute()) - (at.Hour()*60 + at.Minute())
	if delta >= s.graceMinutes {
		return model.StatusOverdue
	}
	return model.StatusIncomplete
}

// resetDue holds when a completed task is scheduled today, was last touched
// on an earlier calendar day, and today's slot has not passed yet. A task
// whose slot already went by stays complete rather than being resurrected.
func (s *StatusService) resetDue(t model.Task, now time.Time) bool {
	if !t.ScheduledOn(model.WeekdayOf(now.Weekday())) {
		return false
	}
	if s.clock.SameDay(t.UpdatedAt, now) {
		return false
	}
	at := s.clock.ToDisplay(t.Time)
	return now.Before(s.clock.At(now, at.Hour(), at.Minute()))
}

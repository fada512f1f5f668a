package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
	"task-reminder/internal/platform"
	"task-reminder/internal/repository"
)

// NotificationService expands a task's weekly schedule into platform alerts:
// one upcoming, one start and one overdue trigger per repeat day, each
// recurring weekly. Handles are tracked in memory for targeted cancellation;
// the platform's pending list is the authoritative backstop after a restart.
type NotificationService struct {
	scheduler    platform.Scheduler
	delivered    *repository.DeliveredStore
	clock        *clock.Clock
	leadMinutes  int
	graceMinutes int

	mu      sync.Mutex
	handles map[string]map[model.AlertKind]map[model.Weekday]platform.Handle
}

func NewNotificationService(scheduler platform.Scheduler, delivered *repository.DeliveredStore, clk *clock.Clock, leadMinutes, graceMinutes int) *NotificationService {
	return &NotificationService{
		scheduler:    scheduler,
		delivered:    delivered,
		clock:        clk,
		leadMinutes:  leadMinutes,
		graceMinutes: graceMinutes,
		handles:      make(map[string]map[model.AlertKind]map[model.Weekday]platform.Handle),
	}
}

// ScheduleAll registers the task's full alert set, starting from a clean
// slate: previous registrations are cancelled and the delivered set cleared
// before anything new is added. Individual registration failures are logged
// and never block sibling alerts.
func (s *NotificationService) ScheduleAll(ctx context.Context, task model.Task) error {
	if task.Status == model.StatusComplete {
		log.Printf("[info] task %s is complete, no alerts scheduled", task.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked(ctx, task.ID)

	at := s.clock.ToDisplay(task.Time)
	hour, minute := at.Hour(), at.Minute()

	byKind := make(map[model.AlertKind]map[model.Weekday]platform.Handle)
	for _, day := range task.RepeatDays {
		for _, kind := range model.AlertKinds {
			trigger := rollTrigger(day, hour, minute, s.offsetMinutes(kind))
			title, body := renderAlert(kind, task.Name, fmt.Sprintf("%02d:%02d", hour, minute))
			payload := platform.Payload{
				ID:      uuid.NewString(),
				TaskID:  task.ID,
				Kind:    kind,
				Weekday: day,
				Title:   title,
				Body:    body,
			}

			handle, err := s.scheduler.ScheduleWeekly(trigger, payload)
			if err != nil {
				log.Printf("[warn] schedule %s alert for task %s (%s): %v", kind, task.ID, day, err)
				continue
			}
			if byKind[kind] == nil {
				byKind[kind] = make(map[model.Weekday]platform.Handle)
			}
			byKind[kind][day] = handle
		}
	}
	s.handles[task.ID] = byKind
	return nil
}

// CancelAll removes every live alert for the task: first the tracked handles,
// then a sweep of the platform's pending list for payloads the in-memory
// table lost across a restart. Finally the delivered set is cleared so the
// next cycle's alerts are eligible again.
func (s *NotificationService) CancelAll(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked(ctx, taskID)
	return nil
}

func (s *NotificationService) cancelAllLocked(ctx context.Context, taskID string) {
	for kind, byDay := range s.handles[taskID] {
		for day, handle := range byDay {
			if err := s.scheduler.Cancel(handle); err != nil {
				log.Printf("[warn] cancel %s alert for task %s (%s): %v", kind, taskID, day, err)
			}
		}
	}
	delete(s.handles, taskID)

	for _, pending := range s.scheduler.Pending() {
		if pending.Payload.TaskID != taskID {
			continue
		}
		if err := s.scheduler.Cancel(pending.Handle); err != nil {
			log.Printf("[warn] cancel orphaned %s alert for task %s: %v", pending.Payload.Kind, taskID, err)
		}
	}

	if err := s.delivered.Clear(ctx, taskID); err != nil {
		log.Printf("[warn] clear delivered set for task %s: %v", taskID, err)
	}
}

func (s *NotificationService) offsetMinutes(kind model.AlertKind) int {
	switch kind {
	case model.AlertUpcoming:
		return -s.leadMinutes
	case model.AlertOverdue:
		return s.graceMinutes
	default:
		return 0
	}
}

// rollTrigger derives an alert's fire time by applying a minute offset on a
// real calendar week, so an offset that crosses midnight shifts the trigger's
// weekday instead of wrapping the clock in place.
func rollTrigger(day model.Weekday, hour, minute, offsetMinutes int) platform.Trigger {
	// 2006-01-01 is a Sunday; any fixed reference week works for civil
	// arithmetic, and UTC keeps DST out of it.
	anchor := time.Date(2006, time.January, 1+day.CronDOW(), hour, minute, 0, 0, time.UTC)
	fire := anchor.Add(time.Duration(offsetMinutes) * time.Minute)
	return platform.Trigger{
		Weekday: model.WeekdayOf(fire.Weekday()),
		Hour:    fire.Hour(),
		Minute:  fire.Minute(),
	}
}

func renderAlert(kind model.AlertKind, name, at string) (title, body string) {
	switch kind {
	case model.AlertUpcoming:
		return "⏳ Upcoming: " + name, fmt.Sprintf("%s starts at %s.", name, at)
	case model.AlertOverdue:
		return "⚠️ Overdue: " + name, fmt.Sprintf("%s was scheduled for %s and is still open.", name, at)
	default:
		return "🔔 " + name, fmt.Sprintf("It is time for %s (%s).", name, at)
	}
}

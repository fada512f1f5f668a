package service

import (
	"context"
	"log"
	"time"

	"task-reminder/internal/model"
	"task-reminder/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Name       string
	Time       time.Time
	RepeatDays []model.Weekday
}

// PlannerService is the surface the UI shell drives: task CRUD, the periodic
// status sweep, and per-task alert scheduling. Every create, update, delete
// or complete action cancels and reschedules the affected task's alerts as a
// strict sequence, so no duplicate live alerts survive a mutation.
type PlannerService struct {
	tasks         *repository.TaskStore
	status        *StatusService
	notifications *NotificationService
}

func NewPlannerService(tasks *repository.TaskStore, status *StatusService, notifications *NotificationService) *PlannerService {
	return &PlannerService{tasks: tasks, status: status, notifications: notifications}
}

// LoadTasks returns the current task list.
func (s *PlannerService) LoadTasks(ctx context.Context) []model.Task {
	return s.tasks.Load(ctx)
}

// AddTask creates a task and schedules its alerts.
func (s *PlannerService) AddTask(ctx context.Context, input TaskInput) ([]model.Task, *model.Task, error) {
	list, created, err := s.tasks.Add(ctx, model.Task{
		Name:       input.Name,
		Status:     model.StatusIncomplete,
		Time:       input.Time,
		RepeatDays: input.RepeatDays,
	})
	if err != nil {
		return list, created, err
	}
	if err := s.notifications.ScheduleAll(ctx, *created); err != nil {
		log.Printf("[warn] schedule alerts for new task %s: %v", created.ID, err)
	}
	return list, created, nil
}

// UpdateTask patches a task and reschedules its alerts from a clean slate.
func (s *PlannerService) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) ([]model.Task, error) {
	list, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return list, err
	}
	for _, t := range list {
		if t.ID != id {
			continue
		}
		if t.Status == model.StatusComplete {
			if err := s.notifications.CancelAll(ctx, id); err != nil {
				log.Printf("[warn] cancel alerts for completed task %s: %v", id, err)
			}
		} else if err := s.notifications.ScheduleAll(ctx, t); err != nil {
			log.Printf("[warn] reschedule alerts for task %s: %v", id, err)
		}
		break
	}
	return list, nil
}

// DeleteTask cancels the task's alerts, then removes it.
func (s *PlannerService) DeleteTask(ctx context.Context, id string) ([]model.Task, error) {
	if err := s.notifications.CancelAll(ctx, id); err != nil {
		log.Printf("[warn] cancel alerts for task %s: %v", id, err)
	}
	return s.tasks.Delete(ctx, id)
}

// CompleteTask marks the current occurrence done. The reconciler reopens the
// task at its next scheduled occurrence.
func (s *PlannerService) CompleteTask(ctx context.Context, id string) ([]model.Task, error) {
	status := model.StatusComplete
	return s.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// UpdateTaskStatuses runs one reconciliation sweep and returns the refreshed
// list. Called on a timer and on every resume/focus event. Tasks the sweep
// reopened get their alerts registered again, since completing them cancelled
// everything.
func (s *PlannerService) UpdateTaskStatuses(ctx context.Context) ([]model.Task, error) {
	list, reopened, err := s.status.ReconcileAll(ctx)
	if err != nil {
		return list, err
	}
	for _, t := range reopened {
		if err := s.notifications.ScheduleAll(ctx, t); err != nil {
			log.Printf("[warn] reschedule alerts for reopened task %s: %v", t.ID, err)
		}
	}
	return list, nil
}

// ScheduleAllNotificationTasks registers the task's full alert set.
func (s *PlannerService) ScheduleAllNotificationTasks(ctx context.Context, task model.Task) error {
	return s.notifications.ScheduleAll(ctx, task)
}

// CancelAllNotificationTasks removes every live alert for the task.
func (s *PlannerService) CancelAllNotificationTasks(ctx context.Context, taskID string) error {
	return s.notifications.CancelAll(ctx, taskID)
}

// RescheduleAll re-registers alerts for every open task. Run once on startup:
// the in-memory handle table does not survive a process restart.
func (s *PlannerService) RescheduleAll(ctx context.Context) {
	for _, t := range s.tasks.Load(ctx) {
		if t.Status == model.StatusComplete {
			continue
		}
		if err := s.notifications.ScheduleAll(ctx, t); err != nil {
			log.Printf("[warn] reschedule alerts for task %s: %v", t.ID, err)
		}
	}
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
)

const tasksKey = "tasks"

// taskSchemaVersion is bumped whenever the task document layout changes.
// Version 1 was a bare JSON array with drifting field encodings; version 2
// wraps the array and stores normalized records.
const taskSchemaVersion = 2

type taskDocument struct {
	Version int             `json:"version"`
	Tasks   json.RawMessage `json:"tasks"`
}

// TaskStore persists the full task list as a single JSON document. Mutations
// are serialized with a store-level mutex; the storage layer itself offers no
// atomicity beyond last-writer-wins.
type TaskStore struct {
	docs  *DocumentStore
	clock *clock.Clock

	mu    sync.Mutex
	cache []model.Task
}

func NewTaskStore(docs *DocumentStore, clk *clock.Clock) *TaskStore {
	return &TaskStore{docs: docs, clock: clk}
}

// Load reads the task document, migrating legacy layouts in place. Read
// failures degrade to the last known in-memory list.
func (s *TaskStore) Load(ctx context.Context) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *TaskStore) loadLocked(ctx context.Context) []model.Task {
	data, err := s.docs.Read(ctx, tasksKey)
	if err != nil {
		log.Printf("[warn] load tasks: %v, serving last known list", err)
		return cloneTasks(s.cache)
	}
	if data == nil {
		s.cache = nil
		return nil
	}

	raw := data
	migrated := false
	var doc taskDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Version >= taskSchemaVersion {
		raw = doc.Tasks
	} else {
		// Pre-versioned document: a bare array of legacy records.
		migrated = true
	}

	tasks, dropped := model.DecodeTaskList(raw, s.clock.Location())
	for _, dropErr := range dropped {
		log.Printf("[warn] load tasks: dropped record: %v", dropErr)
	}

	if migrated || len(dropped) > 0 {
		if err := s.saveLocked(ctx, tasks); err != nil {
			log.Printf("[warn] persist migrated tasks: %v", err)
		} else if migrated {
			log.Printf("[info] migrated task document to schema v%d", taskSchemaVersion)
		}
	}

	s.cache = cloneTasks(tasks)
	return tasks
}

// Save rewrites the whole task document. Failures propagate so the caller can
// retry or surface an error, but the in-memory list keeps serving reads.
func (s *TaskStore) Save(ctx context.Context, tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, tasks)
}

func (s *TaskStore) saveLocked(ctx context.Context, tasks []model.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	data, err := json.Marshal(taskDocument{Version: taskSchemaVersion, Tasks: raw})
	if err != nil {
		return fmt.Errorf("encode task document: %w", err)
	}
	if err := s.docs.Write(ctx, tasksKey, data); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	s.cache = cloneTasks(tasks)
	return nil
}

// Add generates an id, stamps timestamps and appends the task. A submission
// with no repeat days defaults to today's weekday.
func (s *TaskStore) Add(ctx context.Context, input model.Task) ([]model.Task, *model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	task := input
	task.ID = uuid.NewString()
	task.RepeatDays = model.NormalizeWeekdays(task.RepeatDays)
	if len(task.RepeatDays) == 0 {
		task.RepeatDays = []model.Weekday{model.WeekdayOf(now.Weekday())}
	}
	if !task.Status.IsValid() {
		task.Status = model.StatusIncomplete
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := task.Validate(); err != nil {
		return cloneTasks(s.cache), nil, err
	}

	tasks := append(s.loadLocked(ctx), task)
	if err := s.saveLocked(ctx, tasks); err != nil {
		return tasks, &task, err
	}
	return tasks, &task, nil
}

// Update merges a partial patch into the stored record and refreshes
// updated_at. A missing id is logged and leaves the collection unmodified.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadLocked(ctx)
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		updated := patch.Apply(t)
		updated.UpdatedAt = s.clock.Now()
		tasks[i] = updated
		if err := s.saveLocked(ctx, tasks); err != nil {
			return tasks, err
		}
		return tasks, nil
	}

	log.Printf("[warn] update task %s: not found", id)
	return tasks, nil
}

// Delete removes the task by id. A missing id is logged and is a no-op.
func (s *TaskStore) Delete(ctx context.Context, id string) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.loadLocked(ctx)
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		tasks = append(tasks[:i], tasks[i+1:]...)
		if err := s.saveLocked(ctx, tasks); err != nil {
			return tasks, err
		}
		return tasks, nil
	}

	log.Printf("[warn] delete task %s: not found", id)
	return tasks, nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}

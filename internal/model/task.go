package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus = errors.New("model: invalid task status")
	ErrEmptyName     = errors.New("model: task name is required")
	ErrNoRepeatDays  = errors.New("model: at least one repeat day is required")
)

// TaskStatus is the closed lifecycle enum. Valid transitions:
// incomplete -> overdue (automatic), incomplete/overdue -> complete (manual),
// complete -> incomplete (automatic reset at the next occurrence).
type TaskStatus string

const (
	StatusIncomplete TaskStatus = "incomplete"
	StatusComplete   TaskStatus = "complete"
	StatusOverdue    TaskStatus = "overdue"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusIncomplete, StatusComplete, StatusOverdue:
		return true
	default:
		return false
	}
}

// NormalizeStatus folds legacy status spellings into the closed enum.
// Older documents carried "pending" and "started" for open tasks.
func NormalizeStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "done":
		return StatusComplete
	case "overdue", "late":
		return StatusOverdue
	default:
		return StatusIncomplete
	}
}

// Task is a recurring weekly reminder. Time carries a full timestamp but only
// its hour and minute in the display timezone are significant.
type Task struct {
	ID         string     `json:"taskId"`
	Name       string     `json:"taskName"`
	Status     TaskStatus `json:"taskStatus"`
	Time       time.Time  `json:"taskTime"`
	RepeatDays []Weekday  `json:"repeatDay"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.Time.IsZero() {
		return errors.New("model: task time is required")
	}
	if len(t.RepeatDays) == 0 {
		return ErrNoRepeatDays
	}
	for _, d := range t.RepeatDays {
		if !d.IsValid() {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, int(d))
		}
	}
	return nil
}

// ScheduledOn reports whether the task recurs on the given weekday.
func (t Task) ScheduledOn(day Weekday) bool {
	for _, d := range t.RepeatDays {
		if d == day {
			return true
		}
	}
	return false
}

// TaskPatch is a partial update. Nil fields keep the stored value; an empty
// RepeatDays slice is ignored rather than emptying the set.
type TaskPatch struct {
	Name       *string
	Status     *TaskStatus
	Time       *time.Time
	RepeatDays []Weekday
}

// Apply merges the patch into a copy of the task.
func (p TaskPatch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Time != nil {
		t.Time = *p.Time
	}
	if days := NormalizeWeekdays(p.RepeatDays); len(days) > 0 {
		t.RepeatDays = days
	}
	return t
}

// rawTask mirrors the on-disk record with tolerance for every legacy shape the
// document has carried: drifting status strings, repeat day sets stored as
// numbers, names or encoded strings, and timestamps with or without offsets.
type rawTask struct {
	ID        string          `json:"taskId"`
	Name      string          `json:"taskName"`
	Status    string          `json:"taskStatus"`
	Time      string          `json:"taskTime"`
	RepeatDay json.RawMessage `json:"repeatDay"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// DecodeTaskList reads a persisted JSON task array, normalizing each record.
// Records that cannot be normalized are dropped, not fatal: a single corrupt
// entry must not take the whole collection down.
func DecodeTaskList(data []byte, loc *time.Location) ([]Task, []error) {
	var raws []rawTask
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, []error{fmt.Errorf("model: decode task list: %w", err)}
	}

	tasks := make([]Task, 0, len(raws))
	var dropped []error
	for _, r := range raws {
		task, err := r.normalize(loc)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, dropped
}

func (r rawTask) normalize(loc *time.Location) (Task, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Task{}, errors.New("model: record without taskId")
	}

	taskTime, err := parseStoredTime(r.Time, loc)
	if err != nil {
		return Task{}, fmt.Errorf("model: task %s: %w", r.ID, err)
	}

	days, err := DecodeWeekdaySet(r.RepeatDay)
	if err != nil {
		return Task{}, fmt.Errorf("model: task %s: %w", r.ID, err)
	}
	if len(days) == 0 {
		return Task{}, fmt.Errorf("model: task %s: %w", r.ID, ErrNoRepeatDays)
	}

	createdAt, _ := parseStoredTime(r.CreatedAt, loc)
	updatedAt, _ := parseStoredTime(r.UpdatedAt, loc)

	return Task{
		ID:         r.ID,
		Name:       strings.TrimSpace(r.Name),
		Status:     NormalizeStatus(r.Status),
		Time:       taskTime,
		RepeatDays: days,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

var storedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"15:04",
}

func parseStoredTime(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range storedTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

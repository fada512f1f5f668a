package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"task-reminder/internal/clock"
	"task-reminder/internal/model"
	"task-reminder/internal/platform"
	"task-reminder/internal/repository"
)

// deliveredTTL bounds how long a delivered flag suppresses redelivery. The
// same (taskId, kind) alert recurs no sooner than daily, so an entry older
// than this belongs to a previous occurrence and must not silence the next
// one in a long-running process.
const deliveredTTL = 12 * time.Hour

// DeliveryService turns fired alerts into history records exactly once per
// occurrence. Duplicates are filtered by two independent defenses, because
// platform delivery callbacks can legitimately double-fire: the durable
// delivered set keyed by (taskId, kind), and a trailing-window scan of recent
// history.
type DeliveryService struct {
	delivered *repository.DeliveredStore
	history   *repository.HistoryStore
	clock     *clock.Clock
	window    time.Duration
}

func NewDeliveryService(delivered *repository.DeliveredStore, history *repository.HistoryStore, clk *clock.Clock, window time.Duration) *DeliveryService {
	return &DeliveryService{delivered: delivered, history: history, clock: clk, window: window}
}

// RecordDelivery appends a history record for a fired alert. It returns nil
// without error when the alert was suppressed as a duplicate.
func (s *DeliveryService) RecordDelivery(ctx context.Context, payload platform.Payload) (*model.NotificationRecord, error) {
	if !payload.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAlertKind, payload.Kind)
	}

	now := s.clock.Now()
	if at, ok := s.delivered.MarkedAt(ctx, payload.TaskID, payload.Kind); ok && now.Sub(at) < deliveredTTL {
		log.Printf("[info] suppressed redelivered %s alert for task %s", payload.Kind, payload.TaskID)
		return nil, nil
	}
	if s.recentlyRecorded(ctx, payload, now) {
		log.Printf("[info] suppressed %s alert for task %s, identical record within %s", payload.Kind, payload.TaskID, s.window)
		if err := s.delivered.Mark(ctx, payload.TaskID, payload.Kind, now); err != nil {
			log.Printf("[warn] mark delivered for task %s: %v", payload.TaskID, err)
		}
		return nil, nil
	}

	rec := model.NotificationRecord{
		ID:        payload.ID,
		TaskID:    payload.TaskID,
		Title:     payload.Title,
		Body:      payload.Body,
		Type:      payload.Kind.HistoryType(),
		Timestamp: now,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if err := s.history.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("record delivery for task %s: %w", payload.TaskID, err)
	}
	if err := s.delivered.Mark(ctx, payload.TaskID, payload.Kind, now); err != nil {
		log.Printf("[warn] mark delivered for task %s: %v", payload.TaskID, err)
	}
	return &rec, nil
}

// HasBeenDelivered reports whether this occurrence's alert already fired.
// A flag left over from a previous occurrence does not count.
func (s *DeliveryService) HasBeenDelivered(ctx context.Context, taskID string, kind model.AlertKind) bool {
	at, ok := s.delivered.MarkedAt(ctx, taskID, kind)
	return ok && s.clock.Now().Sub(at) < deliveredTTL
}

// MarkDelivered flags the (taskId, kind) pair without touching history.
func (s *DeliveryService) MarkDelivered(ctx context.Context, taskID string, kind model.AlertKind) error {
	return s.delivered.Mark(ctx, taskID, kind, s.clock.Now())
}

// ClearDelivered makes the task's alerts eligible again after a reschedule.
func (s *DeliveryService) ClearDelivered(ctx context.Context, taskID string) error {
	return s.delivered.Clear(ctx, taskID)
}

func (s *DeliveryService) recentlyRecorded(ctx context.Context, payload platform.Payload, now time.Time) bool {
	wantType := payload.Kind.HistoryType()
	for _, rec := range s.history.Load(ctx) {
		if rec.TaskID != payload.TaskID || rec.Type != wantType {
			continue
		}
		if age := now.Sub(rec.Timestamp); age >= 0 && age < s.window {
			return true
		}
	}
	return false
}

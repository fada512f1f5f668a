package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"task-reminder/internal/model"
)

const deliveredKey = "delivered"

// DeliveredStore is a durable set keyed by (taskId, kind) that suppresses
// duplicate history entries when the platform redelivers an alert. Each entry
// carries its delivery instant so callers can tell a redelivery apart from
// the next occurrence; entries are also cleared whenever a task's alerts are
// rescheduled.
type DeliveredStore struct {
	docs *DocumentStore
	mu   sync.Mutex
}

func NewDeliveredStore(docs *DocumentStore) *DeliveredStore {
	return &DeliveredStore{docs: docs}
}

func deliveredSetKey(taskID string, kind model.AlertKind) string {
	return taskID + ":" + string(kind)
}

// Has reports whether the (taskId, kind) pair is marked delivered. Read
// failures degrade to false: a lost flag means at worst one duplicate record,
// never a missed notification.
func (s *DeliveredStore) Has(ctx context.Context, taskID string, kind model.AlertKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.loadLocked(ctx)
	_, ok := set[deliveredSetKey(taskID, kind)]
	return ok
}

// MarkedAt returns the delivery instant recorded for the (taskId, kind) pair.
func (s *DeliveredStore) MarkedAt(ctx context.Context, taskID string, kind model.AlertKind) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.loadLocked(ctx)
	at, ok := set[deliveredSetKey(taskID, kind)]
	return at, ok
}

// Mark records the (taskId, kind) pair with the delivery instant.
func (s *DeliveredStore) Mark(ctx context.Context, taskID string, kind model.AlertKind, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.loadLocked(ctx)
	set[deliveredSetKey(taskID, kind)] = at
	return s.saveLocked(ctx, set)
}

// Clear drops every entry belonging to the task.
func (s *DeliveredStore) Clear(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.loadLocked(ctx)
	changed := false
	for key := range set {
		if strings.HasPrefix(key, taskID+":") {
			delete(set, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked(ctx, set)
}

func (s *DeliveredStore) loadLocked(ctx context.Context) map[string]time.Time {
	data, err := s.docs.Read(ctx, deliveredKey)
	if err != nil {
		log.Printf("[warn] load delivered set: %v", err)
		return map[string]time.Time{}
	}
	if data == nil {
		return map[string]time.Time{}
	}

	var set map[string]time.Time
	if err := json.Unmarshal(data, &set); err != nil {
		log.Printf("[warn] decode delivered set: %v", err)
		return map[string]time.Time{}
	}
	if set == nil {
		set = map[string]time.Time{}
	}
	return set
}

func (s *DeliveredStore) saveLocked(ctx context.Context, set map[string]time.Time) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode delivered set: %w", err)
	}
	if err := s.docs.Write(ctx, deliveredKey, data); err != nil {
		return fmt.Errorf("save delivered set: %w", err)
	}
	return nil
}

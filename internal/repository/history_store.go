package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"task-reminder/internal/model"
)

const historyKey = "notifications"

// HistoryStore persists delivered-alert records as a single JSON document,
// independent of the task document: history survives task deletion.
type HistoryStore struct {
	docs *DocumentStore

	mu    sync.Mutex
	cache []model.NotificationRecord
}

func NewHistoryStore(docs *DocumentStore) *HistoryStore {
	return &HistoryStore{docs: docs}
}

// Load reads the history document, newest entries last. Read failures degrade
// to the last known in-memory list.
func (s *HistoryStore) Load(ctx context.Context) []model.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *HistoryStore) loadLocked(ctx context.Context) []model.NotificationRecord {
	data, err := s.docs.Read(ctx, historyKey)
	if err != nil {
		log.Printf("[warn] load notification history: %v, serving last known list", err)
		return cloneRecords(s.cache)
	}
	if data == nil {
		s.cache = nil
		return nil
	}

	var records []model.NotificationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[warn] decode notification history: %v, serving last known list", err)
		return cloneRecords(s.cache)
	}
	s.cache = cloneRecords(records)
	return records
}

// Append adds one delivered record to the history document.
func (s *HistoryStore) Append(ctx context.Context, rec model.NotificationRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.loadLocked(ctx), rec)
	return s.saveLocked(ctx, records)
}

// MarkRead flips the read flag on one record. A missing id is logged only.
func (s *HistoryStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked(ctx)
	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		if rec.Read {
			return nil
		}
		records[i].Read = true
		return s.saveLocked(ctx, records)
	}

	log.Printf("[warn] mark notification %s read: not found", id)
	return nil
}

// Clear wipes the whole history document. Individual records are never
// deleted, only the bulk clear is supported.
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, []model.NotificationRecord{})
}

func (s *HistoryStore) saveLocked(ctx context.Context, records []model.NotificationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode notification history: %w", err)
	}
	if err := s.docs.Write(ctx, historyKey, data); err != nil {
		return fmt.Errorf("save notification history: %w", err)
	}
	s.cache = cloneRecords(records)
	return nil
}

func cloneRecords(records []model.NotificationRecord) []model.NotificationRecord {
	if records == nil {
		return nil
	}
	out := make([]model.NotificationRecord, len(records))
	copy(out, records)
	return out
}

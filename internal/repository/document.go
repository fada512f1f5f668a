package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is one flat key -> JSON blob row. Stores built on top of it have
// full-read/full-write semantics: every mutation loads the whole blob,
// mutates in memory and writes the whole blob back.
type Document struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

// DocumentStore reads and writes whole documents by key.
type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Read returns the blob stored under key, or nil if the key does not exist.
func (s *DocumentStore) Read(ctx context.Context, key string) ([]byte, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", key, err)
	}
	return doc.Value, nil
}

// Write upserts the blob stored under key.
func (s *DocumentStore) Write(ctx context.Context, key string, value []byte) error {
	doc := Document{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&doc).Error
	if err != nil {
		return fmt.Errorf("write document %q: %w", key, err)
	}
	return nil
}

package model

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidAlertKind = errors.New("model: invalid alert kind")

// AlertKind distinguishes the three alerts derived from one occurrence.
type AlertKind string

const (
	AlertUpcoming AlertKind = "upcoming"
	AlertStart    AlertKind = "start"
	AlertOverdue  AlertKind = "overdue"
)

// AlertKinds lists every kind in firing order.
var AlertKinds = []AlertKind{AlertUpcoming, AlertStart, AlertOverdue}

func (k AlertKind) IsValid() bool {
	switch k {
	case AlertUpcoming, AlertStart, AlertOverdue:
		return true
	default:
		return false
	}
}

// HistoryType is the value stored on history records for this kind.
func (k AlertKind) HistoryType() string {
	return "task_" + string(k)
}

// NotificationRecord is one delivered alert in the history log. TaskID is a
// weak reference: history outlives task deletion.
type NotificationRecord struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

func (r NotificationRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: notification id is required")
	}
	if strings.TrimSpace(r.Type) == "" {
		return errors.New("model: notification type is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("model: notification timestamp is required")
	}
	return nil
}

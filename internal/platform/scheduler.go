package platform

import (
	"context"
	"fmt"
	"log"

	"task-reminder/internal/model"
)

// Trigger describes a weekly recurring fire time in the display timezone.
type Trigger struct {
	Weekday model.Weekday
	Hour    int
	Minute  int
}

func (t Trigger) Validate() error {
	if !t.Weekday.IsValid() {
		return fmt.Errorf("platform: invalid trigger weekday %d", int(t.Weekday))
	}
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("platform: invalid trigger hour %d", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("platform: invalid trigger minute %d", t.Minute)
	}
	return nil
}

// Payload travels with a scheduled alert. It must be self-sufficient: the
// alert can fire when no task state is in memory, and the history record is
// reconstructed from the payload alone.
type Payload struct {
	ID      string          `json:"id"`
	TaskID  string          `json:"taskId"`
	Kind    model.AlertKind `json:"kind"`
	Weekday model.Weekday   `json:"weekday"`
	Title   string          `json:"title"`
	Body    string          `json:"body"`
}

// Handle identifies one registered alert for later cancellation.
type Handle int

// PendingAlert pairs a live registration with its payload.
type PendingAlert struct {
	Handle  Handle
	Payload Payload
}

// ReceivedFunc runs when a scheduled alert actually fires.
type ReceivedFunc func(payload Payload)

// Scheduler is the host notification boundary. The in-memory tables kept by
// callers are advisory only; Pending is the authoritative list of live alerts.
type Scheduler interface {
	ScheduleWeekly(trigger Trigger, payload Payload) (Handle, error)
	Cancel(handle Handle) error
	Pending() []PendingAlert
}

// Sender delivers a recorded notification to the user-facing channel.
type Sender interface {
	Send(ctx context.Context, rec model.NotificationRecord) error
}

// LogSender is the fallback channel when no Telegram credentials are
// configured: delivered alerts only reach the process log.
type LogSender struct{}

func (LogSender) Send(_ context.Context, rec model.NotificationRecord) error {
	log.Printf("[info] notification: %s: %s", rec.Title, rec.Body)
	return nil
}

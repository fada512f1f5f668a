package service

import (
	"context"
	"testing"
	"time"

	"task-reminder/internal/model"
	"task-reminder/internal/platform"
	"task-reminder/internal/repository"
)

func newDeliveryFixture(t *testing.T) (*DeliveryService, *repository.HistoryStore, *testClock) {
	t.Helper()
	docs := repository.NewDocumentStore(newTestDB(t))
	clk, tc := newTestClock(time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC))
	history := repository.NewHistoryStore(docs)
	svc := NewDeliveryService(repository.NewDeliveredStore(docs), history, clk, 5*time.Minute)
	return svc, history, tc
}

func startPayload() platform.Payload {
	return platform.Payload{
		ID:      "a1",
		TaskID:  "standup",
		Kind:    model.AlertStart,
		Weekday: model.Monday,
		Title:   "🔔 Standup",
		Body:    "It is time for Standup (09:00).",
	}
}

func TestRecordDeliveryAppendsHistoryOnce(t *testing.T) {
	svc, history, _ := newDeliveryFixture(t)
	ctx := context.Background()

	rec, err := svc.RecordDelivery(ctx, startPayload())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec == nil {
		t.Fatal("first delivery must produce a record")
	}
	if rec.Type != "task_start" || rec.TaskID != "standup" || rec.Read {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// The platform double-fires the same payload.
	dup, err := svc.RecordDelivery(ctx, startPayload())
	if err != nil {
		t.Fatalf("record duplicate: %v", err)
	}
	if dup != nil {
		t.Fatalf("duplicate delivery must be suppressed, got %+v", dup)
	}
	if got := len(history.Load(ctx)); got != 1 {
		t.Fatalf("expected exactly one history record, got %d", got)
	}
}

func TestRecordDeliveryWindowDefenseSurvivesClear(t *testing.T) {
	svc, history, _ := newDeliveryFixture(t)
	ctx := context.Background()

	if rec, err := svc.RecordDelivery(ctx, startPayload()); err != nil || rec == nil {
		t.Fatalf("first delivery: rec=%v err=%v", rec, err)
	}

	// A reschedule clears the delivered set, but the trailing history window
	// still catches the overlap.
	if err := svc.ClearDelivered(ctx, "standup"); err != nil {
		t.Fatalf("clear delivered: %v", err)
	}
	rec, err := svc.RecordDelivery(ctx, startPayload())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec != nil {
		t.Fatalf("delivery inside the window must be suppressed, got %+v", rec)
	}
	if got := len(history.Load(ctx)); got != 1 {
		t.Fatalf("expected one history record, got %d", got)
	}
}

func TestRecordDeliveryDistinguishesKinds(t *testing.T) {
	svc, history, _ := newDeliveryFixture(t)
	ctx := context.Background()

	if rec, err := svc.RecordDelivery(ctx, startPayload()); err != nil || rec == nil {
		t.Fatalf("start delivery: rec=%v err=%v", rec, err)
	}

	overdue := startPayload()
	overdue.ID = "a2"
	overdue.Kind = model.AlertOverdue
	if rec, err := svc.RecordDelivery(ctx, overdue); err != nil || rec == nil {
		t.Fatalf("overdue delivery: rec=%v err=%v", rec, err)
	}
	if got := len(history.Load(ctx)); got != 2 {
		t.Fatalf("different kinds must both be recorded, got %d", got)
	}
}

func TestRecordDeliveryEligibleAgainNextCycle(t *testing.T) {
	svc, history, tc := newDeliveryFixture(t)
	ctx := context.Background()

	if rec, err := svc.RecordDelivery(ctx, startPayload()); err != nil || rec == nil {
		t.Fatalf("first delivery: rec=%v err=%v", rec, err)
	}

	// Next week: the reschedule cleared the delivered set and the window has
	// long passed.
	tc.Set(time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC))
	if err := svc.ClearDelivered(ctx, "standup"); err != nil {
		t.Fatalf("clear delivered: %v", err)
	}
	next := startPayload()
	next.ID = "a3"
	rec, err := svc.RecordDelivery(ctx, next)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec == nil {
		t.Fatal("next cycle's delivery must be recorded")
	}
	if got := len(history.Load(ctx)); got != 2 {
		t.Fatalf("expected two history records, got %d", got)
	}
}

func TestRecordDeliveryNextOccurrenceWithoutIntermediateClear(t *testing.T) {
	svc, history, tc := newDeliveryFixture(t)
	ctx := context.Background()

	if rec, err := svc.RecordDelivery(ctx, startPayload()); err != nil || rec == nil {
		t.Fatalf("first delivery: rec=%v err=%v", rec, err)
	}

	// A daemon that runs across two weekly firings with no task CRUD in
	// between never clears the delivered set; the stale flag must not
	// silence the next occurrence.
	tc.Set(time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC))
	next := startPayload()
	next.ID = "a4"
	rec, err := svc.RecordDelivery(ctx, next)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec == nil {
		t.Fatal("next occurrence's delivery must be recorded")
	}
	if got := len(history.Load(ctx)); got != 2 {
		t.Fatalf("expected two history records, got %d", got)
	}
	if !svc.HasBeenDelivered(ctx, "standup", model.AlertStart) {
		t.Fatal("fresh delivery must be flagged for the current occurrence")
	}
}

func TestRecordDeliveryRejectsInvalidKind(t *testing.T) {
	svc, _, _ := newDeliveryFixture(t)

	bad := startPayload()
	bad.Kind = "nag"
	if _, err := svc.RecordDelivery(context.Background(), bad); err == nil {
		t.Fatal("expected error for invalid alert kind")
	}
}

package database

import (
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/phone-agent-go/internal/events"
	"jordanella.com/phone-agent-go/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	db.WithLogger(logging.NewLogger("Database").SetOutput(io.Discard))
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("Expected version %d, got %d", len(migrations), version)
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second RunMigrations failed: %v", err)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats["captures"] != 0 || stats["gestures"] != 0 {
		t.Errorf("Expected empty tables, got %v", stats)
	}

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestCaptureOperations(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	records := []*CaptureRecord{
		{CaptureID: "a", Path: "/tmp/a.png", Format: "png", Success: true, DurationMs: 100, CapturedAt: base},
		{CaptureID: "b", Path: "/tmp/b.jpg", Format: "jpg", Success: true, DurationMs: 300, CapturedAt: base.Add(time.Second)},
		{CaptureID: "c", Path: "/tmp/c.png", Format: "png", Failure: "platform", CapturedAt: base.Add(2 * time.Second)},
		{CaptureID: "d", Failure: "throttled", CapturedAt: base.Add(3 * time.Second)},
	}
	for _, r := range records {
		if _, err := db.RecordCapture(r); err != nil {
			t.Fatalf("RecordCapture(%s) failed: %v", r.CaptureID, err)
		}
		if r.ID == 0 {
			t.Errorf("record %s has no row ID", r.CaptureID)
		}
	}

	got, err := db.GetCaptureByID("b")
	if err != nil {
		t.Fatalf("GetCaptureByID failed: %v", err)
	}
	if got.Path != "/tmp/b.jpg" || !got.Success || got.DurationMs != 300 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CapturedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CapturedAt = %v", got.CapturedAt)
	}

	if _, err := db.GetCaptureByID("missing"); !errors.Is(err, ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound, got %v", err)
	}

	recent, err := db.ListRecentCaptures(2)
	if err != nil {
		t.Fatalf("ListRecentCaptures failed: %v", err)
	}
	if len(recent) != 2 || recent[0].CaptureID != "d" || recent[1].CaptureID != "c" {
		t.Errorf("unexpected recent captures: %v", recent)
	}

	stats, err := db.CaptureStats(time.Time{})
	if err != nil {
		t.Fatalf("CaptureStats failed: %v", err)
	}
	if stats.Total != 4 || stats.Succeeded != 2 || stats.Failed != 2 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.AvgDurationMs != 200 {
		t.Errorf("AvgDurationMs = %v, want 200", stats.AvgDurationMs)
	}
	if stats.FailureCounts["platform"] != 1 || stats.FailureCounts["throttled"] != 1 {
		t.Errorf("FailureCounts = %v", stats.FailureCounts)
	}
	if stats.SuccessRate() != 50 {
		t.Errorf("SuccessRate = %v", stats.SuccessRate())
	}

	deleted, err := db.DeleteOldCaptures(base.Add(2 * time.Second))
	if err != nil {
		t.Fatalf("DeleteOldCaptures failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d rows, want 2", deleted)
	}
}

func TestRecordCaptureRequiresID(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RecordCapture(&CaptureRecord{}); err == nil {
		t.Error("expected error for record without capture ID")
	}
}

func TestGestureOperations(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if _, err := db.RecordGesture("tap", true, base); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordGesture("long_press", false, base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	gestures, err := db.ListRecentGestures(10)
	if err != nil {
		t.Fatalf("ListRecentGestures failed: %v", err)
	}
	if len(gestures) != 2 {
		t.Fatalf("Expected 2 gestures, got %d", len(gestures))
	}
	if gestures[0].Variant != "long_press" || gestures[0].Completed {
		t.Errorf("unexpected newest gesture: %+v", gestures[0])
	}
	if gestures[1].Variant != "tap" || !gestures[1].Completed {
		t.Errorf("unexpected oldest gesture: %+v", gestures[1])
	}
}

func TestEventRecorder(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewEventBus(10)

	recorder := NewEventRecorder(db, bus, logging.NewLogger("Recorder").SetOutput(io.Discard))

	bus.Publish(events.NewCaptureEvent(events.CaptureResult{
		CaptureID: "ok", Path: "/tmp/ok.png", Format: "png", Success: true, DurationMs: 42,
	}))
	bus.Publish(events.NewCaptureEvent(events.CaptureResult{
		CaptureID: "bad", Format: "jpg", Failure: "encode",
	}))
	bus.Publish(events.NewCaptureThrottledEvent("slow", 500*time.Millisecond))
	bus.Publish(events.NewGestureEvent("tap", true))
	bus.Publish(events.NewGestureEvent("long_press", false))
	bus.Stop()
	recorder.Close()

	ok, err := db.GetCaptureByID("ok")
	if err != nil {
		t.Fatalf("capture 'ok' not recorded: %v", err)
	}
	if !ok.Success || ok.DurationMs != 42 {
		t.Errorf("unexpected record: %+v", ok)
	}

	throttled, err := db.GetCaptureByID("slow")
	if err != nil {
		t.Fatalf("throttled capture not recorded: %v", err)
	}
	if throttled.Success || throttled.Failure != "throttled" {
		t.Errorf("unexpected throttled record: %+v", throttled)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["captures"] != 3 || stats["gestures"] != 2 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestTransactions(t *testing.T) {
	db := openTestDB(t)

	err := db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO gestures (variant, completed, occurred_at) VALUES (?, ?, ?)`,
			"tap", true, time.Now())
		if err != nil {
			return err
		}

		// Force an error to trigger rollback
		_, err = tx.Exec("INVALID SQL QUERY")
		return err
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	gestures, err := db.ListRecentGestures(10)
	if err != nil {
		t.Fatalf("Failed to list gestures: %v", err)
	}
	if len(gestures) != 0 {
		t.Error("Transaction did not rollback correctly")
	}
}

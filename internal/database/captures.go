package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrCaptureNotFound is returned when no capture has the requested ID
var ErrCaptureNotFound = errors.New("capture not found")

// RecordCapture stores a capture outcome and returns its row ID
func (db *DB) RecordCapture(record *CaptureRecord) (int64, error) {
	if record.CaptureID == "" {
		return 0, fmt.Errorf("capture record has no capture ID")
	}
	if record.CapturedAt.IsZero() {
		record.CapturedAt = time.Now()
	}

	var id int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO captures (
				capture_id, path, format, success, failure, duration_ms, captured_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, record.CaptureID, record.Path, record.Format, record.Success,
			record.Failure, record.DurationMs, record.CapturedAt)

		if err != nil {
			return fmt.Errorf("failed to insert capture: %w", err)
		}

		id, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}

	record.ID = id
	return id, nil
}

// GetCaptureByID retrieves a capture by its capture ID
func (db *DB) GetCaptureByID(captureID string) (*CaptureRecord, error) {
	record := &CaptureRecord{}
	err := db.conn.QueryRow(`
		SELECT id, capture_id, path, format, success, failure, duration_ms, captured_at
		FROM captures
		WHERE capture_id = ?
	`, captureID).Scan(
		&record.ID, &record.CaptureID, &record.Path, &record.Format,
		&record.Success, &record.Failure, &record.DurationMs, &record.CapturedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrCaptureNotFound, captureID)
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListRecentCaptures returns the most recent captures, newest first
func (db *DB) ListRecentCaptures(limit int) ([]*CaptureRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, capture_id, path, format, success, failure, duration_ms, captured_at
		FROM captures
		ORDER BY captured_at DESC, id DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*CaptureRecord{}
	for rows.Next() {
		record := &CaptureRecord{}
		err := rows.Scan(
			&record.ID, &record.CaptureID, &record.Path, &record.Format,
			&record.Success, &record.Failure, &record.DurationMs, &record.CapturedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// CaptureStats summarizes captures taken since the given time. A zero time
// covers the whole table.
func (db *DB) CaptureStats(since time.Time) (*CaptureStats, error) {
	stats := &CaptureStats{FailureCounts: make(map[string]int)}

	var avg sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN success = 1 THEN duration_ms END)
		FROM captures
		WHERE captured_at >= ?
	`, since).Scan(&stats.Total, &stats.Succeeded, &avg)

	if err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Succeeded
	stats.AvgDurationMs = avg.Float64

	rows, err := db.conn.Query(`
		SELECT failure, COUNT(*)
		FROM captures
		WHERE success = 0 AND captured_at >= ?
		GROUP BY failure
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var failure string
		var count int
		if err := rows.Scan(&failure, &count); err != nil {
			return nil, err
		}
		stats.FailureCounts[failure] = count
	}

	return stats, rows.Err()
}

// DeleteOldCaptures deletes capture rows older than the specified date
func (db *DB) DeleteOldCaptures(olderThan time.Time) (int64, error) {
	var deleted int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`DELETE FROM captures WHERE captured_at < ?`, olderThan)
		if err != nil {
			return err
		}

		deleted, err = result.RowsAffected()
		return err
	})

	return deleted, err
}

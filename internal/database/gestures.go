package database

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordGesture stores one gesture outcome
func (db *DB) RecordGesture(variant string, completed bool, occurredAt time.Time) (int64, error) {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	var id int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO gestures (variant, completed, occurred_at)
			VALUES (?, ?, ?)
		`, variant, completed, occurredAt)

		if err != nil {
			return fmt.Errorf("failed to insert gesture: %w", err)
		}

		id, err = result.LastInsertId()
		return err
	})

	return id, err
}

// ListRecentGestures returns the most recent gestures, newest first
func (db *DB) ListRecentGestures(limit int) ([]*GestureRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, variant, completed, occurred_at
		FROM gestures
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*GestureRecord{}
	for rows.Next() {
		record := &GestureRecord{}
		if err := rows.Scan(&record.ID, &record.Variant, &record.Completed, &record.OccurredAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

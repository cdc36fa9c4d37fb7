package database

import (
	"time"
)

// CaptureRecord is one screenshot request and its outcome
type CaptureRecord struct {
	ID         int64     `db:"id"`
	CaptureID  string    `db:"capture_id"`
	Path       string    `db:"path"`
	Format     string    `db:"format"`
	Success    bool      `db:"success"`
	Failure    string    `db:"failure"` // "" on success
	DurationMs int64     `db:"duration_ms"`
	CapturedAt time.Time `db:"captured_at"`
}

// GestureRecord is one reported gesture outcome
type GestureRecord struct {
	ID         int64     `db:"id"`
	Variant    string    `db:"variant"`
	Completed  bool      `db:"completed"`
	OccurredAt time.Time `db:"occurred_at"`
}

// CaptureStats summarizes the captures table
type CaptureStats struct {
	Total         int
	Succeeded     int
	Failed        int
	FailureCounts map[string]int
	AvgDurationMs float64 // successful captures only
}

// SuccessRate returns the percentage of successful captures
func (s *CaptureStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

package database

import (
	"jordanella.com/phone-agent-go/internal/events"
	"jordanella.com/phone-agent-go/internal/logging"
)

// EventRecorder persists capture and gesture events from the bus
type EventRecorder struct {
	db              *DB
	bus             events.EventBus
	logger          *logging.Logger
	subscriptionIDs []events.SubscriptionID
}

// NewEventRecorder subscribes to every capture and gesture event on bus
func NewEventRecorder(db *DB, bus events.EventBus, logger *logging.Logger) *EventRecorder {
	r := &EventRecorder{db: db, bus: bus, logger: logger}

	for _, eventType := range []events.EventType{
		events.EventTypeCaptureSucceeded,
		events.EventTypeCaptureFailed,
		events.EventTypeCaptureThrottled,
	} {
		r.subscriptionIDs = append(r.subscriptionIDs, bus.Subscribe(eventType, r.recordCapture))
	}
	for _, eventType := range []events.EventType{
		events.EventTypeGestureCompleted,
		events.EventTypeGestureCancelled,
	} {
		r.subscriptionIDs = append(r.subscriptionIDs, bus.Subscribe(eventType, r.recordGesture))
	}

	return r
}

func (r *EventRecorder) recordCapture(e events.Event) {
	record := &CaptureRecord{
		CaptureID:  e.String("capture_id"),
		Path:       e.String("path"),
		Format:     e.String("format"),
		Success:    e.Bool("success"),
		Failure:    e.String("failure"),
		DurationMs: e.Int64("duration_ms"),
		CapturedAt: e.Timestamp,
	}
	if e.Type == events.EventTypeCaptureThrottled {
		record.Success = false
		record.Failure = "throttled"
	}

	if _, err := r.db.RecordCapture(record); err != nil {
		r.logger.ErrorWithContext("Failed to record capture", err, map[string]interface{}{
			"capture_id": record.CaptureID,
		})
	}
}

func (r *EventRecorder) recordGesture(e events.Event) {
	completed := e.Type == events.EventTypeGestureCompleted
	if _, err := r.db.RecordGesture(e.String("variant"), completed, e.Timestamp); err != nil {
		r.logger.Error("Failed to record gesture", err)
	}
}

// Close unsubscribes from the bus. The database stays open.
func (r *EventRecorder) Close() {
	for _, id := range r.subscriptionIDs {
		r.bus.Unsubscribe(id)
	}
	r.subscriptionIDs = nil
}

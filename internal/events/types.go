package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Capture events
	EventTypeCaptureSucceeded EventType = "capture.succeeded"
	EventTypeCaptureFailed    EventType = "capture.failed"
	EventTypeCaptureThrottled EventType = "capture.throttled"

	// Gesture events
	EventTypeGestureCompleted EventType = "gesture.completed"
	EventTypeGestureCancelled EventType = "gesture.cancelled"
)

// AllEventTypes lists every event type, for subscribers that want everything
var AllEventTypes = []EventType{
	EventTypeCaptureSucceeded,
	EventTypeCaptureFailed,
	EventTypeCaptureThrottled,
	EventTypeGestureCompleted,
	EventTypeGestureCancelled,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "capture", "gesture")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// CaptureResult is the payload shared by capture events
type CaptureResult struct {
	CaptureID  string
	Path       string
	Format     string
	Success    bool
	Failure    string
	DurationMs int64
}

func (r CaptureResult) data() map[string]interface{} {
	return map[string]interface{}{
		"capture_id":  r.CaptureID,
		"path":        r.Path,
		"format":      r.Format,
		"success":     r.Success,
		"failure":     r.Failure,
		"duration_ms": r.DurationMs,
	}
}

// NewCaptureEvent creates a capture.succeeded or capture.failed event
func NewCaptureEvent(result CaptureResult) Event {
	eventType := EventTypeCaptureFailed
	if result.Success {
		eventType = EventTypeCaptureSucceeded
	}
	return Event{
		Type:      eventType,
		Source:    "capture",
		Timestamp: time.Now(),
		Data:      result.data(),
	}
}

// NewCaptureThrottledEvent creates an event for a capture refused by the throttler
func NewCaptureThrottledEvent(captureID string, remaining time.Duration) Event {
	return Event{
		Type:      EventTypeCaptureThrottled,
		Source:    "capture",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"capture_id":   captureID,
			"remaining_ms": remaining.Milliseconds(),
		},
	}
}

// NewGestureEvent creates a gesture.completed or gesture.cancelled event
func NewGestureEvent(variant string, completed bool) Event {
	eventType := EventTypeGestureCancelled
	if completed {
		eventType = EventTypeGestureCompleted
	}
	return Event{
		Type:      eventType,
		Source:    "gesture",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"variant": variant,
		},
	}
}

// String reads a string field from event data, returning "" when absent
func (e Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

// Bool reads a bool field from event data
func (e Event) Bool(key string) bool {
	v, _ := e.Data[key].(bool)
	return v
}

// Int64 reads an integer field from event data
func (e Event) Int64(key string) int64 {
	switch v := e.Data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/phone-agent-go/internal/events"
)

// EventLogger subscribes to the event bus and writes every capture and
// gesture event to a per-run log file.
type EventLogger struct {
	logger          *Logger
	eventBus        events.EventBus
	subscriptionIDs []events.SubscriptionID
	logFile         *os.File
	logPath         string
}

// NewEventLogger creates logDir if needed and opens events_<timestamp>.log in it
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	el := &EventLogger{
		logger:   NewLogger("EventLogger").SetOutput(logFile),
		eventBus: eventBus,
		logFile:  logFile,
		logPath:  logPath,
	}

	for _, eventType := range events.AllEventTypes {
		el.subscriptionIDs = append(el.subscriptionIDs, eventBus.Subscribe(eventType, el.handleEvent))
	}

	return el, nil
}

// Path returns the log file path
func (el *EventLogger) Path() string {
	return el.logPath
}

func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	if event.Type == events.EventTypeCaptureFailed || event.Type == events.EventTypeGestureCancelled {
		el.logger.WarnWithContext(fmt.Sprintf("Event: %s", event.Type), context)
		return
	}
	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes from the bus and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptionIDs {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptionIDs = nil

	if el.logFile != nil {
		err := el.logFile.Close()
		el.logFile = nil
		return err
	}
	return nil
}

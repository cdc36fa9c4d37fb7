package events

import (
	"fmt"
	"sync"
	"time"
)

// Logger is the subset of logging.Logger the bus reports problems through
type Logger interface {
	Warn(message string)
	Error(message string, err error)
}

type printLogger struct{}

func (printLogger) Warn(message string) {
	fmt.Printf("[EventBus] %s\n", message)
}

func (printLogger) Error(message string, err error) {
	fmt.Printf("[EventBus] %s: %v\n", message, err)
}

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// DefaultEventBus is the default implementation of EventBus
type DefaultEventBus struct {
	subscribers map[EventType][]subscription
	nextSubID   SubscriptionID
	mu          sync.RWMutex

	eventQueue chan Event
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup // processor goroutine
	handlers   sync.WaitGroup // in-flight handler calls

	logger Logger
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *DefaultEventBus {
	bus := &DefaultEventBus{
		subscribers: make(map[EventType][]subscription),
		nextSubID:   1,
		eventQueue:  make(chan Event, bufferSize),
		stopCh:      make(chan struct{}),
		logger:      printLogger{},
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// WithLogger replaces the bus logger
func (eb *DefaultEventBus) WithLogger(logger Logger) *DefaultEventBus {
	eb.logger = logger
	return eb
}

// Subscribe registers a handler for a specific event type
func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subID := eb.nextSubID
	eb.nextSubID++

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{
		id:      subID,
		handler: handler,
	})

	return subID
}

// Unsubscribe removes a subscription by ID
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, sub := range subs {
			if sub.id == id {
				eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event, blocking while the queue is full
func (eb *DefaultEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-eb.stopCh:
		eb.logger.Warn(fmt.Sprintf("Dropped event (bus stopped): %s", event.Type))
		return
	default:
	}

	select {
	case eb.eventQueue <- event:
	case <-eb.stopCh:
		eb.logger.Warn(fmt.Sprintf("Dropped event (bus stopped): %s", event.Type))
	}
}

// PublishAsync sends an event asynchronously (non-blocking)
func (eb *DefaultEventBus) PublishAsync(event Event) {
	go eb.Publish(event)
}

// Stop stops the bus after draining queued events and waiting for
// running handlers. Safe to call more than once.
func (eb *DefaultEventBus) Stop() {
	eb.stopOnce.Do(func() {
		close(eb.stopCh)
	})
	eb.wg.Wait()
	eb.handlers.Wait()
}

func (eb *DefaultEventBus) processEvents() {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.eventQueue:
			eb.dispatch(event)

		case <-eb.stopCh:
			for {
				select {
				case event := <-eb.eventQueue:
					eb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *DefaultEventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := eb.subscribers[event.Type]
	handlers := make([]EventHandler, len(subs))
	for i, sub := range subs {
		handlers[i] = sub.handler
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		eb.handlers.Add(1)
		go eb.safeHandlerCall(handler, event)
	}
}

func (eb *DefaultEventBus) safeHandlerCall(handler EventHandler, event Event) {
	defer eb.handlers.Done()
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error(fmt.Sprintf("Handler panic for event %s", event.Type), fmt.Errorf("%v", r))
		}
	}()

	handler(event)
}

// GetSubscriberCount returns the number of subscribers for an event type
func (eb *DefaultEventBus) GetSubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers[eventType])
}

// GetQueueSize returns the current number of events in the queue
func (eb *DefaultEventBus) GetQueueSize() int {
	return len(eb.eventQueue)
}

package events

import (
	"fmt"
	"sync"

	eventbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	Publish(topic string, data interface{}) error
	// Subscribe runs handler in the publisher's goroutine.
	Subscribe(topic string, handler interface{}) error
	// SubscribeAsync runs handler in a new goroutine per event.
	SubscribeAsync(topic string, handler interface{}) error
	Unsubscribe(topic string, handler interface{}) error
	Close() error
}

// eventBus wraps the EventBus library with close semantics and logging
type eventBus struct {
	bus    eventbus.Bus
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewEventBus creates a new event bus instance
func NewEventBus(logger *zap.Logger) EventBus {
	return &eventBus{
		bus:    eventbus.New(),
		logger: logger,
	}
}

// Publish publishes an event to the specified topic
func (eb *eventBus) Publish(topic string, data interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Publishing event", zap.String("topic", topic))

	eb.bus.Publish(topic, data)
	return nil
}

// Subscribe subscribes to events on the specified topic
func (eb *eventBus) Subscribe(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Subscribing to topic", zap.String("topic", topic))

	return eb.bus.Subscribe(topic, handler)
}

// SubscribeAsync subscribes a non-transactional asynchronous handler
func (eb *eventBus) SubscribeAsync(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Subscribing async handler to topic", zap.String("topic", topic))

	return eb.bus.SubscribeAsync(topic, handler, false)
}

// Unsubscribe unsubscribes from events on the specified topic
func (eb *eventBus) Unsubscribe(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	eb.logger.Debug("Unsubscribing from topic", zap.String("topic", topic))

	return eb.bus.Unsubscribe(topic, handler)
}

// Close waits for in-flight asynchronous handlers, which may still publish,
// and then rejects further use of the bus.
func (eb *eventBus) Close() error {
	eb.mu.RLock()
	closed := eb.closed
	eb.mu.RUnlock()
	if closed {
		return nil
	}

	eb.logger.Info("Closing event bus")
	eb.bus.WaitAsync()

	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()

	return nil
}

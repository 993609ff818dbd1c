package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event in the ztadmin system.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// NetworkID is the associated network ID, if applicable.
	NetworkID string `json:"network_id,omitempty"`

	// Actor is the operator who triggered the action, if applicable.
	Actor string `json:"actor,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeReconcileCompleted = "reconcile.completed"
	EventTypeNetworkAdopted     = "network.adopted"
	EventTypeWorldGenerated     = "world.generated"
	EventTypeWorldReset         = "world.reset"
	EventTypeWorldDrift         = "world.drift"
	EventTypeError              = "error"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		filters:     make([]EventFilter, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	// Start the event processing goroutine
	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	// Start the periodic flush goroutine
	if cfg.FlushInterval > 0 {
		ep.wg.Add(1)
		go ep.periodicFlush()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	// Set ID and timestamp if not already set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Apply global filters
	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil // Event filtered out
		}
	}
	ep.mu.RUnlock()

	// Send to buffer if async, otherwise process immediately
	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			// Buffer full, drop event or log warning
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	// Synchronous publishing
	ep.deliverEvent(event)
	return nil
}

// PublishReconcileCompleted publishes a reconciliation completed event.
func (ep *EventPublisher) PublishReconcileCompleted(actor string, unlinked, failed int) error {
	level := EventLevelInfo
	if failed > 0 {
		level = EventLevelWarning
	}
	return ep.Publish(Event{
		Type:    EventTypeReconcileCompleted,
		Source:  "reconcile",
		Actor:   actor,
		Message: fmt.Sprintf("Reconciliation found %d unlinked networks (%d fetch failures)", unlinked, failed),
		Level:   level,
		Data: map[string]interface{}{
			"unlinked": unlinked,
			"failed":   failed,
		},
	})
}

// PublishNetworkAdopted publishes a network adoption event.
func (ep *EventPublisher) PublishNetworkAdopted(networkID, name, actor string) error {
	return ep.Publish(Event{
		Type:      EventTypeNetworkAdopted,
		Source:    "reconcile",
		NetworkID: networkID,
		Actor:     actor,
		Message:   fmt.Sprintf("Network %s (%s) adopted", networkID, name),
		Level:     EventLevelInfo,
		Data: map[string]interface{}{
			"name": name,
		},
	})
}

// PublishWorldGenerated publishes a world generation event.
func (ep *EventPublisher) PublishWorldGenerated(actor string, planetID, planetBirth int64) error {
	return ep.Publish(Event{
		Type:    EventTypeWorldGenerated,
		Source:  "world",
		Actor:   actor,
		Message: fmt.Sprintf("Custom world installed (ID %d, birth %d)", planetID, planetBirth),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"planet_id":    planetID,
			"planet_birth": planetBirth,
		},
	})
}

// PublishWorldReset publishes a world reset event.
func (ep *EventPublisher) PublishWorldReset(actor string) error {
	return ep.Publish(Event{
		Type:    EventTypeWorldReset,
		Source:  "world",
		Actor:   actor,
		Message: "Planet restored from backup, custom world deactivated",
		Level:   EventLevelInfo,
	})
}

// PublishWorldDrift publishes an out-of-band planet change event.
func (ep *EventPublisher) PublishWorldDrift(path string, size int64) error {
	return ep.Publish(Event{
		Type:    EventTypeWorldDrift,
		Source:  "world",
		Message: fmt.Sprintf("Planet file %s changed outside the lifecycle manager", path),
		Level:   EventLevelWarning,
		Data: map[string]interface{}{
			"path": path,
			"size": size,
		},
	})
}

// PublishError publishes a generic error event.
func (ep *EventPublisher) PublishError(source, message string) error {
	return ep.Publish(Event{
		Type:    EventTypeError,
		Source:  source,
		Message: message,
		Level:   EventLevelError,
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// processEvents processes events from the buffer asynchronously.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			// Flush batch if it reaches max size
			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Flush remaining events before shutting down
			if len(batch) > 0 {
				ep.flushBatch(batch)
			}
			return
		}
	}
}

// periodicFlush flushes events periodically.
func (ep *EventPublisher) periodicFlush() {
	defer ep.wg.Done()

	ticker := time.NewTicker(ep.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Trigger flush by draining buffer
			// This is handled by the processEvents goroutine
		case <-ep.ctx.Done():
			return
		}
	}
}

// flushBatch delivers a batch of events to subscribers.
func (ep *EventPublisher) flushBatch(events []Event) {
	for _, event := range events {
		ep.deliverEvent(event)
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		// Apply subscriber-specific filter
		if entry.filter != nil && !entry.filter(event) {
			continue
		}

		// In async mode a slow subscriber must not stall the pipeline.
		// Synchronous mode delivers inline so callers observe effects
		// immediately.
		if ep.config.EnableAsync {
			go entry.subscriber(event)
		} else {
			entry.subscriber(event)
		}
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	// Signal shutdown
	ep.cancel()

	// Wait for processing to complete with timeout
	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// Common event filters.

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByNetworkID creates a filter that only allows events for a specific network.
func FilterByNetworkID(networkID string) EventFilter {
	return func(event Event) bool {
		return event.NetworkID == networkID
	}
}

package logging

import (
	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/events"
)

// EventLogger writes one structured line per bus event
type EventLogger struct {
	logger         *zap.Logger
	bus            events.EventBus
	subscriptionID events.SubscriptionID
}

// NewEventLogger subscribes to every event type on bus
func NewEventLogger(bus events.EventBus, logger *zap.Logger) *EventLogger {
	el := &EventLogger{logger: logger.Named("events"), bus: bus}
	el.subscriptionID = bus.SubscribeAll(el.handleEvent)
	return el
}

func (el *EventLogger) handleEvent(event events.Event) {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("source", event.Source),
		zap.Time("at", event.Timestamp),
	}
	if event.Device != "" {
		fields = append(fields, zap.String("device", event.Device))
	}
	if event.SessionID != "" {
		fields = append(fields, zap.String("session", event.SessionID))
	}
	for k, v := range event.Data {
		fields = append(fields, zap.Any(k, v))
	}

	// The agent loop reports cycle failures through its own sink.
	el.logger.Debug("event", fields...)
}

// Close unsubscribes from the bus
func (el *EventLogger) Close() {
	el.bus.Unsubscribe(el.subscriptionID)
}

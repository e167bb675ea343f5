package database

import (
	"encoding/json"

	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/events"
)

// Recorder persists bus events into the session journal
type Recorder struct {
	db             *DB
	bus            events.EventBus
	logger         *zap.Logger
	subscriptionID events.SubscriptionID
}

// NewRecorder subscribes to every event on bus
func NewRecorder(db *DB, bus events.EventBus, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{db: db, bus: bus, logger: logger.Named("recorder")}
	r.subscriptionID = bus.SubscribeAll(r.handleEvent)
	return r
}

func (r *Recorder) handleEvent(event events.Event) {
	var err error
	switch event.Type {
	case events.EventTypeAgentStarted:
		mode, _ := event.Data["mode"].(string)
		err = r.db.StartSession(event.SessionID, event.Device, mode, event.Timestamp)
	case events.EventTypeAgentStopped:
		reason, _ := event.Data["reason"].(string)
		err = r.db.EndSession(event.SessionID, reason, event.Timestamp)
	default:
		var payload []byte
		payload, err = json.Marshal(event.Data)
		if err == nil {
			err = r.db.RecordEvent(event.SessionID, event.Device, string(event.Type), string(payload), event.Timestamp)
		}
	}

	if err != nil {
		r.logger.Warn("failed to record event",
			zap.String("event_type", string(event.Type)),
			zap.String("device", event.Device),
			zap.Error(err))
	}
}

// Close unsubscribes from the bus
func (r *Recorder) Close() {
	r.bus.Unsubscribe(r.subscriptionID)
}

package events

import "time"

// EventType names what happened
type EventType string

const (
	// Agent lifecycle
	EventTypeAgentStarted EventType = "agent.started"
	EventTypeAgentStopped EventType = "agent.stopped"

	// Combat progress
	EventTypeStateChanged   EventType = "agent.state_changed"
	EventTypeTargetEngaged  EventType = "agent.target_engaged"
	EventTypeFollowed       EventType = "agent.followed"
	EventTypeRespawned      EventType = "agent.respawned"
	EventTypeCycleFailed    EventType = "agent.cycle_failed"
	EventTypeTemplateTapped EventType = "agent.template_tapped"

	// Control channel
	EventTypeChannelRestarted EventType = "channel.restarted"
)

// Event is a system event with metadata
type Event struct {
	Type      EventType
	Source    string // Component that emitted the event
	Device    string
	SessionID string
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler processes an event
type EventHandler func(Event)

// SubscriptionID identifies a subscription
type SubscriptionID int64

// Publisher is the producing side of the bus
type Publisher interface {
	Publish(event Event)
}

// EventBus defines the pub/sub interface
type EventBus interface {
	Publisher

	// Subscribe registers a handler for one event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// SubscribeAll registers a handler for every event type
	SubscribeAll(handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Stop stops the bus after delivering queued events
	Stop()
}

func agentEvent(t EventType, device, session string, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Source:    "combat",
		Device:    device,
		SessionID: session,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewAgentStartedEvent creates an agent started event
func NewAgentStartedEvent(device, session, mode string) Event {
	e := agentEvent(EventTypeAgentStarted, device, session, map[string]interface{}{"mode": mode})
	e.Source = "scheduler"
	return e
}

// NewAgentStoppedEvent creates an agent stopped event
func NewAgentStoppedEvent(device, session, reason string) Event {
	e := agentEvent(EventTypeAgentStopped, device, session, map[string]interface{}{"reason": reason})
	e.Source = "scheduler"
	return e
}

// NewStateChangedEvent records a combat state transition
func NewStateChangedEvent(device, session, from, to string) Event {
	return agentEvent(EventTypeStateChanged, device, session, map[string]interface{}{"from": from, "to": to})
}

// NewTargetEngagedEvent records a lock-and-cast cycle
func NewTargetEngagedEvent(device, session string, health float64, skillsCast int) Event {
	return agentEvent(EventTypeTargetEngaged, device, session, map[string]interface{}{
		"health":      health,
		"skills_cast": skillsCast,
	})
}

// NewFollowedEvent records a follow-leader tap
func NewFollowedEvent(device, session string, summoned bool) Event {
	return agentEvent(EventTypeFollowed, device, session, map[string]interface{}{"summoned": summoned})
}

// NewRespawnedEvent records a respawn
func NewRespawnedEvent(device, session string, inPlace bool, spotUses int) Event {
	return agentEvent(EventTypeRespawned, device, session, map[string]interface{}{
		"in_place":  inPlace,
		"spot_uses": spotUses,
	})
}

// NewCycleFailedEvent records a recovered cycle error
func NewCycleFailedEvent(device, session string, err error) Event {
	return agentEvent(EventTypeCycleFailed, device, session, map[string]interface{}{"error": err.Error()})
}

// NewTemplateTappedEvent records an auto-mode tap
func NewTemplateTappedEvent(device, session, template string, score float64) Event {
	return agentEvent(EventTypeTemplateTapped, device, session, map[string]interface{}{
		"template": template,
		"score":    score,
	})
}

// NewChannelRestartedEvent records a control channel restart attempt
func NewChannelRestartedEvent(healthy bool, err error) Event {
	data := map[string]interface{}{"healthy": healthy}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{
		Type:      EventTypeChannelRestarted,
		Source:    "monitor",
		Timestamp: time.Now(),
		Data:      data,
	}
}

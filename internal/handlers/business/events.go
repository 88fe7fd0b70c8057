package business

import (
	"time"

	"dealflow/pkg/config"

	log "github.com/sirupsen/logrus"
)

// EventQueue is the durable queue the audit/notification worker consumes.
const EventQueue = "syndication_events"

// Event is the wire form of a state-transition notification.
type Event struct {
	EventType  string      `json:"event_type"`
	EntityType string      `json:"entity_type"`
	EntityID   uint        `json:"entity_id"`
	ActorID    uint        `json:"actor_id"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// emitEvent publishes a state transition to the audit/notification sink.
// Fire-and-forget: failures are logged and never surface to the ledger
// transaction that triggered them. Delivery is at-least-once once queued.
func emitEvent(eventType, entityType string, entityID, actorID uint, payload interface{}) {
	if config.RabbitMQ == nil {
		return
	}

	pub, err := config.NewPublisher()
	if err != nil {
		log.Warnf("audit sink unavailable, dropping event %s: %v", eventType, err)
		return
	}
	defer pub.Close()

	evt := Event{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	if err := pub.Publish(EventQueue, evt); err != nil {
		log.Warnf("failed to publish event %s for %s %d: %v", eventType, entityType, entityID, err)
	}
}

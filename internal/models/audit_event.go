package models

import (
	"encoding/json"
	"time"
)

// AuditEvent is the durable record of a state transition, written by the
// worker from the syndication_events queue. The API process only publishes.
type AuditEvent struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	EventType  string          `gorm:"size:64;not null;index" json:"event_type"`
	EntityType string          `gorm:"size:32;not null" json:"entity_type"`
	EntityID   uint            `gorm:"not null;index" json:"entity_id"`
	ActorID    uint            `gorm:"not null;default:0" json:"actor_id"`
	Payload    json.RawMessage `gorm:"type:jsonb" json:"payload"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit_event"
}

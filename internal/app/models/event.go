package models

import "time"

type EntityType string

const (
	EntityTypeTransaction  EntityType = "transaction"
	EntityTypeSubscription EntityType = "subscription"
	EntityTypeWallet       EntityType = "wallet"
)

// Event is the audit/notification record emitted after a committed state
// change. Delivery is at-least-once; consumers deduplicate on ID.
type Event struct {
	ID         string                 `json:"id" bson:"_id"`
	EntityType EntityType             `json:"entity_type" bson:"entity_type"`
	EntityID   string                 `json:"entity_id" bson:"entity_id"`
	OldState   string                 `json:"old_state,omitempty" bson:"old_state,omitempty"`
	NewState   string                 `json:"new_state" bson:"new_state"`
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
}

// RoutingKey is "<entity>.<new state>", e.g. "transaction.completed".
func (e *Event) RoutingKey() string {
	return string(e.EntityType) + "." + e.NewState
}

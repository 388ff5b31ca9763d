package events

import (
	"encoding/json"
	"time"
)

// IntegrationEvent is the envelope shared by every integration event.
// These are integration contracts, not domain entities.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // event-specific payload
}

// Lifecycle event type suffixes, appended to the resource name
// ("user.created", "pickup.deleted", ...).
const (
	TypeCreated = "created"
	TypeUpdated = "updated"
	TypeDeleted = "deleted"
)

// ResourceEvent is the lifecycle event published after a successful
// facade write. Key partitions by entity id so per-entity ordering is
// preserved on the broker.
type ResourceEvent struct {
	IntegrationEvent
	Resource string `json:"resource"`
	Key      string `json:"key"`
}

func (e ResourceEvent) PartitionKey() string { return e.Key }

// NewResourceEvent builds a lifecycle event for one entity. The payload
// is marshalled here so publishing stays a plain byte copy.
func NewResourceEvent(resource, suffix, key string, payload any) (ResourceEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ResourceEvent{}, err
	}
	return ResourceEvent{
		IntegrationEvent: IntegrationEvent{
			Type:      resource + "." + suffix,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		Resource: resource,
		Key:      key,
	}, nil
}

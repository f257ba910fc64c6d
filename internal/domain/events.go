package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTenantCreated EventType = "tenant.created"
	EventUserCreated   EventType = "user.created"
	EventAPIKeyCreated EventType = "api_key.created"
	EventAPIKeyRotated EventType = "api_key.rotated"
	EventAPIKeyRevoked EventType = "api_key.revoked"
	EventAPIKeyDeleted EventType = "api_key.deleted"
)

// Event is a notification emitted after a state change has been committed.
type Event struct {
	Type      EventType      `json:"type"`
	TenantID  uuid.UUID      `json:"tenantId"`
	SubjectID uuid.UUID      `json:"subjectId"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Topic groups events by the entity they describe ("tenant.events", "user.events", ...).
func (e Event) Topic() string {
	switch e.Type {
	case EventTenantCreated:
		return "tenant.events"
	case EventUserCreated:
		return "user.events"
	default:
		return "api_key.events"
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

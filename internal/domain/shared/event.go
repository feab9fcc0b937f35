package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	SubjectID() string
	SubjectType() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Subject     string    `json:"subject_id"`
	SubjectKind string    `json:"subject_type"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// SubjectID returns the identifier of the entity the event concerns
func (e *BaseDomainEvent) SubjectID() string {
	return e.Subject
}

// SubjectType returns the kind of entity the event concerns
func (e *BaseDomainEvent) SubjectType() string {
	return e.SubjectKind
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, subjectType, subjectID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		Timestamp:   time.Now(),
		Subject:     subjectID,
		SubjectKind: subjectType,
	}
}

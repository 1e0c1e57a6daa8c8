package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType names the lifecycle moments worth an audit trail entry.
type EventType string

const (
	EventDoubtCreated  EventType = "doubt.created"
	EventDoubtClaimed  EventType = "doubt.claimed"
	EventDoubtResolved EventType = "doubt.resolved"
	EventUserSignedUp  EventType = "user.signed_up"
	EventQuizCompleted EventType = "quiz.completed"
)

// Event is one append-only audit record. Detail carries small free-form
// context (reward, rating, score); anything large belongs in the entity
// itself.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      EventType         `json:"type"`
	ActorID   string            `json:"actor_id"`
	SubjectID string            `json:"subject_id"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent stamps identity and time onto an audit event.
func NewEvent(eventType EventType, actorID, subjectID string, detail map[string]string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

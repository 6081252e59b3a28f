package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClassroomCreated EventType = "classroom_created"
	EventMemberAdded      EventType = "member_added"
	EventMemberRemoved    EventType = "member_removed"
)

// All lists every event type the service emits.
var All = []EventType{EventClassroomCreated, EventMemberAdded, EventMemberRemoved}

// Event represents a membership change emitted after a successful write.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ClassroomID int64       `json:"classroom_id"`
	ActorID     int64       `json:"actor_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ClassroomCreatedPayload payload.
type ClassroomCreatedPayload struct {
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

// MemberAddedPayload payload.
type MemberAddedPayload struct {
	MembershipID int64  `json:"membership_id"`
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
}

// MemberRemovedPayload payload.
type MemberRemovedPayload struct {
	UserID int64 `json:"user_id"`
}

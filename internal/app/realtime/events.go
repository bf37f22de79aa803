package realtime

import (
	"codecollab/internal/domain/model"
	"context"
	"time"
)

type EventType string

const (
	EventContentUpdated    EventType = "content_updated"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventSessionEnded      EventType = "session_ended"
)

// SessionEvent is what session stream clients receive.
type SessionEvent struct {
	Type           EventType            `json:"type"`
	SessionID      string               `json:"session_id"`
	UserID         string               `json:"user_id"`
	Content        *string              `json:"content,omitempty"`
	ContentVersion int64                `json:"content_version"`
	Participants   model.ParticipantSet `json:"participants"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// NewSessionEvent snapshots session after a change made by userID.
func NewSessionEvent(t EventType, session *model.CodingSession, userID string) SessionEvent {
	ev := SessionEvent{
		Type:           t,
		SessionID:      session.ID,
		UserID:         userID,
		ContentVersion: session.ContentVersion,
		Participants:   session.Participants,
		OccurredAt:     time.Now().UTC(),
	}
	if t == EventContentUpdated {
		content := session.Content
		ev.Content = &content
	}
	return ev
}

// Broadcaster fans session events out to connected clients.
type Broadcaster interface {
	Publish(ctx context.Context, event SessionEvent) error
}

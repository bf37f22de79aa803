package model

import "time"

type CodingSession struct {
	ID             string         `json:"id" db:"id"`
	ProjectID      string         `json:"project_id" db:"project_id"`
	Name           string         `json:"name" db:"name"`
	Content        string         `json:"content" db:"content"`
	ContentVersion int64          `json:"content_version" db:"content_version"`
	Participants   ParticipantSet `json:"participants" db:"participants"`
	StartedAt      time.Time      `json:"started_at" db:"started_at"`
	EndedAt        *time.Time     `json:"ended_at" db:"ended_at"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// NewCodingSession starts an active session with creatorID as its only participant.
func NewCodingSession(id, projectID, name, creatorID string, now time.Time) *CodingSession {
	return &CodingSession{
		ID:           id,
		ProjectID:    projectID,
		Name:         name,
		Participants: NewParticipantSet(creatorID),
		StartedAt:    now,
		IsActive:     true,
	}
}

// SetActive flips the lifecycle flag. Ending stamps ended_at once; reopening clears it
// so is_active stays false exactly when ended_at is set.
func (s *CodingSession) SetActive(active bool, now time.Time) {
	s.IsActive = active
	if active {
		s.EndedAt = nil
		return
	}
	if s.EndedAt == nil {
		t := now
		s.EndedAt = &t
	}
}

// ReplaceContent swaps the whole document and bumps the version.
func (s *CodingSession) ReplaceContent(content string) {
	s.Content = content
	s.ContentVersion++
}

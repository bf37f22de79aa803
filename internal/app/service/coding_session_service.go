package service

import (
	"codecollab/internal/app/realtime"
	"codecollab/internal/common"
	"codecollab/internal/domain/access"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"codecollab/internal/platform/database"
	"codecollab/internal/platform/metrics"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CodingSessionService struct {
	txr         database.Transactor
	sessionRepo repository.CodingSessionRepository
	projectRepo repository.ProjectRepository
	broadcaster realtime.Broadcaster
	now         func() time.Time
}

func NewCodingSessionService(
	txr database.Transactor,
	sessionRepo repository.CodingSessionRepository,
	projectRepo repository.ProjectRepository,
	broadcaster realtime.Broadcaster,
) *CodingSessionService {
	return &CodingSessionService{
		txr:         txr,
		sessionRepo: sessionRepo,
		projectRepo: projectRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

type CreateCodingSessionRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Content *string `json:"content"`
}

type UpdateCodingSessionRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=255"`
	IsActive *bool   `json:"is_active"`
}

// UpdateContentRequest replaces the whole document. ExpectedVersion, when set, must match
// the stored content_version or the write is rejected.
type UpdateContentRequest struct {
	Content         string `json:"content" validate:"required"`
	ExpectedVersion *int64 `json:"expected_version" validate:"omitnil,min=0"`
}

func (s *CodingSessionService) ListForProject(ctx context.Context, actorID, projectID string) ([]model.CodingSession, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if !access.CanRead(actorID, project) {
		return nil, fmt.Errorf("project %s is private: %w", projectID, common.ErrForbidden)
	}
	return s.sessionRepo.ListByProject(ctx, project.ID)
}

// Create opens a session on a project the actor owns, with the actor as first participant.
func (s *CodingSessionService) Create(ctx context.Context, actorID, projectID string, req CreateCodingSessionRequest) (*model.CodingSession, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if !access.CanWrite(actorID, project) {
		return nil, fmt.Errorf("only the project owner can start sessions: %w", common.ErrForbidden)
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	session := model.NewCodingSession(uuid.NewString(), project.ID, req.Name, actorID, s.now())
	if req.Content != nil {
		session.Content = *req.Content
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create coding session: %w", err)
	}
	return session, nil
}

// Get returns the session when the actor can read its project.
func (s *CodingSessionService) Get(ctx context.Context, actorID, id string) (*model.CodingSession, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("coding session %s: %w", id, err)
	}
	project, err := s.projectRepo.FindByID(ctx, session.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project of coding session %s: %w", id, err)
	}
	if !access.CanRead(actorID, project) {
		return nil, fmt.Errorf("coding session %s belongs to a private project: %w", id, common.ErrForbidden)
	}
	return session, nil
}

// Update renames the session or changes its lifecycle. Project owner only.
func (s *CodingSessionService) Update(ctx context.Context, actorID, id string, req UpdateCodingSessionRequest) (*model.CodingSession, error) {
	var (
		session *model.CodingSession
		ended   bool
	)
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		session, err = s.sessionRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("coding session %s: %w", id, err)
		}
		if err := s.requireProjectOwner(ctx, actorID, session); err != nil {
			return err
		}
		if err := common.Validate(req); err != nil {
			return err
		}

		if req.Name != nil {
			session.Name = *req.Name
		}
		if req.IsActive != nil {
			ended = session.IsActive && !*req.IsActive
			session.SetActive(*req.IsActive, s.now())
		}
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	if ended {
		s.publish(ctx, realtime.NewSessionEvent(realtime.EventSessionEnded, session, actorID))
	}
	return session, nil
}

func (s *CodingSessionService) Delete(ctx context.Context, actorID, id string) error {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("coding session %s: %w", id, err)
	}
	if err := s.requireProjectOwner(ctx, actorID, session); err != nil {
		return err
	}
	return s.sessionRepo.Delete(ctx, id)
}

// Join adds the actor to the session's participants. Joining twice is a no-op.
func (s *CodingSessionService) Join(ctx context.Context, actorID, id string) (*model.CodingSession, error) {
	var (
		session *model.CodingSession
		changed bool
	)
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		session, err = s.sessionRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("coding session %s: %w", id, err)
		}
		project, err := s.projectRepo.FindByID(ctx, session.ProjectID)
		if err != nil {
			return fmt.Errorf("project of coding session %s: %w", id, err)
		}
		if !access.CanRead(actorID, project) {
			return fmt.Errorf("coding session %s belongs to a private project: %w", id, common.ErrForbidden)
		}
		if !session.IsActive {
			return fmt.Errorf("this coding session is no longer active: %w", common.ErrInvalidState)
		}

		if session.Participants.Contains(actorID) {
			return nil
		}
		session.Participants = session.Participants.Add(actorID)
		changed = true
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, realtime.NewSessionEvent(realtime.EventParticipantJoined, session, actorID))
	}
	return session, nil
}

// Leave removes the actor from the participants. It works on inactive sessions and for
// non-participants alike, and reveals nothing about the session.
func (s *CodingSessionService) Leave(ctx context.Context, actorID, id string) error {
	var (
		session *model.CodingSession
		changed bool
	)
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		session, err = s.sessionRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("coding session %s: %w", id, err)
		}
		if !session.Participants.Contains(actorID) {
			return nil
		}
		session.Participants = session.Participants.Remove(actorID)
		changed = true
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return err
	}

	if changed {
		s.publish(ctx, realtime.NewSessionEvent(realtime.EventParticipantLeft, session, actorID))
	}
	return nil
}

// UpdateContent overwrites the document. Concurrent writers race and the last commit wins
// unless they pass ExpectedVersion.
func (s *CodingSessionService) UpdateContent(ctx context.Context, actorID, id string, req UpdateContentRequest) (*model.CodingSession, error) {
	var session *model.CodingSession
	err := s.txr.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		session, err = s.sessionRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("coding session %s: %w", id, err)
		}
		if !session.Participants.Contains(actorID) {
			return fmt.Errorf("you are not a participant in this session: %w", common.ErrForbidden)
		}
		if !session.IsActive {
			return fmt.Errorf("this coding session is no longer active: %w", common.ErrInvalidState)
		}
		if err := common.Validate(req); err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != session.ContentVersion {
			return fmt.Errorf("content is at version %d, not %d: %w", session.ContentVersion, *req.ExpectedVersion, common.ErrConflict)
		}

		session.ReplaceContent(req.Content)
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	metrics.ContentUpdates.Inc()
	s.publish(ctx, realtime.NewSessionEvent(realtime.EventContentUpdated, session, actorID))
	return session, nil
}

// AuthorizeStream checks the actor may watch the session's live events.
func (s *CodingSessionService) AuthorizeStream(ctx context.Context, actorID, id string) error {
	_, err := s.Get(ctx, actorID, id)
	return err
}

func (s *CodingSessionService) requireProjectOwner(ctx context.Context, actorID string, session *model.CodingSession) error {
	project, err := s.projectRepo.FindByID(ctx, session.ProjectID)
	if err != nil {
		return fmt.Errorf("project of coding session %s: %w", session.ID, err)
	}
	if !access.CanWrite(actorID, project) {
		return fmt.Errorf("only the project owner can modify coding session %s: %w", session.ID, common.ErrForbidden)
	}
	return nil
}

// publish never fails the caller; the write has already committed.
func (s *CodingSessionService) publish(ctx context.Context, event realtime.SessionEvent) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("WARN: Failed to broadcast %s for coding session %s: %v", event.Type, event.SessionID, err)
	}
}

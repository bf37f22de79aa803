package service

import (
	"codecollab/internal/common"
	"codecollab/internal/domain/access"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	sessionRepo repository.CodingSessionRepository
}

func NewProjectService(projectRepo repository.ProjectRepository, sessionRepo repository.CodingSessionRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, sessionRepo: sessionRepo}
}

type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	GithubRepo  *string `json:"github_repo" validate:"omitnil,max=255"`
	IsPublic    *bool   `json:"is_public"`
}

// UpdateProjectRequest fields left nil keep their current value.
type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description"`
	GithubRepo  *string `json:"github_repo" validate:"omitnil,max=255"`
	IsPublic    *bool   `json:"is_public"`
}

func (s *ProjectService) List(ctx context.Context, actorID string) ([]model.Project, error) {
	return s.projectRepo.ListVisible(ctx, actorID)
}

func (s *ProjectService) Create(ctx context.Context, actorID string, req CreateProjectRequest) (*model.Project, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	project := &model.Project{
		ID:          uuid.NewString(),
		UserID:      actorID,
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		GithubRepo:  req.GithubRepo,
		IsPublic:    true,
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get returns the project with its coding sessions, newest first.
func (s *ProjectService) Get(ctx context.Context, actorID, id string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	if !access.CanRead(actorID, project) {
		return nil, fmt.Errorf("project %s is private: %w", id, common.ErrForbidden)
	}

	sessions, err := s.sessionRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coding sessions: %w", err)
	}
	project.CodingSessions = sessions
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, actorID, id string, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.ownedProject(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
		project.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.GithubRepo != nil {
		project.GithubRepo = req.GithubRepo
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.ownedProject(ctx, actorID, id); err != nil {
		return err
	}
	return s.projectRepo.Delete(ctx, id)
}

func (s *ProjectService) ownedProject(ctx context.Context, actorID, id string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	if !access.CanWrite(actorID, project) {
		return nil, fmt.Errorf("only the owner can modify project %s: %w", id, common.ErrForbidden)
	}
	return project, nil
}

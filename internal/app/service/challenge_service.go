package service

import (
	"codecollab/internal/common"
	"codecollab/internal/domain/access"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
)

type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	userRepo      repository.UserRepository
	now           func() time.Time
}

func NewChallengeService(challengeRepo repository.ChallengeRepository, userRepo repository.UserRepository) *ChallengeService {
	return &ChallengeService{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		now:           time.Now,
	}
}

type CreateChallengeRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  string     `json:"description" validate:"required"`
	Instructions string     `json:"instructions" validate:"required"`
	StarterCode  *string    `json:"starter_code"`
	TestCode     string     `json:"test_code" validate:"required"`
	Points       int        `json:"points" validate:"required,min=1"`
	Difficulty   string     `json:"difficulty" validate:"required,oneof=easy medium hard"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	IsActive     *bool      `json:"is_active"`
}

// UpdateChallengeRequest fields left nil or absent keep their current value.
type UpdateChallengeRequest struct {
	Title        *string      `json:"title" validate:"omitnil,min=1,max=255"`
	Description  *string      `json:"description" validate:"omitnil,min=1"`
	Instructions *string      `json:"instructions" validate:"omitnil,min=1"`
	StarterCode  *string      `json:"starter_code"`
	TestCode     *string      `json:"test_code" validate:"omitnil,min=1"`
	Points       *int         `json:"points" validate:"omitnil,min=1"`
	Difficulty   *string      `json:"difficulty" validate:"omitnil,oneof=easy medium hard"`
	StartsAt     *time.Time   `json:"starts_at"`
	EndsAt       OptionalTime `json:"ends_at"`
	IsActive     *bool        `json:"is_active"`
}

// OptionalTime tells an absent field from an explicit null. Present with a nil Value
// clears the stored time.
type OptionalTime struct {
	Present bool
	Value   *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// ChallengeDetail is a challenge with its creator and everyone who submitted to it.
type ChallengeDetail struct {
	*model.Challenge
	InstructionsHTML string                     `json:"instructions_html"`
	Creator          *model.UserSummary         `json:"creator"`
	Participants     []model.SubmissionWithUser `json:"participants"`
}

// ListOpen returns the challenges that currently accept submissions.
func (s *ChallengeService) ListOpen(ctx context.Context) ([]model.Challenge, error) {
	return s.challengeRepo.ListOpen(ctx, s.now())
}

func (s *ChallengeService) Create(ctx context.Context, actorID string, req CreateChallengeRequest) (*model.Challenge, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		ID:           uuid.NewString(),
		UserID:       actorID,
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		TestCode:     req.TestCode,
		Points:       req.Points,
		Difficulty:   model.Difficulty(req.Difficulty),
		StartsAt:     s.now(),
		EndsAt:       req.EndsAt,
		IsActive:     true,
	}
	if req.StarterCode != nil {
		challenge.StarterCode = *req.StarterCode
	}
	if req.StartsAt != nil {
		challenge.StartsAt = *req.StartsAt
	}
	if req.IsActive != nil {
		challenge.IsActive = *req.IsActive
	}
	if err := validateWindow(challenge); err != nil {
		return nil, err
	}

	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return challenge, nil
}

// Get returns the challenge detail. Submission text is only shown to the creator and,
// for their own row, to each participant.
func (s *ChallengeService) Get(ctx context.Context, actorID, id string) (*ChallengeDetail, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", id, err)
	}

	detail := &ChallengeDetail{
		Challenge:        challenge,
		InstructionsHTML: RenderMarkdown(challenge.Instructions),
	}

	creator, err := s.userRepo.FindByID(ctx, challenge.UserID)
	if err != nil {
		return nil, fmt.Errorf("creator of challenge %s: %w", id, err)
	}
	detail.Creator = &model.UserSummary{
		ID:             creator.ID,
		Name:           creator.Name,
		GithubUsername: creator.GithubUsername,
		Avatar:         creator.Avatar,
	}

	participants, err := s.challengeRepo.ListSubmissions(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	isCreator := access.CanWrite(actorID, challenge)
	for i := range participants {
		if !isCreator && participants[i].UserID != actorID {
			participants[i].Submission = ""
		}
	}
	detail.Participants = participants
	return detail, nil
}

func (s *ChallengeService) Update(ctx context.Context, actorID, id string, req UpdateChallengeRequest) (*model.Challenge, error) {
	challenge, err := s.ownedChallenge(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	if req.Title != nil {
		challenge.Title = *req.Title
	}
	if req.Description != nil {
		challenge.Description = *req.Description
	}
	if req.Instructions != nil {
		challenge.Instructions = *req.Instructions
	}
	if req.StarterCode != nil {
		challenge.StarterCode = *req.StarterCode
	}
	if req.TestCode != nil {
		challenge.TestCode = *req.TestCode
	}
	if req.Points != nil {
		challenge.Points = *req.Points
	}
	if req.Difficulty != nil {
		challenge.Difficulty = model.Difficulty(*req.Difficulty)
	}
	if req.StartsAt != nil {
		challenge.StartsAt = *req.StartsAt
	}
	if req.EndsAt.Present {
		challenge.EndsAt = req.EndsAt.Value
	}
	if req.IsActive != nil {
		challenge.IsActive = *req.IsActive
	}
	if err := validateWindow(challenge); err != nil {
		return nil, err
	}

	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.ownedChallenge(ctx, actorID, id); err != nil {
		return err
	}
	return s.challengeRepo.Delete(ctx, id)
}

func (s *ChallengeService) ownedChallenge(ctx context.Context, actorID, id string) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("challenge %s: %w", id, err)
	}
	if !access.CanWrite(actorID, challenge) {
		return nil, fmt.Errorf("only the creator can modify challenge %s: %w", id, common.ErrForbidden)
	}
	return challenge, nil
}

func validateWindow(c *model.Challenge) error {
	if c.EndsAt != nil && !c.EndsAt.After(c.StartsAt) {
		return common.FieldError("ends_at", "The ends_at field must be a date after starts_at.")
	}
	return nil
}

// RenderMarkdown turns challenge instructions into HTML. Raw HTML in the source is dropped.
func RenderMarkdown(source string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(source), p, renderer))
}

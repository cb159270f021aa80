package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// SurveyStore abstracts survey persistence.
type SurveyStore interface {
	CreateSurvey(ctx context.Context, s *models.Survey) error
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	UpdateSurvey(ctx context.Context, s *models.Survey) error
	DeleteSurvey(ctx context.Context, id string) error
	DeleteResponses(ctx context.Context, surveyID string) error
}

// SurveyService manages survey definitions and their lifecycle.
type SurveyService struct {
	store       SurveyStore
	now         func() time.Time
	idGenerator func() string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultShortID,
	}
}

func defaultShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Create stores a new draft survey. Question types are kept as authored.
func (s *SurveyService) Create(ctx context.Context, in *models.Survey) (*models.Survey, error) {
	if in == nil {
		return nil, NewInvalidError("survey is required")
	}
	if res := ValidateDefinition(in); !res.IsValid {
		return nil, &DefinitionError{Result: res}
	}
	sv := *in
	sv.ID = s.idGenerator()
	sv.Status = models.StatusDraft
	sv.CreatedAt = s.now()
	sv.UpdatedAt = sv.CreatedAt
	if err := s.store.CreateSurvey(ctx, &sv); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return &sv, nil
}

func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, ErrSurveyNotFound
	}
	return sv, nil
}

func (s *SurveyService) List(ctx context.Context) ([]*models.Survey, error) {
	return s.store.ListSurveys(ctx)
}

// Update replaces title, description and questions. Closed surveys are frozen.
func (s *SurveyService) Update(ctx context.Context, id string, in *models.Survey) (*models.Survey, error) {
	if in == nil {
		return nil, NewInvalidError("survey is required")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == models.StatusClosed {
		return nil, NewConflictError("closed surveys cannot be edited")
	}
	if res := ValidateDefinition(in); !res.IsValid {
		return nil, &DefinitionError{Result: res}
	}
	next := *cur
	next.Title = in.Title
	next.Description = in.Description
	next.Questions = in.Questions
	next.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, &next); err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	return &next, nil
}

// Publish opens a draft survey for responses.
func (s *SurveyService) Publish(ctx context.Context, id string) (*models.Survey, error) {
	return s.transition(ctx, id, models.StatusDraft, models.StatusPublished)
}

// Close stops a published survey from accepting responses.
func (s *SurveyService) Close(ctx context.Context, id string) (*models.Survey, error) {
	return s.transition(ctx, id, models.StatusPublished, models.StatusClosed)
}

func (s *SurveyService) transition(ctx context.Context, id, from, to string) (*models.Survey, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == to {
		return cur, nil
	}
	if cur.Status != from {
		return nil, NewConflictError(fmt.Sprintf("cannot move survey from %s to %s", cur.Status, to))
	}
	next := *cur
	next.Status = to
	next.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(ctx, &next); err != nil {
		return nil, fmt.Errorf("update survey status: %w", err)
	}
	return &next, nil
}

// Delete removes a survey together with its responses.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteResponses(ctx, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if err := s.store.DeleteSurvey(ctx, id); err != nil {
		if errors.Is(err, ErrSurveyNotFound) {
			return err
		}
		return fmt.Errorf("delete survey: %w", err)
	}
	return nil
}

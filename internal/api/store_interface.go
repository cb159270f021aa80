package api

import (
	"context"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// Store is the persistence surface shared by the memory, SQLite and
// Postgres backends. Lookups of missing surveys return (nil, nil).
type Store interface {
	CreateSurvey(ctx context.Context, s *models.Survey) error
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	UpdateSurvey(ctx context.Context, s *models.Survey) error
	DeleteSurvey(ctx context.Context, id string) error

	AddResponse(ctx context.Context, rec *models.SubmissionRecord) error
	ListResponses(ctx context.Context, surveyID string) ([]*models.SubmissionRecord, error)
	DeleteResponses(ctx context.Context, surveyID string) error

	Close() error
}

var _ Store = (*memoryStore)(nil)

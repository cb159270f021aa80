package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	AddResponse(ctx context.Context, rec *models.SubmissionRecord) error
}

// SubmissionGuard remembers which sessions already submitted. Claim reports
// false when key is still held.
type SubmissionGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// SessionCodec turns respondent sessions into signed tokens and back.
type SessionCodec interface {
	Issue(sess models.Session) (token string, expiresAt time.Time, err error)
	Parse(token string) (models.Session, error)
}

// SubmitRequest transports the handler input into the service layer.
type SubmitRequest struct {
	SurveyID        string
	Responses       models.ResponseSet
	SessionToken    string
	SessionID       string
	CompletionTime  *int
	UserAgent       string
	RespondentEmail string
	Fingerprint     string
}

// SubmitResult collects the data needed to emit the HTTP response.
type SubmitResult struct {
	ResponseID string                   `json:"response_id"`
	SessionID  string                   `json:"session_id"`
	Summary    models.ValidationSummary `json:"summary"`
}

// SessionGrant is handed to a respondent when they open a survey.
type SessionGrant struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResponseServiceConfig wires the optional collaborators of ResponseService.
type ResponseServiceConfig struct {
	Guard           SubmissionGuard
	Sessions        SessionCodec
	DuplicateWindow time.Duration
	Logger          *zap.Logger
}

// ResponseService hosts the submission workflow.
type ResponseService struct {
	store       ResponseStore
	guard       SubmissionGuard
	sessions    SessionCodec
	window      time.Duration
	log         *zap.Logger
	now         func() time.Time
	idGenerator func() string
}

func NewResponseService(store ResponseStore, cfg ResponseServiceConfig) *ResponseService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	window := cfg.DuplicateWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ResponseService{
		store:       store,
		guard:       cfg.Guard,
		sessions:    cfg.Sessions,
		window:      window,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

func (s *ResponseService) openSurvey(ctx context.Context, id string) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, ErrSurveyNotFound
	}
	if sv.Status != models.StatusPublished {
		return nil, ErrSurveyClosed
	}
	return sv, nil
}

// StartSession issues a signed token that ties later submissions to one
// respondent session and lets the server measure completion time.
func (s *ResponseService) StartSession(ctx context.Context, surveyID string) (*SessionGrant, error) {
	if s.sessions == nil {
		return nil, errors.New("session tokens are not configured")
	}
	if _, err := s.openSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	sess := models.Session{ID: "session_" + s.idGenerator(), SurveyID: surveyID, StartedAt: s.now()}
	token, exp, err := s.sessions.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &SessionGrant{Token: token, SessionID: sess.ID, ExpiresAt: exp}, nil
}

func (s *ResponseService) resolveSession(req SubmitRequest) (string, *int, error) {
	if req.SessionToken != "" {
		if s.sessions == nil {
			return "", nil, ErrInvalidSession
		}
		sess, err := s.sessions.Parse(req.SessionToken)
		if err != nil || sess.SurveyID != req.SurveyID {
			return "", nil, ErrInvalidSession
		}
		secs := int(s.now().Sub(sess.StartedAt).Seconds())
		if secs < 0 {
			secs = 0
		}
		return sess.ID, &secs, nil
	}
	if req.SessionID != "" {
		return req.SessionID, req.CompletionTime, nil
	}
	return "session_" + s.idGenerator(), req.CompletionTime, nil
}

// Submit sanitizes, validates and stores one respondent's answers.
func (s *ResponseService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if s.store == nil {
		return nil, errors.New("response service store is nil")
	}
	survey, err := s.openSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}
	sessionID, completion, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}

	key := req.SurveyID + ":" + sessionID
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, key, s.window)
		if err != nil {
			return nil, fmt.Errorf("claim submission: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateSubmission
		}
	}

	clean := SanitizeResponses(req.Responses)
	result := ValidateSurvey(survey, clean)
	if !result.IsValid {
		s.release(ctx, key)
		return nil, &SubmissionInvalidError{Errors: result.Errors}
	}

	rec := &models.SubmissionRecord{
		ID:                    s.idGenerator(),
		SurveyID:              req.SurveyID,
		Responses:             clean,
		SessionID:             sessionID,
		SubmittedAt:           s.now(),
		CompletionTime:        completion,
		UserAgent:             req.UserAgent,
		RespondentEmail:       req.RespondentEmail,
		RespondentFingerprint: req.Fingerprint,
	}
	if err := s.store.AddResponse(ctx, rec); err != nil {
		s.release(ctx, key)
		return nil, fmt.Errorf("store response: %w", err)
	}
	s.log.Info("response stored",
		zap.String("survey_id", rec.SurveyID),
		zap.String("response_id", rec.ID),
		zap.String("session_id", sessionID))

	return &SubmitResult{
		ResponseID: rec.ID,
		SessionID:  sessionID,
		Summary:    GetValidationSummary(survey, clean),
	}, nil
}

func (s *ResponseService) release(ctx context.Context, key string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, key); err != nil {
		s.log.Warn("release submission claim", zap.String("key", key), zap.Error(err))
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// stubStore is a map-backed store satisfying every service interface.
type stubStore struct {
	surveys   map[string]*models.Survey
	responses []*models.SubmissionRecord
	addErr    error
}

func newStubStore(surveys ...*models.Survey) *stubStore {
	s := &stubStore{surveys: map[string]*models.Survey{}}
	for _, sv := range surveys {
		s.surveys[sv.ID] = sv
	}
	return s
}

func (s *stubStore) CreateSurvey(_ context.Context, sv *models.Survey) error {
	cp := *sv
	s.surveys[sv.ID] = &cp
	return nil
}

func (s *stubStore) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	if sv, ok := s.surveys[id]; ok {
		cp := *sv
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) ListSurveys(context.Context) ([]*models.Survey, error) {
	out := make([]*models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, sv)
	}
	return out, nil
}

func (s *stubStore) UpdateSurvey(_ context.Context, sv *models.Survey) error {
	if _, ok := s.surveys[sv.ID]; !ok {
		return ErrSurveyNotFound
	}
	cp := *sv
	s.surveys[sv.ID] = &cp
	return nil
}

func (s *stubStore) DeleteSurvey(_ context.Context, id string) error {
	delete(s.surveys, id)
	return nil
}

func (s *stubStore) AddResponse(_ context.Context, rec *models.SubmissionRecord) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.responses = append(s.responses, rec)
	return nil
}

func (s *stubStore) ListResponses(_ context.Context, surveyID string) ([]*models.SubmissionRecord, error) {
	var out []*models.SubmissionRecord
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubStore) DeleteResponses(_ context.Context, surveyID string) error {
	kept := s.responses[:0]
	for _, r := range s.responses {
		if r.SurveyID != surveyID {
			kept = append(kept, r)
		}
	}
	s.responses = kept
	return nil
}

type stubGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
	err      error
}

func (g *stubGuard) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.held == nil {
		g.held = map[string]bool{}
	}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

// stubSessions encodes the session id as the token itself.
type stubSessions struct {
	issued map[string]models.Session
}

func (c *stubSessions) Issue(sess models.Session) (string, time.Time, error) {
	if c.issued == nil {
		c.issued = map[string]models.Session{}
	}
	tok := "tok-" + sess.ID
	c.issued[tok] = sess
	return tok, sess.StartedAt.Add(time.Hour), nil
}

func (c *stubSessions) Parse(token string) (models.Session, error) {
	if sess, ok := c.issued[token]; ok {
		return sess, nil
	}
	return models.Session{}, errors.New("unknown token")
}

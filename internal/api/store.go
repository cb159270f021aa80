package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

type memoryStore struct {
	mu        sync.RWMutex
	surveys   map[string]*models.Survey
	responses []*models.SubmissionRecord
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{surveys: map[string]*models.Survey{}}
}

func cloneSurvey(s *models.Survey) *models.Survey {
	return s.Clone()
}

func (s *memoryStore) CreateSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return services.NewConflictError("survey already exists")
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *memoryStore) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.surveys[id]
	if !ok {
		return nil, nil
	}
	return cloneSurvey(sv), nil
}

func (s *memoryStore) ListSurveys(context.Context) ([]*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, cloneSurvey(sv))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) UpdateSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; !ok {
		return services.ErrSurveyNotFound
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *memoryStore) DeleteSurvey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[id]; !ok {
		return services.ErrSurveyNotFound
	}
	delete(s.surveys, id)
	return nil
}

func (s *memoryStore) AddResponse(_ context.Context, rec *models.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[rec.SurveyID]; !ok {
		return services.ErrSurveyNotFound
	}
	cp := *rec
	s.responses = append(s.responses, &cp)
	return nil
}

func (s *memoryStore) ListResponses(_ context.Context, surveyID string) ([]*models.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SubmissionRecord, 0)
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) DeleteResponses(_ context.Context, surveyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]*models.SubmissionRecord, 0, len(s.responses))
	for _, r := range s.responses {
		if r.SurveyID != surveyID {
			kept = append(kept, r)
		}
	}
	s.responses = kept
	return nil
}

func (s *memoryStore) Close() error { return nil }

// Snapshot is the on-disk form of a memory store, used to seed or move data
// between backends.
type Snapshot struct {
	Surveys   []*models.Survey           `json:"surveys"`
	Responses []*models.SubmissionRecord `json:"responses"`
}

// LoadSnapshot reads a snapshot file. A missing file yields os.ErrNotExist.
func LoadSnapshot(path string) (*Snapshot, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// WriteSnapshot dumps every survey and response of st to path.
func WriteSnapshot(ctx context.Context, st Store, path string) error {
	surveys, err := st.ListSurveys(ctx)
	if err != nil {
		return err
	}
	snap := Snapshot{Surveys: surveys, Responses: []*models.SubmissionRecord{}}
	for _, sv := range surveys {
		rs, err := st.ListResponses(ctx, sv.ID)
		if err != nil {
			return err
		}
		snap.Responses = append(snap.Responses, rs...)
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

// ImportSnapshot copies snap into dst. Surveys that already exist are skipped
// so an import can be rerun.
func ImportSnapshot(ctx context.Context, snap *Snapshot, dst Store) (int, int, error) {
	var surveys, responses int
	for _, sv := range snap.Surveys {
		if sv == nil {
			continue
		}
		existing, err := dst.GetSurvey(ctx, sv.ID)
		if err != nil {
			return surveys, responses, err
		}
		if existing != nil {
			continue
		}
		if err := dst.CreateSurvey(ctx, sv); err != nil {
			return surveys, responses, fmt.Errorf("import survey %s: %w", sv.ID, err)
		}
		surveys++
		for _, rec := range snap.Responses {
			if rec == nil || rec.SurveyID != sv.ID {
				continue
			}
			if err := dst.AddResponse(ctx, rec); err != nil {
				return surveys, responses, fmt.Errorf("import response %s: %w", rec.ID, err)
			}
			responses++
		}
	}
	return surveys, responses, nil
}

// NewMemoryStoreFromPath seeds a memory store from a snapshot file when one exists.
func NewMemoryStoreFromPath(ctx context.Context, path string) (Store, error) {
	st := newMemoryStore()
	snap, err := LoadSnapshot(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, err
	}
	if _, _, err := ImportSnapshot(ctx, snap, st); err != nil {
		return nil, err
	}
	return st, nil
}

package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

func seedSurvey(id string, created time.Time) *models.Survey {
	return &models.Survey{
		ID:        id,
		Title:     "Survey " + id,
		Status:    models.StatusPublished,
		Questions: []models.Question{{ID: "q1", Type: "text", Title: "Name"}},
		CreatedAt: created,
	}
}

func TestMemoryStoreSurveys(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateSurvey(ctx, seedSurvey("b", t0)))
	require.NoError(t, st.CreateSurvey(ctx, seedSurvey("a", t0)))
	require.NoError(t, st.CreateSurvey(ctx, seedSurvey("c", t0.Add(-time.Hour))))
	se, ok := services.AsServiceError(st.CreateSurvey(ctx, seedSurvey("a", t0)))
	require.True(t, ok)
	assert.Equal(t, services.ErrorConflict, se.Code)

	list, err := st.ListSurveys(ctx)
	require.NoError(t, err)
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	got, err := st.GetSurvey(ctx, "a")
	require.NoError(t, err)
	got.Questions[0].Title = "mutated"
	again, _ := st.GetSurvey(ctx, "a")
	assert.Equal(t, "Name", again.Questions[0].Title, "reads return copies")

	missing, err := st.GetSurvey(ctx, "zz")
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, st.UpdateSurvey(ctx, seedSurvey("zz", t0)), services.ErrSurveyNotFound)
	assert.ErrorIs(t, st.DeleteSurvey(ctx, "zz"), services.ErrSurveyNotFound)
	require.NoError(t, st.DeleteSurvey(ctx, "b"))
}

func TestMemoryStoreReadsDoNotShareQuestionFields(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	minLen, lo, hi, step := 2, 1.0, 5.0, 0.5
	sv := seedSurvey("s1", time.Now())
	sv.Questions = append(sv.Questions, models.Question{
		ID:        "q2",
		Type:      "scale",
		Title:     "Mood",
		Options:   &models.QuestionOptions{Choices: []string{"a", "b"}, Min: &lo, Max: &hi},
		MinLength: &minLen,
		Min:       &lo,
		Max:       &hi,
		Step:      &step,
		Rows:      []string{"r1"},
		Columns:   []string{"c1"},
	})
	require.NoError(t, st.CreateSurvey(ctx, sv))

	// the caller's survey stays its own after the write
	*sv.Questions[1].Max = 99
	sv.Questions[1].Options.Choices[0] = "z"

	got, err := st.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	q := got.Questions[1]
	*q.Options.Max = 42
	q.Options.Choices[1] = "y"
	*q.MinLength = 7
	*q.Min = -1
	*q.Step = 3
	q.Rows[0] = "changed"
	q.Columns[0] = "changed"

	again, err := st.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	want := again.Questions[1]
	assert.Equal(t, []string{"a", "b"}, want.Options.Choices)
	assert.Equal(t, 5.0, *want.Options.Max)
	assert.Equal(t, 5.0, *want.Max)
	assert.Equal(t, 2, *want.MinLength)
	assert.Equal(t, 1.0, *want.Min)
	assert.Equal(t, 0.5, *want.Step)
	assert.Equal(t, []string{"r1"}, want.Rows)
	assert.Equal(t, []string{"c1"}, want.Columns)
}

func TestMemoryStoreResponses(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	require.NoError(t, st.CreateSurvey(ctx, seedSurvey("s1", time.Now())))
	require.NoError(t, st.CreateSurvey(ctx, seedSurvey("s2", time.Now())))

	require.NoError(t, st.AddResponse(ctx, &models.SubmissionRecord{ID: "r1", SurveyID: "s1"}))
	require.NoError(t, st.AddResponse(ctx, &models.SubmissionRecord{ID: "r2", SurveyID: "s2"}))
	assert.ErrorIs(t, st.AddResponse(ctx, &models.SubmissionRecord{ID: "r3", SurveyID: "nope"}), services.ErrSurveyNotFound)

	list, err := st.ListResponses(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)

	require.NoError(t, st.DeleteResponses(ctx, "s1"))
	list, _ = st.ListResponses(ctx, "s1")
	assert.Empty(t, list)
	list, _ = st.ListResponses(ctx, "s2")
	assert.Len(t, list, 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newMemoryStore()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, src.CreateSurvey(ctx, seedSurvey("s1", t0)))
	require.NoError(t, src.AddResponse(ctx, &models.SubmissionRecord{
		ID: "r1", SurveyID: "s1", SessionID: "a", SubmittedAt: t0,
		Responses: models.ResponseSet{"q1": "Ada"},
	}))

	path := filepath.Join(t.TempDir(), "snap", "data.json")
	require.NoError(t, WriteSnapshot(ctx, src, path))

	dst, err := NewMemoryStoreFromPath(ctx, path)
	require.NoError(t, err)
	sv, err := dst.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sv)
	assert.Equal(t, "Survey s1", sv.Title)
	list, _ := dst.ListResponses(ctx, "s1")
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].Responses["q1"])

	// rerunning the import skips surveys that already exist
	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	surveys, responses, err := ImportSnapshot(ctx, snap, dst)
	require.NoError(t, err)
	assert.Zero(t, surveys)
	assert.Zero(t, responses)
}

func TestNewMemoryStoreFromMissingPath(t *testing.T) {
	st, err := NewMemoryStoreFromPath(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	list, _ := st.ListSurveys(context.Background())
	assert.Empty(t, list)

	st, err = NewMemoryStoreFromPath(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, st)
}

//go:build postgres

package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

// openPostgresTestStore connects to SURVEYGUY_TEST_POSTGRES_DSN and empties
// both tables. The database is shared, so these tests do not run in parallel.
func openPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("SURVEYGUY_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("SURVEYGUY_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := OpenPostgres(ctx, dsn, "", 4, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.pool.Exec(ctx, `TRUNCATE responses, surveys`)
	require.NoError(t, err)
	return st
}

func TestPostgresSurveyCRUD(t *testing.T) {
	ctx := context.Background()
	st := openPostgresTestStore(t)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateSurvey(ctx, testSurvey("b", t0.Add(time.Minute))))
	require.NoError(t, st.CreateSurvey(ctx, testSurvey("a", t0)))

	err := st.CreateSurvey(ctx, testSurvey("a", t0))
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorConflict, se.Code)

	got, err := st.GetSurvey(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Survey a", got.Title)
	assert.True(t, t0.Equal(got.CreatedAt))
	require.Len(t, got.Questions, 3)
	assert.Equal(t, []string{"a", "b"}, got.Questions[1].Options.Choices)
	require.NotNil(t, got.Questions[2].Options.Max)
	assert.Equal(t, 7.0, *got.Questions[2].Options.Max)

	list, err := st.ListSurveys(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	got.Status = models.StatusPublished
	got.Title = "Renamed"
	require.NoError(t, st.UpdateSurvey(ctx, got))
	again, _ := st.GetSurvey(ctx, "a")
	assert.Equal(t, "Renamed", again.Title)
	assert.Equal(t, models.StatusPublished, again.Status)

	missing, err := st.GetSurvey(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, st.UpdateSurvey(ctx, testSurvey("zzz", t0)), services.ErrSurveyNotFound)
	assert.ErrorIs(t, st.DeleteSurvey(ctx, "zzz"), services.ErrSurveyNotFound)
}

func TestPostgresResponses(t *testing.T) {
	ctx := context.Background()
	st := openPostgresTestStore(t)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateSurvey(ctx, testSurvey("s1", t0)))

	secs := 42
	require.NoError(t, st.AddResponse(ctx, &models.SubmissionRecord{
		ID: "r2", SurveyID: "s1", SessionID: "b", SubmittedAt: t0.Add(time.Hour),
		Responses: models.ResponseSet{"q1": "Bo"},
	}))
	require.NoError(t, st.AddResponse(ctx, &models.SubmissionRecord{
		ID: "r1", SurveyID: "s1", SessionID: "a", SubmittedAt: t0, CompletionTime: &secs,
		Responses:       models.ResponseSet{"q1": "Ada", "q2": "a", "q4": []any{"x", "y"}, "q5": map[string]any{"row": "col"}},
		UserAgent:       "ua",
		RespondentEmail: "ada@example.com",
	}))

	list, err := st.ListResponses(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	first := list[0]
	assert.Equal(t, "r1", first.ID)
	assert.True(t, t0.Equal(first.SubmittedAt))
	assert.Equal(t, "Ada", first.Responses["q1"])
	assert.Equal(t, []any{"x", "y"}, first.Responses["q4"])
	assert.Equal(t, map[string]any{"row": "col"}, first.Responses["q5"])
	require.NotNil(t, first.CompletionTime)
	assert.Equal(t, 42, *first.CompletionTime)
	assert.Equal(t, "ada@example.com", first.RespondentEmail)
	assert.Nil(t, list[1].CompletionTime)

	err = st.AddResponse(ctx, &models.SubmissionRecord{ID: "r3", SurveyID: "nope", SubmittedAt: t0})
	se, ok := services.AsServiceError(err)
	require.True(t, ok, "foreign key violation maps to a service error")
	assert.Equal(t, services.ErrorConflict, se.Code)

	require.NoError(t, st.DeleteResponses(ctx, "s1"))
	list, err = st.ListResponses(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgresDeleteSurveyCascades(t *testing.T) {
	ctx := context.Background()
	st := openPostgresTestStore(t)
	t0 := time.Now().UTC()
	require.NoError(t, st.CreateSurvey(ctx, testSurvey("s1", t0)))
	require.NoError(t, st.AddResponse(ctx, &models.SubmissionRecord{ID: "r1", SurveyID: "s1", SubmittedAt: t0}))
	require.NoError(t, st.DeleteSurvey(ctx, "s1"))
	list, err := st.ListResponses(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgresMigrationsAreRepeatable(t *testing.T) {
	ctx := context.Background()
	st := openPostgresTestStore(t)
	require.NoError(t, RunPostgresMigrations(ctx, st.pool, ""))
}

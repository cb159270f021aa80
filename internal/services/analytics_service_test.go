package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/surveyguy/internal/models"
)

func analyticsSurvey() *models.Survey {
	return &models.Survey{
		ID:     "s1",
		Status: models.StatusPublished,
		Questions: []models.Question{
			{ID: "q1", Type: "rating", Title: "Service"},
			{ID: "q2", Type: "likert", Title: "Value"},
			{ID: "q3", Type: "checkbox", Title: "Pets"},
			{ID: "q4", Type: "text", Title: "Comments"},
		},
	}
}

func record(id string, day int, completion *int, answers models.ResponseSet) *models.SubmissionRecord {
	return &models.SubmissionRecord{
		ID:             id,
		SurveyID:       "s1",
		Responses:      answers,
		SubmittedAt:    time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC),
		CompletionTime: completion,
	}
}

func TestAnalyticsSummary(t *testing.T) {
	store := newStubStore(analyticsSurvey())
	store.responses = []*models.SubmissionRecord{
		record("r1", 1, intPtr(60), models.ResponseSet{"q1": 5, "q2": 4, "q3": []any{"cat", "dog"}, "q4": "great"}),
		record("r2", 1, intPtr(90), models.ResponseSet{"q1": 4, "q2": 4, "q3": []any{"cat"}}),
		record("r3", 2, nil, models.ResponseSet{"q1": "3", "q3": []any{}}),
	}
	sum, err := NewAnalyticsService(store).Summary(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, 3, sum.TotalResponses)
	require.NotNil(t, sum.AverageCompletionTime)
	assert.Equal(t, 75.0, *sum.AverageCompletionTime)
	assert.Equal(t, []AnalyticsTimeseries{{Date: "2024-05-01", Count: 2}, {Date: "2024-05-02", Count: 1}}, sum.Timeseries)

	require.Len(t, sum.Questions, 4)
	q1 := sum.Questions[0]
	assert.Equal(t, models.TypeRating, q1.Type)
	assert.Equal(t, 3, q1.Responses)
	assert.Equal(t, 100, q1.CompletionRate)
	require.NotNil(t, q1.Average)
	assert.Equal(t, 4.0, *q1.Average)
	assert.Equal(t, map[string]int{"5": 1, "4": 1, "3": 1}, q1.Distribution)

	q3 := sum.Questions[2]
	assert.Equal(t, 2, q3.Responses)
	assert.Equal(t, 67, q3.CompletionRate)
	assert.Equal(t, map[string]int{"cat": 2, "dog": 1}, q3.Distribution)
	assert.Nil(t, q3.Average)

	q4 := sum.Questions[3]
	assert.Equal(t, 1, q4.Responses)
	assert.Nil(t, q4.Distribution)

	// only r1 and r2 answered both scored questions
	assert.Equal(t, 2, sum.N)
}

func TestAnalyticsSummaryMissingSurvey(t *testing.T) {
	_, err := NewAnalyticsService(newStubStore()).Summary(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestAnalyticsSummaryNoResponses(t *testing.T) {
	sum, err := NewAnalyticsService(newStubStore(analyticsSurvey())).Summary(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, sum.TotalResponses)
	assert.Nil(t, sum.AverageCompletionTime)
	assert.Zero(t, sum.Alpha)
	assert.Empty(t, sum.Timeseries)
	for _, q := range sum.Questions {
		assert.Zero(t, q.CompletionRate)
	}
}

func TestBuildAlphaMatrixUsesQuestionOrder(t *testing.T) {
	questions := []models.Question{{ID: "b"}, {ID: "a"}}
	matrix, n := buildAlphaMatrix(questions, []*models.SubmissionRecord{
		{Responses: models.ResponseSet{"a": 1, "b": 2}},
		{Responses: models.ResponseSet{"a": 3}},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, [][]float64{{2, 1}}, matrix)
}

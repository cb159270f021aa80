package services

import (
	"context"
	"math"
	"sort"

	"github.com/soaringjerry/surveyguy/internal/models"
)

type AnalyticsStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListResponses(ctx context.Context, surveyID string) ([]*models.SubmissionRecord, error)
}

type AnalyticsService struct {
	store AnalyticsStore
}

type QuestionAnalytics struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Type           models.QuestionType `json:"type"`
	Responses      int                 `json:"responses"`
	CompletionRate int                 `json:"completion_rate"`
	Average        *float64            `json:"average,omitempty"`
	Distribution   map[string]int      `json:"distribution,omitempty"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	SurveyID              string                `json:"survey_id"`
	TotalResponses        int                   `json:"total_responses"`
	AverageCompletionTime *float64              `json:"average_completion_time,omitempty"`
	Questions             []QuestionAnalytics   `json:"questions"`
	Timeseries            []AnalyticsTimeseries `json:"timeseries"`
	Alpha                 float64               `json:"alpha"`
	N                     int                   `json:"n"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Summary(ctx context.Context, surveyID string) (*AnalyticsSummary, error) {
	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, ErrSurveyNotFound
	}
	records, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	questions, countsByDay := buildQuestionAnalytics(sv.Questions, records)
	matrix, n := buildAlphaMatrix(scoredQuestions(sv.Questions), records)
	return &AnalyticsSummary{
		SurveyID:              surveyID,
		TotalResponses:        len(records),
		AverageCompletionTime: averageCompletion(records),
		Questions:             questions,
		Timeseries:            buildTimeseries(countsByDay),
		Alpha:                 CronbachAlpha(matrix),
		N:                     n,
	}, nil
}

// numericType reports whether answers to t are numbers worth averaging.
func numericType(t models.QuestionType) bool {
	switch typeKey(string(t)) {
	case "star_rating", "linear_scale":
		return true
	}
	switch Normalize(string(t)) {
	case models.TypeRating, models.TypeScale, models.TypeNPS, models.TypeSlider, models.TypeNumber:
		return true
	}
	return false
}

// choiceType reports whether answers to t are labels worth counting.
func choiceType(t models.QuestionType) bool {
	switch Normalize(string(t)) {
	case models.TypeRadio, models.TypeCheckbox, models.TypeDropdown, models.TypeYesNo,
		models.TypeEmojiScale, models.TypeEmojiSatisfaction, models.TypeEmojiAgreement,
		models.TypeEmojiQuality, models.TypeEmojiMood, models.TypeEmojiDifficulty,
		models.TypeEmojiLikelihood, models.TypeEmojiCustom:
		return true
	}
	return false
}

// scoredQuestions are the Likert-like questions that feed reliability.
func scoredQuestions(questions []models.Question) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if typeKey(string(q.Type)) == "linear_scale" {
			out = append(out, q)
			continue
		}
		switch Normalize(string(q.Type)) {
		case models.TypeRating, models.TypeScale, models.TypeNPS:
			out = append(out, q)
		}
	}
	return out
}

func buildQuestionAnalytics(questions []models.Question, records []*models.SubmissionRecord) ([]QuestionAnalytics, map[string]int) {
	out := make([]QuestionAnalytics, 0, len(questions))
	for _, q := range questions {
		qa := QuestionAnalytics{ID: q.ID, Title: q.Title, Type: Normalize(string(q.Type))}
		var sum float64
		var nums int
		for _, rec := range records {
			v := rec.Responses[q.ID]
			if !isAnswered(v) {
				continue
			}
			qa.Responses++
			switch {
			case numericType(q.Type):
				if f, ok := asNumber(v); ok {
					sum += f
					nums++
					countInto(&qa.Distribution, formatNumber(f))
				}
			case choiceType(q.Type):
				if list, ok := asList(v); ok {
					for _, el := range list {
						if label, ok := asText(el); ok {
							countInto(&qa.Distribution, label)
						}
					}
				} else if label, ok := asText(v); ok {
					countInto(&qa.Distribution, label)
				}
			}
		}
		qa.CompletionRate = percent(qa.Responses, len(records))
		if nums > 0 {
			avg := math.Round(sum/float64(nums)*10) / 10
			qa.Average = &avg
		}
		out = append(out, qa)
	}
	countsByDay := map[string]int{}
	for _, rec := range records {
		countsByDay[rec.SubmittedAt.UTC().Format("2006-01-02")]++
	}
	return out, countsByDay
}

func countInto(dist *map[string]int, key string) {
	if *dist == nil {
		*dist = map[string]int{}
	}
	(*dist)[key]++
}

func averageCompletion(records []*models.SubmissionRecord) *float64 {
	var total, n int
	for _, rec := range records {
		if rec.CompletionTime != nil {
			total += *rec.CompletionTime
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(float64(total)/float64(n)*10) / 10
	return &avg
}

// buildAlphaMatrix keeps only respondents who answered every scored
// question with a number.
func buildAlphaMatrix(questions []models.Question, records []*models.SubmissionRecord) ([][]float64, int) {
	matrix := make([][]float64, 0, len(records))
	for _, rec := range records {
		row := make([]float64, 0, len(questions))
		for _, q := range questions {
			f, ok := asNumber(rec.Responses[q.ID])
			if !ok {
				break
			}
			row = append(row, f)
		}
		if len(row) == len(questions) {
			matrix = append(matrix, row)
		}
	}
	return matrix, len(matrix)
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}

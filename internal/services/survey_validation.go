package services

import (
	"math"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// ValidateSurvey checks every question of survey against responses and
// collects one message per failing question id.
func ValidateSurvey(survey *models.Survey, responses models.ResponseSet) models.ValidationResult {
	if survey == nil || survey.Questions == nil {
		return models.ValidationResult{
			IsValid: false,
			Errors:  map[string]string{"general": "Invalid survey data"},
		}
	}
	errs := make(map[string]string)
	for i := range survey.Questions {
		q := &survey.Questions[i]
		if res := ValidateQuestion(q, responses[q.ID]); !res.IsValid {
			errs[q.ID] = res.Error
		}
	}
	return models.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// GetValidationSummary reports how far a respondent has progressed. Answers
// to ids that are not questions of survey are ignored.
func GetValidationSummary(survey *models.Survey, responses models.ResponseSet) models.ValidationSummary {
	var sum models.ValidationSummary
	if survey == nil {
		return sum
	}
	for _, q := range survey.Questions {
		sum.TotalQuestions++
		answered := isAnswered(responses[q.ID])
		if answered {
			sum.AnsweredQuestions++
		}
		if q.Required {
			sum.RequiredQuestions++
			if answered {
				sum.AnsweredRequired++
			}
		}
	}
	sum.CompletionRate = percent(sum.AnsweredQuestions, sum.TotalQuestions)
	sum.RequiredCompletionRate = percent(sum.AnsweredRequired, sum.RequiredQuestions)
	return sum
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

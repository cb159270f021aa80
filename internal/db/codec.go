package db

import (
	"encoding/json"
	"fmt"

	"github.com/soaringjerry/surveyguy/internal/models"
)

func encodeQuestions(qs []models.Question) ([]byte, error) {
	if qs == nil {
		qs = []models.Question{}
	}
	b, err := json.Marshal(qs)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	return b, nil
}

func decodeQuestions(b []byte) ([]models.Question, error) {
	var qs []models.Question
	if len(b) == 0 {
		return []models.Question{}, nil
	}
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return qs, nil
}

func encodeAnswers(rs models.ResponseSet) ([]byte, error) {
	if rs == nil {
		rs = models.ResponseSet{}
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return b, nil
}

func decodeAnswers(b []byte) (models.ResponseSet, error) {
	rs := models.ResponseSet{}
	if len(b) == 0 {
		return rs, nil
	}
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return rs, nil
}

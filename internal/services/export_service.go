package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/soaringjerry/surveyguy/internal/models"
)

type ExportStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListResponses(ctx context.Context, surveyID string) ([]*models.SubmissionRecord, error)
}

type ExportParams struct {
	SurveyID string
	Format   string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

func (s *ExportService) ExportCSV(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.SurveyID == "" {
		return nil, NewInvalidError("survey_id required")
	}
	format := params.Format
	if format == "" {
		format = "long"
	}
	sv, err := s.store.GetSurvey(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, ErrSurveyNotFound
	}
	records, err := s.store.ListResponses(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case "long":
		data, err = ExportLongCSV(buildLongRows(sv, records))
	case "wide":
		data, err = ExportWideCSV(buildWideTable(sv, records))
	default:
		return nil, NewInvalidError("unsupported format")
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s-%s.csv", sv.ID, format),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// buildLongRows emits one row per answered question, in question order.
func buildLongRows(sv *models.Survey, records []*models.SubmissionRecord) []LongRow {
	out := make([]LongRow, 0, len(records)*len(sv.Questions))
	for _, rec := range records {
		at := rec.SubmittedAt.UTC().Format(time.RFC3339)
		for _, q := range sv.Questions {
			v, ok := rec.Responses[q.ID]
			if !ok || v == nil {
				continue
			}
			out = append(out, LongRow{
				ResponseID:  rec.ID,
				SessionID:   rec.SessionID,
				QuestionID:  q.ID,
				Value:       cellValue(v),
				SubmittedAt: at,
			})
		}
	}
	return out
}

func buildWideTable(sv *models.Survey, records []*models.SubmissionRecord) WideTable {
	header := []string{"response_id", "session_id", "submitted_at", "completion_time"}
	for i, q := range sv.Questions {
		header = append(header, fmt.Sprintf("Q%d: %s", i+1, q.Title))
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		completion := ""
		if rec.CompletionTime != nil {
			completion = strconv.Itoa(*rec.CompletionTime)
		}
		row := []string{rec.ID, rec.SessionID, rec.SubmittedAt.UTC().Format(time.RFC3339), completion}
		for _, q := range sv.Questions {
			row = append(row, cellValue(rec.Responses[q.ID]))
		}
		rows = append(rows, row)
	}
	return WideTable{Header: header, Rows: rows}
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/api"
	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// OpenSQLite opens (creating if needed) the database file at path, applies
// migrations and returns a ready store.
func OpenSQLite(path, migrationsDir string, log *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000&_foreign_keys=on", filepath.ToSlash(path))
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := RunMigrations(conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	st, err := NewSQLiteStore(conn, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		s.log.Warn("sqlite store: "+prefix, zap.Error(err))
	}
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func (s *SQLiteStore) CreateSurvey(ctx context.Context, sv *models.Survey) error {
	qs, err := encodeQuestions(sv.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO surveys (id, title, description, status, questions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.Title, sv.Description, sv.Status, string(qs), toMillis(sv.CreatedAt), toMillis(sv.UpdatedAt))
	if isConstraint(err) {
		return services.NewConflictError("survey already exists")
	}
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

const surveyColumns = `id, title, description, status, questions, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanSurvey(row rowScanner) (*models.Survey, error) {
	var (
		sv               models.Survey
		questions        string
		created, updated int64
	)
	if err := row.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Status, &questions, &created, &updated); err != nil {
		return nil, err
	}
	qs, err := decodeQuestions([]byte(questions))
	if err != nil {
		s.logErr("survey "+sv.ID, err)
		qs = []models.Question{}
	}
	sv.Questions = qs
	sv.CreatedAt = fromMillis(created)
	sv.UpdatedAt = fromMillis(updated)
	return &sv, nil
}

func (s *SQLiteStore) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE id = ?`, id)
	sv, err := s.scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return sv, nil
}

func (s *SQLiteStore) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+surveyColumns+` FROM surveys ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		sv, err := s.scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateSurvey(ctx context.Context, sv *models.Survey) error {
	qs, err := encodeQuestions(sv.Questions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE surveys SET title = ?, description = ?, status = ?, questions = ?, updated_at = ? WHERE id = ?`,
		sv.Title, sv.Description, sv.Status, string(qs), toMillis(sv.UpdatedAt), sv.ID)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return services.ErrSurveyNotFound
	}
	return nil
}

func (s *SQLiteStore) AddResponse(ctx context.Context, rec *models.SubmissionRecord) error {
	answers, err := encodeAnswers(rec.Responses)
	if err != nil {
		return err
	}
	var completion sql.NullInt64
	if rec.CompletionTime != nil {
		completion = sql.NullInt64{Int64: int64(*rec.CompletionTime), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id, survey_id, session_id, answers, submitted_at, completion_time,
		                        user_agent, respondent_email, respondent_fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SurveyID, rec.SessionID, string(answers), toMillis(rec.SubmittedAt), completion,
		rec.UserAgent, rec.RespondentEmail, rec.RespondentFingerprint)
	if isConstraint(err) {
		return services.NewConflictError("response rejected by storage constraint")
	}
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListResponses(ctx context.Context, surveyID string) ([]*models.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, survey_id, session_id, answers, submitted_at, completion_time,
		        user_agent, respondent_email, respondent_fingerprint
		 FROM responses WHERE survey_id = ? ORDER BY submitted_at, id`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []*models.SubmissionRecord{}
	for rows.Next() {
		var (
			rec        models.SubmissionRecord
			answers    string
			submitted  int64
			completion sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.SurveyID, &rec.SessionID, &answers, &submitted, &completion,
			&rec.UserAgent, &rec.RespondentEmail, &rec.RespondentFingerprint); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		rs, err := decodeAnswers([]byte(answers))
		if err != nil {
			s.logErr("response "+rec.ID, err)
			rs = models.ResponseSet{}
		}
		rec.Responses = rs
		rec.SubmittedAt = fromMillis(submitted)
		if completion.Valid {
			v := int(completion.Int64)
			rec.CompletionTime = &v
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteResponses(ctx context.Context, surveyID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE survey_id = ?`, surveyID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

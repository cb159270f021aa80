package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/api"
	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

// PostgresStore keeps surveys and responses in Postgres, with questions and
// answers in JSONB columns.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

var _ api.Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn, pings the server and applies migrations.
func OpenPostgres(ctx context.Context, dsn, migrationsDir string, maxConns int32, log *zap.Logger) (*PostgresStore, error) {
	const op = "db.OpenPostgres"

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse database config: %w", op, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create database pool: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}
	if err := RunPostgresMigrations(ctx, pool, migrationsDir); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewPostgresStore(pool, log), nil
}

func NewPostgresStore(pool *pgxpool.Pool, log *zap.Logger) *PostgresStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStore{pool: pool, log: log}
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503")
}

func (s *PostgresStore) CreateSurvey(ctx context.Context, sv *models.Survey) error {
	qs, err := encodeQuestions(sv.Questions)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO surveys (id, title, description, status, questions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sv.ID, sv.Title, sv.Description, sv.Status, string(qs), sv.CreatedAt, sv.UpdatedAt)
	if isConstraintViolation(err) {
		return services.NewConflictError("survey already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanSurvey(row pgx.Row) (*models.Survey, error) {
	var (
		sv        models.Survey
		questions []byte
	)
	if err := row.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Status, &questions, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
		return nil, err
	}
	qs, err := decodeQuestions(questions)
	if err != nil {
		s.log.Warn("postgres store: survey "+sv.ID, zap.Error(err))
		qs = []models.Question{}
	}
	sv.Questions = qs
	sv.CreatedAt = sv.CreatedAt.UTC()
	sv.UpdatedAt = sv.UpdatedAt.UTC()
	return &sv, nil
}

func (s *PostgresStore) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	sv, err := s.scanSurvey(s.pool.QueryRow(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return sv, nil
}

func (s *PostgresStore) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+surveyColumns+` FROM surveys ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		sv, err := s.scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateSurvey(ctx context.Context, sv *models.Survey) error {
	qs, err := encodeQuestions(sv.Questions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE surveys SET title = $1, description = $2, status = $3, questions = $4, updated_at = $5 WHERE id = $6`,
		sv.Title, sv.Description, sv.Status, string(qs), sv.UpdatedAt, sv.ID)
	if err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrSurveyNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSurvey(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrSurveyNotFound
	}
	return nil
}

func (s *PostgresStore) AddResponse(ctx context.Context, rec *models.SubmissionRecord) error {
	answers, err := encodeAnswers(rec.Responses)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO responses (id, survey_id, session_id, answers, submitted_at, completion_time,
		                        user_agent, respondent_email, respondent_fingerprint)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.SurveyID, rec.SessionID, string(answers), rec.SubmittedAt, rec.CompletionTime,
		rec.UserAgent, rec.RespondentEmail, rec.RespondentFingerprint)
	if isConstraintViolation(err) {
		return services.NewConflictError("response rejected by storage constraint")
	}
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, surveyID string) ([]*models.SubmissionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, survey_id, session_id, answers, submitted_at, completion_time,
		        user_agent, respondent_email, respondent_fingerprint
		 FROM responses WHERE survey_id = $1 ORDER BY submitted_at, id`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()
	out := []*models.SubmissionRecord{}
	for rows.Next() {
		var (
			rec        models.SubmissionRecord
			answers    []byte
			completion *int32
		)
		if err := rows.Scan(&rec.ID, &rec.SurveyID, &rec.SessionID, &answers, &rec.SubmittedAt, &completion,
			&rec.UserAgent, &rec.RespondentEmail, &rec.RespondentFingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		rs, err := decodeAnswers(answers)
		if err != nil {
			s.log.Warn("postgres store: response "+rec.ID, zap.Error(err))
			rs = models.ResponseSet{}
		}
		rec.Responses = rs
		rec.SubmittedAt = rec.SubmittedAt.UTC()
		if completion != nil {
			v := int(*completion)
			rec.CompletionTime = &v
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteResponses(ctx context.Context, surveyID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM responses WHERE survey_id = $1`, surveyID); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

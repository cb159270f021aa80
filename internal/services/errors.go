package services

import (
	"errors"
	"sort"
	"strings"
)

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorTooManyRequests ErrorCode = "too_many_requests"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

var (
	// ErrSurveyNotFound is returned when an operation references a missing survey.
	ErrSurveyNotFound = &ServiceError{Code: ErrorNotFound, Message: "survey not found"}
	// ErrSurveyClosed flags submissions to surveys that are not published.
	ErrSurveyClosed = &ServiceError{Code: ErrorForbidden, Message: "survey is not accepting responses"}
	// ErrDuplicateSubmission is returned when a session already submitted.
	ErrDuplicateSubmission = &ServiceError{Code: ErrorConflict, Message: "response already submitted for this session"}
	// ErrInvalidSession covers expired, forged or mismatched session tokens.
	ErrInvalidSession = &ServiceError{Code: ErrorInvalid, Message: "invalid session token"}
)

// SubmissionInvalidError carries the per-question messages of a rejected submission.
type SubmissionInvalidError struct {
	Errors map[string]string
}

func (e *SubmissionInvalidError) Error() string {
	ids := make([]string, 0, len(e.Errors))
	for id := range e.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "invalid responses: " + strings.Join(ids, ", ")
}

// DefinitionError wraps a failed authoring check.
type DefinitionError struct {
	Result DefinitionResult
}

func (e *DefinitionError) Error() string { return "invalid survey definition" }

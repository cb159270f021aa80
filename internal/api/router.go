package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/middleware"
	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
	"github.com/soaringjerry/surveyguy/internal/utils"
)

// BuildInfo is reported by /health and /version.
type BuildInfo struct {
	Commit    string
	BuildTime string
}

// Options wires the router to its backends.
type Options struct {
	Store           Store
	Guard           services.SubmissionGuard
	Sessions        services.SessionCodec
	Fingerprint     func(r *http.Request) string
	DuplicateWindow time.Duration
	Logger          *zap.Logger
	Build           BuildInfo
}

type Router struct {
	surveys     *services.SurveyService
	responses   *services.ResponseService
	analytics   *services.AnalyticsService
	exports     *services.ExportService
	store       Store
	fingerprint func(r *http.Request) string
	log         *zap.Logger
	build       BuildInfo
}

func NewRouter(opts Options) *Router {
	st := opts.Store
	if st == nil {
		st = newMemoryStore()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		surveys: services.NewSurveyService(st),
		responses: services.NewResponseService(st, services.ResponseServiceConfig{
			Guard:           opts.Guard,
			Sessions:        opts.Sessions,
			DuplicateWindow: opts.DuplicateWindow,
			Logger:          log,
		}),
		analytics:   services.NewAnalyticsService(st),
		exports:     services.NewExportService(st),
		store:       st,
		fingerprint: opts.Fingerprint,
		log:         log,
		build:       opts.Build,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)
	mux.HandleFunc("GET /api/question-types", rt.handleQuestionTypes)

	mux.HandleFunc("POST /api/surveys", rt.handleCreateSurvey)
	mux.HandleFunc("GET /api/surveys", rt.handleListSurveys)
	mux.HandleFunc("GET /api/surveys/{id}", rt.handleGetSurvey)
	mux.HandleFunc("PUT /api/surveys/{id}", rt.handleUpdateSurvey)
	mux.HandleFunc("DELETE /api/surveys/{id}", rt.handleDeleteSurvey)
	mux.HandleFunc("POST /api/surveys/{id}/publish", rt.handlePublish)
	mux.HandleFunc("POST /api/surveys/{id}/close", rt.handleClose)

	mux.HandleFunc("POST /api/surveys/{id}/validate", rt.handleValidate)
	mux.HandleFunc("POST /api/surveys/{id}/summary", rt.handleSummary)
	mux.HandleFunc("POST /api/surveys/{id}/sessions", rt.handleStartSession)
	mux.HandleFunc("POST /api/surveys/{id}/responses", rt.handleSubmit)
	mux.HandleFunc("GET /api/surveys/{id}/responses", rt.handleListResponses)
	mux.HandleFunc("GET /api/surveys/{id}/analytics", rt.handleAnalytics)
	mux.HandleFunc("GET /api/surveys/{id}/export", rt.handleExport)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses with a localized message.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	var defErr *services.DefinitionError
	if errors.As(err, &defErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":          utils.T(locale, "error.invalid_definition"),
			"errors":         defErr.Result.Errors,
			"questionErrors": defErr.Result.QuestionErrors,
		})
		return
	}
	var invalid *services.SubmissionInvalidError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  utils.T(locale, "error.invalid_responses"),
			"errors": invalid.Errors,
		})
		return
	}
	if errors.Is(err, errPayload) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": utils.T(locale, "error.bad_request"), "detail": err.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrSurveyNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": utils.T(locale, "error.survey_not_found")})
		return
	case errors.Is(err, services.ErrSurveyClosed):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": utils.T(locale, "error.survey_closed")})
		return
	case errors.Is(err, services.ErrDuplicateSubmission):
		writeJSON(w, http.StatusConflict, map[string]any{"error": utils.T(locale, "error.duplicate")})
		return
	case errors.Is(err, services.ErrInvalidSession):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": utils.T(locale, "error.invalid_session")})
		return
	}

	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusBadRequest
		switch se.Code {
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorTooManyRequests:
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, map[string]any{"error": se.Message})
		return
	}

	rt.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": utils.T(locale, "error.internal")})
}

// GET /health
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "surveyguy API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.build.Commit,
		"build_time": rt.build.BuildTime,
	})
}

// GET /version
func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commit": rt.build.Commit, "build_time": rt.build.BuildTime})
}

// GET /api/question-types
func (rt *Router) handleQuestionTypes(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Type    models.QuestionType `json:"type"`
		Aliases []string            `json:"aliases"`
	}
	types := services.AllCanonicalTypes()
	out := make([]entry, 0, len(types))
	for _, t := range types {
		out = append(out, entry{Type: t, Aliases: services.LegacyAliasesOf(t)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": out})
}

// POST /api/surveys
func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var in models.Survey
	if err := decodePayload(r, "survey", &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.Create(r.Context(), &in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

// GET /api/surveys
func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	list, err := rt.surveys.List(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surveys": list})
}

// GET /api/surveys/{id}
func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// PUT /api/surveys/{id}
func (rt *Router) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var in models.Survey
	if err := decodePayload(r, "survey", &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.Update(r.Context(), r.PathValue("id"), &in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// DELETE /api/surveys/{id}
func (rt *Router) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	if err := rt.surveys.Delete(r.Context(), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/surveys/{id}/publish
func (rt *Router) handlePublish(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// POST /api/surveys/{id}/close
func (rt *Router) handleClose(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.Close(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

type responsesPayload struct {
	Responses models.ResponseSet `json:"responses"`
}

// POST /api/surveys/{id}/validate
// Runs the same checks as a submission without storing anything.
func (rt *Router) handleValidate(w http.ResponseWriter, r *http.Request) {
	var in responsesPayload
	if err := decodePayload(r, "responses", &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	clean := services.SanitizeResponses(in.Responses)
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  services.ValidateSurvey(sv, clean),
		"summary": services.GetValidationSummary(sv, clean),
	})
}

// POST /api/surveys/{id}/summary
func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	var in responsesPayload
	if err := decodePayload(r, "responses", &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.GetValidationSummary(sv, in.Responses))
}

// POST /api/surveys/{id}/sessions
func (rt *Router) handleStartSession(w http.ResponseWriter, r *http.Request) {
	grant, err := rt.responses.StartSession(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

// POST /api/surveys/{id}/responses
// { responses: {...}, session_token?, session_id?, completion_time?, respondent_email? }
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Responses       models.ResponseSet `json:"responses"`
		SessionToken    string             `json:"session_token"`
		SessionID       string             `json:"session_id"`
		CompletionTime  *int               `json:"completion_time"`
		RespondentEmail string             `json:"respondent_email"`
	}
	if err := decodePayload(r, "submission", &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	req := services.SubmitRequest{
		SurveyID:        r.PathValue("id"),
		Responses:       in.Responses,
		SessionToken:    in.SessionToken,
		SessionID:       in.SessionID,
		CompletionTime:  in.CompletionTime,
		UserAgent:       r.UserAgent(),
		RespondentEmail: in.RespondentEmail,
	}
	if rt.fingerprint != nil {
		req.Fingerprint = rt.fingerprint(r)
	}
	res, err := rt.responses.Submit(r.Context(), req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/surveys/{id}/responses
func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := rt.surveys.Get(r.Context(), id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	list, err := rt.store.ListResponses(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": list, "count": len(list)})
}

// GET /api/surveys/{id}/analytics
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sum, err := rt.analytics.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/surveys/{id}/export?format=long|wide
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := rt.exports.ExportCSV(r.Context(), services.ExportParams{
		SurveyID: r.PathValue("id"),
		Format:   r.URL.Query().Get("format"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}

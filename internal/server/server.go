// Package server exposes form evaluation and gated submission over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	formlogic "github.com/goliatone/go-formlogic"
	"github.com/goliatone/go-formlogic/internal/store"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/render"
	"github.com/goliatone/go-formlogic/pkg/submission"
)

const maxBodyBytes = 1 << 20

// Forms resolves form definitions by id. *form.Store satisfies it.
type Forms interface {
	Lookup(id string) (form.Form, error)
}

// Submissions reads stored submissions. *store.SubmissionStore satisfies it;
// Get reports unknown ids with store.ErrNotFound.
type Submissions interface {
	Get(ctx context.Context, id uuid.UUID) (submission.Submission, error)
	ListByForm(ctx context.Context, formID string) ([]submission.Submission, error)
	CountByForm(ctx context.Context, formID string) (int, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNoticeRenderer overrides the notice renderer.
func WithNoticeRenderer(r *render.NoticeRenderer) Option {
	return func(s *Server) {
		if r != nil {
			s.notices = r
		}
	}
}

// WithSubmissions enables the submission read routes.
func WithSubmissions(reader Submissions) Option {
	return func(s *Server) {
		if reader != nil {
			s.submissions = reader
		}
	}
}

// Server holds the HTTP handlers.
type Server struct {
	forms       Forms
	processor   *submission.Processor
	submissions Submissions
	notices     *render.NoticeRenderer
	contract    *contract
	logger      *slog.Logger
}

// New builds a Server. The embedded OpenAPI contract is loaded and validated
// once here.
func New(ctx context.Context, forms Forms, processor *submission.Processor, opts ...Option) (*Server, error) {
	if forms == nil {
		return nil, errors.New("server: forms source is required")
	}
	if processor == nil {
		return nil, errors.New("server: submission processor is required")
	}

	c, err := loadContract(ctx)
	if err != nil {
		return nil, err
	}

	s := &Server{
		forms:     forms,
		processor: processor,
		contract:  c,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.With("component", "server")

	if s.notices == nil {
		notices, err := render.NewNoticeRenderer()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.notices = notices
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(Contract())
	})
	mux.HandleFunc("GET /forms/{formID}", s.handleGetForm)
	mux.HandleFunc("POST /forms/{formID}/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /forms/{formID}/submissions", s.handleSubmit)
	if s.submissions != nil {
		mux.HandleFunc("GET /forms/{formID}/submissions", s.handleListSubmissions)
		mux.HandleFunc("GET /submissions/{submissionID}", s.handleGetSubmission)
	}
	return s.logRequests(mux)
}

// NewHTTPServer wraps the handler with the configured timeouts.
func (s *Server) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	RuleID  string `json:"ruleId,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

type evaluateRequest struct {
	Answers logic.Answers `json:"answers"`
}

type evaluateResponse struct {
	FormID         string            `json:"formId"`
	Visible        []string          `json:"visible"`
	Blocked        bool              `json:"blocked"`
	Blocking       *logic.Rule       `json:"blocking,omitempty"`
	Message        string            `json:"message,omitempty"`
	Notice         string            `json:"notice,omitempty"`
	HasInvalidRule bool              `json:"hasInvalidRule"`
	Diagnostics    logic.Diagnostics `json:"diagnostics,omitempty"`
}

type submitRequest struct {
	Responses []submission.Response `json:"responses"`
}

type storedSubmission struct {
	ID        uuid.UUID             `json:"id"`
	FormID    string                `json:"formId"`
	CreatedAt time.Time             `json:"createdAt"`
	Responses []submission.Response `json:"responses,omitempty"`
}

type submissionList struct {
	FormID      string             `json:"formId"`
	Count       int                `json:"count"`
	Submissions []storedSubmission `json:"submissions"`
}

func newStoredSubmission(sub submission.Submission) storedSubmission {
	return storedSubmission{
		ID:        sub.ID,
		FormID:    sub.FormID,
		CreatedAt: sub.CreatedAt,
		Responses: sub.Responses,
	}
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req evaluateRequest
	if !s.decode(w, r, "evaluateForm", &req) {
		return
	}

	result := formlogic.Evaluate(f.LogicFields(), f.Rules, req.Answers)
	resp := evaluateResponse{
		FormID:         f.ID,
		Visible:        result.VisibleIDs,
		Blocked:        result.Blocked(),
		Blocking:       result.Blocking,
		HasInvalidRule: result.HasInvalidRule(),
		Diagnostics:    result.Diagnostics,
	}
	if result.Blocking != nil {
		resp.Message = render.NoticeMessage(*result.Blocking)
		notice, err := s.notices.RenderNotice(*result.Blocking)
		if err != nil {
			s.logger.Error("render notice", "form", f.ID, "rule", result.Blocking.ID, "error", err)
		}
		resp.Notice = notice
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !s.decode(w, r, "createSubmission", &req) {
		return
	}

	receipt, err := s.processor.Submit(r.Context(), f, req.Responses)
	var prevented *submission.PreventedError
	switch {
	case err == nil:
		s.logger.Info("submission accepted", "form", f.ID, "submission", receipt.ID.String(), "dropped", len(receipt.Dropped))
		writeJSON(w, http.StatusCreated, receipt)
	case errors.As(err, &prevented):
		s.logger.Info("submission prevented", "form", f.ID, "rule", prevented.Rule.ID)
		notice, renderErr := s.notices.RenderNotice(prevented.Rule)
		if renderErr != nil {
			s.logger.Error("render notice", "form", f.ID, "rule", prevented.Rule.ID, "error", renderErr)
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "submission_prevented",
			Message: prevented.Message(),
			RuleID:  prevented.Rule.ID,
			Notice:  notice,
		})
	case errors.Is(err, submission.ErrInvalidResponse):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("submission failed", "form", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "submission could not be stored")
	}
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	count, err := s.submissions.CountByForm(r.Context(), f.ID)
	if err != nil {
		s.logger.Error("count submissions", "form", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "submissions could not be loaded")
		return
	}
	subs, err := s.submissions.ListByForm(r.Context(), f.ID)
	if err != nil {
		s.logger.Error("list submissions", "form", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "submissions could not be loaded")
		return
	}

	resp := submissionList{FormID: f.ID, Count: count, Submissions: make([]storedSubmission, 0, len(subs))}
	for _, sub := range subs {
		resp.Submissions = append(resp.Submissions, newStoredSubmission(sub))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("submissionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("submission id %q is not a UUID", raw))
		return
	}
	sub, err := s.submissions.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("submission %s not found", id))
	case err != nil:
		s.logger.Error("get submission", "submission", id.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "submission could not be loaded")
	default:
		writeJSON(w, http.StatusOK, newStoredSubmission(sub))
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (form.Form, bool) {
	id := r.PathValue("formID")
	f, err := s.forms.Lookup(id)
	if err != nil {
		if errors.Is(err, form.ErrFormNotFound) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("form %q not found", id))
			return form.Form{}, false
		}
		s.logger.Error("lookup form", "form", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "form could not be loaded")
		return form.Form{}, false
	}
	return f, true
}

// decode reads the body, validates it against the contract and decodes it
// into dest. It writes a 400 response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, operationID string, dest any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body could not be read")
		return false
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return false
	}
	if err := s.contract.validateBody(operationID, generic); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

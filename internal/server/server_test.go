package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/logic/expr"
	"github.com/goliatone/go-formlogic/pkg/submission"
)

type memoryStore struct {
	mu    sync.Mutex
	saved []submission.Submission
	err   error
}

func (m *memoryStore) Save(_ context.Context, sub submission.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, sub)
	return nil
}

func testForm() form.Form {
	return form.Form{
		ID:    "eligibility",
		Title: "Eligibility",
		Fields: []form.Field{
			{Field: logic.Field{ID: "resident", Type: logic.FieldYesNo}},
			{Field: logic.Field{ID: "age", Type: logic.FieldNumber}},
			{Field: logic.Field{ID: "notes", Type: logic.FieldLongText}},
		},
		Rules: []logic.Rule{
			logic.NewShowFieldsRule("show-age", []string{"age"}, expr.MustParse("resident == Yes")...),
			logic.NewPreventSubmitRule("block-minors", "Applicants must be <b>18</b> or older.", expr.MustParse("age <= 17")...),
			logic.NewShowFieldsRule("stale", []string{"notes"}, expr.MustParse("deleted == Yes")...),
		},
	}
}

func newTestServer(t *testing.T, store submission.Store) http.Handler {
	t.Helper()

	forms, err := form.NewStore(testForm())
	require.NoError(t, err)

	srv, err := New(context.Background(), forms, submission.NewProcessor(store),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndContract(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &memoryStore{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "operationId: createSubmission")
}

func TestGetForm(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &memoryStore{})

	rec := do(t, h, http.MethodGet, "/forms/eligibility", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "eligibility", body["_id"])
	assert.Len(t, body["form_fields"], 3)

	rec = do(t, h, http.MethodGet, "/forms/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &memoryStore{})

	rec := do(t, h, http.MethodPost, "/forms/eligibility/evaluate", `{"answers":{"resident":"Yes","age":16}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)

	assert.Equal(t, []any{"resident", "age", "notes"}, body["visible"])
	assert.Equal(t, true, body["blocked"])
	assert.Equal(t, "Applicants must be 18 or older.", body["message"])
	assert.Contains(t, body["notice"], "Submission disabled")
	assert.Equal(t, true, body["hasInvalidRule"])

	rec = do(t, h, http.MethodPost, "/forms/eligibility/evaluate", `{"answers":{"resident":"No","age":16}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, []any{"resident", "notes"}, body["visible"])
	assert.Equal(t, false, body["blocked"])
	assert.NotContains(t, body, "notice")
}

func TestEvaluate_BadRequests(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &memoryStore{})
	cases := map[string]string{
		"not json":        `{"answers":`,
		"missing answers": `{}`,
		"answers array":   `{"answers":[]}`,
	}
	for name, body := range cases {
		rec := do(t, h, http.MethodPost, "/forms/eligibility/evaluate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"], name)
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	h := newTestServer(t, store)

	rec := do(t, h, http.MethodPost, "/forms/eligibility/submissions",
		`{"responses":[{"_id":"resident","answer":"Yes"},{"_id":"age","answer":"30"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "eligibility", body["formId"])
	assert.NotEmpty(t, body["id"])
	assert.Len(t, store.saved, 1)
}

func TestSubmit_Prevented(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	h := newTestServer(t, store)

	rec := do(t, h, http.MethodPost, "/forms/eligibility/submissions",
		`{"responses":[{"_id":"resident","answer":"Yes"},{"_id":"age","answer":"15"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "submission_prevented", body["error"])
	assert.Equal(t, "block-minors", body["ruleId"])
	assert.Equal(t, "Applicants must be <b>18</b> or older.", body["message"])
	assert.Contains(t, body["notice"], "Applicants must be 18 or older.")
	assert.Empty(t, store.saved)
}

func TestSubmit_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		store  *memoryStore
		path   string
		body   string
		status int
	}{
		{"unknown form", &memoryStore{}, "/forms/nope/submissions", `{"responses":[]}`, http.StatusNotFound},
		{"schema violation", &memoryStore{}, "/forms/eligibility/submissions", `{"responses":[{"answer":"x"}]}`, http.StatusBadRequest},
		{"unknown field", &memoryStore{}, "/forms/eligibility/submissions", `{"responses":[{"_id":"ghost","answer":"x"}]}`, http.StatusBadRequest},
		{"store failure", &memoryStore{err: errors.New("boom")}, "/forms/eligibility/submissions", `{"responses":[{"_id":"notes","answer":"x"}]}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestServer(t, tc.store)
		rec := do(t, h, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, tc.status, rec.Code, "%s: %s", tc.name, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &memoryStore{})
	rec := do(t, h, http.MethodGet, "/forms/eligibility/submissions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

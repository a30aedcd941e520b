package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/submission"
)

// ErrNotFound is returned when a submission id is unknown.
var ErrNotFound = errors.New("store: submission not found")

var schemaQueries = []string{
	"create-submissions-table",
	"create-submissions-form-index",
	"create-responses-table",
}

// SubmissionStore saves submissions in the submissions and
// submission_responses tables.
type SubmissionStore struct {
	db *sqlx.DB
	q  *queries
}

var _ submission.Store = (*SubmissionStore)(nil)

// New wraps db. Call Migrate before first use on a fresh database.
func New(db *sqlx.DB) (*SubmissionStore, error) {
	if db == nil {
		return nil, errors.New("store: nil database")
	}
	q, err := loadQueries()
	if err != nil {
		return nil, err
	}
	return &SubmissionStore{db: db, q: q}, nil
}

// Migrate creates the tables when missing. It is safe to run repeatedly.
func (s *SubmissionStore) Migrate(ctx context.Context) error {
	for _, name := range schemaQueries {
		if _, err := s.q.exec(ctx, s.db, s.db, name); err != nil {
			return fmt.Errorf("store: migrate %s: %w", name, err)
		}
	}
	return nil
}

type submissionRow struct {
	ID        string    `db:"id"`
	FormID    string    `db:"form_id"`
	CreatedAt time.Time `db:"created_at"`
}

type responseRow struct {
	FieldID     string `db:"field_id"`
	FieldType   string `db:"field_type"`
	Question    string `db:"question"`
	Answer      string `db:"answer"`
	AnswerArray string `db:"answer_array"`
}

// Save writes the submission and its responses in one transaction.
func (s *SubmissionStore) Save(ctx context.Context, sub submission.Submission) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.q.exec(ctx, s.db, tx, "insert-submission", sub.ID.String(), sub.FormID, sub.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("store: insert submission %s: %w", sub.ID, err)
	}
	for pos, resp := range sub.Responses {
		values := resp.AnswerArray
		if values == nil {
			values = []string{}
		}
		encoded, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("store: encode answers for %s: %w", resp.ID, err)
		}
		if _, err := s.q.exec(ctx, s.db, tx, "insert-response",
			sub.ID.String(), pos, resp.ID, string(resp.FieldType), resp.Question, resp.Answer, string(encoded),
		); err != nil {
			return fmt.Errorf("store: insert response %s: %w", resp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Get loads a submission with its responses in their submitted order.
func (s *SubmissionStore) Get(ctx context.Context, id uuid.UUID) (submission.Submission, error) {
	var row submissionRow
	if err := s.q.get(ctx, s.db, "get-submission", &row, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Submission{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return submission.Submission{}, fmt.Errorf("store: get submission %s: %w", id, err)
	}

	var rows []responseRow
	if err := s.q.selectRows(ctx, s.db, "list-responses", &rows, id.String()); err != nil {
		return submission.Submission{}, fmt.Errorf("store: list responses %s: %w", id, err)
	}

	sub, err := row.toSubmission()
	if err != nil {
		return submission.Submission{}, err
	}
	for _, r := range rows {
		resp := submission.Response{
			ID:        r.FieldID,
			FieldType: logic.FieldType(r.FieldType),
			Question:  r.Question,
			Answer:    r.Answer,
		}
		var values []string
		if err := json.Unmarshal([]byte(r.AnswerArray), &values); err != nil {
			return submission.Submission{}, fmt.Errorf("store: decode answers for %s: %w", r.FieldID, err)
		}
		if len(values) > 0 {
			resp.AnswerArray = values
		}
		sub.Responses = append(sub.Responses, resp)
	}
	return sub, nil
}

// ListByForm returns the submissions of a form, oldest first, without their
// responses.
func (s *SubmissionStore) ListByForm(ctx context.Context, formID string) ([]submission.Submission, error) {
	var rows []submissionRow
	if err := s.q.selectRows(ctx, s.db, "list-submissions-by-form", &rows, formID); err != nil {
		return nil, fmt.Errorf("store: list submissions for %s: %w", formID, err)
	}
	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := row.toSubmission()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// CountByForm returns the number of stored submissions for a form.
func (s *SubmissionStore) CountByForm(ctx context.Context, formID string) (int, error) {
	var n int
	if err := s.q.get(ctx, s.db, "count-submissions-by-form", &n, formID); err != nil {
		return 0, fmt.Errorf("store: count submissions for %s: %w", formID, err)
	}
	return n, nil
}

func (r submissionRow) toSubmission() (submission.Submission, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("store: invalid submission id %q: %w", r.ID, err)
	}
	return submission.Submission{ID: id, FormID: r.FormID, CreatedAt: r.CreatedAt.UTC()}, nil
}

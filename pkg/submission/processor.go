package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	formlogic "github.com/goliatone/go-formlogic"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
)

// ErrSubmissionPrevented is wrapped by every *PreventedError.
var ErrSubmissionPrevented = errors.New("submission: prevented by form logic")

// DefaultPreventedMessage is reported when the blocking rule has no message.
const DefaultPreventedMessage = "Submission prevented by form logic"

// PreventedError reports the rule that blocked a submission.
type PreventedError struct {
	FormID string
	Rule   logic.Rule
}

// Message returns the rule message or DefaultPreventedMessage.
func (e *PreventedError) Message() string {
	if msg := strings.TrimSpace(e.Rule.Message); msg != "" {
		return msg
	}
	return DefaultPreventedMessage
}

func (e *PreventedError) Error() string {
	return fmt.Sprintf("submission: form %s blocked by rule %q: %s", e.FormID, e.Rule.ID, e.Message())
}

func (e *PreventedError) Unwrap() error { return ErrSubmissionPrevented }

// Submission is an accepted submission. Responses only include visible fields.
type Submission struct {
	ID        uuid.UUID
	FormID    string
	CreatedAt time.Time
	Responses []Response
}

// Store persists accepted submissions.
type Store interface {
	Save(ctx context.Context, sub Submission) error
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ID        uuid.UUID `json:"id"`
	FormID    string    `json:"formId"`
	CreatedAt time.Time `json:"createdAt"`
	// Dropped lists responses discarded because their field was hidden.
	Dropped []string `json:"dropped,omitempty"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides uuid.New.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Processor gates submissions on form logic before they reach the Store.
type Processor struct {
	store Store
	now   func() time.Time
	newID func() uuid.UUID
}

// NewProcessor returns a Processor saving accepted submissions to store.
func NewProcessor(store Store, opts ...Option) *Processor {
	p := &Processor{store: store, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Submit decodes responses, re-evaluates the form logic and saves the
// submission. A blocked submission returns a *PreventedError without touching
// the store. Responses for hidden fields are dropped before saving.
func (p *Processor) Submit(ctx context.Context, f form.Form, responses []Response) (Receipt, error) {
	answers, err := DecodeResponses(f, responses)
	if err != nil {
		return Receipt{}, err
	}

	result := formlogic.Evaluate(f.LogicFields(), f.Rules, answers)
	if result.Blocked() {
		return Receipt{}, &PreventedError{FormID: f.ID, Rule: *result.Blocking}
	}

	sub := Submission{
		ID:        p.newID(),
		FormID:    f.ID,
		CreatedAt: p.now().UTC(),
	}
	var dropped []string
	for _, resp := range responses {
		id := strings.TrimSpace(resp.ID)
		if !result.Visible.Has(id) {
			dropped = append(dropped, id)
			continue
		}
		resp.ID = id
		if field, ok := f.Field(id); ok {
			resp.FieldType = field.Type
		}
		sub.Responses = append(sub.Responses, resp)
	}

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if p.store == nil {
		return Receipt{}, errors.New("submission: no store configured")
	}
	if err := p.store.Save(ctx, sub); err != nil {
		return Receipt{}, fmt.Errorf("submission: save %s: %w", sub.ID, err)
	}

	return Receipt{ID: sub.ID, FormID: sub.FormID, CreatedAt: sub.CreatedAt, Dropped: dropped}, nil
}

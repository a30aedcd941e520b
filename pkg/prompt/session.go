package prompt

import (
	"context"
	"fmt"
	"math"
	"strings"

	formlogic "github.com/goliatone/go-formlogic"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/render"
)

// Option configures a Session.
type Option func(*Session)

// WithDriver replaces the survey backed terminal driver.
func WithDriver(d Driver) Option {
	return func(s *Session) {
		if d != nil {
			s.driver = d
		}
	}
}

// WithAnswers seeds the session with answers that are not asked again.
func WithAnswers(answers logic.Answers) Option {
	return func(s *Session) {
		for id, answer := range answers {
			s.seed[id] = answer
		}
	}
}

// WithDefaults offers answers as prompt defaults. Unlike WithAnswers the
// fields are still asked.
func WithDefaults(answers logic.Answers) Option {
	return func(s *Session) {
		for id, answer := range answers {
			s.defaults[id] = answer
		}
	}
}

// choicePageSize is the number of options shown at once in select prompts.
const choicePageSize = 10

// Session walks a respondent through one form.
type Session struct {
	form     form.Form
	driver   Driver
	seed     logic.Answers
	defaults logic.Answers
}

// NewSession builds a session for f.
func NewSession(f form.Form, opts ...Option) *Session {
	s := &Session{
		form:     f,
		seed:     logic.Answers{},
		defaults: logic.Answers{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// Run asks every visible field once and returns the final evaluation. It stops
// early when a prevent-submission rule blocks the form, after printing the
// rule's notice. Result.Filtered holds the answers that would be submitted.
func (s *Session) Run(ctx context.Context) (formlogic.Result, error) {
	fields := s.form.LogicFields()
	answers := make(logic.Answers, len(s.seed))
	asked := make(map[string]bool, len(s.form.Fields))
	for id, answer := range s.seed {
		answers[id] = answer
		asked[id] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return formlogic.Result{}, err
		}
		result := formlogic.Evaluate(fields, s.form.Rules, answers)
		if result.Blocked() {
			if err := s.driver.Info(ctx, blockedNotice(*result.Blocking)); err != nil {
				return result, err
			}
			return result, nil
		}

		field, ok := s.next(result, asked)
		if !ok {
			return result, nil
		}
		asked[field.ID] = true

		answer, err := s.ask(ctx, field)
		if err != nil {
			return result, fmt.Errorf("prompt: field %s: %w", field.ID, err)
		}
		if !answer.Empty() {
			answers[field.ID] = answer
		}
	}
}

// next returns the first visible field in catalog order not asked yet.
func (s *Session) next(result formlogic.Result, asked map[string]bool) (form.Field, bool) {
	for _, field := range s.form.Fields {
		if asked[field.ID] || !result.Visible.Has(field.ID) {
			continue
		}
		return field, true
	}
	return form.Field{}, false
}

func (s *Session) ask(ctx context.Context, field form.Field) (logic.Answer, error) {
	message := label(field)
	fallback := s.defaults[field.ID].Value()
	switch field.Type {
	case logic.FieldSection, logic.FieldStatement, logic.FieldImage:
		return logic.Answer{}, s.driver.Info(ctx, message)
	case logic.FieldAttachment, logic.FieldTable, logic.FieldChildren:
		return logic.Answer{}, s.driver.Info(ctx, message+" (not supported in the terminal, skipped)")
	case logic.FieldYesNo:
		yes, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: strings.EqualFold(fallback, "Yes"),
			Help:    field.Description,
		})
		if err != nil {
			return logic.Answer{}, err
		}
		if yes {
			return logic.Plain("Yes"), nil
		}
		return logic.Plain("No"), nil
	case logic.FieldDropdown:
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:  message,
			Options:  field.Options,
			Help:     field.Description,
			PageSize: choicePageSize,
		})
		if err != nil || idx < 0 || idx >= len(field.Options) {
			return logic.Answer{}, err
		}
		return logic.Plain(field.Options[idx]), nil
	case logic.FieldRadio:
		return s.askRadio(ctx, field, message)
	case logic.FieldCheckbox:
		return s.askCheckbox(ctx, field, message)
	case logic.FieldNumber, logic.FieldDecimal, logic.FieldRating:
		text, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   fallback,
			Help:      field.Description,
			Validator: numberValidator(field.Required),
		})
		if err != nil {
			return logic.Answer{}, err
		}
		return logic.Plain(text), nil
	case logic.FieldLongText:
		text, err := s.driver.TextArea(ctx, TextAreaConfig{
			Message:   message,
			Default:   fallback,
			Help:      field.Description,
			Validator: requiredValidator(field.Required),
		})
		if err != nil {
			return logic.Answer{}, err
		}
		return logic.Plain(text), nil
	default:
		text, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   fallback,
			Help:      field.Description,
			Validator: requiredValidator(field.Required),
		})
		if err != nil {
			return logic.Answer{}, err
		}
		return logic.Plain(text), nil
	}
}

func (s *Session) askRadio(ctx context.Context, field form.Field, message string) (logic.Answer, error) {
	options := choiceOptions(field)
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:  message,
		Options:  options,
		Help:     field.Description,
		PageSize: choicePageSize,
	})
	if err != nil || idx < 0 || idx >= len(options) {
		return logic.Answer{}, err
	}
	if field.AllowOthers && idx == len(field.Options) {
		text, err := s.askOthers(ctx, field)
		if err != nil {
			return logic.Answer{}, err
		}
		return logic.RadioOther(logic.RadioOthersValue, text), nil
	}
	return logic.Plain(options[idx]), nil
}

func (s *Session) askCheckbox(ctx context.Context, field form.Field, message string) (logic.Answer, error) {
	options := choiceOptions(field)
	picked, err := s.driver.MultiSelect(ctx, SelectConfig{
		Message:  message,
		Options:  options,
		Help:     field.Description,
		PageSize: choicePageSize,
		Required: field.Required,
	})
	if err != nil {
		return logic.Answer{}, err
	}
	selections := make([]string, 0, len(picked))
	var other string
	for _, idx := range picked {
		if idx < 0 || idx >= len(options) {
			continue
		}
		if field.AllowOthers && idx == len(field.Options) {
			if other, err = s.askOthers(ctx, field); err != nil {
				return logic.Answer{}, err
			}
			selections = append(selections, logic.CheckboxOthersValue)
			continue
		}
		selections = append(selections, options[idx])
	}
	if len(selections) == 0 {
		return logic.Answer{}, nil
	}
	return logic.CheckboxOther(selections, other), nil
}

func (s *Session) askOthers(ctx context.Context, field form.Field) (string, error) {
	return s.driver.Input(ctx, InputConfig{
		Message:   label(field) + " (please specify)",
		Validator: requiredValidator(true),
	})
}

func choiceOptions(field form.Field) []string {
	options := append([]string(nil), field.Options...)
	if field.AllowOthers {
		options = append(options, logic.OthersOption)
	}
	return options
}

func label(field form.Field) string {
	if title := strings.TrimSpace(field.Title); title != "" {
		return title
	}
	return field.ID
}

func blockedNotice(rule logic.Rule) string {
	return render.DefaultNoticeTitle + ": " + render.NoticeMessage(rule)
}

func requiredValidator(required bool) func(string) error {
	if !required {
		return nil
	}
	return func(text string) error {
		if strings.TrimSpace(text) == "" {
			return ErrRequired
		}
		return nil
	}
}

func numberValidator(required bool) func(string) error {
	return func(text string) error {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			if required {
				return ErrRequired
			}
			return nil
		}
		if math.IsNaN(logic.ParseNumber(trimmed)) {
			return fmt.Errorf("prompt: %q is not a number", trimmed)
		}
		return nil
	}
}

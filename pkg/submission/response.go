package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
)

// ErrInvalidResponse marks responses that do not fit the form.
var ErrInvalidResponse = errors.New("submission: invalid response")

// Response is one submitted answer as sent by clients. Multi-value fields use
// AnswerArray; an "Others" choice is sent as "Others: <text>".
type Response struct {
	ID          string          `json:"_id"`
	FieldType   logic.FieldType `json:"fieldType,omitempty"`
	Question    string          `json:"question,omitempty"`
	Answer      string          `json:"answer,omitempty"`
	AnswerArray []string        `json:"answerArray,omitempty"`
}

// DecodeResponses converts responses into answers keyed by field id. Unknown
// fields, duplicates and field type mismatches are rejected with
// ErrInvalidResponse.
func DecodeResponses(f form.Form, responses []Response) (logic.Answers, error) {
	answers := make(logic.Answers, len(responses))
	for i, resp := range responses {
		id := strings.TrimSpace(resp.ID)
		field, ok := f.Field(id)
		if !ok {
			return nil, fmt.Errorf("%w: response %d references unknown field %q", ErrInvalidResponse, i, id)
		}
		if _, dup := answers[id]; dup {
			return nil, fmt.Errorf("%w: duplicate response for field %q", ErrInvalidResponse, id)
		}
		if resp.FieldType != "" && resp.FieldType != field.Type {
			return nil, fmt.Errorf("%w: field %q is %s, response says %s", ErrInvalidResponse, id, field.Type, resp.FieldType)
		}
		answers[id] = decodeAnswer(field, resp)
	}
	return answers, nil
}

func decodeAnswer(field form.Field, resp Response) logic.Answer {
	switch field.Type {
	case logic.FieldCheckbox:
		values := resp.AnswerArray
		if len(values) == 0 && strings.TrimSpace(resp.Answer) != "" {
			values = []string{resp.Answer}
		}
		selections := make([]string, 0, len(values))
		var other string
		for _, v := range values {
			if text, ok := othersText(v); ok {
				selections = append(selections, logic.CheckboxOthersValue)
				other = text
				continue
			}
			selections = append(selections, v)
		}
		return logic.CheckboxOther(selections, other)
	case logic.FieldRadio:
		if text, ok := othersText(resp.Answer); ok {
			return logic.RadioOther(logic.RadioOthersValue, text)
		}
		return logic.Plain(resp.Answer)
	}
	if len(resp.AnswerArray) > 0 {
		return logic.PlainList(resp.AnswerArray...)
	}
	return logic.Plain(resp.Answer)
}

func othersText(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, logic.OthersPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, logic.OthersPrefix)), true
}

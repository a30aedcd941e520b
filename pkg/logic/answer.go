package logic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved selections marking that the respondent picked the free-text
// "Others" option instead of a listed one. They never collide with real
// option labels.
const (
	RadioOthersValue    = "!!FORMSG_INTERNAL_RADIO_OTHERS_VALUE!!"
	CheckboxOthersValue = "!!FORMSG_INTERNAL_CHECKBOX_OTHERS_VALUE!!"
)

// OthersOption is the comparison literal that matches a free-text "Others"
// selection.
const OthersOption = "Others"

// AnswerKind discriminates the answer shapes.
type AnswerKind int

// Answer shapes. AnswerNone is the zero value and means nothing was entered.
const (
	AnswerNone AnswerKind = iota
	AnswerPlain
	AnswerList
	AnswerRadioOther
)

// Answer is the current response for a single field.
type Answer struct {
	kind   AnswerKind
	value  string
	values []string
	other  string
}

// Answers maps field ids to their current answers.
type Answers map[string]Answer

// Plain wraps a single scalar answer (text, option label, number as text).
func Plain(value string) Answer { return Answer{kind: AnswerPlain, value: value} }

// Number wraps a numeric answer using the same text form as comparison values.
func Number(n float64) Answer { return Plain(FormatNumber(n)) }

// PlainList wraps a multi-select answer.
func PlainList(values ...string) Answer {
	return Answer{kind: AnswerList, values: append([]string(nil), values...)}
}

// CheckboxOther wraps a multi-select answer that may include
// CheckboxOthersValue alongside its free text.
func CheckboxOther(values []string, otherText string) Answer {
	return Answer{kind: AnswerList, values: append([]string(nil), values...), other: otherText}
}

// RadioOther wraps a single-choice answer with an optional free-text "Others"
// entry. selected is either an option label or RadioOthersValue.
func RadioOther(selected, otherText string) Answer {
	return Answer{kind: AnswerRadioOther, value: selected, other: otherText}
}

// Kind returns the answer shape.
func (a Answer) Kind() AnswerKind { return a.kind }

// Value returns the scalar answer, or the selected option for radio answers.
// The result is trimmed.
func (a Answer) Value() string { return strings.TrimSpace(a.value) }

// Values returns the trimmed selections of a list answer.
func (a Answer) Values() []string {
	if len(a.values) == 0 {
		return nil
	}
	out := make([]string, len(a.values))
	for i, v := range a.values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// OtherText returns the free text attached to an "Others" selection.
func (a Answer) OtherText() string { return strings.TrimSpace(a.other) }

// Empty reports whether no usable value was entered. An unanswered driver can
// never satisfy a condition.
func (a Answer) Empty() bool {
	switch a.kind {
	case AnswerPlain, AnswerRadioOther:
		return a.Value() == ""
	case AnswerList:
		return len(a.values) == 0
	default:
		return true
	}
}

// String renders the answer for display and logging.
func (a Answer) String() string {
	switch a.kind {
	case AnswerPlain:
		return a.Value()
	case AnswerList:
		values := a.Values()
		for i, v := range values {
			if v == CheckboxOthersValue {
				values[i] = "Others: " + a.other
			}
		}
		return strings.Join(values, ", ")
	case AnswerRadioOther:
		if a.Value() == RadioOthersValue {
			return "Others: " + a.other
		}
		return a.Value()
	default:
		return ""
	}
}

type radioPayload struct {
	Value       *json.RawMessage `json:"value"`
	OthersInput string           `json:"othersInput,omitempty"`
}

// MarshalJSON encodes answers in the client input shapes: a string, a list of
// strings, or {"value", "othersInput"} objects for "Others" capable fields.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerPlain:
		return json.Marshal(a.value)
	case AnswerList:
		values := a.values
		if values == nil {
			values = []string{}
		}
		if a.other == "" {
			return json.Marshal(values)
		}
		return json.Marshal(struct {
			Value       []string `json:"value"`
			OthersInput string   `json:"othersInput"`
		}{values, a.other})
	case AnswerRadioOther:
		return json.Marshal(struct {
			Value       string `json:"value"`
			OthersInput string `json:"othersInput,omitempty"`
		}{a.value, a.other})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the client input shapes produced by MarshalJSON plus
// bare numbers and booleans.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Answer{}
		return nil
	}

	switch trimmed[0] {
	case '{':
		var payload radioPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return fmt.Errorf("logic: decode answer: %w", err)
		}
		if payload.Value == nil {
			*a = RadioOther("", payload.OthersInput)
			return nil
		}
		var selected string
		if err := json.Unmarshal(*payload.Value, &selected); err == nil {
			*a = RadioOther(selected, payload.OthersInput)
			return nil
		}
		var selections []string
		if err := json.Unmarshal(*payload.Value, &selections); err != nil {
			return fmt.Errorf("logic: decode answer value: %w", err)
		}
		*a = CheckboxOther(selections, payload.OthersInput)
		return nil
	case '[':
		var raw []any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("logic: decode answer: %w", err)
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			values = append(values, scalarText(item))
		}
		*a = PlainList(values...)
		return nil
	default:
		var raw any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("logic: decode answer: %w", err)
		}
		*a = Plain(scalarText(raw))
		return nil
	}
}

func scalarText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		if n, ok := asFloat(raw); ok {
			return FormatNumber(n)
		}
		return fmt.Sprint(raw)
	}
}

package logic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator is a condition comparison. The string form is the wire value used
// by stored forms.
type Operator string

// Supported operators.
const (
	Equals         Operator = "is equals to"
	LessOrEqual    Operator = "is less than or equal to"
	GreaterOrEqual Operator = "is more than or equal to"
	IsEither       Operator = "is either"
)

var operatorAliases = map[string]Operator{
	string(Equals):         Equals,
	string(LessOrEqual):    LessOrEqual,
	string(GreaterOrEqual): GreaterOrEqual,
	string(IsEither):       IsEither,
	"==":                   Equals,
	"eq":                   Equals,
	"equals":               Equals,
	"<=":                   LessOrEqual,
	"lte":                  LessOrEqual,
	">=":                   GreaterOrEqual,
	"gte":                  GreaterOrEqual,
	"in":                   IsEither,
	"either":               IsEither,
}

// ParseOperator resolves a wire value or shorthand alias (==, <=, >=, in).
func ParseOperator(raw string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	return "", fmt.Errorf("logic: unknown operator %q", raw)
}

// Valid reports whether o is one of the four supported operators.
func (o Operator) Valid() bool {
	switch o {
	case Equals, LessOrEqual, GreaterOrEqual, IsEither:
		return true
	}
	return false
}

// Symbol returns the shorthand form used by the condition expression syntax.
func (o Operator) Symbol() string {
	switch o {
	case Equals:
		return "=="
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case IsEither:
		return "in"
	}
	return string(o)
}

// ValueKind discriminates the comparison value shapes.
type ValueKind int

// Comparison value shapes.
const (
	ValueString ValueKind = iota
	ValueNumber
	ValueStringList
	ValueNumberList
)

// Value is a condition's comparison value: a string, a number, or a list of
// either.
type Value struct {
	kind    ValueKind
	str     string
	num     float64
	strs    []string
	numbers []float64
}

// StringValue wraps a string comparison value.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue wraps a numeric comparison value.
func NumberValue(n float64) Value { return Value{kind: ValueNumber, num: n} }

// StringList wraps a list of string comparison values.
func StringList(values ...string) Value {
	return Value{kind: ValueStringList, strs: append([]string(nil), values...)}
}

// NumberList wraps a list of numeric comparison values.
func NumberList(values ...float64) Value {
	return Value{kind: ValueNumberList, numbers: append([]float64(nil), values...)}
}

// Kind returns the value shape.
func (v Value) Kind() ValueKind { return v.kind }

// IsList reports whether the value holds a list.
func (v Value) IsList() bool {
	return v.kind == ValueStringList || v.kind == ValueNumberList
}

// String renders a scalar value the way it is compared against answers:
// trimmed strings, and numbers in their shortest decimal form. Lists are
// joined with commas.
func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return FormatNumber(v.num)
	case ValueStringList, ValueNumberList:
		return strings.Join(v.Strings(), ",")
	default:
		return strings.TrimSpace(v.str)
	}
}

// Strings normalises the value into a list of trimmed strings. Scalars become
// a single-element list.
func (v Value) Strings() []string {
	switch v.kind {
	case ValueString:
		return []string{strings.TrimSpace(v.str)}
	case ValueNumber:
		return []string{FormatNumber(v.num)}
	case ValueStringList:
		out := make([]string, len(v.strs))
		for i, s := range v.strs {
			out[i] = strings.TrimSpace(s)
		}
		return out
	case ValueNumberList:
		out := make([]string, len(v.numbers))
		for i, n := range v.numbers {
			out[i] = FormatNumber(n)
		}
		return out
	}
	return nil
}

// Number converts a scalar value to a number. Lists and unparsable strings
// yield NaN, which fails every numeric comparison.
func (v Value) Number() float64 {
	switch v.kind {
	case ValueNumber:
		return v.num
	case ValueString:
		return ParseNumber(v.str)
	default:
		return math.NaN()
	}
}

// MarshalJSON encodes the value in its natural JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueStringList:
		if v.strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.strs)
	case ValueNumberList:
		if v.numbers == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.numbers)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON accepts a string, a number, or a homogeneous list of either.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("logic: decode condition value: %w", err)
	}
	parsed, err := ValueFrom(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueFrom converts a decoded JSON/YAML scalar or list into a Value. Mixed
// lists containing any string are treated as string lists.
func ValueFrom(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return StringValue(""), nil
	case string:
		return StringValue(typed), nil
	case bool:
		return StringValue(strconv.FormatBool(typed)), nil
	case []string:
		return StringList(typed...), nil
	case []float64:
		return NumberList(typed...), nil
	case []any:
		numbers := make([]float64, 0, len(typed))
		strs := make([]string, 0, len(typed))
		allNumbers := true
		for _, item := range typed {
			if n, ok := asFloat(item); ok {
				numbers = append(numbers, n)
				strs = append(strs, FormatNumber(n))
				continue
			}
			switch s := item.(type) {
			case string:
				allNumbers = false
				strs = append(strs, s)
			case bool:
				allNumbers = false
				strs = append(strs, strconv.FormatBool(s))
			default:
				return Value{}, fmt.Errorf("logic: unsupported list item %T in condition value", item)
			}
		}
		if allNumbers && len(numbers) > 0 {
			return NumberList(numbers...), nil
		}
		return StringList(strs...), nil
	default:
		if n, ok := asFloat(raw); ok {
			return NumberValue(n), nil
		}
		return Value{}, fmt.Errorf("logic: unsupported condition value %T", raw)
	}
}

func asFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Condition is one atomic comparison between a driver field's answer and a
// literal value.
type Condition struct {
	FieldID  string   `json:"field"`
	Operator Operator `json:"state"`
	Value    Value    `json:"value"`
}

// String renders the condition in shorthand form, e.g. `age >= 18`.
func (c Condition) String() string {
	switch c.Value.kind {
	case ValueStringList, ValueNumberList:
		parts := c.Value.Strings()
		quoted := make([]string, len(parts))
		for i, p := range parts {
			if c.Value.kind == ValueNumberList {
				quoted[i] = p
				continue
			}
			quoted[i] = strconv.Quote(p)
		}
		return fmt.Sprintf("%s %s [%s]", c.FieldID, c.Operator.Symbol(), strings.Join(quoted, ", "))
	case ValueNumber:
		return fmt.Sprintf("%s %s %s", c.FieldID, c.Operator.Symbol(), c.Value.String())
	default:
		return fmt.Sprintf("%s %s %s", c.FieldID, c.Operator.Symbol(), strconv.Quote(c.Value.String()))
	}
}

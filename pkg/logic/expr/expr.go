// Package expr parses the shorthand condition syntax used by form documents
// and the CLI into logic conditions.
//
// Supported forms:
//   - comparisons: `plan == "Pro"`, `age >= 18`, `score <= 99`
//   - membership: `colour in ["Red", "Blue"]`
//   - conjunction: `plan == "Pro" && age >= 18` (also `and`)
//
// Disjunction is deliberately absent: alternatives are expressed as separate
// rules, which the engine ORs together.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formlogic/pkg/logic"
)

// Parse converts a shorthand expression into AND-combined conditions. An
// empty expression yields no conditions.
func Parse(input string) ([]logic.Condition, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}

	stream := &tokenStream{tokens: tokens}
	var out []logic.Condition
	for {
		cond, err := parseCondition(stream)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
		if stream.done() {
			return out, nil
		}
		if !stream.match(tokenAnd) {
			return nil, fmt.Errorf("expr: expected '&&', got %q", stream.peek().raw)
		}
	}
}

// MustParse is Parse for fixtures and tests; it panics on error.
func MustParse(input string) []logic.Condition {
	conds, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return conds
}

// Format renders conditions back into shorthand form.
func Format(conds []logic.Condition) string {
	parts := make([]string, len(conds))
	for i, cond := range conds {
		parts[i] = cond.String()
	}
	return strings.Join(parts, " && ")
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenOperator
	tokenAnd
	tokenLBracket
	tokenRBracket
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '[':
			tokens = append(tokens, token{kind: tokenLBracket, raw: "["})
			i++
		case ch == ']':
			tokens = append(tokens, token{kind: tokenRBracket, raw: "]"})
			i++
		case ch == ',':
			tokens = append(tokens, token{kind: tokenComma, raw: ","})
			i++
		case ch == '=' || ch == '<' || ch == '>':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("expr: unexpected %q; use ==, <= or >=", string(ch))
			}
			tokens = append(tokens, token{kind: tokenOperator, raw: input[i : i+2]})
			i += 2
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errors.New("expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case ch == '|':
			return nil, errors.New("expr: '||' is not supported; add a separate rule instead")
		case ch == '"' || ch == '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch {
			case strings.EqualFold(raw, "and"):
				tokens = append(tokens, token{kind: tokenAnd, raw: raw})
			case strings.EqualFold(raw, "in"):
				tokens = append(tokens, token{kind: tokenOperator, raw: "in"})
			case looksLikeNumber(raw):
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			default:
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
			}
		}
	}

	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	i := start + 1
	escaped := false
	for i < len(input) {
		c := input[i]
		i++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == quote {
			body := input[start+1 : i-1]
			if quote == '\'' {
				return strings.ReplaceAll(body, `\'`, `'`), i, nil
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return "", 0, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			return value, i, nil
		}
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '[', ']', ',', '=', '<', '>', '&', '|', '"', '\'':
		return true
	}
	return false
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil && ((raw[0] >= '0' && raw[0] <= '9') || raw[0] == '-' || raw[0] == '+' || raw[0] == '.')
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) done() bool { return s.pos >= len(s.tokens) }

func (s *tokenStream) peek() token {
	if s.done() {
		return token{raw: "<end>"}
	}
	return s.tokens[s.pos]
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.done() || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.done() || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func parseCondition(stream *tokenStream) (logic.Condition, error) {
	field, ok := stream.consume(tokenIdentifier)
	if !ok {
		field, ok = stream.consume(tokenNumber)
	}
	if !ok {
		if stream.done() {
			return logic.Condition{}, errors.New("expr: expected field id, got end of expression")
		}
		return logic.Condition{}, fmt.Errorf("expr: expected field id, got %q", stream.peek().raw)
	}

	opTok, ok := stream.consume(tokenOperator)
	if !ok {
		return logic.Condition{}, fmt.Errorf("expr: expected operator after %q", field.raw)
	}
	op, err := logic.ParseOperator(opTok.raw)
	if err != nil {
		return logic.Condition{}, err
	}

	var value logic.Value
	if op == logic.IsEither {
		value, err = parseList(stream)
	} else {
		value, err = parseScalar(stream)
	}
	if err != nil {
		return logic.Condition{}, err
	}

	return logic.Condition{FieldID: field.raw, Operator: op, Value: value}, nil
}

func parseScalar(stream *tokenStream) (logic.Value, error) {
	if stream.done() {
		return logic.Value{}, errors.New("expr: missing value")
	}
	tok := stream.tokens[stream.pos]
	stream.pos++
	switch tok.kind {
	case tokenString, tokenIdentifier:
		// Bare words are treated as strings so `answer == Yes` works.
		return logic.StringValue(tok.raw), nil
	case tokenNumber:
		n, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return logic.Value{}, fmt.Errorf("expr: invalid number %q", tok.raw)
		}
		return logic.NumberValue(n), nil
	default:
		return logic.Value{}, fmt.Errorf("expr: expected value, got %q", tok.raw)
	}
}

func parseList(stream *tokenStream) (logic.Value, error) {
	if !stream.match(tokenLBracket) {
		// A scalar after `in` is normalised to a one-element list.
		scalar, err := parseScalar(stream)
		if err != nil {
			return logic.Value{}, err
		}
		if scalar.Kind() == logic.ValueNumber {
			return logic.NumberList(scalar.Number()), nil
		}
		return logic.StringList(scalar.String()), nil
	}

	var items []logic.Value
	for !stream.match(tokenRBracket) {
		if len(items) > 0 && !stream.match(tokenComma) {
			return logic.Value{}, fmt.Errorf("expr: expected ',' or ']', got %q", stream.peek().raw)
		}
		item, err := parseScalar(stream)
		if err != nil {
			return logic.Value{}, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return logic.Value{}, errors.New("expr: empty list")
	}

	numbers := make([]float64, 0, len(items))
	strs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind() == logic.ValueNumber {
			numbers = append(numbers, item.Number())
		}
		strs = append(strs, item.String())
	}
	if len(numbers) == len(items) {
		return logic.NumberList(numbers...), nil
	}
	return logic.StringList(strs...), nil
}

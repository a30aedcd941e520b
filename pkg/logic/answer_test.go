package logic_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formlogic/pkg/logic"
)

func TestAnswerUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var answers logic.Answers
	raw := `{
		"text": " hello ",
		"num": 4.5,
		"flag": true,
		"multi": ["A", 2],
		"radio": {"value": "!!FORMSG_INTERNAL_RADIO_OTHERS_VALUE!!", "othersInput": "custom"},
		"boxes": {"value": ["A", "!!FORMSG_INTERNAL_CHECKBOX_OTHERS_VALUE!!"], "othersInput": "extra"},
		"blank": null
	}`
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := answers["text"]; got.Kind() != logic.AnswerPlain || got.Value() != "hello" {
		t.Fatalf("text: %#v", got)
	}
	if got := answers["num"].Value(); got != "4.5" {
		t.Fatalf("num: %q", got)
	}
	if got := answers["flag"].Value(); got != "true" {
		t.Fatalf("flag: %q", got)
	}
	if diff := cmp.Diff([]string{"A", "2"}, answers["multi"].Values()); diff != "" {
		t.Fatalf("multi mismatch (-want +got):\n%s", diff)
	}
	radio := answers["radio"]
	if radio.Kind() != logic.AnswerRadioOther || radio.Value() != logic.RadioOthersValue || radio.OtherText() != "custom" {
		t.Fatalf("radio: %#v", radio)
	}
	if got := radio.String(); got != "Others: custom" {
		t.Fatalf("radio display: %q", got)
	}
	boxes := answers["boxes"]
	if boxes.Kind() != logic.AnswerList || boxes.OtherText() != "extra" {
		t.Fatalf("boxes: %#v", boxes)
	}
	if got := boxes.String(); got != "A, Others: extra" {
		t.Fatalf("boxes display: %q", got)
	}
	if !answers["blank"].Empty() {
		t.Fatalf("null answer should be empty")
	}
}

func TestAnswerMarshalJSON(t *testing.T) {
	t.Parallel()

	answers := logic.Answers{
		"a": logic.Plain("x"),
		"b": logic.PlainList("1", "2"),
		"c": logic.RadioOther(logic.RadioOthersValue, "mine"),
		"d": {},
	}
	out, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"a":"x","b":["1","2"],"c":{"value":"!!FORMSG_INTERNAL_RADIO_OTHERS_VALUE!!","othersInput":"mine"},"d":null}`
	if string(out) != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}
}

func TestValueFrom(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     any
		kind    logic.ValueKind
		strings []string
	}{
		{"Yes", logic.ValueString, []string{"Yes"}},
		{float64(3), logic.ValueNumber, []string{"3"}},
		{[]any{"A", "B"}, logic.ValueStringList, []string{"A", "B"}},
		{[]any{float64(1), 2.5}, logic.ValueNumberList, []string{"1", "2.5"}},
		{[]any{float64(1), "B"}, logic.ValueStringList, []string{"1", "B"}},
		{true, logic.ValueString, []string{"true"}},
	}
	for _, tc := range cases {
		v, err := logic.ValueFrom(tc.raw)
		if err != nil {
			t.Fatalf("ValueFrom(%v): %v", tc.raw, err)
		}
		if v.Kind() != tc.kind {
			t.Fatalf("ValueFrom(%v) kind = %v, want %v", tc.raw, v.Kind(), tc.kind)
		}
		if diff := cmp.Diff(tc.strings, v.Strings()); diff != "" {
			t.Fatalf("ValueFrom(%v) strings mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}

	if _, err := logic.ValueFrom(map[string]any{}); err == nil {
		t.Fatalf("expected error for object value")
	}
}

func TestNumberHelpers(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	parseCases := []struct {
		raw  string
		want float64
	}{
		{raw: " 12 ", want: 12},
		{raw: "", want: 0},
		{raw: "   ", want: 0},
		{raw: "twelve", want: nan},
		{raw: "-3.25", want: -3.25},
		{raw: "+7", want: 7},
		{raw: ".5", want: 0.5},
		{raw: "5.", want: 5},
		{raw: "2e3", want: 2000},
		{raw: "2E-1", want: 0.2},
		{raw: "1e400", want: math.Inf(1)},
		{raw: "-1e400", want: math.Inf(-1)},
		{raw: "Infinity", want: math.Inf(1)},
		{raw: "+Infinity", want: math.Inf(1)},
		{raw: "-Infinity", want: math.Inf(-1)},
		{raw: "0x10", want: 16},
		{raw: "0XfF", want: 255},
		{raw: "0o17", want: 15},
		{raw: "0b101", want: 5},
		{raw: "inf", want: nan},
		{raw: "infinity", want: nan},
		{raw: "NaN", want: nan},
		{raw: "0x1p4", want: nan},
		{raw: "-0x10", want: nan},
		{raw: "0x", want: nan},
		{raw: "0b2", want: nan},
		{raw: "1_000", want: nan},
		{raw: "1e", want: nan},
		{raw: ".", want: nan},
		{raw: "1 2", want: nan},
	}
	for _, tc := range parseCases {
		got := logic.ParseNumber(tc.raw)
		if math.IsNaN(tc.want) {
			if !math.IsNaN(got) {
				t.Fatalf("ParseNumber(%q) = %v, want NaN", tc.raw, got)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseNumber(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}

	formatCases := []struct {
		n    float64
		want string
	}{
		{n: 0, want: "0"},
		{n: math.Copysign(0, -1), want: "0"},
		{n: 1.5, want: "1.5"},
		{n: -42, want: "-42"},
		{n: 0.1, want: "0.1"},
		{n: 0.000001, want: "0.000001"},
		{n: 1e-7, want: "1e-7"},
		{n: 1.23e-18, want: "1.23e-18"},
		{n: 1e20, want: "100000000000000000000"},
		{n: 1e21, want: "1e+21"},
		{n: -1.5e300, want: "-1.5e+300"},
		{n: 123456.789, want: "123456.789"},
		{n: math.NaN(), want: "NaN"},
		{n: math.Inf(1), want: "Infinity"},
		{n: math.Inf(-1), want: "-Infinity"},
	}
	for _, tc := range formatCases {
		if got := logic.FormatNumber(tc.n); got != tc.want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", tc.n, got, tc.want)
		}
	}

	if got := logic.ParseNumber(logic.FormatNumber(1e21)); got != 1e21 {
		t.Fatalf("exponent form should parse back, got %v", got)
	}
	if got := logic.StringList("a").Number(); !math.IsNaN(got) {
		t.Fatalf("lists have no numeric value")
	}
}

func TestParseOperator(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]logic.Operator{
		"is equals to":             logic.Equals,
		"==":                       logic.Equals,
		" IS EITHER ":              logic.IsEither,
		"is less than or equal to": logic.LessOrEqual,
		">=":                       logic.GreaterOrEqual,
	} {
		got, err := logic.ParseOperator(raw)
		if err != nil || got != want {
			t.Fatalf("ParseOperator(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := logic.ParseOperator("contains"); err == nil {
		t.Fatalf("expected error")
	}
}

package form_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/logic/expr"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

func TestParse_JSONDocument(t *testing.T) {
	t.Parallel()

	f, err := form.Parse(readFixture(t, "forms/eligibility.json"), "eligibility.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.ID != "eligibility" || f.Title != "Grant eligibility" {
		t.Fatalf("unexpected header: %q %q", f.ID, f.Title)
	}

	wantFields := []logic.Field{
		{ID: "resident", Type: logic.FieldYesNo},
		{ID: "age", Type: logic.FieldNumber},
		{ID: "scheme", Type: logic.FieldRadio},
		{ID: "household", Type: logic.FieldShortText},
		{ID: "notes", Type: logic.FieldLongText},
	}
	if diff := cmp.Diff(wantFields, f.LogicFields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	scheme, ok := f.Field("scheme")
	if !ok || !scheme.AllowOthers {
		t.Fatalf("expected scheme to allow others: %#v", scheme)
	}

	if got := len(f.Rules); got != 3 {
		t.Fatalf("expected 3 rules, got %d", got)
	}
	if got := expr.Format(f.Rules[1].Conditions); got != "age >= 18" {
		t.Fatalf("unexpected show-scheme conditions: %s", got)
	}
	block := f.Rules[2]
	if block.Kind != logic.PreventSubmit || block.Message != "Applicants must be 18 or older." {
		t.Fatalf("unexpected prevent rule: %#v", block)
	}
}

func TestParse_YAMLWithShorthand(t *testing.T) {
	t.Parallel()

	f, err := form.Parse(readFixture(t, "forms/survey.yaml"), "survey.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.ID != "" {
		t.Fatalf("expected empty id before loading, got %q", f.ID)
	}

	askWhy := f.Rules[0]
	if got := expr.Format(askWhy.Conditions); got != `colour in ["Red", "Blue"] && rating >= 4` {
		t.Fatalf("unexpected shorthand conditions: %s", got)
	}
	if diff := cmp.Diff([]string{"why"}, askWhy.Show); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	noZig := f.Rules[1]
	if got := noZig.Conditions[0].Value.Strings(); !cmp.Equal(got, []string{"Zig"}) {
		t.Fatalf("unexpected list value: %v", got)
	}
}

func TestParse_SchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := form.Parse(readFixture(t, "invalid_logic.json"), "invalid_logic.json")
	if err == nil {
		t.Fatalf("expected schema error")
	}
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(verr.Issues) == 0 {
		t.Fatalf("expected at least one issue")
	}
	if !strings.Contains(verr.Issues[0].Path, "form_logics") {
		t.Fatalf("issue should point at form_logics, got %#v", verr.Issues)
	}
}

func TestParse_Rejections(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		doc  string
		want string
	}{
		"empty": {
			doc:  "   ",
			want: "is empty",
		},
		"not a document": {
			doc:  "{[",
			want: "invalid JSON or YAML",
		},
		"unknown field type": {
			doc:  `{"form_fields":[{"_id":"a","fieldType":"slider"}]}`,
			want: `unknown field type "slider"`,
		},
		"duplicate field": {
			doc:  `{"form_fields":[{"_id":"a","fieldType":"yes_no"},{"_id":"a","fieldType":"number"}]}`,
			want: `duplicate field id "a"`,
		},
		"unknown operator": {
			doc: `{"form_fields":[{"_id":"a","fieldType":"number"}],
			       "form_logics":[{"_id":"r","logicType":"showFields","show":["a"],
			         "conditions":[{"field":"a","state":"is greater than","value":1}]}]}`,
			want: `unknown operator "is greater than"`,
		},
		"show without targets": {
			doc: `{"form_fields":[{"_id":"a","fieldType":"number"}],
			       "form_logics":[{"_id":"r","logicType":"showFields","when":"a >= 1"}]}`,
			want: "no targets",
		},
		"bad shorthand": {
			doc: `{"form_fields":[{"_id":"a","fieldType":"number"}],
			       "form_logics":[{"_id":"r","logicType":"showFields","show":["a"],"when":"a >= 1 || a <= 0"}]}`,
			want: "'||' is not supported",
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := form.Parse([]byte(tc.doc), name)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestParse_KeepsRulesWithMissingFields(t *testing.T) {
	t.Parallel()

	doc := `{"form_fields":[{"_id":"a","fieldType":"yes_no"}],
	         "form_logics":[{"_id":"ghost","logicType":"showFields","show":["a"],"when":"gone == Yes"}]}`
	f, err := form.Parse([]byte(doc), "ghost.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Rules) != 1 {
		t.Fatalf("rule referencing a missing field should be kept for diagnostics")
	}
	if missing := f.Rules[0].MissingFields(logic.IndexFields(f.LogicFields())); !cmp.Equal(missing, []string{"gone"}) {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	store, err := form.LoadFS(os.DirFS("testdata/forms"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"eligibility", "survey"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	survey, ok := store.Form("survey")
	if !ok {
		t.Fatalf("survey form missing")
	}
	if survey.Source != "survey.yaml" {
		t.Fatalf("unexpected source %q", survey.Source)
	}

	if _, err := store.Lookup("missing"); !errors.Is(err, form.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestLoadFS_NilAndIgnoredFiles(t *testing.T) {
	t.Parallel()

	store, err := form.LoadFS(nil)
	if err != nil || store.Len() != 0 {
		t.Fatalf("nil filesystem should yield an empty store: %v", err)
	}

	fsys := fstest.MapFS{
		"README.md":  {Data: []byte("# forms")},
		"a/one.json": {Data: []byte(`{"_id":"one","form_fields":[]}`)},
	}
	store, err = form.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"one"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFS_DuplicateIDs(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"one.json": {Data: []byte(`{"_id":"same","form_fields":[]}`)},
		"two.yaml": {Data: []byte("_id: same\nform_fields: []\n")},
	}
	if _, err := form.LoadFS(fsys); err == nil || !strings.Contains(err.Error(), `duplicate form "same"`) {
		t.Fatalf("expected duplicate form error, got %v", err)
	}
}

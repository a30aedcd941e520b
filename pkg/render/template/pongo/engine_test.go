package pongo_test

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-formlogic/pkg/render/template/pongo"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestPongoEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := captureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "hello", result, written)

	again, err := engine.RenderTemplate("hello.tpl", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render with extension: %v", err)
	}
	if again != result {
		t.Fatalf("explicit extension mismatch\nwant: %q\n got: %q", result, again)
	}
}

func TestPongoEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobalData(map[string]any{" title ": "Closed"}))
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := captureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})
	assertGolden(t, "use-global", result, written)

	override, err := engine.RenderTemplate("use-global", map[string]any{"title": "Open"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "env=staging title=Open"; override != want {
		t.Fatalf("render data should win over globals\nwant: %q\n got: %q", want, override)
	}
}

func TestPongoEngine_TrimFilter(t *testing.T) {
	engine := newEngine(t)

	result, written := captureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"name": "  Ada & Bob \n"}, w)
	})
	assertGolden(t, "use-filter", result, written)

	empty, err := engine.RenderTemplate("use-filter", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if empty != "[]" {
		t.Fatalf("trim of a missing value = %q", empty)
	}
}

func TestPongoEngine_StructData(t *testing.T) {
	engine := newEngine(t)

	data := struct {
		RuleID  string `json:"rule_id"`
		Message string `json:"message"`
	}{RuleID: "r1", Message: "a < b"}

	result, written := captureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("struct-data", data, w)
	})
	assertGolden(t, "struct-data", result, written)

	if _, err := engine.RenderTemplate("struct-data", []string{"not", "an", "object"}); err == nil {
		t.Fatal("expected error for non-object data")
	}
}

func TestPongoEngine_BaseDirOverridesFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.tpl"), []byte("Hi {{ name }} from disk"), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	engine := newEngine(t, pongo.WithBaseDir(dir))

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "Hi Ada from disk"; got != want {
		t.Fatalf("disk template should win\nwant: %q\n got: %q", want, got)
	}

	filtered, err := engine.RenderTemplate("use-filter", map[string]any{"name": " x "})
	if err != nil {
		t.Fatalf("fallback render: %v", err)
	}
	if filtered != "[x]" {
		t.Fatalf("embedded fallback = %q", filtered)
	}
}

func TestPongoEngine_Errors(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatal("expected error without a template source")
	}
	if _, err := pongo.New(pongo.WithBaseDir(filepath.Join(t.TempDir(), "missing"))); err == nil {
		t.Fatal("expected error for a missing base dir")
	}

	engine := newEngine(t)
	if _, err := engine.RenderTemplate("unknown", nil); err == nil {
		t.Fatal("expected error for an unknown template")
	}

	var nilEngine *pongo.Engine
	if _, err := nilEngine.RenderTemplate("hello", nil); err == nil {
		t.Fatal("expected error for a nil engine")
	}
	if err := nilEngine.GlobalContext(map[string]any{}); err == nil {
		t.Fatal("expected error for a nil engine")
	}
}

func TestPongoEngine_ConcurrentConstruction(t *testing.T) {
	templatesFS := templatesFS(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine, err := pongo.New(pongo.WithFS(templatesFS))
			if err != nil {
				errs <- err
				return
			}
			if _, err := engine.RenderTemplate("use-filter", map[string]any{"name": " x "}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent engine: %v", err)
	}
}

func newEngine(t *testing.T, opts ...pongo.Option) *pongo.Engine {
	t.Helper()

	engine, err := pongo.New(append([]pongo.Option{pongo.WithFS(templatesFS(t))}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func templatesFS(t *testing.T) fs.FS {
	t.Helper()

	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return sub
}

func captureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("testdata", name+".golden"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	want := string(raw)
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

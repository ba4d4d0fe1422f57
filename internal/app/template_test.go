package app

import (
	"fmt"
	"io/fs"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Kevin-Kurka/webstarter/web"
)

// testFS returns an in-memory filesystem suitable for testing template rendering.
// It mirrors the expected web/templates/ directory layout with a base layout,
// a partial, and two page templates (user and error).
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(
				`{{ define "base" }}<!DOCTYPE html><html>` +
					`<head><title>{{ block "title" . }}Default{{ end }}</title></head>` +
					`<body>{{ block "nav" . }}{{ end }}{{ block "content" . }}{{ end }}</body>` +
					`</html>{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}<nav>Navigation</nav>{{ end }}`),
		},
		"templates/user/list.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Users{{ end }}` +
					`{{ define "content" }}<h1>User List</h1>{{ template "nav" . }}{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Not Found{{ end }}` +
					`{{ define "content" }}<h1>404 Not Found</h1>{{ end }}`),
		},
	}
}

// testFSWithFuncs returns a test filesystem that uses the template helpers
// (formatDate, add, sub, seq) in the page template.
func testFSWithFuncs() fstest.MapFS {
	base := testFS()
	base["templates/functest/page.html"] = &fstest.MapFile{
		Data: []byte(
			`{{ template "base" . }}` +
				`{{ define "content" }}` +
				`date:{{ formatDate .Date }}|` +
				`add:{{ add 3 4 }}|` +
				`sub:{{ sub 10 3 }}|` +
				`seq:{{ range seq 1 3 }}{{ . }}{{ end }}` +
				`{{ end }}`),
	}
	return base
}

// ---------------------------------------------------------------------------
// Template function tests
// ---------------------------------------------------------------------------

func TestTemplateFuncMap(t *testing.T) {
	fm := templateFuncMap()

	t.Run("formatDate", func(t *testing.T) {
		fn := fm["formatDate"].(func(time.Time) string)
		d := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
		got := fn(d)
		want := "2024-03-15 14:30:00"
		if got != want {
			t.Errorf("formatDate() = %q; want %q", got, want)
		}
	})

	t.Run("add", func(t *testing.T) {
		fn := fm["add"].(func(int, int) int)
		if got := fn(3, 4); got != 7 {
			t.Errorf("add(3,4) = %d; want 7", got)
		}
	})

	t.Run("sub", func(t *testing.T) {
		fn := fm["sub"].(func(int, int) int)
		if got := fn(10, 3); got != 7 {
			t.Errorf("sub(10,3) = %d; want 7", got)
		}
	})

	t.Run("seq", func(t *testing.T) {
		fn := fm["seq"].(func(int, int) []int)

		got := fn(1, 5)
		want := []int{1, 2, 3, 4, 5}
		if len(got) != len(want) {
			t.Fatalf("seq(1,5) len = %d; want %d", len(got), len(want))
		}
		for i, v := range got {
			if v != want[i] {
				t.Errorf("seq(1,5)[%d] = %d; want %d", i, v, want[i])
			}
		}

		if got := fn(5, 1); got != nil {
			t.Errorf("seq(5,1) = %v; want nil", got)
		}
	})
}

// ---------------------------------------------------------------------------
// NewTemplateRenderer tests
// ---------------------------------------------------------------------------

func TestNewTemplateRenderer_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.debug {
		t.Error("expected debug=false")
	}
	if r.templates == nil {
		t.Fatal("templates map should be initialized in release mode")
	}
	if _, ok := r.templates["user/list.html"]; !ok {
		t.Error("expected template 'user/list.html' to be loaded")
	}
	if _, ok := r.templates["errors/404.html"]; !ok {
		t.Error("expected template 'errors/404.html' to be loaded")
	}
}

func TestNewTemplateRenderer_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if !r.debug {
		t.Error("expected debug=true")
	}
	if r.templates != nil {
		t.Error("templates should be nil in debug mode (parsed on each request)")
	}
}

func TestNewTemplateRenderer_InvalidTemplate(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ end }}`),
		},
		"templates/bad/page.html": &fstest.MapFile{
			Data: []byte(`{{ invalid_syntax `),
		},
	}
	_, err := NewTemplateRenderer(badFS, false)
	if err == nil {
		t.Fatal("expected error for invalid template syntax")
	}
}

// ---------------------------------------------------------------------------
// Instance + Render tests
// ---------------------------------------------------------------------------

func TestTemplateRenderer_Instance_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("user/list.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Users</title>",
		"<h1>User List</h1>",
		"<nav>Navigation</nav>",
		"<!DOCTYPE html>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateRenderer_Instance_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("errors/404.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Not Found</title>",
		"<h1>404 Not Found</h1>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateRenderer_Instance_NotFound(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("nonexistent.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err == nil {
		t.Error("Render() should return error for nonexistent template")
	}
}

func TestTemplateRenderer_Instance_WithFuncMap(t *testing.T) {
	r, err := NewTemplateRenderer(testFSWithFuncs(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	data := map[string]any{
		"Date": time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC),
	}
	inst := r.Instance("functest/page.html", data)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"date:2024-06-15 10:30:00",
		"add:7",
		"sub:7",
		"seq:123",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

// ---------------------------------------------------------------------------
// Shipped layout tests
// ---------------------------------------------------------------------------

// shippedLayoutFS copies the real layout and partial templates out of the
// embedded filesystem and adds one synthetic page so tests can check what the
// shipped layout wraps around arbitrary page content.
func shippedLayoutFS(t *testing.T) fstest.MapFS {
	t.Helper()

	mapFS := fstest.MapFS{}
	for _, dir := range []string{"templates/layouts", "templates/partials"} {
		err := fs.WalkDir(web.EmbeddedFS, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			content, err := fs.ReadFile(web.EmbeddedFS, path)
			if err != nil {
				return err
			}
			mapFS[path] = &fstest.MapFile{Data: content}
			return nil
		})
		if err != nil {
			t.Fatalf("copy %s from embedded fs: %v", dir, err)
		}
	}

	mapFS["templates/probe/page.html"] = &fstest.MapFile{
		Data: []byte(
			`{{ template "base" . }}` +
				`{{ define "content" }}PROBE-CONTENT-MARKER{{ end }}`),
	}
	return mapFS
}

// TestShippedLayout_NavAndContent renders a page through the real base layout
// and checks the two contracts every page relies on: the header holds exactly
// two navigation links (Home and Users), and the page's own content block is
// placed inside the content region.
func TestShippedLayout_NavAndContent(t *testing.T) {
	r, err := NewTemplateRenderer(shippedLayoutFS(t), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("probe/page.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	body := w.Body.String()

	navStart := strings.Index(body, `<nav class="site-nav">`)
	if navStart < 0 {
		t.Fatalf("layout output missing site nav:\n%s", body)
	}
	navEnd := strings.Index(body[navStart:], "</nav>")
	if navEnd < 0 {
		t.Fatalf("site nav is not closed:\n%s", body)
	}
	nav := body[navStart : navStart+navEnd]

	if got := strings.Count(nav, "<a "); got != 2 {
		t.Errorf("nav link count = %d; want exactly 2:\n%s", got, nav)
	}
	if !strings.Contains(nav, `href="/"`) {
		t.Errorf("nav missing home link:\n%s", nav)
	}
	if !strings.Contains(nav, `href="/users"`) {
		t.Errorf("nav missing users link:\n%s", nav)
	}

	contentStart := strings.Index(body, `<main class="content">`)
	if contentStart < 0 {
		t.Fatalf("layout output missing content region:\n%s", body)
	}
	marker := strings.Index(body, "PROBE-CONTENT-MARKER")
	if marker < 0 {
		t.Fatalf("page content was not rendered:\n%s", body)
	}
	if marker < contentStart {
		t.Error("page content rendered outside the content region")
	}
}

// TestShippedTemplates_Parse parses every template shipped in the embedded
// filesystem, catching syntax errors and missing block references at test time
// rather than on the first request.
func TestShippedTemplates_Parse(t *testing.T) {
	r, err := NewTemplateRenderer(web.EmbeddedFS, false)
	if err != nil {
		t.Fatalf("embedded templates failed to parse: %v", err)
	}

	for _, name := range []string{
		"home.html",
		"user/list.html",
		"errors/400.html",
		"errors/404.html",
		"errors/500.html",
	} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("expected shipped template %q to be loaded", name)
		}
	}
}

// ---------------------------------------------------------------------------
// HTMLInstance tests
// ---------------------------------------------------------------------------

func TestHTMLInstance_WriteContentType(t *testing.T) {
	w := httptest.NewRecorder()
	h := &HTMLInstance{}
	h.WriteContentType(w)

	got := w.Header().Get("Content-Type")
	want := "text/html; charset=utf-8"
	if got != want {
		t.Errorf("Content-Type = %q; want %q", got, want)
	}
}

func TestHTMLInstance_WriteContentType_NoOverwrite(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("Content-Type", "application/json")

	h := &HTMLInstance{}
	h.WriteContentType(w)

	got := w.Header().Get("Content-Type")
	if got != "application/json" {
		t.Errorf("Content-Type should not be overwritten; got %q", got)
	}
}

func TestHTMLInstance_Render_ParseError(t *testing.T) {
	w := httptest.NewRecorder()
	h := &HTMLInstance{err: fmt.Errorf("parse error")}

	err := h.Render(w)
	if err == nil {
		t.Fatal("expected error from Render")
	}
	if !strings.Contains(err.Error(), "parse error") {
		t.Errorf("error = %q; want to contain 'parse error'", err.Error())
	}
}

// ---------------------------------------------------------------------------
// discoverPageTemplates test
// ---------------------------------------------------------------------------

func TestDiscoverPageTemplates(t *testing.T) {
	r := &TemplateRenderer{fs: testFS()}

	pages, err := r.discoverPageTemplates()
	if err != nil {
		t.Fatalf("discoverPageTemplates() error: %v", err)
	}

	// Should find user/list.html and errors/404.html but not layouts or partials.
	wantPaths := map[string]bool{
		"templates/user/list.html":  false,
		"templates/errors/404.html": false,
	}
	for _, p := range pages {
		if _, ok := wantPaths[p]; ok {
			wantPaths[p] = true
		}
	}
	for p, found := range wantPaths {
		if !found {
			t.Errorf("expected page %q to be discovered", p)
		}
	}

	// Layouts and partials must NOT appear.
	for _, p := range pages {
		rel := strings.TrimPrefix(p, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			t.Errorf("base template %q should not be in page list", p)
		}
	}
}

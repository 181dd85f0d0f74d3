package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	booklet "github.com/alnah/go-wpbooklet"
)

func readRecord(t *testing.T, path string) booklet.RawRecord {
	t.Helper()
	r, err := booklet.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord(%s): %v", path, err)
	}
	return r
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	page := &Page{
		ID:          42,
		Slug:        "about",
		Title:       "About &amp; <em>Team</em>",
		Content:     "<p>Hello <strong>world</strong></p>",
		Modified:    "2024-05-01T10:00:00",
		ModifiedGMT: "2024-05-01T01:00:00",
		Template:    "page-booklet.php",
	}
	acf := map[string]any{
		"lead":     "Intro",
		"title":    "ACF title must not win",
		"template": "peoplelist",
	}

	r, err := Flatten(page, acf)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	if r.Title() != "About & Team" {
		t.Errorf("title = %q", r.Title())
	}
	if got := r.Text("content"); got != "Hello **world**" {
		t.Errorf("content = %q", got)
	}
	if r.ID() != "42" || r.Slug() != "about" {
		t.Errorf("id/slug = %q/%q", r.ID(), r.Slug())
	}
	if r.Text("lead") != "Intro" {
		t.Errorf("lead = %q", r.Text("lead"))
	}
	if r.Text("template") != "peoplelist" {
		t.Errorf("template = %q, want ACF choice", r.Text("template"))
	}
	if r.Text("modified_gmt") != "2024-05-01T01:00:00" {
		t.Errorf("modified_gmt = %q", r.Text("modified_gmt"))
	}
}

func TestFlatten_Defaults(t *testing.T) {
	t.Parallel()

	r, err := Flatten(&Page{ID: 7, Template: "default"}, map[string]any{"template": ""})
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if r.Slug() != "7" {
		t.Errorf("slug = %q, want id", r.Slug())
	}
	if r.Title() != "7" {
		t.Errorf("title = %q, want slug", r.Title())
	}
	if r.Text("content") != "" {
		t.Errorf("content = %q", r.Text("content"))
	}
	if r.Text("template") != "default" {
		t.Errorf("blank ACF template replaced page template: %q", r.Text("template"))
	}
}

type stubSource struct {
	pages map[string]*Page
	acf   map[string]map[string]any
	fail  map[string]error
}

func (s *stubSource) Page(_ context.Context, id string) (*Page, error) {
	if err := s.fail[id]; err != nil {
		return nil, err
	}
	p, ok := s.pages[id]
	if !ok {
		return nil, &StatusError{Status: http.StatusNotFound, URL: id}
	}
	cp := *p
	return &cp, nil
}

func (s *stubSource) ACF(_ context.Context, id string) (map[string]any, error) {
	fields, ok := s.acf[id]
	if !ok {
		return nil, errors.New("acf plugin missing")
	}
	return fields, nil
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// An earlier fetch left an entry behind; it must survive.
	if err := os.WriteFile(filepath.Join(dir, booklet.IdentifierMapFile), []byte(`{"9": "old", "old": 9}`), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &stubSource{
		pages: map[string]*Page{
			"42": {ID: 42, Slug: "about", Title: "About", ACF: map[string]any{"lead": "x"}},
			"43": {ID: 43, Slug: "%e3%81%82", Title: "あ"},
		},
		acf:  map[string]map[string]any{"43": {"timeline_items": []any{}}},
		fail: map[string]error{"44": errors.New("boom")},
	}
	f := NewFetcher(src, dir, WithFetchLogger(zaptest.NewLogger(t)))

	res, err := f.Fetch(context.Background(), []string{"42", " 43", "44", "42"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("pages = %+v", res.Pages)
	}
	if _, ok := res.Failed["44"]; !ok || len(res.Failed) != 1 {
		t.Errorf("failed = %v", res.Failed)
	}

	for _, name := range []string{"content-id-42.json", "content-about.json", "content-id-43.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "content-%*"))
	if len(matches) != 0 {
		t.Errorf("encoded slug used as file name: %v", matches)
	}

	r := readRecord(t, filepath.Join(dir, "content-id-43.json"))
	if _, ok := r["timeline_items"]; !ok {
		t.Errorf("ACF endpoint fields missing: %v", r)
	}

	ids, err := booklet.LoadIdentifierMap(filepath.Join(dir, booklet.IdentifierMapFile))
	if err != nil {
		t.Fatal(err)
	}
	for id, slug := range map[string]string{"42": "about", "43": "%e3%81%82", "9": "old"} {
		if got, _ := ids.SlugFor(id); got != slug {
			t.Errorf("SlugFor(%s) = %q, want %q", id, got, slug)
		}
	}
	if got, _ := ids.IDFor("about"); got != "42" {
		t.Errorf("IDFor(about) = %q", got)
	}
}

func TestFetcher_ResolvesWithBooklet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &stubSource{pages: map[string]*Page{"42": {ID: 42, Slug: "about", Title: "About"}}}
	if _, err := NewFetcher(src, dir).Fetch(context.Background(), []string{"42"}); err != nil {
		t.Fatal(err)
	}

	ids, err := booklet.LoadIdentifierMap(filepath.Join(dir, booklet.IdentifierMapFile))
	if err != nil {
		t.Fatal(err)
	}
	res, err := booklet.NewResolver(booklet.NewDirSource(dir), ids, nil).Resolve("42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.CanonicalSlug != "about" || res.ContentFile != "content-id-42.json" {
		t.Errorf("resolution = %+v", res)
	}
}

func TestFetcher_NothingFetched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &stubSource{fail: map[string]error{"1": errors.New("down")}}

	_, err := NewFetcher(src, dir).Fetch(context.Background(), []string{"1"})
	if !errors.Is(err, ErrNothingFetched) {
		t.Fatalf("error = %v, want ErrNothingFetched", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, booklet.IdentifierMapFile)); !os.IsNotExist(statErr) {
		t.Error("identifier map written without any page")
	}
}

func TestFetcher_Dummy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source PageSource
		ids    []string
	}{
		{name: "no source", source: nil, ids: []string{"1"}},
		{name: "no ids", source: &stubSource{}, ids: nil},
		{name: "all failed", source: &stubSource{fail: map[string]error{"1": errors.New("down")}}, ids: []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			res, err := NewFetcher(tt.source, dir, WithAllowDummy(true)).Fetch(context.Background(), tt.ids)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if !res.Dummy {
				t.Error("Dummy = false")
			}

			r := readRecord(t, filepath.Join(dir, "content-demo.json"))
			if r.ID() != DemoID || r.Text("template") != booklet.TypeTextPhoto2 {
				t.Errorf("demo record = %v", r)
			}
			data, err := os.ReadFile(filepath.Join(dir, booklet.IdentifierMapFile))
			if err != nil {
				t.Fatal(err)
			}
			var flat map[string]any
			if err := json.Unmarshal(data, &flat); err != nil {
				t.Fatal(err)
			}
			if flat["123"] != "demo" || fmt.Sprint(flat["demo"]) != "123" {
				t.Errorf("map = %s", data)
			}
		})
	}
}

func TestFetcher_NoSourceWithoutDummy(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(nil, t.TempDir()).Fetch(context.Background(), []string{"1"})
	if err == nil || !strings.Contains(err.Error(), "WP_URL") {
		t.Errorf("error = %v", err)
	}
}

func TestFetcher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &stubSource{pages: map[string]*Page{"1": {ID: 1, Slug: "a"}}}

	if _, err := NewFetcher(src, t.TempDir()).Fetch(ctx, []string{"1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	got := ParseIDs(" 12, 34 ,,56\n12 ")
	want := []string{"12", "34", "56"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ParseIDs = %v, want %v", got, want)
	}
	if got := ParseIDs(""); len(got) != 0 {
		t.Errorf("ParseIDs(\"\") = %v", got)
	}
}

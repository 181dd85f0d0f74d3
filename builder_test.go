package booklet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-id-42.json", map[string]any{
		"id": 42, "slug": "about", "title": "About us",
		"content": "hello", "photo1": map[string]any{"url": "http://x/a.png"},
		"modified_gmt": "2024-03-31T16:30:00",
	})
	writeContent(t, dir, IdentifierMapFile, map[string]any{"42": "about", "about": 42})

	prod := &fakeProducer{}
	b := newTestBuilder(t, dir, prod, WithClock(fixedClock))

	result, err := b.Build(context.Background(), BuildRequest{Identifier: "42"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if result.Slug != "about" || result.Template != TypeTextPhoto2 || result.Reason != ReasonDetected {
		t.Errorf("result = %+v", result)
	}
	if result.PDFPath != filepath.Join(dir, "booklet-about.pdf") {
		t.Errorf("PDFPath = %q", result.PDFPath)
	}
	if result.AliasPath != filepath.Join(dir, "booklet-42.pdf") {
		t.Errorf("AliasPath = %q", result.AliasPath)
	}
	for _, p := range []string{result.PDFPath, result.AliasPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	html, err := os.ReadFile(filepath.Join(dir, DefaultHTMLFile))
	if err != nil {
		t.Fatalf("index.html: %v", err)
	}
	if !strings.Contains(string(html), "2024-04-01 01:30:00") {
		t.Error("updated stamp should come from modified_gmt in JST")
	}
	if calls := prod.Calls(); len(calls) != 1 || calls[0] != filepath.Join(dir, DefaultHTMLFile) {
		t.Errorf("producer calls = %v", calls)
	}
}

func TestBuilder_StampsBuildTimeWithoutModified(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-team.json", map[string]any{"member1_name": "A"})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithClock(fixedClock), WithTimestampFormat("YYYY年M月D日"))

	if _, err := b.Build(context.Background(), BuildRequest{Identifier: "team", HTMLOnly: true}); err != nil {
		t.Fatal(err)
	}
	html, _ := os.ReadFile(filepath.Join(dir, DefaultHTMLFile))
	if !strings.Contains(string(html), "2024年6月1日") {
		t.Error("build time should be stamped in JST with the configured format")
	}
}

func TestBuilder_HTMLOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-x.json", map[string]any{"heading": "H"})
	prod := &fakeProducer{}
	b := newTestBuilder(t, dir, prod)

	result, err := b.Build(context.Background(), BuildRequest{Identifier: "x", HTMLOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.PDFPath != "" || len(prod.Calls()) != 0 {
		t.Errorf("HTML-only build produced a PDF: %+v", result)
	}
	if result.HTMLPath == "" {
		t.Error("HTMLPath should be set")
	}
}

func TestBuilder_OutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "dist", "pdf")
	writeContent(t, dir, "content-x.json", map[string]any{"heading": "H"})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithOutputDir(out))

	result, err := b.Build(context.Background(), BuildRequest{Identifier: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if result.PDFPath != filepath.Join(out, "booklet-x.pdf") || result.AliasPath != "" {
		t.Errorf("result = %+v", result)
	}
}

func TestBuilder_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-ok.json", map[string]any{"heading": "H"})
	writeContent(t, dir, "content-nohead.json", map[string]any{"content": "body"})
	if err := os.WriteFile(filepath.Join(dir, "content-broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		req       BuildRequest
		producer  Producer
		wantStage string
		wantErr   error
	}{
		{"content not found", BuildRequest{Identifier: "ghost"}, &fakeProducer{}, StageResolve, ErrContentNotFound},
		{"empty identifier", BuildRequest{}, &fakeProducer{}, StageResolve, ErrEmptyIdentifier},
		{"broken file", BuildRequest{Identifier: "broken"}, &fakeProducer{}, StageLoad, ErrInvalidRecord},
		{"unknown template", BuildRequest{Identifier: "ok", Template: "poster"}, &fakeProducer{}, StageSelect, ErrUnknownTemplate},
		{"schema", BuildRequest{Identifier: "nohead", Template: TypeHeadingText}, &fakeProducer{}, StageValidate, ErrSchemaValidation},
		{"producer", BuildRequest{Identifier: "ok"}, &fakeProducer{err: errors.New("chrome died")}, StageProduce, ErrExternalTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newTestBuilder(t, dir, tt.producer, WithOutputDir(t.TempDir()))
			_, err := b.Build(context.Background(), tt.req)

			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error = %v, want *BuildError", err)
			}
			if be.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", be.Stage, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_SkipSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-nohead.json", map[string]any{"content": "body"})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithSkipSchema(true))

	_, err := b.Build(context.Background(), BuildRequest{Identifier: "nohead", Template: TypeHeadingText, HTMLOnly: true})
	if err != nil {
		t.Errorf("Build with schema disabled = %v", err)
	}
}

func TestBuilder_CancelledProduce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-ok.json", map[string]any{"heading": "H"})
	b := newTestBuilder(t, dir, &fakeProducer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, BuildRequest{Identifier: "ok"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrExternalTool) {
		t.Error("cancellation should not be reported as a tool failure")
	}
}

func TestBuilder_MediaResolution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-pic.json", map[string]any{"image": 12, "caption": "c"})

	media := MediaResolverFunc(func(_ context.Context, id int64) (Image, error) {
		if id == 12 {
			return Image{URL: "http://media/12.jpg", Alt: "twelve"}, nil
		}
		return Image{}, errors.New("missing")
	})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithMediaResolver(media))

	if _, err := b.Build(context.Background(), BuildRequest{Identifier: "pic", HTMLOnly: true}); err != nil {
		t.Fatal(err)
	}
	html, _ := os.ReadFile(filepath.Join(dir, DefaultHTMLFile))
	if !strings.Contains(string(html), "http://media/12.jpg") {
		t.Error("media reference not resolved")
	}
}

func TestBuilder_StyleFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	css := filepath.Join(dir, "brand.css")
	if err := os.WriteFile(css, []byte(".brand { color: teal; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeContent(t, dir, "content-x.json", map[string]any{"heading": "H"})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithStyle(css))

	if _, err := b.Build(context.Background(), BuildRequest{Identifier: "x", HTMLOnly: true}); err != nil {
		t.Fatal(err)
	}
	html, _ := os.ReadFile(filepath.Join(dir, DefaultHTMLFile))
	if !strings.Contains(string(html), ".brand { color: teal; }") {
		t.Error("stylesheet file not injected")
	}
}

func TestNewBuilder_Errors(t *testing.T) {
	t.Parallel()

	t.Run("corrupt identifier map", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, IdentifierMapFile), []byte("nope"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewBuilder(WithWorkdir(dir)); !errors.Is(err, ErrInvalidIdentifierMap) {
			t.Errorf("error = %v, want ErrInvalidIdentifierMap", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		if _, err := NewBuilder(WithWorkdir(t.TempDir()), WithProducerConfig(ProducerConfig{Backend: "nope"})); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("bad timestamp format", func(t *testing.T) {
		t.Parallel()

		if _, err := NewBuilder(WithWorkdir(t.TempDir()), WithTimestampFormat("[YYYY")); err == nil {
			t.Error("expected error for unclosed bracket")
		}
	})
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

func TestBuilder_ConcurrencyDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"unset", nil, DefaultConcurrency},
		{"zero keeps default", []Option{WithConcurrency(0)}, DefaultConcurrency},
		{"explicit", []Option{WithConcurrency(5)}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newTestBuilder(t, t.TempDir(), &fakeProducer{}, tt.opts...)
			if got := b.Concurrency(); got != tt.want {
				t.Errorf("Concurrency() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuilder_Accessors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeContent(t, dir, "content-about.json", map[string]any{"slug": "about"})
	b := newTestBuilder(t, dir, &fakeProducer{}, WithConcurrency(3))

	if b.Concurrency() != 3 {
		t.Errorf("Concurrency() = %d, want 3", b.Concurrency())
	}
	if !b.Registry().Has(b.Registry().Fallback()) {
		t.Error("registry should hold its fallback template")
	}
	if !b.Source().Exists("content-about.json") {
		t.Error("source should see content-about.json")
	}
	res, err := b.Resolver().Resolve("about")
	if err != nil || res.CanonicalSlug != "about" {
		t.Errorf("Resolve(about) = %+v, %v", res, err)
	}
}

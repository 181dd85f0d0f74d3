package booklet

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// writeContent writes v as JSON to dir/name.
func writeContent(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// decode parses a JSON literal into a RawRecord.
func decode(t *testing.T, js string) RawRecord {
	t.Helper()
	r, err := DecodeRecord(strings.NewReader(js))
	if err != nil {
		t.Fatalf("DecodeRecord(%s): %v", js, err)
	}
	return r
}

// fakeProducer writes a minimal PDF and records every call.
type fakeProducer struct {
	mu     sync.Mutex
	calls  []string
	err    error
	closed bool
}

func (f *fakeProducer) Produce(ctx context.Context, htmlPath, pdfPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, htmlPath)
	err := f.err
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(htmlPath); statErr != nil {
		return statErr
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644)
}

func (f *fakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeProducer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// failOn makes a producer fail for HTML whose content contains marker.
type failOn struct {
	fakeProducer
	marker string
}

func (f *failOn) Produce(ctx context.Context, htmlPath, pdfPath string) error {
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return err
	}
	if strings.Contains(string(data), f.marker) {
		return errors.New("renderer crashed")
	}
	return f.fakeProducer.Produce(ctx, htmlPath, pdfPath)
}

// newTestBuilder returns a builder over dir that uses prod for every PDF.
func newTestBuilder(t *testing.T, dir string, prod Producer, opts ...Option) *Builder {
	t.Helper()
	base := []Option{
		WithWorkdir(dir),
		WithProducerFactory(func() (Producer, error) { return prod, nil }),
	}
	b, err := NewBuilder(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

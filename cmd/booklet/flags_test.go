package main

import (
	"errors"
	"io"
	"testing"

	flag "github.com/spf13/pflag"
)

func TestParseBuildFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseBuildFlags([]string{
		"about", "-t", "timeline", "-p", "a5", "--margin", "10mm",
		"--backend", "command", "--html-only", "-d", "/data", "-v",
	}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 1 || args[0] != "about" {
		t.Errorf("args = %v, want [about]", args)
	}
	if f.render.template != "timeline" || f.page.size != "a5" || f.page.margin != "10mm" {
		t.Errorf("unexpected flags: %+v", f)
	}
	if f.pdf.backend != "command" || !f.htmlOnly || !f.common.verbose || f.common.workdir != "/data" {
		t.Errorf("unexpected flags: %+v", f)
	}
}

func TestParseBatchFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantJ   int
		wantErr error
	}{
		{"default", nil, 0, nil},
		{"short", []string{"-j", "4"}, 4, nil},
		{"long", []string{"--concurrency=3", "--keep-html"}, 3, nil},
		{"auto", []string{"-j", "-1"}, -1, nil},
		{"negative", []string{"--concurrency=-2"}, 0, ErrUsage},
		{"unknown flag", []string{"--nope"}, 0, ErrUsage},
		{"not a number", []string{"-j", "x"}, 0, ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, _, err := parseBatchFlags(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.concurrency != tt.wantJ {
				t.Errorf("concurrency = %d, want %d", f.concurrency, tt.wantJ)
			}
		})
	}
}

func TestParseFetchFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseFetchFlags([]string{"--url", "https://example.com", "--allow-dummy", "1,2", "3"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.url != "https://example.com" || !f.allowDummy {
		t.Errorf("unexpected flags: %+v", f)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}

func TestParseTemplatesFlags(t *testing.T) {
	t.Parallel()

	if f, err := parseTemplatesFlags([]string{"--yaml"}, io.Discard); err != nil || !f.yaml {
		t.Errorf("parseTemplatesFlags(--yaml) = %+v, %v", f, err)
	}
	if _, err := parseTemplatesFlags([]string{"extra"}, io.Discard); !errors.Is(err, ErrUsage) {
		t.Errorf("positional argument: error = %v, want ErrUsage", err)
	}
}

func TestUsageError_Help(t *testing.T) {
	t.Parallel()

	_, _, err := parseBuildFlags([]string{"--help"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("error = %v, want flag.ErrHelp", err)
	}
	if errors.Is(err, ErrUsage) {
		t.Error("--help must not be reported as a usage error")
	}
}

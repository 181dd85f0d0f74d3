package booklet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewProducer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", "*booklet.rodProducer", false},
		{"rod", "*booklet.rodProducer", false},
		{"ChromeDP", "*booklet.chromedpProducer", false},
		{"command", "*booklet.commandProducer", false},
		{"wkhtmltopdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()

			p, err := NewProducer(ProducerConfig{Backend: tt.backend})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBackend) {
					t.Errorf("error = %v, want ErrInvalidBackend", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := fmt.Sprintf("%T", p); got != tt.want {
				t.Errorf("NewProducer(%q) = %s, want %s", tt.backend, got, tt.want)
			}
			// Browsers start lazily, so Close on a fresh producer is a no-op.
			if err := p.Close(); err != nil {
				t.Errorf("Close() = %v", err)
			}
		})
	}
}

func TestLoadTimeout(t *testing.T) {
	t.Parallel()

	got, err := loadTimeout(context.Background(), time.Minute)
	if err != nil || got != time.Minute {
		t.Errorf("no deadline: %v, %v", got, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err = loadTimeout(ctx, time.Minute)
	if err != nil || got > 5*time.Second {
		t.Errorf("near deadline: %v, %v", got, err)
	}

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if _, err := loadTimeout(expired, time.Minute); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expired: %v", err)
	}
}

func TestWritePDF_RejectsEmpty(t *testing.T) {
	t.Parallel()

	if err := writePDF(t.TempDir()+"/x.pdf", nil); !errors.Is(err, ErrPDFGeneration) {
		t.Errorf("writePDF(nil) = %v, want ErrPDFGeneration", err)
	}
}

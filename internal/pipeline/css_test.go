package pipeline

import (
	"strings"
	"testing"
)

func TestPageCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                      string
		size, orientation, margin string
		want                      string
	}{
		{"booklet default", "a4", "landscape", "14mm", "@page { size: A4 landscape; margin: 14mm; }\n"},
		{"letter stays lowercase", "Letter", "portrait", "", "@page { size: letter portrait; }\n"},
		{"size only", "a5", "", "", "@page { size: A5; }\n"},
		{"margin only", "", "", "12mm", "@page { margin: 12mm; }\n"},
		{"declaration breakout removed", "a4", "", "1mm; } body { color: red", "@page { size: A4; margin: 1mm  body  color: red; }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := PageCSS(tt.size, tt.orientation, tt.margin); got != tt.want {
				t.Errorf("PageCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinCSS(t *testing.T) {
	t.Parallel()

	got := JoinCSS("a{}", "  ", "", "b{}")
	if got != "a{}\n\nb{}\n" {
		t.Errorf("JoinCSS() = %q", got)
	}
}

func TestInjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		css  string
		want string
	}{
		{"before head close", "<html><head></head><body></body></html>", "p{}", "<html><head><style>p{}</style></head><body></body></html>"},
		{"uppercase head", "<HTML><HEAD></HEAD></HTML>", "p{}", "<HTML><HEAD><style>p{}</style></HEAD></HTML>"},
		{"before body", "<body>x</body>", "p{}", "<style>p{}</style><body>x</body>"},
		{"prepend", "<p>x</p>", "p{}", "<style>p{}</style><p>x</p>"},
		{"empty css", "<p>x</p>", "", "<p>x</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := InjectCSS(tt.html, tt.css); got != tt.want {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInjectCSS_CannotCloseStyle(t *testing.T) {
	t.Parallel()

	got := InjectCSS("<head></head>", "p{}</style><script>x</script>")
	if strings.Count(got, "</style>") != 1 {
		t.Errorf("InjectCSS() = %q, style block closed early", got)
	}
}

package booklet

import (
	"errors"
	"testing"
)

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{"nil uses defaults", nil, nil},
		{"defaults", DefaultPageSettings(), nil},
		{"upper case size", &PageSettings{Size: "A5", Orientation: "Portrait", Margin: "10mm"}, nil},
		{"decimal margin", &PageSettings{Size: "letter", Orientation: "portrait", Margin: "0.5in"}, nil},
		{"unknown size", &PageSettings{Size: "a9", Orientation: "portrait", Margin: "1mm"}, ErrInvalidPageSize},
		{"unknown orientation", &PageSettings{Size: "a4", Orientation: "diagonal", Margin: "1mm"}, ErrInvalidOrientation},
		{"bare number margin", &PageSettings{Size: "a4", Orientation: "portrait", Margin: "14"}, ErrInvalidMargin},
		{"injection in margin", &PageSettings{Size: "a4", Orientation: "portrait", Margin: "1mm; } body {"}, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPageSettings(t *testing.T) {
	t.Parallel()

	p := DefaultPageSettings()
	if p.Size != PageSizeA4 || p.Orientation != OrientationLandscape || p.Margin != DefaultMargin {
		t.Errorf("DefaultPageSettings() = %+v", p)
	}
}

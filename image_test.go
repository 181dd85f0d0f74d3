package booklet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    any
		want ImageRef
	}{
		{
			name: "structured",
			v:    map[string]any{"url": "http://x/a.png", "alt": "A", "title": "T"},
			want: ImageRef{Kind: ImageStructured, URL: "http://x/a.png", Alt: "A", Title: "T"},
		},
		{
			name: "wordpress media object",
			v:    map[string]any{"source_url": "http://x/b.png", "alt_text": "B", "title": map[string]any{"rendered": "Bee"}},
			want: ImageRef{Kind: ImageStructured, URL: "http://x/b.png", Alt: "B", Title: "Bee"},
		},
		{
			name: "id object",
			v:    map[string]any{"id": json.Number("55")},
			want: ImageRef{Kind: ImageMediaRef, MediaID: 55},
		},
		{
			name: "bare number",
			v:    json.Number("12"),
			want: ImageRef{Kind: ImageMediaRef, MediaID: 12},
		},
		{
			name: "digit string",
			v:    "34",
			want: ImageRef{Kind: ImageMediaRef, MediaID: 34},
		},
		{
			name: "raw url",
			v:    " https://cdn/x.jpg ",
			want: ImageRef{Kind: ImageRawURL, URL: "https://cdn/x.jpg"},
		},
		{name: "empty string", v: "", want: ImageRef{Kind: ImageNone}},
		{name: "acf false", v: false, want: ImageRef{Kind: ImageNone}},
		{name: "zero id", v: json.Number("0"), want: ImageRef{Kind: ImageNone}},
		{name: "nil", v: nil, want: ImageRef{Kind: ImageNone}},
		{name: "object without url or id", v: map[string]any{"alt": "x"}, want: ImageRef{Kind: ImageNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ParseImage(tt.v); got != tt.want {
				t.Errorf("ParseImage(%#v) = %+v, want %+v", tt.v, got, tt.want)
			}
		})
	}
}

func TestImageRef_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  ImageRef
		want Image
	}{
		{"structured", ImageRef{Kind: ImageStructured, URL: "u", Alt: "a"}, Image{URL: "u", Alt: "a"}},
		{"raw", ImageRef{Kind: ImageRawURL, URL: "u"}, Image{URL: "u"}},
		{"media pending", ImageRef{Kind: ImageMediaRef, MediaID: 9}, Image{URL: PlaceholderImage, MediaID: 9}},
		{"none", ImageRef{}, Image{URL: PlaceholderImage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.ref.Resolve(PlaceholderImage)
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
			if got.Pending() != (tt.ref.Kind == ImageMediaRef) {
				t.Errorf("Pending() = %v for %v", got.Pending(), tt.ref.Kind)
			}
		})
	}
}

func TestResolveMedia(t *testing.T) {
	t.Parallel()

	resolver := MediaResolverFunc(func(_ context.Context, id int64) (Image, error) {
		switch id {
		case 1:
			return Image{URL: "http://media/1.png", Alt: "one"}, nil
		case 2:
			return Image{URL: "http://media/2.png"}, nil
		default:
			return Image{}, errors.New("not found")
		}
	})

	members := []Member{{Name: "A", Photo: PlaceholderMemberPhoto, photoMediaID: 2}}
	c := Context{
		"photo1":  Image{URL: PlaceholderImage, MediaID: 1},
		"photo2":  Image{URL: PlaceholderImage, MediaID: 99},
		"figures": []Figure{{Image: Image{URL: PlaceholderImage, MediaID: 1}}},
		"members": members,
	}

	if n := pendingMedia(c); n != 4 {
		t.Fatalf("pendingMedia() = %d, want 4", n)
	}

	failures := resolveMedia(context.Background(), c, resolver)

	if len(failures) != 1 || failures[0].ID != 99 || failures[0].Field != "photo2" {
		t.Errorf("failures = %+v, want one for photo2/99", failures)
	}
	if got := c["photo1"].(Image); got.URL != "http://media/1.png" || got.Alt != "one" || got.Pending() {
		t.Errorf("photo1 = %+v", got)
	}
	if got := c["photo2"].(Image); got.URL != PlaceholderImage || !got.Pending() {
		t.Errorf("photo2 = %+v, want placeholder kept", got)
	}
	if got := c["figures"].([]Figure)[0].Image.URL; got != "http://media/1.png" {
		t.Errorf("figure image = %q", got)
	}
	if got := c["members"].([]Member)[0].Photo; got != "http://media/2.png" {
		t.Errorf("member photo = %q", got)
	}
	if members[0].Photo != PlaceholderMemberPhoto {
		t.Error("resolveMedia modified the caller's member slice")
	}
	if n := pendingMedia(c); n != 1 {
		t.Errorf("pendingMedia() after resolve = %d, want 1", n)
	}
}

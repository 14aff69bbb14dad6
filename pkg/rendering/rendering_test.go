package rendering

import (
	"errors"
	"image/color"
	"testing"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		path string
		want MediaKind
	}{
		{"logo.png", MediaRaster},
		{"photo.JPEG", MediaRaster},
		{"assets/anim.gif", MediaRaster},
		{"icon.webp", MediaRaster},
		{"icon.svg", MediaVector},
	}
	for _, tt := range tests {
		got, err := ClassifyMedia(tt.path)
		if err != nil {
			t.Errorf("ClassifyMedia(%q) error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ClassifyMedia(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClassifyMediaUnsupported(t *testing.T) {
	for _, path := range []string{"clip.mp4", "README", "doc.pdf"} {
		_, err := ClassifyMedia(path)
		if !errors.Is(err, loomerrors.ErrUnsupportedMedia) {
			t.Errorf("ClassifyMedia(%q) err = %v, want ErrUnsupportedMedia", path, err)
		}
	}
}

func TestColorHexAndConversion(t *testing.T) {
	c := RGB(0x12, 0xab, 0xff)
	if got := c.Hex(); got != "#12abff" {
		t.Errorf("Hex() = %q", got)
	}
	if c.Transparent() {
		t.Error("opaque color reported transparent")
	}
	if !ColorTransparent.Transparent() {
		t.Error("ColorTransparent should be transparent")
	}
	back := FromColor(color.NRGBA{R: 0x12, G: 0xab, B: 0xff, A: 0xff})
	if back != c {
		t.Errorf("FromColor = %#x, want %#x", back, c)
	}
	if n := c.WithAlpha(0x80).NRGBA(); n.A != 0x80 || n.R != 0x12 {
		t.Errorf("NRGBA() = %+v", n)
	}
}

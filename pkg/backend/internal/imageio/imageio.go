// Package imageio decodes and scales the raster formats accepted by source
// nodes.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode reads the image at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Scale resizes src to w x h. A non-positive size yields an empty image.
func Scale(src image.Image, w, h int, interp draw.Interpolator) *image.RGBA {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

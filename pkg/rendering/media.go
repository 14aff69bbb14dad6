package rendering

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-drift/loom/pkg/errors"
)

// MediaKind is the drawing route for a source path.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaRaster
	MediaVector
)

var mediaByExt = map[string]MediaKind{
	".png":  MediaRaster,
	".jpg":  MediaRaster,
	".jpeg": MediaRaster,
	".gif":  MediaRaster,
	".bmp":  MediaRaster,
	".webp": MediaRaster,
	".svg":  MediaVector,
}

// ClassifyMedia picks the drawing route for path by its extension.
func ClassifyMedia(path string) (MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := mediaByExt[ext]; ok {
		return kind, nil
	}
	return MediaUnknown, fmt.Errorf("%q: %w", ext, errors.ErrUnsupportedMedia)
}

package poster

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// PlaceholderSize is the edge length of the placeholder image.
const PlaceholderSize = 1

// IsPlaceholderSize reports whether an image of the given size is a
// placeholder.
func IsPlaceholderSize(width, height int) bool {
	return width <= PlaceholderSize && height <= PlaceholderSize
}

// PlaceholderJPEG renders the placeholder image.
func PlaceholderJPEG(quality int) ([]byte, error) {
	img := imaging.New(PlaceholderSize, PlaceholderSize, color.NRGBA{A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePlaceholder writes the placeholder to path through a temp file in the
// same directory.
func WritePlaceholder(path string, quality int) error {
	data, err := PlaceholderJPEG(quality)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".placeholder-*")
	if err != nil {
		return fmt.Errorf("create placeholder: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write placeholder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close placeholder: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("move placeholder: %w", err)
	}
	return nil
}

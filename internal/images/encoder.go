// Package images converts uploaded product photos into self-contained data URLs.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
)

const (
	// maxDimension caps the longest side of a stored image. Data URLs are
	// persisted inline with the catalog, so oversized uploads would bloat
	// every subsequent catalog write.
	maxDimension = 800
	jpegQuality  = 75
)

// EncodeDataURL decodes an uploaded image, downscales it to fit within
// maxDimension on its longest side, and returns it re-encoded as a
// base64 JPEG data URL.
func EncodeDataURL(r io.Reader) (string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	resized := img
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		// Fit preserves aspect ratio and never upscales.
		resized = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	slog.Debug("Image encoded",
		"format", format,
		"original", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"encoded_bytes", buf.Len(),
	)

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

package converter

// Decode image formats Tesseract builds do not reliably read
// (TIFF variants, BMP, WebP, GIF) and hand OCR a PNG instead.

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var imageDecoders = map[string]func(io.Reader) (image.Image, error){
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".bmp":  bmp.Decode,
	".webp": webp.Decode,
	".gif":  gif.Decode,
}

// prepareImage returns a path Tesseract can read: the input itself for PNG
// and JPEG, otherwise a temporary PNG re-encoding. The cleanup func is
// always non-nil.
func prepareImage(path string) (string, func(), error) {
	noop := func() {}
	decode, ok := imageDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return path, noop, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, err := decode(f)
	if err != nil {
		return "", noop, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp("", "docextract-ocr-*.png")
	if err != nil {
		return "", noop, fmt.Errorf("create temp file for OCR: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("encode png for OCR: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close temp file for OCR: %w", err)
	}
	return tmpPath, cleanup, nil
}

package converter

// Tesseract OCR integration.
//
// The default Recognizer shells out to the tesseract binary. Availability is
// looked up at call time with exec.LookPath so engines degrade to a clear error
// when Tesseract is absent. Building with -tags gosseract swaps in the
// in-process binding instead (see ocr_gosseract.go).

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrOCRUnavailable is returned when no OCR backend can run.
var ErrOCRUnavailable = errors.New("tesseract is not installed or not on PATH")

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// lookPath is the exec.LookPath implementation used to find binaries.
// Tests may replace it to simulate a missing Tesseract binary.
var lookPath = exec.LookPath

// tesseractCLI runs `tesseract <image> stdout`.
type tesseractCLI struct {
	bin         string
	lang        string
	tessdataDir string
	runner      Runner
}

func (t *tesseractCLI) available() bool {
	_, err := lookPath(t.bin)
	return err == nil
}

func (t *tesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	if !t.available() {
		return "", fmt.Errorf("%w; cannot OCR %s", ErrOCRUnavailable, filepath.Base(imagePath))
	}

	src, cleanup, err := prepareImage(imagePath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{src, "stdout", "-l", t.lang}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	return cleanText(string(out)), nil
}

// pdfRasterizer renders single PDF pages to PNG with pdftoppm.
type pdfRasterizer struct {
	bin    string
	dpi    int
	runner Runner
}

// RasterizePage renders page (1-based) of pdfPath and returns the PNG path
// plus a cleanup func that removes it.
func (r *pdfRasterizer) RasterizePage(ctx context.Context, pdfPath string, page int) (string, func(), error) {
	if _, err := lookPath(r.bin); err != nil {
		return "", func() {}, fmt.Errorf("%s is not installed or not on PATH: %w", r.bin, err)
	}
	tmpDir, err := os.MkdirTemp("", "docextract-page-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp dir for rasterising: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.bin,
		"-f", n, "-l", n, "-r", strconv.Itoa(r.dpi), "-png", "-singlefile", pdfPath, prefix)
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return out, cleanup, nil
}

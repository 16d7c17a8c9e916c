//go:build gosseract

package converter

// In-process Tesseract via gosseract.
//
// Requires libtesseract and leptonica headers at build time:
//
//	go build -tags gosseract ./...

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Cortexa-LLC/mcp/src/docextract/config"
)

type gosseractRecognizer struct {
	langs       []string
	tessdataDir string
}

func newRecognizer(cfg config.OCRConfig, _ Runner) Recognizer {
	return &gosseractRecognizer{
		langs:       strings.Split(cfg.Language, "+"),
		tessdataDir: cfg.TessdataDir,
	}
}

// Recognize creates a client per call; gosseract clients are not safe for
// concurrent use.
func (g *gosseractRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, cleanup, err := prepareImage(imagePath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if g.tessdataDir != "" {
		if err := client.SetTessdataPrefix(g.tessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(g.langs...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImage(src); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return cleanText(text), nil
}

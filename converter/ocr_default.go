//go:build !gosseract

package converter

import "github.com/Cortexa-LLC/mcp/src/docextract/config"

// newRecognizer returns the Tesseract CLI recognizer.
func newRecognizer(cfg config.OCRConfig, r Runner) Recognizer {
	return &tesseractCLI{
		bin:         cfg.TesseractPath,
		lang:        cfg.Language,
		tessdataDir: cfg.TessdataDir,
		runner:      r,
	}
}

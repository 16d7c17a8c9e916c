package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// pageOCR recognises rasterised PDF pages. maxPages caps how many pages of
// one document are OCR'd; 0 means no cap.
type pageOCR struct {
	rec      Recognizer
	raster   *pdfRasterizer
	maxPages int
}

func (o *pageOCR) recognize(ctx context.Context, pdfPath string, page int) (string, error) {
	if o.raster == nil || o.rec == nil {
		return "", ErrOCRUnavailable
	}
	img, cleanup, err := o.raster.RasterizePage(ctx, pdfPath, page)
	defer cleanup()
	if err != nil {
		return "", err
	}
	return o.rec.Recognize(ctx, img)
}

// ocrSession fills pages of one document, honouring the page cap and
// giving up once OCR turns out to be unavailable.
type ocrSession struct {
	ocr    *pageOCR
	path   string
	used   int
	logger *slog.Logger
}

func (o *pageOCR) session(path string, logger *slog.Logger) *ocrSession {
	if o == nil {
		return nil
	}
	return &ocrSession{ocr: o, path: path, logger: logger}
}

// fill OCRs page and returns its text, or "" when OCR is off, capped or
// failed. Only cancellation is returned as an error.
func (s *ocrSession) fill(ctx context.Context, page int) (string, error) {
	if s == nil || s.ocr == nil || (s.ocr.maxPages > 0 && s.used >= s.ocr.maxPages) {
		return "", nil
	}
	s.used++
	text, err := s.ocr.recognize(ctx, s.path, page)
	switch {
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, ErrOCRUnavailable):
		s.logger.Warn("OCR unavailable, scanned pages stay empty", "path", s.path, "error", err)
		s.ocr = nil
		return "", nil
	case err != nil:
		s.logger.Warn("page OCR failed", "path", s.path, "page", page, "error", err)
		return "", nil
	}
	s.logger.Debug("page recognised", "path", s.path, "page", page, "chars", len(text))
	return text, nil
}

// pdfPageTexts returns the cleaned text of every page of the PDF at path.
// Pages with an empty text layer are OCR'd when ocr is non-nil.
func pdfPageTexts(ctx context.Context, path string, ocr *pageOCR, logger *slog.Logger) ([]string, error) {
	doc, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	sess := ocr.session(path, logger)
	n := doc.NumPage()
	texts := make([]string, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.plainText(i)
		if err != nil {
			logger.Warn("unreadable pdf text layer", "path", path, "page", i, "error", err)
		}
		if text = cleanText(text); text == "" {
			if text, err = sess.fill(ctx, i); err != nil {
				return nil, err
			}
		}
		texts[i-1] = text
	}
	return texts, nil
}

// OCREngine reads the PDF text layer and falls back to OCR for pages that
// have none. Images are OCR'd directly. It returns a page tree with one
// text block per non-empty page.
type OCREngine struct {
	rec    Recognizer
	pages  *pageOCR
	logger *slog.Logger
}

// NewOCREngine returns an OCREngine using rec for recognition and raster
// for rendering scanned PDF pages.
func NewOCREngine(rec Recognizer, raster *pdfRasterizer, maxPages int, logger *slog.Logger) *OCREngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCREngine{
		rec:    rec,
		pages:  &pageOCR{rec: rec, raster: raster, maxPages: maxPages},
		logger: logger,
	}
}

func (e *OCREngine) Name() string { return EngineOCR }

func (e *OCREngine) Analyze(ctx context.Context, path string) (*extract.RawResult, error) {
	switch detectFormat(path) {
	case formatPDF:
		texts, err := pdfPageTexts(ctx, path, e.pages, e.logger)
		if err != nil {
			return nil, err
		}
		pages := make([]extract.RawPage, len(texts))
		for i, t := range texts {
			pages[i] = textPage(i+1, t)
		}
		return treeResult(pages)
	case formatImage:
		text, err := recognizeImage(ctx, e.rec, path)
		if err != nil {
			return nil, err
		}
		return treeResult([]extract.RawPage{textPage(1, text)})
	}
	return nil, unsupported(EngineOCR, path, ocrFormats)
}

// recognizeImage OCRs an image file. A nil recognizer means OCR is off.
func recognizeImage(ctx context.Context, rec Recognizer, path string) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("ocr %s: %w", path, ErrOCRUnavailable)
	}
	text, err := rec.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", path, err)
	}
	return text, nil
}

func textPage(number int, text string) extract.RawPage {
	p := extract.RawPage{Number: number}
	if text != "" {
		p.TextBlocks = []extract.Block{{Text: text}}
	}
	return p
}

package converter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// Engine names accepted by the registry.
const (
	EngineLayout    = "layout"
	EngineOCR       = "ocr"
	EnginePartition = "partition"
)

// LayoutEngine analyses page geometry and returns a page tree: PDF pages
// from glyph positions, PPTX slides and XLSX sheets from their structure.
type LayoutEngine struct {
	ocr    Recognizer
	logger *slog.Logger
}

// NewLayoutEngine returns a LayoutEngine. rec OCRs pictures embedded in
// slides and may be nil.
func NewLayoutEngine(rec Recognizer, logger *slog.Logger) *LayoutEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutEngine{ocr: rec, logger: logger}
}

func (e *LayoutEngine) Name() string { return EngineLayout }

func (e *LayoutEngine) Analyze(ctx context.Context, path string) (*extract.RawResult, error) {
	var (
		pages []extract.RawPage
		err   error
	)
	switch detectFormat(path) {
	case formatPDF:
		pages, err = e.analyzePDF(ctx, path)
	case formatPPTX:
		var slides []pptxSlide
		slides, err = readPPTX(ctx, path, e.ocr)
		for _, s := range slides {
			pages = append(pages, s.rawPage())
		}
	case formatXLSX:
		var sheets []xlsxSheet
		sheets, err = readXLSX(ctx, path)
		for _, s := range sheets {
			pages = append(pages, s.rawPage())
		}
	default:
		return nil, unsupported(EngineLayout, path, layoutFormats)
	}
	if err != nil {
		return nil, err
	}
	return treeResult(pages)
}

func (e *LayoutEngine) analyzePDF(ctx context.Context, path string) ([]extract.RawPage, error) {
	doc, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPage()
	pages := make([]extract.RawPage, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		texts, err := doc.glyphs(i)
		if err != nil {
			// One unreadable page should not sink the document.
			e.logger.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", err)
			pages = append(pages, extract.RawPage{Number: i})
			continue
		}
		pages = append(pages, analyzePage(i, texts, doc.pageHeight(i)))
	}
	return pages, nil
}

// treeResult wraps pages, failing with ErrEmptyResult when none carries
// content.
func treeResult(pages []extract.RawPage) (*extract.RawResult, error) {
	raw := extract.TreeResult(pages)
	if raw.Empty() {
		return nil, extract.ErrEmptyResult
	}
	return raw, nil
}

// flatResult wraps elements, failing with ErrEmptyResult when there are none.
func flatResult(elements []extract.Element) (*extract.RawResult, error) {
	if len(elements) == 0 {
		return nil, extract.ErrEmptyResult
	}
	return extract.FlatResult(elements), nil
}

func unsupported(engine, path string, s formatSet) error {
	return fmt.Errorf("%w: %s engine cannot read %q (reads: %s)",
		extract.ErrUnsupportedFormat, engine, path, strings.Join(s.extensions(), ", "))
}

package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// Strategy selects how much inference the partition engine applies to
// inputs without explicit structure.
type Strategy string

const (
	// StrategyFast emits paragraph-level text only.
	StrategyFast Strategy = "fast"
	// StrategyHiRes recognises titles, list items, tables and running
	// headers/footers, and OCRs scanned PDF pages and slide pictures.
	StrategyHiRes Strategy = "hi_res"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyFast, StrategyHiRes:
		return st, nil
	}
	return "", fmt.Errorf("unknown partition strategy %q (expected %q or %q)", s, StrategyFast, StrategyHiRes)
}

// PartitionEngine splits a document into a flat, page-numbered element
// sequence. Formats with their own structure (DOCX styles, Markdown
// headings, spreadsheet sheets) keep it under either strategy.
type PartitionEngine struct {
	strategy Strategy
	rec      Recognizer
	pages    *pageOCR
	html     *md.Converter
	logger   *slog.Logger
}

// NewPartitionEngine returns a PartitionEngine. rec and raster are used for
// images always and for scanned PDF pages under StrategyHiRes. Either may be
// nil: images then fail with ErrOCRUnavailable and scanned pages stay empty.
func NewPartitionEngine(strategy Strategy, rec Recognizer, raster *pdfRasterizer, maxPages int, logger *slog.Logger) *PartitionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if strategy == "" {
		strategy = StrategyHiRes
	}
	return &PartitionEngine{
		strategy: strategy,
		rec:      rec,
		pages:    &pageOCR{rec: rec, raster: raster, maxPages: maxPages},
		html:     newHTMLConverter(),
		logger:   logger,
	}
}

func (e *PartitionEngine) Name() string { return EnginePartition }

func (e *PartitionEngine) hiRes() bool { return e.strategy == StrategyHiRes }

func (e *PartitionEngine) Analyze(ctx context.Context, path string) (*extract.RawResult, error) {
	elements, err := e.partition(ctx, path)
	if err != nil {
		return nil, err
	}
	return flatResult(elements)
}

func (e *PartitionEngine) partition(ctx context.Context, path string) ([]extract.Element, error) {
	switch detectFormat(path) {
	case formatPDF:
		if e.hiRes() {
			return e.partitionPDFHiRes(ctx, path)
		}
		texts, err := pdfPageTexts(ctx, path, nil, e.logger)
		if err != nil {
			return nil, err
		}
		return partitionPages(texts, false), nil

	case formatImage:
		text, err := recognizeImage(ctx, e.rec, path)
		if err != nil {
			return nil, err
		}
		return partitionPlainText(text, 1, e.hiRes()), nil

	case formatDOCX:
		return readDOCX(path)

	case formatPPTX:
		var rec Recognizer
		if e.hiRes() {
			rec = e.rec
		}
		slides, err := readPPTX(ctx, path, rec)
		if err != nil {
			return nil, err
		}
		var out []extract.Element
		for _, s := range slides {
			out = append(out, s.elements()...)
		}
		return out, nil

	case formatXLSX:
		sheets, err := readXLSX(ctx, path)
		if err != nil {
			return nil, err
		}
		var out []extract.Element
		for _, s := range sheets {
			out = append(out, s.elements()...)
		}
		return out, nil

	case formatHTML:
		return readHTML(e.html, path)

	case formatMarkdown:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read markdown %s: %w", path, err)
		}
		return partitionMarkdown(string(data)), nil

	case formatText:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read text %s: %w", path, err)
		}
		pages := splitPages(string(data))
		for i := range pages {
			pages[i] = cleanText(pages[i])
		}
		return partitionPages(pages, e.hiRes()), nil

	case formatCSV:
		return readCSV(path)
	case formatJSON:
		return readJSON(path)
	case formatXML:
		return readXML(path)
	}
	return nil, unsupported(EnginePartition, path, partitionFormats)
}

// partitionPDFHiRes classifies the blocks of each page from glyph geometry,
// in reading order. Pages without a text layer are OCR'd and partitioned
// as plain text.
func (e *PartitionEngine) partitionPDFHiRes(ctx context.Context, path string) ([]extract.Element, error) {
	doc, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	sess := e.pages.session(path, e.logger)
	var out []extract.Element
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		texts, err := doc.glyphs(i)
		if err != nil {
			e.logger.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", err)
			continue
		}
		blocks := layoutBlocks(texts, doc.pageHeight(i))
		if len(blocks) == 0 {
			text, err := sess.fill(ctx, i)
			if err != nil {
				return nil, err
			}
			out = append(out, partitionPlainText(text, i, true)...)
			continue
		}
		for _, b := range blocks {
			out = append(out, b.element(i))
		}
	}
	return out, nil
}

// partitionPages partitions per-page text; page i of texts is page i+1.
// Under hi-res, lines repeated at the top or bottom of most pages become
// header and footer elements.
func partitionPages(texts []string, hiRes bool) []extract.Element {
	var headers, footers map[string]bool
	if hiRes {
		headers, footers = runningLines(texts)
	}
	var out []extract.Element
	for i, text := range texts {
		page := i + 1
		body, header, footer := text, "", ""
		if hiRes {
			body, header, footer = stripRunning(text, headers, footers)
		}
		if header != "" {
			out = append(out, extract.Element{Kind: document.KindHeader, Text: header, Page: page, Category: "Header"})
		}
		out = append(out, partitionPlainText(body, page, hiRes)...)
		if footer != "" {
			out = append(out, extract.Element{Kind: document.KindFooter, Text: footer, Page: page, Category: "Footer"})
		}
	}
	return out
}

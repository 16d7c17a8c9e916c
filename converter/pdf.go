package converter

// Shared PDF access via pure-Go text-layer extraction.
//
// Uses github.com/ledongthuc/pdf for parsing. Only the embedded text layer
// is read here; scanned (image-only) pages come back empty and are left to
// the OCR engine.

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

const defaultPageHeight = 792.0 // US Letter, points

type pdfDoc struct {
	f     *os.File
	r     *pdf.Reader
	fonts map[string]*pdf.Font
}

func openPDF(path string) (doc *pdfDoc, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	// The parser panics on some malformed inputs. The file is closed on
	// every failure path.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("open pdf %s: malformed document: %v", path, rec)
		}
		if err != nil {
			f.Close()
		}
	}()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &pdfDoc{f: f, r: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (d *pdfDoc) Close() error { return d.f.Close() }

func (d *pdfDoc) NumPage() int { return d.r.NumPage() }

// page returns page i (1-based) and whether it exists.
func (d *pdfDoc) page(i int) (pdf.Page, bool) {
	p := d.r.Page(i)
	return p, !p.V.IsNull()
}

// plainText returns the text layer of page i; "" for missing pages.
func (d *pdfDoc) plainText(i int) (text string, err error) {
	p, ok := d.page(i)
	if !ok {
		return "", nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf page %d: %v", i, rec)
		}
	}()

	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			f := p.Font(name)
			d.fonts[name] = &f
		}
	}
	text, err = p.GetPlainText(d.fonts)
	if err != nil {
		return "", fmt.Errorf("read pdf page %d: %w", i, err)
	}
	return text, nil
}

// glyphs returns the positioned text runs of page i.
func (d *pdfDoc) glyphs(i int) (texts []pdf.Text, err error) {
	p, ok := d.page(i)
	if !ok {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			texts, err = nil, fmt.Errorf("read pdf page %d content: %v", i, rec)
		}
	}()
	return p.Content().Text, nil
}

// pageHeight reads the MediaBox height of page i, walking up the page tree
// for inherited boxes.
func (d *pdfDoc) pageHeight(i int) float64 {
	p, ok := d.page(i)
	if !ok {
		return defaultPageHeight
	}
	v := p.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}

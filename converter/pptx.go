package converter

// A deck is a ZIP of ppt/slides/slideN.xml parts. Slides are read in numeric
// order and each becomes one page. Element names are matched on their local
// part, so the presentationml (p:) and drawingml (a:) prefixes need no
// namespace handling.

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// pptxSlideRE matches slide parts and captures the slide number.
var pptxSlideRE = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptxItem is one body element of a slide: a paragraph or a table.
type pptxItem struct {
	text  string
	level int // from <a:pPr lvl="N"/>; > 0 means an indented (list) paragraph
	rows  [][]string
}

type pptxSlide struct {
	number  int
	titles  []string
	body    []pptxItem
	figures []string // OCR text of embedded pictures
}

// readPPTX parses every slide of filePath. When rec is non-nil, embedded
// pictures are OCR'd; a missing OCR backend disables that for the rest of
// the deck rather than failing it.
func readPPTX(ctx context.Context, filePath string, rec Recognizer) ([]pptxSlide, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", filePath, err)
	}
	defer func() { _ = zr.Close() }()

	entries := listSlides(zr.File)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no slides found in %s", filePath)
	}

	slides := make([]pptxSlide, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, openErr := e.file.Open()
		if openErr != nil {
			return nil, fmt.Errorf("open slide %d: %w", e.num, openErr)
		}
		slide, parseErr := parseSlideXML(rc)
		_ = rc.Close()
		if parseErr != nil {
			return nil, fmt.Errorf("parse slide %d: %w", e.num, parseErr)
		}
		slide.number = e.num

		if rec != nil {
			figures, ocrErr := ocrSlideImages(ctx, zr, e.num, rec)
			if errors.Is(ocrErr, ErrOCRUnavailable) {
				rec = nil
			}
			slide.figures = figures
		}
		slides = append(slides, slide)
	}
	return slides, nil
}

type slideEntry struct {
	num  int
	file *zip.File
}

// listSlides returns the slide parts of an archive in slide-number order.
func listSlides(files []*zip.File) []slideEntry {
	var entries []slideEntry
	for _, f := range files {
		if m := pptxSlideRE.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			entries = append(entries, slideEntry{num: n, file: f})
		}
	}
	slices.SortFunc(entries, func(a, b slideEntry) int { return a.num - b.num })
	return entries
}

// rawPage lays a slide out as a page tree: body paragraphs are text blocks,
// tables are tables, and titles, indented paragraphs and picture text are
// layout elements.
func (s pptxSlide) rawPage() extract.RawPage {
	page := extract.RawPage{Number: s.number}
	for _, t := range s.titles {
		page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryTitle, extract.Block{Text: t}))
	}
	for _, it := range s.body {
		switch {
		case it.rows != nil:
			page.Tables = append(page.Tables, extract.Block{Rows: it.rows, Text: document.TableCSV(it.rows)})
		case it.level > 0:
			page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryList, extract.Block{Text: it.text}))
		default:
			page.TextBlocks = append(page.TextBlocks, extract.Block{Text: it.text})
		}
	}
	for _, f := range s.figures {
		page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryFigure, extract.Block{Text: f}))
	}
	return page
}

// elements flattens a slide in reading order: titles, body, picture text.
func (s pptxSlide) elements() []extract.Element {
	var out []extract.Element
	for _, t := range s.titles {
		out = append(out, extract.Element{Kind: document.KindTitle, Text: t, Page: s.number, Category: "Title"})
	}
	for _, it := range s.body {
		switch {
		case it.rows != nil:
			out = append(out, extract.Element{Kind: document.KindTable, Rows: it.rows, Page: s.number, Category: "Table"})
		case it.level > 0:
			out = append(out, extract.Element{Kind: document.KindListItem, Text: it.text, Page: s.number, Category: "ListItem"})
		default:
			out = append(out, extract.Element{Kind: document.KindText, Text: it.text, Page: s.number, Category: "NarrativeText"})
		}
	}
	for _, f := range s.figures {
		out = append(out, extract.Element{Kind: document.KindText, Text: f, Page: s.number, Category: "Image"})
	}
	return out
}

// Slide XML state machine

type pptxParser struct {
	stack []string

	// shape-level state
	inShape  bool
	isTitle  bool
	inTxBody bool

	// paragraph-level state
	inPara    bool
	paraLevel int
	paraText  strings.Builder

	// run-level state
	inRun bool

	// table-level state
	inTable  bool
	rows     [][]string
	currRow  []string
	inCell   bool
	cellText strings.Builder

	slide pptxSlide
}

func (p *pptxParser) push(name string) { p.stack = append(p.stack, name) }
func (p *pptxParser) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}
func (p *pptxParser) inCtx(name string) bool { return slices.Contains(p.stack, name) }

func parseSlideXML(r io.Reader) (pptxSlide, error) {
	dec := xml.NewDecoder(r)
	p := &pptxParser{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pptxSlide{}, fmt.Errorf("parse slide xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.push(t.Name.Local)
			p.handleStart(t)
		case xml.EndElement:
			p.handleEnd(t.Name.Local)
			p.pop()
		case xml.CharData:
			p.handleText(string(t))
		}
	}

	return p.slide, nil
}

func (p *pptxParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "sp":
		p.inShape = true
		p.isTitle = false
	case "ph":
		if p.inShape && p.inCtx("nvPr") {
			typ := attrVal(t, "type")
			if typ == "title" || typ == "ctrTitle" {
				p.isTitle = true
			}
		}
	case "txBody":
		if p.inShape {
			p.inTxBody = true
		}
	case "tbl":
		p.inTable = true
		p.rows = nil
	case "tr":
		p.currRow = nil
	case "tc":
		if p.inTable {
			p.inCell = true
			p.cellText.Reset()
		}
	case "p":
		if p.inTxBody || p.inCell {
			p.inPara = true
			p.paraLevel = 0
			p.paraText.Reset()
		}
	case "pPr":
		if p.inPara {
			if lvl, err := strconv.Atoi(attrVal(t, "lvl")); err == nil && lvl > 0 {
				p.paraLevel = lvl
			}
		}
	case "r":
		if p.inPara {
			p.inRun = true
		}
	case "br":
		if p.inPara {
			p.paraText.WriteByte('\n')
		}
	}
}

func (p *pptxParser) handleEnd(local string) {
	switch local {
	case "r":
		p.inRun = false
	case "p":
		p.endPara()
	case "tc":
		if p.inTable {
			p.currRow = append(p.currRow, cleanText(p.cellText.String()))
			p.inCell = false
		}
	case "tr":
		if p.inTable {
			if len(p.currRow) > 0 {
				p.rows = append(p.rows, p.currRow)
			}
			p.currRow = nil
		}
	case "tbl":
		if p.inTable {
			if len(p.rows) > 0 {
				p.slide.body = append(p.slide.body, pptxItem{rows: p.rows})
			}
			p.inTable = false
		}
	case "txBody":
		p.inTxBody = false
		p.inPara = false // safety reset for malformed XML
	case "sp":
		p.inShape = false
		p.isTitle = false
	}
}

func (p *pptxParser) endPara() {
	if !p.inPara {
		return
	}
	if p.inCell {
		// Cell paragraphs were written straight into cellText.
		p.cellText.WriteByte('\n')
	} else if text := cleanText(p.paraText.String()); text != "" {
		switch {
		case p.isTitle:
			p.slide.titles = append(p.slide.titles, text)
		case p.inTxBody:
			p.slide.body = append(p.slide.body, pptxItem{text: text, level: p.paraLevel})
		}
	}
	p.inPara = false
	p.paraText.Reset()
}

func (p *pptxParser) handleText(text string) {
	if !p.inRun {
		return
	}
	if p.inCell {
		p.cellText.WriteString(text)
	} else {
		p.paraText.WriteString(text)
	}
}

// Picture OCR

// scanStartElements calls fn for every start element in r.
func scanStartElements(r io.Reader, fn func(xml.StartElement)) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if t, ok := tok.(xml.StartElement); ok {
			fn(t)
		}
	}
}

// parseSlideImageRels lists the distinct relationship IDs referenced by
// <a:blip r:embed> in a slide, in document order.
func parseSlideImageRels(r io.Reader) ([]string, error) {
	var ids []string
	err := scanStartElements(r, func(t xml.StartElement) {
		if t.Name.Local != "blip" {
			return
		}
		if id := attrVal(t, "embed"); id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan slide pictures: %w", err)
	}
	return ids, nil
}

// parseRelsFile maps relationship IDs to targets.
func parseRelsFile(r io.Reader) (map[string]string, error) {
	rels := make(map[string]string)
	err := scanStartElements(r, func(t xml.StartElement) {
		if t.Name.Local != "Relationship" {
			return
		}
		if id, target := attrVal(t, "Id"), attrVal(t, "Target"); id != "" && target != "" {
			rels[id] = target
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan relationships: %w", err)
	}
	return rels, nil
}

func slideRelsPath(slideNum int) string {
	return fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum)
}

// resolveZIPPath turns a relationship target into an archive path. Targets
// are relative to the part that owns the rels file, i.e. the directory above
// _rels/.
func resolveZIPPath(relsFilePath, target string) string {
	return path.Join(path.Dir(path.Dir(relsFilePath)), target)
}

func openZIPEntry(zr *zip.ReadCloser, name string) (io.ReadCloser, bool, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			return rc, true, err
		}
	}
	return nil, false, nil
}

// ocrSlideImages finds all image references in slideNum and returns the OCR
// text of each picture that yields any. Individual unreadable images are
// skipped; ErrOCRUnavailable is returned as soon as it is seen.
func ocrSlideImages(ctx context.Context, zr *zip.ReadCloser, slideNum int, rec Recognizer) ([]string, error) {
	rc, ok, err := openZIPEntry(zr, fmt.Sprintf("ppt/slides/slide%d.xml", slideNum))
	if !ok {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open slide %d for OCR: %w", slideNum, err)
	}
	embedIDs, err := parseSlideImageRels(rc)
	_ = rc.Close()
	if err != nil || len(embedIDs) == 0 {
		return nil, err
	}

	relsPath := slideRelsPath(slideNum)
	idToTarget := make(map[string]string)
	if rc, ok, err := openZIPEntry(zr, relsPath); ok {
		if err != nil {
			return nil, fmt.Errorf("open rels %s: %w", relsPath, err)
		}
		idToTarget, err = parseRelsFile(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
	}

	var texts []string
	for _, id := range embedIDs {
		target, ok := idToTarget[id]
		if !ok {
			continue
		}
		imgPath := resolveZIPPath(relsPath, target)
		if detectFormat(imgPath) != formatImage {
			continue // EMF/WMF and friends
		}
		text, err := ocrZIPImage(ctx, zr, imgPath, rec)
		if errors.Is(err, ErrOCRUnavailable) {
			return texts, err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// ocrZIPImage copies one archive entry to a temp file and recognises it.
func ocrZIPImage(ctx context.Context, zr *zip.ReadCloser, name string, rec Recognizer) (string, error) {
	rc, ok, err := openZIPEntry(zr, name)
	if !ok || err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp("", "docextract-slide-*"+path.Ext(name))
	if err != nil {
		return "", fmt.Errorf("create temp file for slide image: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, copyErr := io.Copy(tmp, rc)
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return "", fmt.Errorf("extract %s: %w", name, copyErr)
	}
	return rec.Recognize(ctx, tmp.Name())
}

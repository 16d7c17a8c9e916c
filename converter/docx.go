package converter

// DOCX → element sequence.
//
// DOCX files are ZIP archives containing OOXML. The main document lives at
// word/document.xml; running headers and footers live in word/header*.xml
// and word/footer*.xml. We stream-parse the XML, tracking paragraph, run and
// table context, and emit one element per paragraph or table. Page numbers
// come from explicit page breaks and the lastRenderedPageBreak markers Word
// leaves behind when it saves a laid-out document.

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

var (
	docxHeaderRE = regexp.MustCompile(`^word/header(\d*)\.xml$`)
	docxFooterRE = regexp.MustCompile(`^word/footer(\d*)\.xml$`)
)

func readDOCX(filePath string) ([]extract.Element, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", filePath, err)
	}
	defer func() { _ = zr.Close() }()

	var (
		docFile          *zip.File
		headers, footers []*zip.File
	)
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			docFile = f
		case docxHeaderRE.MatchString(f.Name):
			headers = append(headers, f)
		case docxFooterRE.MatchString(f.Name):
			footers = append(footers, f)
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in %s", filePath)
	}

	body, err := parseDOCXPart(docFile)
	if err != nil {
		return nil, err
	}
	lastPage := 1
	for _, el := range body {
		lastPage = max(lastPage, el.Page)
	}

	headerTexts, err := partTexts(headers)
	if err != nil {
		return nil, err
	}
	footerTexts, err := partTexts(footers)
	if err != nil {
		return nil, err
	}

	elements := make([]extract.Element, 0, len(headerTexts)+len(body)+len(footerTexts))
	for _, t := range headerTexts {
		elements = append(elements, extract.Element{Kind: document.KindHeader, Text: t, Page: 1, Category: "Header"})
	}
	elements = append(elements, body...)
	for _, t := range footerTexts {
		elements = append(elements, extract.Element{Kind: document.KindFooter, Text: t, Page: lastPage, Category: "Footer"})
	}
	return elements, nil
}

func parseDOCXPart(f *zip.File) ([]extract.Element, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	els, err := parseDocumentXML(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return els, nil
}

// partTexts returns the distinct non-empty texts of header or footer parts,
// in part-number order. Word keeps separate parts for first, even and
// default pages and they often repeat.
func partTexts(files []*zip.File) ([]string, error) {
	sort.Slice(files, func(i, j int) bool { return partNumber(files[i].Name) < partNumber(files[j].Name) })

	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		els, err := parseDOCXPart(f)
		if err != nil {
			return nil, err
		}
		parts := make([]string, 0, len(els))
		for _, el := range els {
			parts = append(parts, el.Text)
		}
		text := strings.Join(parts, "\n")
		if text != "" && !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	}
	return out, nil
}

func partNumber(name string) int {
	digits := strings.TrimFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	n, _ := strconv.Atoi(digits)
	return n
}

// ---------------------------------------------------------------------------
// Streaming XML parser
// ---------------------------------------------------------------------------

type docxParser struct {
	elements []extract.Element

	// element name stack for context queries
	stack []string

	// page tracking
	page         int
	pendingBreak bool
	lastBreak    breakMark

	// paragraph state
	inPara    bool
	paraStyle string
	isList    bool
	paraText  strings.Builder

	// run state
	inRun bool

	// table state
	tableDepth int
	rows       [][]string
	currRow    []string
	inCell     bool
	cellText   strings.Builder
}

// breakMark records where a page break was seen so the explicit break and
// Word's rendered-break marker for the same boundary count once.
type breakMark struct {
	elements int
	textLen  int
	set      bool
}

func (p *docxParser) push(name string) { p.stack = append(p.stack, name) }
func (p *docxParser) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}
func (p *docxParser) inCtx(name string) bool {
	for _, s := range p.stack {
		if s == name {
			return true
		}
	}
	return false
}

func parseDocumentXML(r io.Reader) ([]extract.Element, error) {
	dec := xml.NewDecoder(r)
	p := &docxParser{page: 1}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
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

	return p.elements, nil
}

func (p *docxParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {

	// --- table ---
	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.rows = nil
		}
	case "tr":
		if p.tableDepth == 1 {
			p.currRow = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.inCell = true
			p.cellText.Reset()
		}

	// --- paragraph ---
	case "p":
		if p.inCell {
			if p.cellText.Len() > 0 {
				p.cellText.WriteByte('\n')
			}
			return
		}
		p.inPara = true
		p.paraStyle = ""
		p.isList = false
		p.paraText.Reset()
	case "pStyle":
		if p.inPara && p.inCtx("pPr") {
			p.paraStyle = attrVal(t, "val")
		}
	case "numPr":
		if p.inPara {
			p.isList = true
		}

	// --- run ---
	case "r":
		p.inRun = true
	case "br":
		if attrVal(t, "type") == "page" {
			p.pageBreak()
		} else if p.inRun {
			p.writeText("\n")
		}
	case "lastRenderedPageBreak":
		p.pageBreak()
	case "tab":
		if p.inRun {
			p.writeText("\t")
		}
	}
}

// pageBreak advances the page immediately when nothing of the current
// paragraph has been written yet, otherwise after the paragraph closes.
func (p *docxParser) pageBreak() {
	mark := breakMark{elements: len(p.elements), textLen: p.paraText.Len(), set: true}
	if mark == p.lastBreak {
		return
	}
	p.lastBreak = mark
	if p.inPara && p.paraText.Len() > 0 {
		p.pendingBreak = true
		return
	}
	p.page++
}

func (p *docxParser) handleEnd(local string) {
	switch local {

	case "r":
		p.inRun = false

	case "p":
		if !p.inPara {
			return
		}
		if text := cleanText(p.paraText.String()); text != "" {
			kind, category := classifyDOCXParagraph(p.paraStyle, p.isList)
			p.elements = append(p.elements, extract.Element{
				Kind: kind, Text: text, Page: p.page, Category: category,
			})
		}
		p.inPara = false
		if p.pendingBreak {
			p.pendingBreak = false
			p.page++
			p.lastBreak = breakMark{elements: len(p.elements), set: true}
		}

	case "tc":
		if p.tableDepth == 1 {
			p.currRow = append(p.currRow, cleanText(p.cellText.String()))
			p.inCell = false
			p.cellText.Reset()
		}

	case "tr":
		if p.tableDepth == 1 {
			if len(p.currRow) > 0 {
				p.rows = append(p.rows, p.currRow)
			}
			p.currRow = nil
		}

	case "tbl":
		p.tableDepth--
		if p.tableDepth == 0 {
			if len(p.rows) > 0 {
				p.elements = append(p.elements, extract.Element{
					Kind: document.KindTable, Page: p.page, Rows: p.rows, Category: "Table",
				})
			}
			p.rows = nil
		}
	}
}

func (p *docxParser) handleText(text string) {
	if p.inRun && p.inCtx("t") {
		p.writeText(text)
	}
}

func (p *docxParser) writeText(text string) {
	if p.inCell {
		p.cellText.WriteString(text)
	} else if p.inPara {
		p.paraText.WriteString(text)
	}
}

// classifyDOCXParagraph maps a paragraph style and numbering to a kind plus
// the element category name reported alongside it.
func classifyDOCXParagraph(style string, isList bool) (document.Kind, string) {
	s := strings.ToLower(style)
	switch {
	case s == "title" || s == "subtitle" || strings.HasPrefix(s, "heading"):
		return document.KindTitle, "Title"
	case isList || strings.HasPrefix(s, "list"):
		return document.KindListItem, "ListItem"
	}
	return document.KindText, "NarrativeText"
}

func attrVal(t xml.StartElement, localName string) string {
	for _, a := range t.Attr {
		if a.Name.Local == localName {
			return a.Value
		}
	}
	return ""
}

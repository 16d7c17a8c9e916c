package converter

// Geometric page analysis over positioned glyphs.
//
// Glyphs are bucketed into lines by baseline, lines are split into cells on
// wide horizontal gaps, and consecutive lines are merged into blocks. Each
// block is then labelled: running header/footer by position on the page,
// title by font size relative to the body, list by a leading bullet, table
// when two or more consecutive lines share the same multi-cell shape.

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

const (
	rowTolerance   = 3.0  // points; glyphs within this baseline distance share a line
	wordGapRatio   = 0.25 // of font size; larger gaps insert a space
	cellGapRatio   = 1.5  // of font size; larger gaps start a new cell
	blockGapRatio  = 1.0  // of font size; larger vertical gaps start a new block
	titleSizeRatio = 1.25 // of body size
	marginRatio    = 0.07 // of page height, top and bottom running zones
)

// Layout categories emitted by the layout engine.
const (
	categoryTitle      = "title"
	categoryList       = "list"
	categoryPageHeader = "page_header"
	categoryPageFooter = "page_footer"
	categoryFigure     = "figure"
)

type lineCell struct {
	text   string
	x0, x1 float64
}

type glyphLine struct {
	cells  []lineCell
	x0, x1 float64
	yBase  float64 // lowest baseline
	yTop   float64 // highest baseline + font size
	size   float64 // largest font size
}

func (l glyphLine) text() string {
	parts := make([]string, 0, len(l.cells))
	for _, c := range l.cells {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

func (l glyphLine) cellTexts() []string {
	out := make([]string, len(l.cells))
	for i, c := range l.cells {
		out[i] = c.text
	}
	return out
}

// groupLines buckets glyphs into lines ordered top to bottom.
func groupLines(texts []pdf.Text) []glyphLine {
	type bucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}
	var buckets []bucket
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-rowTolerance && t.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = min(buckets[i].yMin, t.Y)
				buckets[i].yMax = max(buckets[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	lines := make([]glyphLine, 0, len(buckets))
	for _, b := range buckets {
		if l, ok := buildLine(b.texts, b.yMin); ok {
			lines = append(lines, l)
		}
	}
	return lines
}

func buildLine(texts []pdf.Text, yBase float64) (glyphLine, bool) {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	l := glyphLine{yBase: yBase}
	var cur strings.Builder
	var cellX0, prevEnd float64
	first := true

	closeCell := func() {
		if s := collapseSpaces(cur.String()); s != "" {
			l.cells = append(l.cells, lineCell{text: s, x0: cellX0, x1: prevEnd})
		}
		cur.Reset()
	}

	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		l.size = max(l.size, size)
		l.yTop = max(l.yTop, t.Y+size)

		blank := strings.TrimSpace(t.S) == ""
		if first {
			if blank {
				continue
			}
			cellX0 = t.X
			l.x0 = t.X
			first = false
		} else {
			gap := t.X - prevEnd
			switch {
			case gap > cellGapRatio*size && !blank:
				closeCell()
				cellX0 = t.X
			case gap > wordGapRatio*size:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		prevEnd = max(prevEnd, t.X+t.W)
	}
	closeCell()
	if len(l.cells) == 0 {
		return glyphLine{}, false
	}
	l.x1 = prevEnd
	return l, true
}

// bodySize is the median line font size.
func bodySize(lines []glyphLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	sizes := make([]float64, len(lines))
	for i, l := range lines {
		sizes[i] = l.size
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// lineBox converts PDF user space (origin bottom-left) into a top-left origin
// box so y grows down the page like every other engine's geometry.
func lineBox(lines []glyphLine, pageHeight float64) *document.BoundingBox {
	b := document.BoundingBox{X0: lines[0].x0, X1: lines[0].x1, Y0: pageHeight - lines[0].yTop, Y1: pageHeight - lines[0].yBase}
	for _, l := range lines[1:] {
		b = b.Union(document.BoundingBox{X0: l.x0, X1: l.x1, Y0: pageHeight - l.yTop, Y1: pageHeight - l.yBase})
	}
	return &b
}

var glyphBullets = []string{"•", "◦", "▪", "‣", "○", "■"}

// isBullet reports whether s starts like a list item: a bullet glyph or a
// "-", "1." or "a)" marker.
func isBullet(s string) bool {
	if listMarkerRE.MatchString(s) {
		return true
	}
	for _, b := range glyphBullets {
		if strings.HasPrefix(s, b) {
			return true
		}
	}
	return false
}

// stripBullet removes a leading list marker.
func stripBullet(s string) string {
	if loc := listMarkerRE.FindStringIndex(s); loc != nil {
		return s[loc[1]:]
	}
	for _, b := range glyphBullets {
		if rest, ok := strings.CutPrefix(s, b); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

type lineClass int

const (
	classBody lineClass = iota
	classTitle
	classList
	classHeader
	classFooter
	classTable
)

// pageBlock is one classified block of a page, in reading order.
type pageBlock struct {
	class lineClass
	text  string
	rows  [][]string
	bbox  *document.BoundingBox
}

// layoutBlocks groups glyphs into classified blocks, top to bottom.
// pageHeight is the MediaBox height in points.
func layoutBlocks(texts []pdf.Text, pageHeight float64) []pageBlock {
	lines := groupLines(texts)
	if len(lines) == 0 {
		return nil
	}
	if pageHeight <= 0 {
		pageHeight = defaultPageHeight
	}

	body := bodySize(lines)
	classes := make([]lineClass, len(lines))
	for i, l := range lines {
		switch {
		case l.yTop >= pageHeight*(1-marginRatio):
			classes[i] = classHeader
		case l.yBase <= pageHeight*marginRatio:
			classes[i] = classFooter
		case l.size >= body*titleSizeRatio:
			classes[i] = classTitle
		case isBullet(l.text()):
			classes[i] = classList
		}
	}
	markTables(lines, classes)

	var blocks []pageBlock
	for i := 0; i < len(lines); {
		j := i + 1
		for j < len(lines) && sameBlock(lines[j-1], lines[j], classes[i], classes[j]) {
			j++
		}
		group := lines[i:j]
		b := pageBlock{class: classes[i], bbox: lineBox(group, pageHeight)}
		if b.class == classTable {
			b.rows = make([][]string, len(group))
			for k, l := range group {
				b.rows[k] = l.cellTexts()
			}
			b.text = document.TableCSV(b.rows)
		} else {
			b.text = joinLines(group)
		}
		if b.class == classList {
			b.text = stripBullet(b.text)
		}
		blocks = append(blocks, b)
		i = j
	}
	return blocks
}

// analyzePage lays out one page as a page tree.
func analyzePage(number int, texts []pdf.Text, pageHeight float64) extract.RawPage {
	page := extract.RawPage{Number: number}
	for _, b := range layoutBlocks(texts, pageHeight) {
		block := extract.Block{Text: b.text, BBox: b.bbox, Rows: b.rows}
		switch b.class {
		case classTable:
			page.Tables = append(page.Tables, block)
		case classHeader:
			page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryPageHeader, block))
		case classFooter:
			page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryPageFooter, block))
		case classTitle:
			page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryTitle, block))
		case classList:
			page.Layouts = append(page.Layouts, extract.NewLayoutBlock(categoryList, block))
		default:
			page.TextBlocks = append(page.TextBlocks, block)
		}
	}
	return page
}

var blockElementKinds = map[lineClass]struct {
	kind     document.Kind
	category string
}{
	classBody:   {document.KindText, "NarrativeText"},
	classTitle:  {document.KindTitle, "Title"},
	classList:   {document.KindListItem, "ListItem"},
	classHeader: {document.KindHeader, "Header"},
	classFooter: {document.KindFooter, "Footer"},
	classTable:  {document.KindTable, "Table"},
}

// element converts a block to a flat element on page.
func (b pageBlock) element(page int) extract.Element {
	k := blockElementKinds[b.class]
	return extract.Element{Kind: k.kind, Text: b.text, Page: page, BBox: b.bbox, Category: k.category, Rows: b.rows}
}

// markTables relabels runs of two or more body lines that split into the
// same number (>= 2) of cells.
func markTables(lines []glyphLine, classes []lineClass) {
	for i := 0; i < len(lines); {
		n := len(lines[i].cells)
		if n < 2 || classes[i] == classHeader || classes[i] == classFooter {
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && len(lines[j].cells) == n &&
			classes[j] != classHeader && classes[j] != classFooter {
			j++
		}
		if j-i >= 2 {
			for k := i; k < j; k++ {
				classes[k] = classTable
			}
		}
		i = j
	}
}

// sameBlock reports whether cur continues the block prev belongs to.
func sameBlock(prev, cur glyphLine, blockClass, curClass lineClass) bool {
	if curClass != blockClass {
		return false
	}
	switch curClass {
	case classTable, classHeader, classFooter:
		return true
	case classList:
		// every bullet starts its own item
		return false
	}
	gap := prev.yBase - cur.yTop
	return gap <= blockGapRatio*max(prev.size, cur.size)
}

func joinLines(lines []glyphLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text()
	}
	return cleanText(strings.Join(parts, "\n"))
}

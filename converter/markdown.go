package converter

// Markdown → element sequence.
//
// Handles the block constructs html-to-markdown emits and people write by
// hand: ATX and setext headings, bullet and ordered lists, pipe tables,
// fenced code, block quotes and paragraphs. Inline markup is stripped from
// element text.

import (
	"regexp"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

var (
	mdHeadingRE   = regexp.MustCompile(`^ {0,3}#{1,6}\s+(.*?)\s*#*\s*$`)
	mdSetextRE    = regexp.MustCompile(`^ {0,3}(=+|-+)\s*$`)
	mdListRE      = regexp.MustCompile(`^\s*(?:[-*+]|\d{1,9}[.)])\s+(?:\[[ xX]\]\s+)?`)
	mdRuleRE      = regexp.MustCompile(`^ {0,3}(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	mdFenceRE     = regexp.MustCompile("^ {0,3}(```|~~~)")
	mdTableSepRE  = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(?:\|\s*:?-+:?\s*)*\|?\s*$`)
	mdImageRE     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkRE      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdStrongRE    = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdEmRE        = regexp.MustCompile(`\*([^*\s][^*]*)\*`)
	mdCodeRE      = regexp.MustCompile("`([^`]*)`")
	mdStrikeRE    = regexp.MustCompile(`~~(.+?)~~`)
	mdEscapeRE    = regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!|>~])`)
	mdBlockquoteR = regexp.MustCompile(`^\s*>\s?`)
)

type mdPartitioner struct {
	page  int
	out   []extract.Element
	para  []string
	table [][]string
}

func (m *mdPartitioner) emit(kind document.Kind, category, text string) {
	if text = cleanText(text); text != "" {
		m.out = append(m.out, extract.Element{Kind: kind, Text: text, Page: m.page, Category: category})
	}
}

func (m *mdPartitioner) flushPara() {
	if len(m.para) > 0 {
		m.emit(document.KindText, "NarrativeText", stripInline(joinParagraph(m.para)))
		m.para = nil
	}
}

func (m *mdPartitioner) flushTable() {
	if len(m.table) > 0 {
		m.out = append(m.out, extract.Element{Kind: document.KindTable, Rows: m.table, Page: m.page, Category: "Table"})
		m.table = nil
	}
}

func (m *mdPartitioner) flush() {
	m.flushPara()
	m.flushTable()
}

// partitionMarkdown splits Markdown into elements starting at page 1. Form
// feeds advance the page.
func partitionMarkdown(src string) []extract.Element {
	m := &mdPartitioner{}
	for i, pageText := range splitPages(src) {
		m.page = i + 1
		m.partitionPage(pageText)
		m.flush()
	}
	return m.out
}

func (m *mdPartitioner) partitionPage(src string) {
	lines := splitLines(src)
	for i := 0; i < len(lines); i++ {
		line := mdBlockquoteR.ReplaceAllString(lines[i], "")
		trimmed := strings.TrimSpace(line)

		if fence := mdFenceRE.FindStringSubmatch(line); fence != nil {
			m.flush()
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), fence[1]); i++ {
				code = append(code, lines[i])
			}
			m.emit(document.KindText, "CodeSnippet", strings.Join(code, "\n"))
			continue
		}

		switch {
		case trimmed == "":
			m.flush()
		case strings.HasPrefix(trimmed, "|"):
			m.flushPara()
			if !mdTableSepRE.MatchString(trimmed) {
				m.table = append(m.table, splitPipeRow(trimmed))
			}
		case mdHeadingRE.MatchString(line):
			m.flush()
			m.emit(document.KindTitle, "Title", stripInline(mdHeadingRE.FindStringSubmatch(line)[1]))
		case len(m.para) == 1 && mdSetextRE.MatchString(line):
			heading := m.para[0]
			m.para = nil
			m.emit(document.KindTitle, "Title", stripInline(heading))
		case mdRuleRE.MatchString(line):
			m.flush()
		case mdListRE.MatchString(line):
			m.flush()
			m.emit(document.KindListItem, "ListItem", stripInline(mdListRE.ReplaceAllString(line, "")))
		default:
			m.flushTable()
			m.para = append(m.para, line)
		}
	}
}

// splitPipeRow splits "| a | b |" into cells, honouring escaped pipes.
func splitPipeRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}
	const placeholder = "\x00"
	row = strings.ReplaceAll(row, `\|`, placeholder)
	parts := strings.Split(row, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = cleanText(stripInline(strings.ReplaceAll(p, placeholder, "|")))
	}
	return cells
}

// stripInline removes inline Markdown markup, keeping the visible text.
func stripInline(s string) string {
	s = mdImageRE.ReplaceAllString(s, "$1")
	s = mdLinkRE.ReplaceAllString(s, "$1")
	s = mdStrongRE.ReplaceAllString(s, "$2")
	s = mdEmRE.ReplaceAllString(s, "$1")
	s = mdStrikeRE.ReplaceAllString(s, "$1")
	s = mdCodeRE.ReplaceAllString(s, "$1")
	s = mdEscapeRE.ReplaceAllString(s, "$1")
	return s
}

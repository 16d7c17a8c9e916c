package converter

// Text heuristics shared by the partition engine for inputs
// that carry no structure of their own (PDF text layers, plain text, OCR
// output).

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

const (
	titleMaxWords   = 12
	runningMinPages = 2
	runningMinShare = 0.5
	tableMinCells   = 2
	tableMinRows    = 2
	pageBreak       = "\f"
)

var (
	cellSplitRE  = regexp.MustCompile(`\t+| {2,}`)
	digitsRE     = regexp.MustCompile(`\d+`)
	listMarkerRE = regexp.MustCompile(`^\s*(?:[•◦▪‣○■–*+-]|\d{1,3}[.)]|[a-z][.)])\s+`)
)

// splitPages splits text on form feeds. Page i of the result is page i+1.
func splitPages(text string) []string {
	return strings.Split(text, pageBreak)
}

// splitParagraphs returns the blank-line separated paragraphs of text, each
// as its non-empty lines.
func splitParagraphs(text string) [][]string {
	var (
		paras [][]string
		cur   []string
	)
	for _, line := range splitLines(text) {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				paras = append(paras, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		paras = append(paras, cur)
	}
	return paras
}

// partitionPlainText turns one page of unstructured text into elements.
// With hiRes false every paragraph is a text element; otherwise titles,
// list items and whitespace-aligned tables are recognised.
func partitionPlainText(text string, page int, hiRes bool) []extract.Element {
	var out []extract.Element
	for _, para := range splitParagraphs(text) {
		if !hiRes {
			if t := cleanText(joinParagraph(para)); t != "" {
				out = append(out, extract.Element{Kind: document.KindText, Text: t, Page: page, Category: "NarrativeText"})
			}
			continue
		}
		out = append(out, classifyParagraph(para, page)...)
	}
	return out
}

// classifyParagraph splits a paragraph into runs of list lines, table lines
// and prose, and labels each run.
func classifyParagraph(lines []string, page int) []extract.Element {
	var (
		out   []extract.Element
		prose []string
	)
	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		text := cleanText(joinParagraph(prose))
		if text != "" {
			if len(prose) == 1 && isTitleLine(text) {
				out = append(out, extract.Element{Kind: document.KindTitle, Text: text, Page: page, Category: "Title"})
			} else {
				out = append(out, extract.Element{Kind: document.KindText, Text: text, Page: page, Category: "NarrativeText"})
			}
		}
		prose = nil
	}

	for i := 0; i < len(lines); {
		if rows := tableRun(lines[i:]); len(rows) >= tableMinRows {
			flushProse()
			out = append(out, extract.Element{Kind: document.KindTable, Rows: rows, Page: page, Category: "Table"})
			i += len(rows)
			continue
		}
		if loc := listMarkerRE.FindStringIndex(lines[i]); loc != nil {
			flushProse()
			item := lines[i][loc[1]:]
			i++
			// indented continuation lines belong to the item
			for i < len(lines) && startsIndented(lines[i]) && listMarkerRE.FindStringIndex(lines[i]) == nil {
				item += " " + strings.TrimSpace(lines[i])
				i++
			}
			if t := cleanText(item); t != "" {
				out = append(out, extract.Element{Kind: document.KindListItem, Text: t, Page: page, Category: "ListItem"})
			}
			continue
		}
		prose = append(prose, lines[i])
		i++
	}
	flushProse()
	return out
}

// tableRun returns the leading lines of lines that split into the same
// number (>= 2) of whitespace-separated cells.
func tableRun(lines []string) [][]string {
	var rows [][]string
	width := 0
	for _, l := range lines {
		cells := splitCells(l)
		if len(cells) < tableMinCells || (width != 0 && len(cells) != width) {
			break
		}
		width = len(cells)
		rows = append(rows, cells)
	}
	return rows
}

func splitCells(line string) []string {
	var cells []string
	for _, c := range cellSplitRE.Split(strings.TrimSpace(line), -1) {
		if c = cleanText(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// isTitleLine reports whether a single isolated line reads like a heading:
// short, containing letters, and not ending like a sentence.
func isTitleLine(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > titleMaxWords {
		return false
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return false
	}
	last, _ := lastRune(s)
	return !strings.ContainsRune(".,;:!?", last)
}

func lastRune(s string) (rune, bool) {
	r := []rune(s)
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

func startsIndented(s string) bool {
	return strings.HasPrefix(s, " ") || strings.HasPrefix(s, "\t")
}

// joinParagraph joins wrapped lines into one string, mending hyphenated
// line breaks.
func joinParagraph(lines []string) string {
	var sb strings.Builder
	for i, l := range lines {
		l = strings.TrimSpace(l)
		if i > 0 {
			prev := sb.String()
			if strings.HasSuffix(prev, "-") && len(prev) > 1 && unicode.IsLetter(rune(prev[len(prev)-2])) {
				s := sb.String()
				sb.Reset()
				sb.WriteString(s[:len(s)-1])
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(l)
	}
	return collapseSpaces(sb.String())
}

// runningLines finds the first and last lines that repeat across pages,
// comparing with digits masked so "Page 3" matches "Page 4". It returns the
// masked forms.
func runningLines(pages []string) (headers, footers map[string]bool) {
	headers, footers = map[string]bool{}, map[string]bool{}
	if len(pages) < runningMinPages {
		return headers, footers
	}
	firsts, lasts := map[string]int{}, map[string]int{}
	for _, p := range pages {
		first, last := edgeLines(p)
		if first != "" {
			firsts[maskDigits(first)]++
		}
		if last != "" && last != first {
			lasts[maskDigits(last)]++
		}
	}
	need := max(runningMinPages, int(float64(len(pages))*runningMinShare+0.5))
	for k, n := range firsts {
		if n >= need {
			headers[k] = true
		}
	}
	for k, n := range lasts {
		if n >= need {
			footers[k] = true
		}
	}
	return headers, footers
}

func edgeLines(page string) (first, last string) {
	for _, l := range splitLines(page) {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		if first == "" {
			first = l
		}
		last = l
	}
	return first, last
}

func maskDigits(s string) string {
	return digitsRE.ReplaceAllString(collapseSpaces(s), "#")
}

// stripRunning removes the page's first and last non-empty lines when they
// are running header/footer lines, returning them separately.
func stripRunning(page string, headers, footers map[string]bool) (body, header, footer string) {
	lines := splitLines(page)
	firstIdx, lastIdx := -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			if firstIdx < 0 {
				firstIdx = i
			}
			lastIdx = i
		}
	}
	if firstIdx < 0 {
		return page, "", ""
	}
	if headers[maskDigits(strings.TrimSpace(lines[firstIdx]))] {
		header = strings.TrimSpace(lines[firstIdx])
		lines[firstIdx] = ""
	}
	if lastIdx != firstIdx && footers[maskDigits(strings.TrimSpace(lines[lastIdx]))] {
		footer = strings.TrimSpace(lines[lastIdx])
		lines[lastIdx] = ""
	}
	return strings.Join(lines, "\n"), header, footer
}

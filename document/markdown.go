package document

// markdown.go renders an ExtractedDocument as GitHub-Flavored Markdown.
// Pages are separated by a horizontal rule; tables go through the shared
// renderMarkdownTable so every table looks the same regardless of engine.

import (
	"fmt"
	"strings"
)

const (
	minColWidth = 3 // minimum separator width for a valid Markdown table (---)
	pageSep     = "\n---\n\n"
)

// RenderMarkdown converts d into Markdown.
func RenderMarkdown(d *ExtractedDocument) string {
	var parts []string
	for _, p := range d.Pages {
		var sb strings.Builder
		if p.Number > 0 {
			fmt.Fprintf(&sb, "<!-- page %d -->\n\n", p.Number)
		} else {
			sb.WriteString("<!-- unnumbered -->\n\n")
		}
		for _, it := range p.Items {
			if block := renderItem(it); block != "" {
				sb.WriteString(block)
				sb.WriteString("\n\n")
			}
		}
		parts = append(parts, strings.TrimRight(sb.String(), "\n"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, pageSep) + "\n"
}

func renderItem(it ContentItem) string {
	text := strings.TrimSpace(it.Text)
	switch it.Kind {
	case KindTitle:
		if text == "" {
			return ""
		}
		return "## " + text
	case KindListItem:
		if text == "" {
			return ""
		}
		return "- " + text
	case KindTable:
		rows := it.TableData
		if len(rows) == 0 {
			rows = ParseTableCSV(text)
		}
		if t := renderMarkdownTable(rows); t != "" {
			return strings.TrimRight(t, "\n")
		}
		return text
	case KindHeader, KindFooter:
		if text == "" {
			return ""
		}
		return "_" + text + "_"
	default:
		return text
	}
}

// renderMarkdownTable converts a [][]string into a GitHub-Flavored Markdown
// table. The first row is treated as the header. Each column is padded to the
// width of its widest cell (minimum minColWidth).
func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		return ""
	}

	widths := make([]int, maxCols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range rows {
		for i, raw := range row {
			if w := len(escapeCell(raw)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return escapeCell(row[col])
		}
		return ""
	}
	pad := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}
	writeRow := func(sb *strings.Builder, row []string) {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + pad(cell(row, i), widths[i]) + " |")
		}
		sb.WriteByte('\n')
	}

	var sb strings.Builder
	writeRow(&sb, rows[0])
	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + strings.Repeat("-", widths[i]) + " |")
	}
	sb.WriteByte('\n')
	for _, row := range rows[1:] {
		writeRow(&sb, row)
	}
	return sb.String()
}

// escapeCell keeps pipes and newlines from breaking the table syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

package converter

// XLSX workbooks using the excelize library.
// Each sheet is one page: the sheet name is its title and the used range
// its table. Empty sheets still occupy a page number so numbering matches
// the workbook's tab order.

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

type xlsxSheet struct {
	number int
	name   string
	rows   [][]string
}

func readXLSX(ctx context.Context, filePath string) ([]xlsxSheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	sheets := make([]xlsxSheet, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q in %s: %w", name, filePath, err)
		}
		sheets = append(sheets, xlsxSheet{number: i + 1, name: name, rows: trimRows(rows)})
	}
	return sheets, nil
}

// trimRows drops trailing blank rows and cleans every cell. GetRows already
// omits trailing empty cells per row.
func trimRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cleanText(c)
		}
		out = append(out, cells)
	}
	for len(out) > 0 && strings.Join(out[len(out)-1], "") == "" {
		out = out[:len(out)-1]
	}
	return out
}

func (s xlsxSheet) rawPage() extract.RawPage {
	page := extract.RawPage{Number: s.number}
	if len(s.rows) == 0 {
		return page
	}
	page.Tables = []extract.Block{{Rows: s.rows, Text: document.TableCSV(s.rows)}}
	page.Layouts = []extract.LayoutBlock{extract.NewLayoutBlock(categoryTitle, extract.Block{Text: s.name})}
	return page
}

func (s xlsxSheet) elements() []extract.Element {
	if len(s.rows) == 0 {
		return nil
	}
	return []extract.Element{
		{Kind: document.KindTitle, Text: s.name, Page: s.number, Category: "Title"},
		{Kind: document.KindTable, Rows: s.rows, Page: s.number, Category: "Table"},
	}
}

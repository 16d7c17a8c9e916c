package converter

// Shared test helpers for the converter package.

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

// assertElement fails unless el has the given kind, text and page.
func assertElement(t *testing.T, el extract.Element, kind document.Kind, text string, page int) {
	t.Helper()
	if el.Kind != kind || el.Text != text || el.Page != page {
		t.Errorf("element = {%s %q p%d}, want {%s %q p%d}", el.Kind, el.Text, el.Page, kind, text, page)
	}
}

// elementsText renders elements one per line as "page:kind:text" for
// substring assertions.
func elementsText(els []extract.Element) string {
	var sb strings.Builder
	for _, el := range els {
		text := el.Text
		if el.Kind == document.KindTable {
			text = document.TableCSV(el.Rows)
		}
		fmt.Fprintf(&sb, "%d:%s:%s\n", el.Page, el.Kind, text)
	}
	return sb.String()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- fakes -----------------------------------------------------------------

// fakeRecognizer returns canned text per call and records the images it saw.
type fakeRecognizer struct {
	text  string
	err   error
	calls []string
}

func (f *fakeRecognizer) Recognize(_ context.Context, imagePath string) (string, error) {
	f.calls = append(f.calls, imagePath)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeRunner records invocations and can write a file into the output
// prefix the way pdftoppm does.
type fakeRunner struct {
	stdout  string
	err     error
	calls   [][]string
	onRun   func(name string, args []string) error
	lastErr []byte
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.onRun != nil {
		if err := f.onRun(name, args); err != nil {
			return nil, []byte(err.Error()), err
		}
	}
	return []byte(f.stdout), f.lastErr, f.err
}

// withLookPath overrides lookPath for the duration of the test.
func withLookPath(t *testing.T, found bool) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(bin string) (string, error) {
		if found {
			return "/usr/bin/" + bin, nil
		}
		return "", errors.New("not found")
	}
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// writeZip writes entries (name → content) to a new archive named name.
func writeZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("writeZip create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for entry, content := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("writeZip entry %s: %v", entry, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writeZip write %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("writeZip close: %v", err)
	}
	return path
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// makeDocx builds a minimal .docx file containing the given OOXML body
// fragment and returns its path.
func makeDocx(t *testing.T, bodyXML string) string {
	t.Helper()
	return makeDocxParts(t, bodyXML, nil)
}

// makeDocxParts is makeDocx plus extra parts, e.g. word/header1.xml with a
// <w:hdr> paragraph fragment.
func makeDocxParts(t *testing.T, bodyXML string, parts map[string]string) string {
	t.Helper()
	entries := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document ` + wordNS + `><w:body>` + bodyXML + `</w:body></w:document>`,
	}
	for name, frag := range parts {
		root := "w:hdr"
		if strings.Contains(name, "footer") {
			root = "w:ftr"
		}
		entries[name] = `<?xml version="1.0" encoding="UTF-8"?><` + root + ` ` + wordNS + `>` + frag + `</` + root + `>`
	}
	return writeZip(t, "test.docx", entries)
}

// wPara is a one-run DOCX paragraph, optionally styled.
func wPara(style, text string) string {
	ppr := ""
	if style != "" {
		ppr = `<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`
	}
	return `<w:p>` + ppr + `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// makeXLSX builds a minimal .xlsx file with one sheet and returns its path.
func makeXLSX(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	return makeXLSXSheets(t, []string{sheet}, map[string][][]string{sheet: rows})
}

// makeXLSXSheets builds a workbook with sheets in order.
func makeXLSXSheets(t *testing.T, order []string, sheets map[string][][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			// Rename the default sheet first so SetCellValue writes to the right name.
			if name != "Sheet1" {
				if err := f.SetSheetName("Sheet1", name); err != nil {
					t.Fatalf("makeXLSX SetSheetName: %v", err)
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("makeXLSX NewSheet: %v", err)
		}
		for r, row := range sheets[name] {
			for c, val := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(name, cell, val); err != nil {
					t.Fatalf("makeXLSX SetCellValue: %v", err)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("makeXLSX SaveAs: %v", err)
	}
	return path
}

const (
	pptxNS = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
)

// pptxTestSlide describes one generated slide. titleXML and bodyXML are
// paragraph contents (<a:r> runs, optionally preceded by <a:pPr>); rawXML is
// appended to the shape tree verbatim; image adds a picture.
type pptxTestSlide struct {
	titleXML string
	bodyXML  string
	rawXML   string
	image    []byte
}

func makePPTX(t *testing.T, slides []pptxTestSlide) string {
	t.Helper()
	entries := map[string]string{}
	for i, s := range slides {
		n := i + 1
		var tree strings.Builder
		if s.titleXML != "" {
			tree.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="1" name="Title"/><p:cNvSpPr/>` +
				`<p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
				`<p:txBody><a:bodyPr/><a:p>` + s.titleXML + `</a:p></p:txBody></p:sp>`)
		}
		if s.bodyXML != "" {
			tree.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
				`<p:txBody><a:bodyPr/><a:p>` + s.bodyXML + `</a:p></p:txBody></p:sp>`)
		}
		tree.WriteString(s.rawXML)
		if s.image != nil {
			tree.WriteString(`<p:pic><p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>`)
			entries[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] =
				`<?xml version="1.0" encoding="UTF-8"?>` +
					`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
					fmt.Sprintf(`<Relationship Id="rId2" Type="image" Target="../media/image%d.png"/>`, n) +
					`</Relationships>`
			entries[fmt.Sprintf("ppt/media/image%d.png", n)] = string(s.image)
		}
		entries[fmt.Sprintf("ppt/slides/slide%d.xml", n)] = `<?xml version="1.0" encoding="UTF-8"?>` +
			`<p:sld ` + pptxNS + `><p:cSld><p:spTree>` + tree.String() + `</p:spTree></p:cSld></p:sld>`
	}
	if len(entries) == 0 {
		entries["[Content_Types].xml"] = `<Types/>`
	}
	return writeZip(t, "test.pptx", entries)
}

// pngBytes encodes a small white image.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// pdfLine is one line of text placed at (x, y) in PDF user space. Cells
// after the first are placed at cellX offsets on the same baseline.
type pdfLine struct {
	text  string
	x, y  float64
	size  float64
	cells []pdfCell
}

type pdfCell struct {
	text string
	x    float64
}

// makePDF builds a PDF with one page per entry of pages. Every glyph of the
// embedded Helvetica is declared 500/1000 em wide so positions are
// predictable. A nil page has an empty content stream, like a scan.
func makePDF(t *testing.T, pages [][]pdfLine) string {
	t.Helper()

	var (
		buf     bytes.Buffer
		offsets []int
	)
	obj := func(body string) int {
		offsets = append(offsets, buf.Len())
		n := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
		return n
	}

	buf.WriteString("%PDF-1.4\n")

	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	// Object numbers are fixed up front: 1 catalog, 2 pages, 3 font, then
	// page/content pairs.
	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>")

	for i, lines := range pages {
		var content strings.Builder
		for _, l := range lines {
			size := l.size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, l.x, l.y, pdfEscape(l.text))
			for _, c := range l.cells {
				fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, c.x, l.y, pdfEscape(c.text))
			}
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := content.String()
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("makePDF: %v", err)
	}
	return path
}

func pdfEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

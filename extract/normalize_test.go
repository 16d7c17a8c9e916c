package extract

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

func el(page int, kind document.Kind, text string) Element {
	return Element{Page: page, Kind: kind, Text: text}
}

func pageNumbers(pages []document.Page) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Number
	}
	return out
}

func TestFromElements_Example(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	got := n.FromElements([]Element{
		el(1, document.KindTitle, "Intro"),
		el(1, document.KindText, "Hello"),
		{Page: 2, Kind: document.KindTable, Text: "a,b\n1,2"},
	})

	want := []document.Page{
		{Number: 1, Items: []document.ContentItem{
			{Kind: document.KindTitle, Text: "Intro"},
			{Kind: document.KindText, Text: "Hello"},
		}},
		{Number: 2, Items: []document.ContentItem{
			{Kind: document.KindTable, Text: "a,b\n1,2"},
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FromElements() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestFromElements_MonotonicPagesOnePagePerNumber(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	elements := []Element{
		el(1, document.KindText, "a"),
		el(1, document.KindText, "b"),
		el(2, document.KindText, "c"),
		el(4, document.KindText, "d"),
		el(4, document.KindText, "e"),
		el(4, document.KindFooter, "f"),
	}
	pages := n.FromElements(elements)

	if got, want := pageNumbers(pages), []int{1, 2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}

	var texts []string
	for _, p := range pages {
		if len(p.Items) == 0 {
			t.Errorf("page %d is empty", p.Number)
		}
		for _, it := range p.Items {
			texts = append(texts, it.Text)
		}
	}
	if want := []string{"a", "b", "c", "d", "e", "f"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("item order = %v, want %v", texts, want)
	}

	// The last page must survive the final flush.
	last := pages[len(pages)-1]
	if last.Number != 4 || len(last.Items) != 3 {
		t.Errorf("last page = %+v, want page 4 with 3 items", last)
	}
}

func TestFromElements_NonContiguousRunsAreNotMerged(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	pages := n.FromElements([]Element{
		el(1, document.KindText, "first"),
		el(2, document.KindText, "second"),
		el(1, document.KindText, "back on one"),
	})

	if got, want := pageNumbers(pages), []int{1, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}
	if pages[2].Items[0].Text != "back on one" {
		t.Errorf("third page text = %q", pages[2].Items[0].Text)
	}
}

func TestFromElements_MissingPageNumberStaysOnOpenPage(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	pages := n.FromElements([]Element{
		el(3, document.KindTitle, "T"),
		el(NoPage, document.KindText, "no number"),
		el(4, document.KindText, "next"),
	})

	if got, want := pageNumbers(pages), []int{3, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}
	if len(pages[0].Items) != 2 || pages[0].Items[1].Text != "no number" {
		t.Errorf("page 3 items = %+v", pages[0].Items)
	}
}

func TestFromElements_OrphansSurfaced(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	pages := n.FromElements([]Element{
		el(NoPage, document.KindText, "preamble"),
		el(1, document.KindText, "body"),
	})

	if got, want := pageNumbers(pages), []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}
	if pages[0].Items[0].Text != "preamble" {
		t.Errorf("unnumbered page item = %q", pages[0].Items[0].Text)
	}
}

func TestFromElements_OrphansDropped(t *testing.T) {
	n := NewNormalizer(OrphanDrop, nil)
	pages := n.FromElements([]Element{
		el(NoPage, document.KindText, "preamble"),
		el(NoPage, document.KindText, "more"),
		el(1, document.KindText, "body"),
	})

	if got, want := pageNumbers(pages), []int{1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}
}

func TestFromElements_OnlyOrphans(t *testing.T) {
	pages := NewNormalizer(OrphanSurface, nil).FromElements([]Element{el(NoPage, document.KindText, "x")})
	if len(pages) != 1 || pages[0].Number != 0 {
		t.Errorf("surface: got %+v", pages)
	}
	pages = NewNormalizer(OrphanDrop, nil).FromElements([]Element{el(NoPage, document.KindText, "x")})
	if len(pages) != 0 {
		t.Errorf("drop: got %+v", pages)
	}
}

func TestFromElements_Empty(t *testing.T) {
	pages := NewNormalizer(OrphanSurface, nil).FromElements(nil)
	if pages == nil || len(pages) != 0 {
		t.Errorf("FromElements(nil) = %#v, want empty non-nil slice", pages)
	}
}

func TestFromElements_KindMapping(t *testing.T) {
	cases := []struct {
		in   document.Kind
		want document.Kind
	}{
		{document.KindTitle, document.KindTitle},
		{document.KindText, document.KindText},
		{document.KindTable, document.KindTable},
		{document.KindListItem, document.KindListItem},
		{document.KindHeader, document.KindHeader},
		{document.KindFooter, document.KindFooter},
		{document.KindUnknown, document.KindUnknown},
		{document.Kind("FigureCaption"), document.KindUnknown},
		{document.Kind(""), document.KindUnknown},
	}
	n := NewNormalizer(OrphanSurface, nil)
	for _, c := range cases {
		t.Run(string(c.in), func(t *testing.T) {
			pages := n.FromElements([]Element{el(1, c.in, "x")})
			if got := pages[0].Items[0].Kind; got != c.want {
				t.Errorf("kind %q mapped to %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestFromElements_TableRowsBecomeCSV(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	rows := [][]string{{"a", "b"}, {"1", "2"}}
	pages := n.FromElements([]Element{{Page: 1, Kind: document.KindTable, Rows: rows}})

	it := pages[0].Items[0]
	if it.Text != "a,b\n1,2" {
		t.Errorf("table text = %q, want %q", it.Text, "a,b\n1,2")
	}
	if !reflect.DeepEqual(it.TableData, rows) {
		t.Errorf("table data = %v, want %v", it.TableData, rows)
	}
}

func TestFromPages_OrderAndCategories(t *testing.T) {
	bbox := &document.BoundingBox{X0: 1, Y0: 2, X1: 3, Y1: 4}
	raw := []RawPage{
		{
			Number:     1,
			TextBlocks: []Block{{Text: "body", BBox: bbox}},
			Tables:     []Block{{Rows: [][]string{{"h"}, {"v"}}}},
			Layouts: []LayoutBlock{
				NewLayoutBlock("title", Block{Text: "Heading"}),
				NewLayoutBlock("figure", Block{Text: "chart"}),
				NewLayoutBlock("list", Block{Text: "point"}),
			},
		},
		{Number: 2},
	}
	pages := NewNormalizer(OrphanSurface, nil).FromPages(raw)

	if got, want := pageNumbers(pages), []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page numbers = %v, want %v", got, want)
	}

	items := pages[0].Items
	wantKinds := []document.Kind{
		document.KindText, document.KindTable, document.KindTitle, document.KindUnknown, document.KindListItem,
	}
	if len(items) != len(wantKinds) {
		t.Fatalf("got %d items, want %d", len(items), len(wantKinds))
	}
	for i, k := range wantKinds {
		if items[i].Kind != k {
			t.Errorf("item %d kind = %q, want %q", i, items[i].Kind, k)
		}
	}
	if items[0].BoundingBox != bbox {
		t.Error("text block bounding box not carried")
	}
	if items[1].Text != "h\nv" {
		t.Errorf("table text = %q", items[1].Text)
	}
	if items[2].Category != "" {
		t.Errorf("title category = %q, want empty (same as kind)", items[2].Category)
	}
	if items[3].Category != "figure" {
		t.Errorf("figure category = %q, want figure", items[3].Category)
	}
	if items[4].Category != "list" {
		t.Errorf("list category = %q, want list", items[4].Category)
	}
	if len(pages[1].Items) != 0 {
		t.Errorf("empty page got %d items", len(pages[1].Items))
	}
}

func TestNormalize_RoundTripsThroughJSON(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	doc := n.Normalize("in.pdf", "partition", FlatResult([]Element{
		el(1, document.KindTitle, "Intro"),
		{Page: 1, Kind: document.KindTable, Rows: [][]string{{"a", "b"}}, BBox: &document.BoundingBox{X1: 10, Y1: 5}},
		el(2, document.KindListItem, "item"),
	}))

	data, err := document.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := document.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		a, _ := json.Marshal(doc)
		b, _ := json.Marshal(back)
		t.Errorf("round trip mismatch\n got %s\nwant %s", b, a)
	}
}

func TestNormalize_NilTableRowsStayValid(t *testing.T) {
	n := NewNormalizer(OrphanSurface, nil)
	doc := n.Normalize("in.docx", "partition", FlatResult([]Element{
		{Page: 1, Kind: document.KindTable, Rows: [][]string{{"a", "b"}, nil}},
	}))
	if got := doc.Pages[0].Items[0].TableData[1]; got == nil {
		t.Fatal("nil row kept, want empty row")
	}

	data, err := document.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := document.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal rejected normalised table: %v\n%s", err, data)
	}

	pages := n.FromPages([]RawPage{{
		Number:  1,
		Tables:  []Block{{Rows: [][]string{nil}}},
		Layouts: []LayoutBlock{NewLayoutBlock("table", Block{Rows: [][]string{nil, {"x"}}})},
	}})
	for i, it := range pages[0].Items {
		for j, row := range it.TableData {
			if row == nil {
				t.Errorf("item %d row %d is nil", i, j)
			}
		}
	}
}

func TestFromPages_LayoutTableGetsCSVText(t *testing.T) {
	rows := [][]string{{"Name", "Qty"}, {"Apple", "3"}}
	pages := NewNormalizer(OrphanSurface, nil).FromPages([]RawPage{{
		Number:  1,
		Layouts: []LayoutBlock{NewLayoutBlock("table", Block{Rows: rows})},
	}})

	it := pages[0].Items[0]
	if it.Kind != document.KindTable {
		t.Fatalf("kind = %q, want table", it.Kind)
	}
	if it.Text != "Name,Qty\nApple,3" {
		t.Errorf("text = %q, want CSV of the rows", it.Text)
	}
	if !reflect.DeepEqual(it.TableData, rows) {
		t.Errorf("table data = %v", it.TableData)
	}
}

func TestParseOrphanPolicy(t *testing.T) {
	for _, s := range []string{"surface", "drop"} {
		if _, err := ParseOrphanPolicy(s); err != nil {
			t.Errorf("ParseOrphanPolicy(%q): %v", s, err)
		}
	}
	if _, err := ParseOrphanPolicy("keep"); err == nil {
		t.Error("ParseOrphanPolicy(keep) should fail")
	}
}

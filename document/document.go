// Package document holds the canonical, engine-agnostic shape of an
// extraction result and the encoders built on top of it.
//
// Every engine, whatever its native output looks like, ends up as an
// ExtractedDocument: an ordered list of pages, each holding an ordered list
// of classified content items.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a ContentItem. The set is closed: anything an engine
// cannot map lands in KindUnknown.
type Kind string

const (
	KindTitle    Kind = "title"
	KindText     Kind = "text"
	KindTable    Kind = "table"
	KindListItem Kind = "list_item"
	KindHeader   Kind = "header"
	KindFooter   Kind = "footer"
	KindUnknown  Kind = "unknown"
)

// Kinds lists every valid Kind in a stable order.
var Kinds = []Kind{KindTitle, KindText, KindTable, KindListItem, KindHeader, KindFooter, KindUnknown}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	switch k {
	case KindTitle, KindText, KindTable, KindListItem, KindHeader, KindFooter, KindUnknown:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// UnmarshalJSON rejects values outside the closed set.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Kind(s).Valid() {
		return fmt.Errorf("invalid content kind %q", s)
	}
	*k = Kind(s)
	return nil
}

// categoryKinds maps layout category names reported by page-oriented engines
// onto the closed set.
var categoryKinds = map[string]Kind{
	"title":       KindTitle,
	"heading":     KindTitle,
	"text":        KindText,
	"paragraph":   KindText,
	"table":       KindTable,
	"list":        KindListItem,
	"list_item":   KindListItem,
	"header":      KindHeader,
	"page_header": KindHeader,
	"footer":      KindFooter,
	"page_footer": KindFooter,
}

// KindForCategory maps a free-form layout category name ("title", "figure",
// "page_header", ...) to a Kind. Matching is case-insensitive and treats
// spaces and dashes like underscores. Unmapped categories yield KindUnknown.
func KindForCategory(category string) Kind {
	key := strings.ToLower(strings.TrimSpace(category))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if k, ok := categoryKinds[key]; ok {
		return k
	}
	return KindUnknown
}

// BoundingBox is an axis-aligned rectangle in the engine's coordinate space
// (PDF points for PDF input).
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y1 - b.Y0 }

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// ContentItem is one classified unit of extracted content.
type ContentItem struct {
	Kind Kind   `json:"type"`
	Text string `json:"text"`

	// BoundingBox is nil when the engine reports no geometry.
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`

	// Category is the engine's own category name when it differs from Kind
	// (e.g. "figure" for an item classified as unknown).
	Category string `json:"category,omitempty"`

	// TableData holds the cell matrix of a table item; Text carries the same
	// rows as CSV.
	TableData [][]string `json:"table_data,omitempty"`
}

// Page groups the items found on one page, in engine emission order.
type Page struct {
	// Number is 1-based. 0 is reserved for content an engine emitted before
	// any page number was known.
	Number int           `json:"page_number"`
	Items  []ContentItem `json:"items"`
}

// Text joins the text of every item on the page, one item per paragraph.
func (p Page) Text() string {
	parts := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		if t := strings.TrimSpace(it.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ExtractedDocument is the canonical extraction result.
type ExtractedDocument struct {
	SourcePath string `json:"source_path"`

	// Engine names the engine whose output produced Pages.
	Engine    string `json:"engine,omitempty"`
	PageCount int    `json:"page_count"`
	Pages     []Page `json:"pages"`
}

// New builds an ExtractedDocument, deriving PageCount from pages.
func New(sourcePath, engine string, pages []Page) *ExtractedDocument {
	if pages == nil {
		pages = []Page{}
	}
	for i := range pages {
		if pages[i].Items == nil {
			pages[i].Items = []ContentItem{}
		}
	}
	return &ExtractedDocument{
		SourcePath: sourcePath,
		Engine:     engine,
		PageCount:  len(pages),
		Pages:      pages,
	}
}

// ItemCount returns the number of items across all pages.
func (d *ExtractedDocument) ItemCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Items)
	}
	return n
}

// CountByKind tallies items per Kind.
func (d *ExtractedDocument) CountByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, p := range d.Pages {
		for _, it := range p.Items {
			out[it.Kind]++
		}
	}
	return out
}

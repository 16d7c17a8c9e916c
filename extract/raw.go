package extract

import "github.com/Cortexa-LLC/mcp/src/docextract/document"

// NoPage marks an Element whose engine reported no page number.
const NoPage = 0

// RawResult is what an Engine hands back. Exactly one of Elements or Pages
// is meaningful: partition-style engines emit a flat Elements sequence,
// layout-style engines emit a Pages tree. Tree is true for the latter.
type RawResult struct {
	Tree     bool
	Elements []Element
	Pages    []RawPage
}

// FlatResult wraps a flat element sequence.
func FlatResult(elements []Element) *RawResult {
	return &RawResult{Elements: elements}
}

// TreeResult wraps a page-oriented tree.
func TreeResult(pages []RawPage) *RawResult {
	return &RawResult{Tree: true, Pages: pages}
}

// Empty reports whether the result carries no content at all.
func (r *RawResult) Empty() bool {
	if r == nil {
		return true
	}
	if !r.Tree {
		return len(r.Elements) == 0
	}
	for _, p := range r.Pages {
		if len(p.TextBlocks)+len(p.Tables)+len(p.Layouts) > 0 {
			return false
		}
	}
	return true
}

// Element is one item of a flat sequence. Engines classify their native
// element types into Kind before emitting.
type Element struct {
	Kind document.Kind
	Text string

	// Page is the 1-based page number, or NoPage when unknown.
	Page int

	BBox     *document.BoundingBox
	Category string

	// Rows carries the cell matrix for table elements.
	Rows [][]string
}

// Block is a piece of text with optional geometry.
type Block struct {
	Text string
	BBox *document.BoundingBox

	// Rows is set for table blocks; Text is then the CSV form.
	Rows [][]string
}

// LayoutBlock is a block the engine labelled with its own category name.
// Kind is that category mapped into the closed set.
type LayoutBlock struct {
	Block
	Category string
	Kind     document.Kind
}

// NewLayoutBlock labels b with category, mapping it to a Kind.
func NewLayoutBlock(category string, b Block) LayoutBlock {
	return LayoutBlock{Block: b, Category: category, Kind: document.KindForCategory(category)}
}

// RawPage is one page of a page-oriented result. The three collections are
// emitted in this order: text blocks, tables, layout elements.
type RawPage struct {
	Number     int
	TextBlocks []Block
	Tables     []Block
	Layouts    []LayoutBlock
}

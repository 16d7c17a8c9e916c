package extract

import (
	"fmt"
	"log/slog"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

// OrphanPolicy decides what happens to flat elements that arrive before any
// element carrying a page number.
type OrphanPolicy string

const (
	// OrphanSurface keeps them on a page numbered 0.
	OrphanSurface OrphanPolicy = "surface"
	// OrphanDrop discards them.
	OrphanDrop OrphanPolicy = "drop"
)

// ParseOrphanPolicy validates a policy name.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(s); p {
	case OrphanSurface, OrphanDrop:
		return p, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q (expected %q or %q)", s, OrphanSurface, OrphanDrop)
}

// unsetPage is the cursor value before any page number has been seen.
// Valid page numbers are always >= 1.
const unsetPage = -1

// Normalizer turns a RawResult into the canonical document shape.
type Normalizer struct {
	orphans OrphanPolicy
	logger  *slog.Logger
}

// NewNormalizer returns a Normalizer. An empty policy means OrphanSurface.
func NewNormalizer(policy OrphanPolicy, logger *slog.Logger) *Normalizer {
	if policy == "" {
		policy = OrphanSurface
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{orphans: policy, logger: logger}
}

// Normalize dispatches on the shape of raw.
func (n *Normalizer) Normalize(sourcePath, engine string, raw *RawResult) *document.ExtractedDocument {
	if raw == nil {
		return document.New(sourcePath, engine, nil)
	}
	if raw.Tree {
		return document.New(sourcePath, engine, n.FromPages(raw.Pages))
	}
	return document.New(sourcePath, engine, n.FromElements(raw.Elements))
}

// FromElements groups a flat element sequence into pages.
//
// A page closes whenever an element reports a page number different from
// the current one, so only contiguous runs coalesce: the sequence 1, 2, 1
// yields three pages, two of them numbered 1. Elements without a page
// number stay on whichever page is open. Empty pages are never emitted.
func (n *Normalizer) FromElements(elements []Element) []document.Page {
	pages := make([]document.Page, 0)
	cursor := unsetPage
	var items []document.ContentItem

	flush := func() {
		if len(items) == 0 {
			return
		}
		if cursor == unsetPage {
			if n.orphans == OrphanDrop {
				n.logger.Debug("dropping elements without a page number", "count", len(items))
				items = nil
				return
			}
			pages = append(pages, document.Page{Number: 0, Items: items})
		} else {
			pages = append(pages, document.Page{Number: cursor, Items: items})
		}
		items = nil
	}

	for _, el := range elements {
		if el.Page > 0 && el.Page != cursor {
			flush()
			cursor = el.Page
		}
		items = append(items, elementItem(el))
	}
	flush()

	return pages
}

func elementItem(el Element) document.ContentItem {
	kind := el.Kind
	if !kind.Valid() {
		kind = document.KindUnknown
	}
	it := document.ContentItem{
		Kind:        kind,
		Text:        el.Text,
		BoundingBox: el.BBox,
		Category:    el.Category,
	}
	if kind == document.KindTable {
		it.TableData = tableRows(el.Rows)
		if it.Text == "" {
			it.Text = document.TableCSV(el.Rows)
		}
	}
	return it
}

// tableRows replaces nil rows with empty ones so they serialise as [].
func tableRows(rows [][]string) [][]string {
	for i, r := range rows {
		if r == nil {
			rows[i] = []string{}
		}
	}
	return rows
}

// FromPages flattens a page-oriented tree. Within a page, text blocks come
// first, then tables, then layout elements. Page numbers are taken from the
// engine as-is and pages are kept even when empty.
func (n *Normalizer) FromPages(raw []RawPage) []document.Page {
	pages := make([]document.Page, 0, len(raw))
	for _, rp := range raw {
		items := make([]document.ContentItem, 0, len(rp.TextBlocks)+len(rp.Tables)+len(rp.Layouts))
		for _, b := range rp.TextBlocks {
			items = append(items, document.ContentItem{
				Kind:        document.KindText,
				Text:        b.Text,
				BoundingBox: b.BBox,
			})
		}
		for _, b := range rp.Tables {
			text := b.Text
			if text == "" {
				text = document.TableCSV(b.Rows)
			}
			items = append(items, document.ContentItem{
				Kind:        document.KindTable,
				Text:        text,
				BoundingBox: b.BBox,
				TableData:   tableRows(b.Rows),
			})
		}
		for _, lb := range rp.Layouts {
			kind := lb.Kind
			if !kind.Valid() {
				kind = document.KindForCategory(lb.Category)
			}
			it := document.ContentItem{
				Kind:        kind,
				Text:        lb.Text,
				BoundingBox: lb.BBox,
			}
			if lb.Category != string(kind) {
				it.Category = lb.Category
			}
			if kind == document.KindTable {
				it.TableData = tableRows(lb.Rows)
				if it.Text == "" {
					it.Text = document.TableCSV(lb.Rows)
				}
			}
			items = append(items, it)
		}
		pages = append(pages, document.Page{Number: rp.Number, Items: items})
	}
	return pages
}

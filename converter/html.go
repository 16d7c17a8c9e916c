package converter

// HTML → element sequence.
//
// The document is parsed with x/net/html so <header> and <footer> regions
// (and their ARIA equivalents) can be lifted out as header/footer elements.
// Scripts, styles and navigation are dropped. The remaining markup goes
// through html-to-markdown and then the Markdown partitioner.

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

func newHTMLConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return conv
}

func readHTML(conv *md.Converter, filePath string) ([]extract.Element, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read html %s: %w", filePath, err)
	}
	return partitionHTML(conv, data)
}

func partitionHTML(conv *md.Converter, data []byte) ([]extract.Element, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var headers, footers []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			switch htmlRegion(c) {
			case regionDrop:
				n.RemoveChild(c)
			case regionHeader:
				if t := cleanText(collapseSpaces(nodeText(c))); t != "" {
					headers = append(headers, t)
				}
				n.RemoveChild(c)
			case regionFooter:
				if t := cleanText(collapseSpaces(nodeText(c))); t != "" {
					footers = append(footers, t)
				}
				n.RemoveChild(c)
			default:
				walk(c)
			}
			c = next
		}
	}
	walk(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	markdown, err := conv.ConvertString(buf.String())
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}

	body := partitionMarkdown(markdown)
	out := make([]extract.Element, 0, len(headers)+len(body)+len(footers))
	for _, h := range headers {
		out = append(out, extract.Element{Kind: document.KindHeader, Text: h, Page: 1, Category: "Header"})
	}
	out = append(out, body...)
	last := 1
	for _, el := range body {
		last = max(last, el.Page)
	}
	for _, f := range footers {
		out = append(out, extract.Element{Kind: document.KindFooter, Text: f, Page: last, Category: "Footer"})
	}
	return out, nil
}

type region int

const (
	regionKeep region = iota
	regionDrop
	regionHeader
	regionFooter
)

func htmlRegion(n *html.Node) region {
	if n.Type == html.CommentNode {
		return regionDrop
	}
	if n.Type != html.ElementNode {
		return regionKeep
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Nav:
		return regionDrop
	case atom.Header:
		return regionHeader
	case atom.Footer:
		return regionFooter
	}
	switch htmlAttr(n, "role") {
	case "banner":
		return regionHeader
	case "contentinfo":
		return regionFooter
	case "navigation":
		return regionDrop
	}
	return regionKeep
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

// nodeText returns the text content of n with block boundaries as spaces.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return sb.String()
}

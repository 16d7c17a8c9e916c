package converter

import (
	"path/filepath"
	"sort"
	"strings"
)

// format is the coarse family an input belongs to, decided by extension.
type format int

const (
	formatUnknown format = iota
	formatPDF
	formatImage
	formatDOCX
	formatPPTX
	formatXLSX
	formatHTML
	formatMarkdown
	formatText
	formatCSV
	formatJSON
	formatXML
)

var extFormats = map[string]format{
	".pdf":      formatPDF,
	".png":      formatImage,
	".jpg":      formatImage,
	".jpeg":     formatImage,
	".gif":      formatImage,
	".tif":      formatImage,
	".tiff":     formatImage,
	".bmp":      formatImage,
	".webp":     formatImage,
	".docx":     formatDOCX,
	".pptx":     formatPPTX,
	".xlsx":     formatXLSX,
	".html":     formatHTML,
	".htm":      formatHTML,
	".md":       formatMarkdown,
	".markdown": formatMarkdown,
	".txt":      formatText,
	".csv":      formatCSV,
	".json":     formatJSON,
	".xml":      formatXML,
}

// detectFormat maps a file path to its format family, case-insensitively.
func detectFormat(path string) format {
	return extFormats[strings.ToLower(filepath.Ext(path))]
}

// formatSet is the set of families an engine reads.
type formatSet map[format]bool

func (s formatSet) has(path string) bool {
	return s[detectFormat(path)]
}

// extensions returns the extensions (without the dot) covered by s, sorted.
func (s formatSet) extensions() []string {
	var out []string
	for ext, f := range extFormats {
		if s[f] {
			out = append(out, strings.TrimPrefix(ext, "."))
		}
	}
	sort.Strings(out)
	return out
}

var (
	layoutFormats = formatSet{formatPDF: true, formatPPTX: true, formatXLSX: true}
	ocrFormats    = formatSet{formatPDF: true, formatImage: true}

	partitionFormats = formatSet{
		formatPDF: true, formatImage: true, formatDOCX: true, formatPPTX: true,
		formatXLSX: true, formatHTML: true, formatMarkdown: true, formatText: true,
		formatCSV: true, formatJSON: true, formatXML: true,
	}
)

// SupportedFormats returns every extension (without the dot) at least one
// engine reads, sorted.
func SupportedFormats() []string {
	all := formatSet{}
	for _, s := range []formatSet{layoutFormats, ocrFormats, partitionFormats} {
		for f := range s {
			all[f] = true
		}
	}
	return all.extensions()
}

// IsSupported reports whether some engine reads path's format.
func IsSupported(path string) bool {
	return detectFormat(path) != formatUnknown
}

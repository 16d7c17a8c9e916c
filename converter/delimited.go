package converter

// Data formats: CSV becomes one table, JSON one
// pretty-printed text element, XML one text element per leaf text node.

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

func readCSV(filePath string) ([]extract.Element, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", filePath, err)
	}
	rows := trimRows(records)
	if len(rows) == 0 {
		return nil, nil
	}
	return []extract.Element{{Kind: document.KindTable, Rows: rows, Page: 1, Category: "Table"}}, nil
}

func readJSON(filePath string) ([]extract.Element, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read json %s: %w", filePath, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", filePath, err)
	}
	return []extract.Element{{Kind: document.KindText, Text: cleanText(buf.String()), Page: 1, Category: "NarrativeText"}}, nil
}

func readXML(filePath string) ([]extract.Element, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xml %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	dec := xml.NewDecoder(f)
	dec.Strict = false
	var out []extract.Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml %s: %w", filePath, err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if t := cleanText(collapseSpaces(strings.TrimSpace(string(cd)))); t != "" {
				out = append(out, extract.Element{Kind: document.KindText, Text: t, Page: 1, Category: "NarrativeText"})
			}
		}
	}
	return out, nil
}

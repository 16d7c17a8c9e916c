package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleDocument() *ExtractedDocument {
	return New("/tmp/report.pdf", "layout", []Page{
		{Number: 1, Items: []ContentItem{
			{Kind: KindTitle, Text: "Intro", Category: "title", BoundingBox: &BoundingBox{X0: 72, Y0: 68, X1: 264, Y1: 92}},
			{Kind: KindText, Text: "Hello <world> & co"},
			{Kind: KindTable, Text: "a,b\n1,2|3", TableData: [][]string{{"a", "b"}, {"1", "2|3"}}},
			{Kind: KindListItem, Text: "x"},
			{Kind: KindHeader, Text: "H"},
		}},
		{Number: 2, Items: []ContentItem{{Kind: KindText, Text: "bye"}}},
	})
}

func TestMarshal_CanonicalShape(t *testing.T) {
	data, err := Marshal(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"source_path": "/tmp/report.pdf"`,
		`"page_count": 2`,
		`"page_number": 1`,
		`"type": "title"`,
		`"bounding_box": {`,
		`"table_data": [`,
		`Hello <world> & co`,
		"\n    \"engine\"",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %q:\n%s", want, s)
		}
	}
	if err := Validate(data); err != nil {
		t.Errorf("marshalled document fails its own schema: %v", err)
	}
}

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, sampleDocument()); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.PageCount != 2 || got.Pages[0].Items[2].TableData[1][1] != "2|3" {
		t.Errorf("read back = %+v", got)
	}
	if bb := got.Pages[0].Items[0].BoundingBox; bb == nil || bb.X1 != 264 {
		t.Errorf("bounding box = %+v", bb)
	}
}

func TestReadJSON_Missing(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestUnmarshal_RejectsSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"unknown kind":     `{"source_path":"a","page_count":1,"pages":[{"page_number":1,"items":[{"type":"figure","text":""}]}]}`,
		"extra property":   `{"source_path":"a","page_count":0,"pages":[],"extra":true}`,
		"missing pages":    `{"source_path":"a","page_count":0}`,
		"negative page":    `{"source_path":"a","page_count":1,"pages":[{"page_number":-1,"items":[]}]}`,
		"not json":         `{`,
		"bad bounding box": `{"source_path":"a","page_count":1,"pages":[{"page_number":1,"items":[{"type":"text","text":"","bounding_box":{"x0":1}}]}]}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(in)); err == nil {
				t.Errorf("Unmarshal accepted %s", in)
			}
		})
	}
}

func TestWriteJSON_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(filepath.Join(blocker, "out.json"), sampleDocument()); err == nil {
		t.Error("expected an error writing beneath a regular file")
	}
}

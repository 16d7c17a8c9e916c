package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const jsonIndent = "    "

// Marshal encodes d in the canonical JSON shape, indented four spaces.
func Marshal(d *ExtractedDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes d to w as indented canonical JSON.
func Encode(w io.Writer, d *ExtractedDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Unmarshal parses canonical JSON, validating it against the schema first.
func Unmarshal(data []byte) (*ExtractedDocument, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var d ExtractedDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if d.Pages == nil {
		d.Pages = []Page{}
	}
	return &d, nil
}

// WriteJSON saves d to path as indented JSON.
func WriteJSON(path string, d *ExtractedDocument) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a document previously written by WriteJSON.
func ReadJSON(path string) (*ExtractedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}

package document

import (
	"encoding/csv"
	"strings"
)

// TableCSV serialises table rows as CSV text, the textual form carried by
// table items.
func TableCSV(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// strings.Builder writes never fail.
	_ = w.WriteAll(rows)
	return strings.TrimRight(sb.String(), "\n")
}

// ParseTableCSV reads CSV text leniently: rows of varying width are allowed
// and malformed input yields nil.
func ParseTableCSV(text string) [][]string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil
	}
	return rows
}

// Package ingestion parses dataset files and writes them to the store.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// record is one CSV row keyed by header column
type record struct {
	line   int
	fields map[string]string
}

func (r record) get(column string) string {
	return r.fields[column]
}

// readRecords parses a CSV document whose first non-empty row is the header.
// Values are trimmed, blank rows are skipped and short rows read as empty
// trailing columns.
func readRecords(name string, data []byte) ([]record, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		header  []string
		records []record
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if blank(row) {
			continue
		}

		if header == nil {
			header = make([]string, len(row))
			for i, column := range row {
				header[i] = strings.ToLower(strings.TrimSpace(column))
			}
			continue
		}

		line, _ := reader.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(row) {
				fields[column] = strings.TrimSpace(row[i])
			} else {
				fields[column] = ""
			}
		}
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

func blank(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const bom = "\ufeff"

// StripBOM removes a leading UTF-8 byte-order mark.
func StripBOM(text string) string {
	return strings.TrimPrefix(text, bom)
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// SplitLine splits one delimited line into fields. Quoted fields may contain
// commas and doubled quotes; surrounding whitespace is trimmed from each field.
func SplitLine(line string) ([]string, error) {
	line = strings.TrimRight(StripBOM(line), "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	fields, err := newReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, fmt.Errorf("split line: %w", err)
	}
	return trimFields(fields), nil
}

// Record is one parsed record and the 1-based file line it starts on.
type Record struct {
	Line   int
	Fields []string
}

// Records splits a whole file into records with the same rules as SplitLine.
// Quoted fields may span lines. Blank lines are dropped and rows may be ragged.
func Records(text string) ([]Record, error) {
	reader := newReader(strings.NewReader(StripBOM(text)))
	var records []Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}
		fields = trimFields(fields)
		if isBlank(fields) {
			continue
		}
		line, _ := reader.FieldPos(0)
		records = append(records, Record{Line: line, Fields: fields})
	}
	return records, nil
}

func trimFields(fields []string) []string {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// field safely extracts a column value from a record.
func field(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return record[index]
}

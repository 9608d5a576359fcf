// Package csvsource loads dashboard CSV exports into domain tables.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Load reads a CSV file. A missing file wraps domain.ErrFileNotFound and an
// unreadable one wraps domain.ErrMalformedCSV.
func Load(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Table{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return domain.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := LoadReader(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadReader parses CSV from r. The first row is the header. Short rows are
// padded with missing cells; rows longer than the header are malformed.
// Cells holding a "no value" token are left out of the record.
func LoadReader(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, fmt.Errorf("%w: no header row", domain.ErrMalformedCSV)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %w", domain.ErrMalformedCSV, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	columns := dedupeHeaders(header)

	var rows []domain.Record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("%w: %w", domain.ErrMalformedCSV, err)
		}
		if len(fields) > len(columns) {
			line, _ := cr.FieldPos(0)
			return domain.Table{}, fmt.Errorf("%w: line %d: expected %d fields, saw %d",
				domain.ErrMalformedCSV, line, len(columns), len(fields))
		}
		rec := make(domain.Record, len(fields))
		for i, v := range fields {
			if domain.IsMissingToken(v) {
				continue
			}
			rec[columns[i]] = v
		}
		rows = append(rows, rec)
	}
	return domain.NewTable(columns, rows), nil
}

// dedupeHeaders renames repeated headers "X", "X.1", "X.2" so every column
// stays addressable.
func dedupeHeaders(header []string) []string {
	used := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := h
		for n := 1; used[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Package xlsx writes one-sheet spreadsheet exports.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the exports.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the single worksheet every export writes to.
const SheetName = "Sheet1"

// Write renders s as a workbook with a header row and no index column.
func Write(w io.Writer, s domain.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := setRow(f, 1, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range s.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Encode renders s and returns the workbook bytes.
func Encode(s domain.Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}

// FileName builds a download file name from its parts: each part is
// normalized, separators become underscores and ".xlsx" is appended.
// FileName("permisos", "tendencia:Fecha de alta") is "permisos_tendencia_fecha_de_alta.xlsx".
func FileName(parts ...string) string {
	var words []string
	for _, p := range parts {
		p = domain.NormalizeText(strings.NewReplacer(":", " ", "_", " ", ".", " ").Replace(p))
		words = append(words, strings.Fields(p)...)
	}
	if len(words) == 0 {
		return "export.xlsx"
	}
	return strings.Join(words, "_") + ".xlsx"
}

package batch

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadTable parses an uploaded table. The format follows the file name's
// extension: .xlsx is read as a workbook (first sheet), anything else as
// CSV. Rows whose cells are all blank are dropped. Every failure is an
// InputError.
func ReadTable(name string, r io.Reader) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv", ".txt", "":
		rows, err = readCSV(r)
	default:
		return nil, &InputError{Reason: "unsupported file type " + filepath.Ext(name)}
	}
	if err != nil {
		return nil, &InputError{Reason: "unreadable " + filepath.Base(name), Err: err}
	}

	rows = dropBlank(rows)
	if len(rows) == 0 {
		return nil, &InputError{Reason: "no rows"}
	}
	return rows, nil
}

// ReadFile opens path and parses it with ReadTable.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Reason: "open " + path, Err: err}
	}
	defer f.Close() //nolint:errcheck
	return ReadTable(path, f)
}

func readCSV(r io.Reader) ([][]string, error) {
	// Spreadsheet exports often carry a UTF-8 or UTF-16 byte order mark.
	decoded := transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1 // width is checked per row
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, eris.Wrap(err, "xlsx: read upload")
	}
	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return squareRows(rows), nil
}

// squareRows gives every workbook row the sheet's used width: the rightmost
// column holding a non-blank cell in any row. Shorter rows are padded with
// empty cells, so a row whose last cell is empty keeps the sheet's layout.
func squareRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		for j := len(row) - 1; j >= width; j-- {
			if strings.TrimSpace(row[j]) != "" {
				width = j + 1
				break
			}
		}
	}
	for i, row := range rows {
		if len(row) >= width {
			rows[i] = row[:width]
			continue
		}
		rows[i] = append(row, make([]string, width-len(row))...)
	}
	return rows
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

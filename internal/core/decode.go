package core

// decode.go reads an uploaded spreadsheet into a Sheet.
//
// The first row of the first worksheet is always the header row. Every
// following row becomes a RawRow keyed by the trimmed header at the same
// column index; blank or missing cells stay undefined. Rows keep file order.
//
// CSV cells are always text. Workbook cells keep their type, so a date typed
// in Excel arrives as its serial number and is converted by NormalizeDate.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Format is a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
	mimeOLE  = "application/x-ole-storage"
	mimeZip  = "application/zip"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat sniffs the upload content, falling back to the file extension.
// Legacy .xls workbooks are recognized and rejected.
func DetectFormat(fileName string, data []byte) (Format, error) {
	mt := mimetype.Detect(data)

	switch {
	case mt.Is(mimeXLSX):
		return FormatXLSX, nil
	case mt.Is(mimeXLS), mt.Is(mimeOLE):
		return "", fmt.Errorf("%w: legacy .xls workbook, save it as .xlsx", ErrUnsupportedFormat)
	case mt.Is(mimeZip):
		return FormatXLSX, nil
	case strings.HasPrefix(mt.String(), "text/"):
		return FormatCSV, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

// Decode reads an xlsx or csv upload. Any failure is a *DecodeError and
// no rows are returned.
func Decode(fileName string, data []byte) (*Sheet, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, &DecodeError{FileName: fileName, Err: ErrEmptyFile}
	}

	format, err := DetectFormat(fileName, data)
	if err != nil {
		return nil, &DecodeError{FileName: fileName, Err: err}
	}

	var sheet *Sheet
	switch format {
	case FormatXLSX:
		sheet, err = DecodeXLSX(data)
	default:
		sheet, err = DecodeCSV(data)
	}
	if err != nil {
		return nil, &DecodeError{FileName: fileName, Err: err}
	}
	return sheet, nil
}

// DecodeCSV reads comma, semicolon or tab separated text. Windows-1252
// exports are transcoded to UTF-8 and a leading BOM is dropped.
func DecodeCSV(data []byte) (*Sheet, error) {
	text, err := toUTF8(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	return buildSheet("", records, func(_, _ int, v string) Cell {
		return TextCell(v)
	})
}

// DecodeXLSX reads the first worksheet of an Office Open XML workbook.
func DecodeXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	return buildSheet(name, rows, func(rowIdx, colIdx int, v string) Cell {
		axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
		if err != nil {
			return TextCell(v)
		}
		typ, err := f.GetCellType(name, axis)
		if err != nil {
			return TextCell(v)
		}
		switch typ {
		case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return NumberCell(n)
			}
		}
		return TextCell(v)
	})
}

// buildSheet pairs every data row with the header row.
func buildSheet(name string, records [][]string, cell func(rowIdx, colIdx int, v string) Cell) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	sheet := &Sheet{
		Name:    name,
		Headers: headers,
		Rows:    make([]RawRow, 0, len(records)-1),
	}

	for i, record := range records[1:] {
		rowIdx := i + 1
		row := make(RawRow, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if _, dup := row[header]; dup {
				continue
			}
			if col >= len(record) || record[col] == "" {
				row[header] = Cell{}
				continue
			}
			row[header] = cell(rowIdx, col, record[col])
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// toUTF8 returns data as a string, transcoding from Windows-1252 when it
// is not valid UTF-8.
func toUTF8(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// sniffDelimiter picks the separator that occurs most in the header line.
// French spreadsheet exports use ';'.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}

	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

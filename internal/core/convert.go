package core

// convert.go turns raw spreadsheet cells into the values stored on records.
//
// Spreadsheet data arrives in several shapes:
//   - workbook date cells surface as serial day numbers (days since 1899-12-30)
//   - French users type dates as DD/MM/YYYY
//   - decimals may use a comma ("12,5")
//   - names and matricules differ in case, accents composition and padding
//
// Conversions never fail on odd input unless the caller needs a strict value
// (ParseDecimal); dates that match no known shape pass through unchanged.

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// UnixEpochSerial is the spreadsheet serial of 1970-01-01.
const UnixEpochSerial = 25569

// ISODate is the layout records use for calendar dates.
const ISODate = "2006-01-02"

// SerialToTime converts a spreadsheet serial day number to a UTC instant.
// The fractional part is the time of day.
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - UnixEpochSerial) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// SerialToISODate converts a spreadsheet serial to a YYYY-MM-DD string.
func SerialToISODate(serial float64) string {
	return SerialToTime(serial).Format(ISODate)
}

// FrenchToISODate rewrites DD/MM/YYYY as YYYY-MM-DD.
// Returns false when s does not have three numeric parts.
func FrenchToISODate(s string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return "", false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if _, err := strconv.Atoi(parts[i]); err != nil {
			return "", false
		}
	}
	day, month, year := parts[0], parts[1], parts[2]
	return year + "-" + padTwo(month) + "-" + padTwo(day), true
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// NormalizeDate converts a date cell to its stored form:
//   - number cells are spreadsheet serials
//   - text containing "/" is read as DD/MM/YYYY
//   - anything else is returned unchanged
func NormalizeDate(c Cell) string {
	switch c.Kind {
	case CellNumber:
		return SerialToISODate(c.Number)
	case CellText:
		s := strings.TrimSpace(c.Text)
		if strings.Contains(s, "/") {
			if iso, ok := FrenchToISODate(s); ok {
				return iso
			}
		}
		return s
	default:
		return ""
	}
}

// ParseDecimal coerces a cell to an exact decimal.
// Text accepts a dot or a comma as the decimal separator.
func ParseDecimal(c Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case CellNumber:
		return decimal.NewFromFloat(c.Number), true
	case CellText:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return decimal.Decimal{}, false
		}
		s = strings.ReplaceAll(s, " ", "")
		s = strings.Replace(s, ",", ".", 1)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// NormalizeKey returns the lookup key for names and matricules:
// trimmed, NFC-composed and case-folded. Inner spacing is preserved.
// A Caser is stateful, so one is made per call.
func NormalizeKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// AcademicYear returns the school year containing t, e.g. "2025-2026".
// A school year starts in September.
func AcademicYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.September {
		start--
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(start+1)
}

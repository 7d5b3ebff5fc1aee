package kinds

import "github.com/JonMunkholm/gereecole/internal/core"

// copyText copies each header's trimmed text into doc under the same name.
// Absent cells are stored as empty strings.
func copyText(doc core.Document, row core.RawRow, headers ...string) {
	for _, h := range headers {
		doc[h] = row.Text(h)
	}
}

// dateOr normalizes a date cell, falling back when the cell is blank.
func dateOr(row core.RawRow, header, fallback string) string {
	c := row.Get(header)
	if c.IsEmpty() {
		return fallback
	}
	return core.NormalizeDate(c)
}

// textOr returns the trimmed text under header, or fallback when blank.
func textOr(row core.RawRow, header, fallback string) string {
	if s := row.Text(header); s != "" {
		return s
	}
	return fallback
}

package core

// validation.go holds the batch-level header precondition.
//
// Header validation runs once per file, before any row is touched. A file
// missing a required template column fails the whole run with one error
// naming every missing column; per-row checks live in the importer.

import "strings"

// ValidateHeaders checks that every required column of tmpl appears in the
// decoded header row. Headers are compared after trimming, case-sensitively.
func ValidateHeaders(headers []string, tmpl ImportTemplate) error {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = struct{}{}
	}

	var missing []string
	for _, header := range tmpl.RequiredHeaders() {
		if _, ok := present[header]; !ok {
			missing = append(missing, header)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Kind: tmpl.Kind, Missing: missing}
	}
	return nil
}

// firstMissing returns the first required column whose cell is blank.
func firstMissing(row RawRow, tmpl ImportTemplate) (Column, bool) {
	for _, col := range tmpl.Columns {
		if col.Required && row.Get(col.Header).IsEmpty() {
			return col, true
		}
	}
	return Column{}, false
}

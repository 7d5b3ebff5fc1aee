package core

// report.go renders the downloadable files around an import: the blank
// template a school fills in, and the per-row error report of a run.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	helpSheetName  = "Aide"
	templateAuthor = "GèreEcole"
)

// TemplateFileName returns the download name of a template.
func TemplateFileName(tmpl ImportTemplate, format Format) string {
	return fmt.Sprintf("modele_%s.%s", tmpl.Kind, format)
}

// WriteTemplate writes an empty import file for tmpl.
//
// The workbook's first sheet holds only the header row, each header carrying
// its description as a comment, so a filled-in copy imports as is. A second
// sheet lists every column with its description. The CSV form is the header
// row alone.
func WriteTemplate(w io.Writer, tmpl ImportTemplate, format Format) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(tmpl.Headers()); err != nil {
			return fmt.Errorf("write template header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	case FormatXLSX:
		return writeTemplateWorkbook(w, tmpl)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func writeTemplateWorkbook(w io.Writer, tmpl ImportTemplate) error {
	f := excelize.NewFile()
	defer f.Close()

	dataSheet := tmpl.Label
	if dataSheet == "" {
		dataSheet = string(tmpl.Kind)
	}
	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FDE9D9"}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	optionalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, col := range tmpl.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(dataSheet, cell, col.Header); err != nil {
			return fmt.Errorf("write header %s: %w", col.Header, err)
		}

		style := optionalStyle
		if col.Required {
			style = requiredStyle
		}
		if err := f.SetCellStyle(dataSheet, cell, cell, style); err != nil {
			return err
		}

		if col.Description != "" {
			if err := f.AddComment(dataSheet, excelize.Comment{
				Cell:      cell,
				Author:    templateAuthor,
				Paragraph: []excelize.RichTextRun{{Text: col.Description}},
			}); err != nil {
				return fmt.Errorf("comment %s: %w", col.Header, err)
			}
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(dataSheet, colName, colName, 20); err != nil {
			return err
		}
	}

	if err := writeHelpSheet(f, tmpl, optionalStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeHelpSheet lists each column with whether it is required and its
// description.
func writeHelpSheet(f *excelize.File, tmpl ImportTemplate, headerStyle int) error {
	if _, err := f.NewSheet(helpSheetName); err != nil {
		return fmt.Errorf("create help sheet: %w", err)
	}

	rows := [][]any{{"Colonne", "Libellé", "Obligatoire", "Description"}}
	for _, col := range tmpl.Columns {
		required := "Non"
		if col.Required {
			required = "Oui"
		}
		rows = append(rows, []any{col.Header, col.Label, required, col.Description})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := f.SetSheetRow(helpSheetName, cell, &values); err != nil {
			return fmt.Errorf("write help row: %w", err)
		}
	}

	if err := f.SetCellStyle(helpSheetName, "A1", "D1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(helpSheetName, "A", "C", 18); err != nil {
		return err
	}
	return f.SetColWidth(helpSheetName, "D", "D", 60)
}

// WriteErrorReport writes one CSV line per row error of a finished run.
func WriteErrorReport(w io.Writer, outcome *ImportOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ligne", "erreur"}); err != nil {
		return err
	}
	for _, e := range outcome.Errors {
		if err := cw.Write([]string{strconv.Itoa(e.Row), e.Message}); err != nil {
			return fmt.Errorf("write error line %d: %w", e.Row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrorReportFileName returns the download name of a run's error report.
func ErrorReportFileName(outcome *ImportOutcome) string {
	return fmt.Sprintf("erreurs_%s_%s.csv", outcome.Kind, outcome.StartedAt.Format("20060102-150405"))
}

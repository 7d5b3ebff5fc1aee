// Package core provides the bulk import pipeline: the template registry,
// the spreadsheet decoder and the row importer.
//
// The package holds no transport code. Web handlers, the importctl CLI and
// tests all drive it through [Service].
//
// # Template Registry
//
// Each import kind registers a [TemplateDefinition] at init time. The
// definition pairs the public [ImportTemplate] (ordered columns, required
// flags, descriptions) with the Build step that turns a decoded row into a
// [Record]:
//
//	core.Register(TemplateDefinition{
//	    Template: ImportTemplate{Kind: KindTeachers, Collection: "staff", Columns: cols},
//	    Build:    buildTeacher,
//	})
//
// # Decoding
//
// [Decode] reads .xlsx and .csv uploads into a [Sheet]: trimmed headers from
// the first row, and one [RawRow] per data row with each cell kept as text
// or number. Date and decimal conversion happen per kind in the Build step.
//
// # Importing
//
// [Service.StartImport] rejects a file as a whole when it cannot be decoded
// or lacks a required column. Past that point every row is imported on its
// own: a row that fails is recorded in [ImportOutcome.Errors] with its
// 1-based sheet line, and the next row continues. Progress is reported
// through [Service.SubscribeProgress].
//
// # Error Handling
//
// Batch-fatal errors map to user messages with [MapError]:
//
//   - DB001-DB004: store errors
//   - FILE001-FILE004: size, format and decoding
//   - VAL001-VAL002: missing columns and bad requests
//   - IMP001-IMP004: run lookup and concurrency
package core

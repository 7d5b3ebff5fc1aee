package core

// importer.go runs one decoded sheet through an import kind.
//
// A run goes Validating → Importing → Complete. Validating is the batch-level
// header precondition; once it passes, rows are processed strictly in file
// order, one store call at a time:
//
//	empty row            → skipped, counted in SkippedCount only
//	blank required cell  → one error naming the first such column
//	build fails          → one error with the kind's message
//	store rejects        → one error with the store message verbatim
//	otherwise            → one record created
//
// A row never produces both a record and an error. Row errors never stop the
// run and nothing already written is undone.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Common metadata stamped on every record.
const (
	FieldCreatedAt = "createdAt"
	FieldTenantID  = "tenantId"
)

// ImportJob is one decoded file ready to be imported.
type ImportJob struct {
	RunID      string
	FileName   string
	Sheet      *Sheet
	Env        *RowEnv
	OnProgress ProgressFunc // Optional; called after every row
}

// Importer processes rows for a single import kind.
type Importer struct {
	def    TemplateDefinition
	store  RecordStore
	logger *slog.Logger
}

// NewImporter creates an importer writing through store.
func NewImporter(def TemplateDefinition, store RecordStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{def: def, store: store, logger: logger}
}

// Run validates the header row and imports every data row.
// The only error returned is the batch-fatal *MissingColumnsError;
// row failures are folded into the outcome.
func (im *Importer) Run(ctx context.Context, job ImportJob) (*ImportOutcome, error) {
	tmpl := im.def.Template
	logger := im.logger.With("run_id", job.RunID, "kind", tmpl.Kind, "tenant", job.Env.TenantID)

	progress := Progress{
		RunID:    job.RunID,
		Kind:     tmpl.Kind,
		Phase:    PhaseValidating,
		FileName: job.FileName,
	}
	notify(job.OnProgress, progress)

	if err := ValidateHeaders(job.Sheet.Headers, tmpl); err != nil {
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	rows := job.Sheet.Rows
	outcome := &ImportOutcome{
		RunID:     job.RunID,
		Kind:      tmpl.Kind,
		FileName:  job.FileName,
		TotalRows: len(rows),
		Errors:    []RowError{},
		StartedAt: time.Now(),
	}

	progress.Phase = PhaseImporting
	progress.TotalRows = len(rows)
	notify(job.OnProgress, progress)

	for i, row := range rows {
		// Header is line 1, first data row is line 2.
		lineNum := i + 2

		switch {
		case row.IsEmpty():
			outcome.SkippedCount++
			rowsProcessed.WithLabelValues(string(tmpl.Kind), rowResultSkipped).Inc()

		default:
			if err := im.importRow(ctx, row, job.Env); err != nil {
				outcome.ErrorCount++
				outcome.Errors = append(outcome.Errors, RowError{Row: lineNum, Message: err.Error()})
				rowsProcessed.WithLabelValues(string(tmpl.Kind), rowResultError).Inc()
				logger.Warn("row rejected", "row", lineNum, "error", err.Error())
			} else {
				outcome.SuccessCount++
				rowsProcessed.WithLabelValues(string(tmpl.Kind), rowResultSuccess).Inc()
			}
		}

		progress.CurrentRow = i + 1
		progress.Succeeded = outcome.SuccessCount
		progress.Failed = outcome.ErrorCount
		progress.Skipped = outcome.SkippedCount
		notify(job.OnProgress, progress)
	}

	outcome.FinishedAt = time.Now()
	runDuration.WithLabelValues(string(tmpl.Kind)).Observe(outcome.Duration().Seconds())

	logger.Info("import completed",
		"file", job.FileName,
		"total", outcome.TotalRows,
		"succeeded", outcome.SuccessCount,
		"failed", outcome.ErrorCount,
		"skipped", outcome.SkippedCount,
		"duration_ms", outcome.Duration().Milliseconds(),
	)

	return outcome, nil
}

// importRow validates, normalizes and persists one non-empty row.
func (im *Importer) importRow(ctx context.Context, row RawRow, env *RowEnv) error {
	if col, missing := firstMissing(row, im.def.Template); missing {
		return errors.New(col.missingMessage())
	}

	rec, err := im.def.Build(row, env)
	if err != nil {
		return err
	}
	stampMetadata(&rec, env)

	if _, err := im.store.CreateRecord(ctx, env.TenantID, rec); err != nil {
		if err.Error() == "" {
			return fmt.Errorf("enregistrement impossible dans %s", rec.Path())
		}
		return err
	}
	return nil
}

// stampMetadata adds the creation time and tenant to the record document.
func stampMetadata(rec *Record, env *RowEnv) {
	if rec.Doc == nil {
		rec.Doc = Document{}
	}
	rec.Doc[FieldCreatedAt] = env.Now.UTC()
	rec.Doc[FieldTenantID] = env.TenantID
}

func notify(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gereecole/internal/core"
)

func newImportCmd(newService serviceFactory, logger func() *slog.Logger) *cobra.Command {
	var (
		kind      string
		file      string
		tenantID  string
		year      string
		errorsOut string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import one spreadsheet (xlsx or csv) for a school",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			service, release, err := newService(cmd.Context(), logger())
			if err != nil {
				return err
			}
			defer release()

			outcome, err := service.RunImport(cmd.Context(), core.ImportRequest{
				Kind:           k,
				TenantID:       tenantID,
				FileName:       filepath.Base(file),
				Data:           data,
				EnrollmentYear: year,
			})
			if err != nil {
				return err
			}

			if errorsOut != "" && outcome.ErrorCount > 0 {
				if err := writeErrorReport(errorsOut, outcome); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), outcome)
			}
			printOutcome(cmd.OutOrStdout(), outcome, errorsOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Import kind: students, teachers or grades (required)")
	cmd.Flags().StringVar(&file, "file", "", "Spreadsheet to import (required)")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "School (tenant) identifier (required)")
	cmd.Flags().StringVar(&year, "year", "", "Enrollment year for students, e.g. 2025-2026")
	cmd.Flags().StringVar(&errorsOut, "errors-out", "", "Write the per-row error report to this CSV file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func writeErrorReport(path string, outcome *core.ImportOutcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create error report: %w", err)
	}
	if err := core.WriteErrorReport(f, outcome); err != nil {
		f.Close()
		return fmt.Errorf("write error report: %w", err)
	}
	return f.Close()
}

func printOutcome(w io.Writer, o *core.ImportOutcome, errorsOut string) {
	fmt.Fprintf(w, "%s (%s): %d lignes, %d importées, %d erreurs, %d ignorées\n",
		o.FileName, o.Kind, o.TotalRows, o.SuccessCount, o.ErrorCount, o.SkippedCount)
	for _, e := range o.Errors {
		fmt.Fprintf(w, "  ligne %d: %s\n", e.Row, e.Message)
	}
	if errorsOut != "" && o.ErrorCount > 0 {
		fmt.Fprintf(w, "rapport d'erreurs: %s\n", errorsOut)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gereecole/internal/core"
)

func newTemplateCmd() *cobra.Command {
	var (
		kind   string
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the blank template of an import kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}
			tmpl, ok := core.GetTemplate(k)
			if !ok {
				return fmt.Errorf("%w: %q", core.ErrUnknownKind, k)
			}

			f := core.Format(format)
			if out == "" {
				out = core.TemplateFileName(tmpl, f)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := core.WriteTemplate(file, tmpl, f); err != nil {
				file.Close()
				os.Remove(out)
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Import kind: students, teachers or grades (required)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default modele_<kind>.<format>)")
	cmd.Flags().StringVar(&format, "format", string(core.FormatXLSX), "Template format: xlsx or csv")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// runPageData is what the run summary page shows.
type runPageData struct {
	RunID    string
	Progress core.Progress
	Outcome  *core.ImportOutcome
}

// handleRunPage renders the HTML summary of a run. A running import shows
// its progress and refreshes itself.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	progress, err := s.service.Progress(runID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := runPageData{RunID: runID, Progress: progress}
	if progress.Phase == core.PhaseComplete {
		if outcome, err := s.service.Result(runID); err == nil {
			data.Outcome = outcome
		}
	}

	templ.Handler(runPage(data)).ServeHTTP(w, r)
}

// runPage is the full summary document.
func runPage(d runPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var refresh string
		if !d.Progress.Phase.Done() {
			refresh = `<meta http-equiv="refresh" content="2">`
		}
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8">%s<title>Import %s</title></head><body>`,
			refresh, templ.EscapeString(d.RunID)); err != nil {
			return err
		}
		if err := runHeader(d.Progress).Render(ctx, w); err != nil {
			return err
		}
		if d.Outcome != nil {
			if err := runSummary(d.RunID, d.Outcome).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func runHeader(p core.Progress) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>Import %s</h1><p>Fichier : %s</p><p>État : %s (%d%%)</p>`,
			templ.EscapeString(kindLabel(p.Kind)),
			templ.EscapeString(p.FileName),
			templ.EscapeString(string(p.Phase)),
			p.Percent(),
		); err != nil {
			return err
		}
		if p.Error != "" {
			_, err := fmt.Fprintf(w, `<p class="error">%s</p>`, templ.EscapeString(p.Error))
			return err
		}
		return nil
	})
}

func runSummary(runID string, o *core.ImportOutcome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<table><tr><th>Lignes</th><td>%d</td></tr><tr><th>Importées</th><td>%d</td></tr><tr><th>Erreurs</th><td>%d</td></tr><tr><th>Ignorées</th><td>%d</td></tr><tr><th>Durée</th><td>%s</td></tr></table>`,
			o.TotalRows, o.SuccessCount, o.ErrorCount, o.SkippedCount, o.Duration().Round(time.Millisecond),
		); err != nil {
			return err
		}
		if len(o.Errors) == 0 {
			return nil
		}

		if _, err := fmt.Fprintf(w, `<h2>Erreurs</h2><p><a href="/api/import/%s/errors">Télécharger le rapport</a></p><table><tr><th>Ligne</th><th>Erreur</th></tr>`,
			templ.EscapeString(runID)); err != nil {
			return err
		}
		for _, e := range o.Errors {
			if _, err := fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td></tr>`, e.Row, templ.EscapeString(e.Message)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	})
}

func kindLabel(kind core.Kind) string {
	if tmpl, ok := core.GetTemplate(kind); ok && tmpl.Label != "" {
		return tmpl.Label
	}
	return string(kind)
}

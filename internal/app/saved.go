package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/export"
	"github.com/rebeliceyang/lazyreport/internal/session"
)

// exportReport asks the source for the export rendition of the current query
// and writes it to the export directory
func (a *App) exportReport() tea.Cmd {
	req := a.request()
	filename := export.Filename(a.session.Definition.Name, a.now())
	dir := a.config.Export.Dir
	timeout := a.config.Source.Timeout()
	source := a.source
	parent := a.ctx
	log := a.log.WithField("file", filename)

	a.setStatus("Exporting " + filename + "...")

	return func() tea.Msg {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}

		data, err := source.ExportReport(ctx, req, filename)
		if err != nil {
			return ExportedMsg{Err: errors.Wrap(err, "export report")}
		}
		path, err := export.WriteReport(dir, filename, data)
		if err != nil {
			return ExportedMsg{Err: err}
		}
		log.WithField("bytes", len(data)).Info("report exported")
		return ExportedMsg{Path: path}
	}
}

// saveReport stores the committed query under a timestamped name
func (a *App) saveReport() {
	if a.favorites == nil {
		a.setStatus("Saved reports are unavailable")
		return
	}

	def := a.session.Definition
	name := fmt.Sprintf("%s %s", def.Name, a.now().Format("2006-01-02 15:04:05"))
	saved, err := a.favorites.Add(name, "", def.Name, a.session.QueryText(), a.session.Saved(), nil)
	if err != nil {
		a.setError(errors.Wrap(err, "save report"))
		return
	}
	a.setStatus("Saved as " + saved.Name)
}

// loadMostUsed restores the most used saved query of this report
func (a *App) loadMostUsed() tea.Cmd {
	if a.favorites == nil {
		a.setStatus("Saved reports are unavailable")
		return nil
	}

	def := a.session.Definition
	for _, saved := range a.favorites.MostUsed(0) {
		if saved.Report != def.Name {
			continue
		}
		if err := a.favorites.MarkUsed(saved.ID); err != nil {
			a.log.WithError(err).Warn("mark saved report used")
		}
		a.session = session.Restore(def, saved.Query)
		a.filterEditor.SetState(a.session)
		a.sortEditor.SetState(a.session)
		a.regroup()
		a.setStatus("Loaded " + saved.Name)
		return a.refresh()
	}

	a.setStatus("No saved reports for " + def.Name)
	return nil
}

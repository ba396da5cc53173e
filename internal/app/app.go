package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/client"
	"github.com/rebeliceyang/lazyreport/internal/config"
	"github.com/rebeliceyang/lazyreport/internal/favorites"
	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/history"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/report"
	"github.com/rebeliceyang/lazyreport/internal/session"
	"github.com/rebeliceyang/lazyreport/internal/ui/components"
	"github.com/rebeliceyang/lazyreport/internal/ui/help"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
	"github.com/sirupsen/logrus"
)

// Deps are the services the application runs against. History and
// Favorites may be nil.
type Deps struct {
	Config     *config.Config
	Definition models.ReportDefinition
	Source     client.Source
	History    *history.Store
	Favorites  *favorites.Manager
	Registry   *filter.Registry
	Log        *logrus.Entry
}

// App is the main application model
type App struct {
	state  models.AppState
	config *config.Config
	theme  theme.Theme
	panel  components.Panel
	log    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	session session.State
	fetcher *client.Fetcher
	source  client.Source
	data    *models.ReportData

	// query text of the fetch in flight, for the history entry
	inflightQuery string

	history   *history.Store
	favorites *favorites.Manager
	recent    []history.Entry

	grid         *components.ReportGrid
	filterEditor *components.FilterEditor
	sortEditor   *components.SortEditor
	queryPreview *components.QueryPreview

	status      string
	statusError bool

	now  func() time.Time
	copy func(string) error
}

// ReportLoadedMsg carries the result of a report fetch
type ReportLoadedMsg struct {
	Result client.Result
}

// ExportedMsg is sent when an export finished
type ExportedMsg struct {
	Path string
	Err  error
}

// New creates a new App instance
func New(d Deps) *App {
	cfg := d.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	registry := d.Registry
	if registry == nil {
		registry = filter.DefaultRegistry()
	}

	th := theme.GetTheme(cfg.UI.Theme)

	state := models.NewAppState()
	state.ReportName = d.Definition.Name
	state.OrgIDs = cfg.Source.OrgIDs

	grid := components.NewReportGrid(th, cfg.Grid.Dimensions())
	if cfg.Grid.MaxCellDisplayLength > 0 {
		grid.MaxCellDisplayLength = cfg.Grid.MaxCellDisplayLength
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		state:        state,
		config:       cfg,
		theme:        th,
		log:          log.WithField("report", d.Definition.Name),
		ctx:          ctx,
		cancel:       cancel,
		session:      session.New(d.Definition),
		fetcher:      client.NewFetcher(d.Source, log),
		source:       d.Source,
		history:      d.History,
		favorites:    d.Favorites,
		grid:         grid,
		filterEditor: components.NewFilterEditor(th, registry),
		sortEditor:   components.NewSortEditor(th),
		queryPreview: components.NewQueryPreview(th),
		panel: components.Panel{
			Title:   d.Definition.Name,
			Focused: true,
			Theme:   th,
		},
		now:  time.Now,
		copy: clipboard.WriteAll,
	}
	a.updateDimensions()
	return a
}

// Session returns the current report session
func (a *App) Session() session.State {
	return a.session
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.refresh()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updateDimensions()

	case ReportLoadedMsg:
		a.completeFetch(msg.Result)

	case components.DispatchMsg:
		return a, a.dispatch(msg.Actions...)

	case components.CloseEditorMsg:
		a.state.ViewMode = models.NormalMode

	case components.CopiedMsg:
		if msg.Err != nil {
			a.setError(errors.Wrapf(msg.Err, "copy %s", msg.What))
		} else {
			a.setStatus(fmt.Sprintf("Copied %s to clipboard", msg.What))
		}

	case ExportedMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.setStatus("Exported to " + msg.Path)
		}
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	switch a.state.ViewMode {
	case models.FilterMode:
		_, cmd := a.filterEditor.Update(msg)
		return a, cmd
	case models.SortMode:
		_, cmd := a.sortEditor.Update(msg)
		return a, cmd
	case models.QueryMode:
		_, cmd := a.queryPreview.Update(msg)
		return a, cmd
	case models.HelpMode, models.HistoryMode:
		switch msg.String() {
		case "?", "H", "esc", "q":
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "?":
		a.state.ViewMode = models.HelpMode
	case "esc":
		a.status = ""
		a.statusError = false
	case "r", "f5":
		return a, a.refresh()
	case "ctrl+x":
		a.fetcher.Cancel()
		a.state.FetchState = a.fetcher.State()
		a.setStatus("Request cancelled")

	case "up", "k":
		a.grid.MoveSelection(-1)
	case "down", "j":
		a.grid.MoveSelection(1)
	case "left", "h":
		a.grid.MoveColumn(-1)
	case "right", "l":
		a.grid.MoveColumn(1)
	case "pgup", "ctrl+u":
		a.grid.PageUp()
	case "pgdown", "ctrl+d":
		a.grid.PageDown()
	case "g", "home":
		a.grid.Home()
	case "G", "end":
		a.grid.End()
	case "y":
		if cell, ok := a.grid.SelectedCell(); ok {
			return a, a.copyText("cell", cell)
		}

	case "f":
		a.filterEditor.SetState(a.session)
		a.filterEditor.Reset()
		a.state.ViewMode = models.FilterMode
	case "o":
		a.sortEditor.SetState(a.session)
		a.sortEditor.Reset()
		a.state.ViewMode = models.SortMode
	case "v":
		a.queryPreview.SetQuery(a.session.QueryText(), a.session.ExportText())
		a.state.ViewMode = models.QueryMode
	case "H":
		a.showHistory()

	case "s":
		return a, a.sortByCurrentColumn()
	case "b":
		return a, a.toggleGroupByCurrentColumn()
	case "B":
		return a, a.dispatch(session.SetSubtotals{})
	case "+", "=":
		return a, a.addNextColumn()
	case "x":
		if i, ok := a.currentColumnIndex(); ok {
			return a, a.dispatch(session.RemoveColumn{Index: i})
		}
	case "<", ",":
		return a, a.moveCurrentColumn(-1)
	case ">", ".":
		return a, a.moveCurrentColumn(1)

	case "e":
		return a, a.exportReport()
	case "S":
		a.saveReport()
	case "L":
		return a, a.loadMostUsed()
	}
	return a, nil
}

func (a *App) quit() tea.Cmd {
	a.fetcher.Cancel()
	a.cancel()
	return tea.Quit
}

// dispatch reduces actions into the session in order and starts a fetch when
// any of them asks for one
func (a *App) dispatch(actions ...session.Action) tea.Cmd {
	refresh := false
	for _, action := range actions {
		var effect session.Effect
		a.session, effect = session.Reduce(a.session, action)
		refresh = refresh || effect.Refresh
		a.log.WithField("action", fmt.Sprintf("%T", action)).Debug("action reduced")
	}

	a.filterEditor.SetState(a.session)
	a.sortEditor.SetState(a.session)

	if !refresh {
		return nil
	}
	a.regroup()
	if !a.config.General.RefreshOnChange {
		a.setStatus("Query changed, press r to refresh")
		return nil
	}
	return a.refresh()
}

func (a *App) request() client.Request {
	return client.Request{
		Report: a.session.Definition.Name,
		OrgIDs: a.config.Source.OrgIDs,
		Query:  a.session.QueryModel(),
	}
}

// refresh starts a fetch of the current query, superseding any in flight
func (a *App) refresh() tea.Cmd {
	req := a.request()
	ticket := a.fetcher.Begin(a.ctx)
	a.inflightQuery = a.session.QueryText()
	a.state.FetchState = a.fetcher.State()

	fetcher := a.fetcher
	return func() tea.Msg {
		return ReportLoadedMsg{Result: fetcher.Run(ticket, req)}
	}
}

func (a *App) completeFetch(r client.Result) {
	data, err := a.fetcher.Complete(r)
	if errors.Is(err, client.ErrSuperseded) {
		return
	}
	a.state.FetchState = a.fetcher.State()
	a.recordRun(r, data, err)

	if err != nil {
		// the last good data stays on screen
		a.setError(errors.Wrap(err, "load report"))
		return
	}

	a.data = data
	a.regroup()
	if a.statusError {
		a.status = ""
		a.statusError = false
	}
}

// regroup runs the grouping engine over the last fetched rows with the
// session's sort keys and grouping levels
func (a *App) regroup() {
	if a.data == nil {
		return
	}
	groups := report.GroupAndSort(a.data.RawData, a.data.DataColumnIndexMap, a.session.OrderBy, a.session.SubtotalBy)
	a.grid.SetData(a.data.DataColumnIndexMap, groups, a.session.Grouped())
}

func (a *App) recordRun(r client.Result, data *models.ReportData, runErr error) {
	if a.history == nil || !a.config.History.Enabled {
		return
	}
	if runErr != nil && !a.config.History.SaveFailedQueries {
		return
	}

	entry := history.Entry{
		Report:    a.session.Definition.Name,
		QueryText: a.inflightQuery,
		Duration:  r.Duration,
		Success:   runErr == nil,
	}
	if data != nil {
		entry.RowCount = len(data.RawData)
	}
	if runErr != nil {
		entry.ErrorMessage = runErr.Error()
	}

	if err := a.history.Add(entry); err != nil {
		a.log.WithError(err).Warn("record report run")
		return
	}
	if err := a.history.Trim(a.config.History.MaxEntries); err != nil {
		a.log.WithError(err).Warn("trim report history")
	}
}

func (a *App) showHistory() {
	if a.history == nil {
		a.setStatus("History is disabled")
		return
	}
	recent, err := a.history.GetRecent(a.state.Height)
	if err != nil {
		a.setError(err)
		return
	}
	a.recent = recent
	a.state.ViewMode = models.HistoryMode
}

func (a *App) currentColumnIndex() (int, bool) {
	expr, ok := a.grid.CurrentColumn()
	if !ok {
		return 0, false
	}
	i := models.IndexOfExpression(a.session.Columns, expr.Key())
	return i, i >= 0
}

// sortByCurrentColumn makes the column under the cursor the first sort key,
// or flips its direction when it already is
func (a *App) sortByCurrentColumn() tea.Cmd {
	expr, ok := a.grid.CurrentColumn()
	if !ok {
		return nil
	}

	orderBy := slices.Clone(a.session.OrderBy)
	switch i := models.IndexOfOrderBy(orderBy, expr.Key()); {
	case i == 0:
		if orderBy[0].Direction == models.Asc {
			orderBy[0].Direction = models.Desc
		} else {
			orderBy[0].Direction = models.Asc
		}
	default:
		if i > 0 {
			orderBy = slices.Delete(orderBy, i, i+1)
		}
		orderBy = slices.Insert(orderBy, 0, models.OrderByField{Expression: expr, Direction: models.Asc})
	}
	return a.dispatch(session.SetOrderBy{OrderBy: orderBy})
}

// toggleGroupByCurrentColumn adds the column under the cursor as the
// innermost grouping level, or removes it when already grouped on
func (a *App) toggleGroupByCurrentColumn() tea.Cmd {
	expr, ok := a.grid.CurrentColumn()
	if !ok {
		return nil
	}

	subtotals := slices.Clone(a.session.SubtotalBy)
	for i, s := range subtotals {
		if s.Expression.Key() == expr.Key() {
			return a.dispatch(session.SetSubtotals{SubtotalBy: slices.Delete(subtotals, i, i+1)})
		}
	}

	if allowed := a.session.Definition.AllowedGroupByFields; len(allowed) > 0 &&
		models.IndexOfExpression(allowed, expr.Key()) < 0 {
		a.setError(errors.Errorf("%s cannot be grouped", columnLabel(expr)))
		return nil
	}
	subtotals = append(subtotals, models.SubtotalField{Expression: expr})
	return a.dispatch(session.SetSubtotals{SubtotalBy: subtotals})
}

// columnCandidates lists every column the report can show, in definition order
func (a *App) columnCandidates() []models.DataExpression {
	def := a.session.Definition
	var out []models.DataExpression
	add := func(e models.DataExpression) {
		if e.Key() != "" && models.IndexOfExpression(out, e.Key()) < 0 {
			out = append(out, e)
		}
	}
	for _, e := range def.Select {
		add(e)
	}
	for _, e := range def.AllowedGroupByFields {
		add(e)
	}
	for i := range def.Fields {
		f := def.Fields[i]
		add(models.DataExpression{
			DisplayName:               f.FriendlyName,
			ExpressionAsQueryLanguage: f.DataSourceFieldName,
			DataSourceField:           &f,
		})
	}
	return out
}

func (a *App) addNextColumn() tea.Cmd {
	for _, e := range a.columnCandidates() {
		if models.IndexOfExpression(a.session.Columns, e.Key()) >= 0 {
			continue
		}
		add := session.AddColumns{Expressions: []models.DataExpression{e}, Position: session.Tail}
		if i, ok := a.currentColumnIndex(); ok {
			add.Position = session.After
			add.Index = i
		}
		a.setStatus("Added column " + columnLabel(e))
		return a.dispatch(add)
	}
	a.setStatus("Every column is already shown")
	return nil
}

func (a *App) moveCurrentColumn(delta int) tea.Cmd {
	i, ok := a.currentColumnIndex()
	if !ok {
		return nil
	}
	to := i + delta
	if to < 0 || to >= len(a.session.Columns) {
		return nil
	}
	a.grid.MoveColumn(delta)
	return a.dispatch(session.MoveColumn{From: i, To: to})
}

func (a *App) copyText(what, text string) tea.Cmd {
	copyFn := a.copy
	return func() tea.Msg {
		return components.CopiedMsg{What: what, Err: copyFn(text)}
	}
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusError = false
}

func (a *App) setError(err error) {
	a.log.WithError(err).Warn("status error")
	a.status = err.Error()
	a.statusError = true
}

func columnLabel(e models.DataExpression) string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Key()
}

// View implements tea.Model
func (a *App) View() string {
	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	case models.FilterMode:
		return a.overlay(a.filterEditor.View())
	case models.SortMode:
		return a.overlay(a.sortEditor.View())
	case models.QueryMode:
		return a.overlay(a.queryPreview.View())
	case models.HistoryMode:
		return a.overlay(a.renderHistory())
	}
	return a.renderNormalView()
}

// overlay centers a popover on the screen
func (a *App) overlay(content string) string {
	return lipgloss.Place(
		a.state.Width, a.state.Height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// renderNormalView renders the report view
func (a *App) renderNormalView() string {
	topBarLeft := "lazyreport · " + a.session.Definition.Name
	topBarRight := a.fetchLabel()
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar(topBarLeft, topBarRight))

	bottomBarLeft := a.status
	bottomStyle := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2)
	if a.statusError {
		bottomStyle = bottomStyle.Foreground(a.theme.Error)
	}
	if bottomBarLeft == "" {
		bottomBarLeft = "[f] Filters | [o] Sort | [v] Query | [?] Help | [q] Quit"
	}
	bottomBarRight := fmt.Sprintf("%d columns", len(a.session.Columns))
	if n := len(a.session.SubtotalBy); n > 0 {
		bottomBarRight = fmt.Sprintf("%d groups · %s", n, bottomBarRight)
	}
	bottomBar := bottomStyle.Render(a.formatStatusBar(bottomBarLeft, bottomBarRight))

	a.panel.Content = a.gridContent()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		a.panel.View(),
		bottomBar,
	)
}

func (a *App) gridContent() string {
	if a.data != nil {
		return a.grid.View()
	}
	switch a.state.FetchState {
	case models.FetchLoading:
		return lipgloss.NewStyle().Foreground(a.theme.Metadata).Render("Loading report...")
	case models.FetchError:
		return lipgloss.NewStyle().Foreground(a.theme.Error).Render("Report could not be loaded, press r to retry")
	}
	return lipgloss.NewStyle().Foreground(a.theme.Metadata).Render("Press r to run the report")
}

func (a *App) fetchLabel() string {
	switch a.state.FetchState {
	case models.FetchLoading:
		return "loading..."
	case models.FetchUpdating:
		return "updating..."
	case models.FetchError:
		return "error"
	case models.FetchDone:
		if a.data != nil {
			return fmt.Sprintf("%d rows", len(a.data.RawData))
		}
	}
	return ""
}

func (a *App) renderHistory() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(a.theme.BorderFocused)
	dim := lipgloss.NewStyle().Foreground(a.theme.Metadata)

	width := min(a.state.Width-6, 120)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent runs"))
	b.WriteString("\n\n")
	if len(a.recent) == 0 {
		b.WriteString(dim.Render("No runs recorded yet"))
	}
	for _, e := range a.recent {
		mark := lipgloss.NewStyle().Foreground(a.theme.Success).Render("✓")
		detail := fmt.Sprintf("%d rows in %s", e.RowCount, e.Duration.Round(time.Millisecond))
		if !e.Success {
			mark = lipgloss.NewStyle().Foreground(a.theme.Error).Render("✗")
			detail = e.ErrorMessage
		}
		line := fmt.Sprintf("%s %s  %-10s %s", mark, e.ExecutedAt.Local().Format("2006-01-02 15:04"), e.Report, detail)
		b.WriteString(runewidth.Truncate(line, width, "…"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Esc to close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.theme.BorderFocused).
		Padding(1, 2).
		Render(b.String())
}

// updateDimensions sizes the panel and its popovers from the window size
func (a *App) updateDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// top and bottom bar
	contentHeight := a.state.Height - 2
	if contentHeight < 5 {
		contentHeight = 5
	}

	// the panel border takes two cells each way
	a.panel.Width = max(a.state.Width-2, 20)
	a.panel.Height = contentHeight - 2

	a.grid.Width = a.panel.Width
	a.grid.Height = a.panel.Height - 1

	popoverWidth := min(a.state.Width-4, 100)
	popoverHeight := min(a.state.Height-4, 30)
	a.filterEditor.Width, a.filterEditor.Height = popoverWidth, popoverHeight
	a.sortEditor.Width, a.sortEditor.Height = min(popoverWidth, 70), popoverHeight
	a.queryPreview.Width, a.queryPreview.Height = popoverWidth, popoverHeight
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// padding takes 2 cells on each side
	availableWidth := max(a.state.Width-4, 0)

	rightLen := runewidth.StringWidth(right)
	if runewidth.StringWidth(left)+rightLen > availableWidth {
		if availableWidth > rightLen+1 {
			return runewidth.Truncate(left, availableWidth-rightLen-1, "…") + " " + right
		}
		return runewidth.Truncate(left, availableWidth, "…")
	}

	spacing := availableWidth - runewidth.StringWidth(left) - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

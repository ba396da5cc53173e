package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
	"github.com/rebeliceyang/lazyreport/internal/session"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

// DispatchMsg carries session actions produced by a popover, applied in order
type DispatchMsg struct {
	Actions []session.Action
}

// CloseEditorMsg is sent when a popover should close
type CloseEditorMsg struct{}

func dispatch(actions ...session.Action) tea.Cmd {
	return func() tea.Msg {
		return DispatchMsg{Actions: actions}
	}
}

func closeEditor() tea.Msg { return CloseEditorMsg{} }

type filterEditMode int

const (
	filterNavigate filterEditMode = iota
	filterPickField
	filterPickOperator
	filterEditValue
)

// FilterEditor edits the drafted required and optional filters of a session.
// It never changes the session itself; every edit is sent as a DispatchMsg.
type FilterEditor struct {
	Width    int
	Height   int
	Theme    theme.Theme
	registry *filter.Registry

	state        session.State
	currentIndex int
	mode         filterEditMode
	pickIndex    int
	input        textinput.Model

	validationError string
}

// NewFilterEditor creates a filter editor using registry for value widgets
func NewFilterEditor(th theme.Theme, registry *filter.Registry) *FilterEditor {
	input := textinput.New()
	input.Prompt = "Value: "
	input.CharLimit = 256

	return &FilterEditor{
		Width:    80,
		Height:   24,
		Theme:    th,
		registry: registry,
		input:    input,
	}
}

// SetState gives the editor the session it is editing
func (fe *FilterEditor) SetState(s session.State) {
	fe.state = s
	if n := fe.count(); fe.currentIndex >= n {
		fe.currentIndex = max(n-1, 0)
	}
}

// Reset returns the editor to navigation at the first filter
func (fe *FilterEditor) Reset() {
	fe.currentIndex = 0
	fe.mode = filterNavigate
	fe.validationError = ""
	fe.input.Blur()
}

func (fe *FilterEditor) count() int {
	return len(fe.state.Draft.RequiredFilters) + len(fe.state.Draft.OptionalFilters)
}

// current returns the filter under the cursor, whether it is required and
// its index within its own collection
func (fe *FilterEditor) current() (models.FilterField, bool, int, bool) {
	req := fe.state.Draft.RequiredFilters
	if fe.currentIndex < len(req) {
		return req[fe.currentIndex], true, fe.currentIndex, true
	}
	i := fe.currentIndex - len(req)
	if i < len(fe.state.Draft.OptionalFilters) {
		return fe.state.Draft.OptionalFilters[i], false, i, true
	}
	return models.FilterField{}, false, 0, false
}

func (fe *FilterEditor) optionalFields() []models.DataSourceField {
	var out []models.DataSourceField
	for _, f := range fe.state.Definition.Fields {
		if !f.IsRequiredFilter {
			out = append(out, f)
		}
	}
	return out
}

// Update handles keyboard input
func (fe *FilterEditor) Update(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	switch fe.mode {
	case filterPickField:
		return fe.handlePickField(msg)
	case filterPickOperator:
		return fe.handlePickOperator(msg)
	case filterEditValue:
		return fe.handleEditValue(msg)
	default:
		return fe.handleNavigate(msg)
	}
}

func (fe *FilterEditor) handleNavigate(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	fe.validationError = ""
	f, required, index, ok := fe.current()

	switch msg.String() {
	case "up", "k":
		if fe.currentIndex > 0 {
			fe.currentIndex--
		}
	case "down", "j":
		if fe.currentIndex < fe.count()-1 {
			fe.currentIndex++
		}
	case "a", "n":
		if len(fe.state.Draft.OptionalFilters) >= len(fe.optionalFields()) {
			fe.validationError = "Every optional field already has a filter"
			return fe, nil
		}
		fe.currentIndex = fe.count()
		return fe, dispatch(session.AddOptionalFilter{})
	case "d", "x":
		if !ok {
			return fe, nil
		}
		if required {
			fe.validationError = "Required filters cannot be removed"
			return fe, nil
		}
		return fe, dispatch(session.RemoveOptionalFilter{Index: index})
	case "f":
		if !ok || required {
			fe.validationError = "Only optional filters can change field"
			return fe, nil
		}
		fe.mode = filterPickField
		fe.pickIndex = 0
		for i, field := range fe.optionalFields() {
			if field.DataSourceFieldName == f.Field.DataSourceFieldName {
				fe.pickIndex = i
			}
		}
	case "o":
		if !ok {
			return fe, nil
		}
		fe.mode = filterPickOperator
		fe.pickIndex = 0
		for i, op := range filter.AvailableOperators(f.Field) {
			if op == f.ExpressionFunction {
				fe.pickIndex = i
			}
		}
	case "e", " ":
		if !ok {
			return fe, nil
		}
		widget := fe.registry.For(f)
		if widget.Kind() == filter.KindCheckbox {
			checked, _ := f.Value.(bool)
			return fe, dispatch(session.ChangeFilterValue{Required: required, Index: index, Value: !checked})
		}
		fe.mode = filterEditValue
		fe.input.SetValue(widget.Format(f.Value))
		fe.input.CursorEnd()
		fe.input.Focus()
		return fe, textinput.Blink
	case "u":
		if !ok {
			return fe, nil
		}
		return fe, dispatch(session.ChangeFilterValue{Required: required, Index: index, Value: nil})
	case "enter":
		return fe, tea.Batch(
			dispatch(session.ApplyFilters{Required: true}, session.ApplyFilters{Required: false}),
			closeEditor,
		)
	case "esc":
		return fe, tea.Batch(dispatch(session.DiscardDrafts{}), closeEditor)
	}
	return fe, nil
}

func (fe *FilterEditor) handlePickField(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	fields := fe.optionalFields()
	switch msg.String() {
	case "esc":
		fe.mode = filterNavigate
	case "up", "k":
		if fe.pickIndex > 0 {
			fe.pickIndex--
		}
	case "down", "j":
		if fe.pickIndex < len(fields)-1 {
			fe.pickIndex++
		}
	case "enter":
		fe.mode = filterNavigate
		_, _, index, ok := fe.current()
		if !ok || fe.pickIndex >= len(fields) {
			return fe, nil
		}
		return fe, dispatch(session.ChangeFilterField{Index: index, FieldName: fields[fe.pickIndex].DataSourceFieldName})
	}
	return fe, nil
}

func (fe *FilterEditor) handlePickOperator(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	f, required, index, ok := fe.current()
	ops := filter.AvailableOperators(f.Field)
	switch msg.String() {
	case "esc":
		fe.mode = filterNavigate
	case "up", "k":
		if fe.pickIndex > 0 {
			fe.pickIndex--
		}
	case "down", "j":
		if fe.pickIndex < len(ops)-1 {
			fe.pickIndex++
		}
	case "enter":
		fe.mode = filterNavigate
		if !ok || fe.pickIndex >= len(ops) {
			return fe, nil
		}
		return fe, dispatch(session.ChangeFilterOperator{Required: required, Index: index, Op: ops[fe.pickIndex]})
	}
	return fe, nil
}

func (fe *FilterEditor) handleEditValue(msg tea.KeyMsg) (*FilterEditor, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fe.mode = filterNavigate
		fe.validationError = ""
		fe.input.Blur()
		return fe, nil
	case "enter":
		f, required, index, ok := fe.current()
		if !ok {
			fe.mode = filterNavigate
			return fe, nil
		}
		text := strings.TrimSpace(fe.input.Value())
		var value any
		if text != "" {
			parsed, err := fe.registry.For(f).Parse(text, f.ExpressionFunction)
			if err != nil {
				fe.validationError = err.Error()
				return fe, nil
			}
			value = parsed
		}
		fe.mode = filterNavigate
		fe.validationError = ""
		fe.input.Blur()
		return fe, dispatch(session.ChangeFilterValue{Required: required, Index: index, Value: value})
	}

	var cmd tea.Cmd
	fe.input, cmd = fe.input.Update(msg)
	return fe, cmd
}

// View renders the filter editor
func (fe *FilterEditor) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fe.Theme.Foreground).
		Background(fe.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filters"))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fe.Theme.Metadata).
		Padding(0, 1)

	var instructions string
	switch fe.mode {
	case filterPickField:
		instructions = "↑↓ Select field, Enter to confirm, Esc to go back"
	case filterPickOperator:
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case filterEditValue:
		instructions = fe.valueHint()
	default:
		instructions = "a=Add d=Delete f=Field o=Operator e=Value u=Unset Enter=Apply Esc=Cancel"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fe.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fe.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fe.validationError))
	}

	required := fe.state.Draft.RequiredFilters
	if len(required) > 0 {
		sections = append(sections, "\nRequired:")
		for i, f := range required {
			sections = append(sections, fe.renderFilter(i, f))
		}
	}

	sections = append(sections, "\nOptional:")
	if len(fe.state.Draft.OptionalFilters) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(fe.Theme.Metadata).Padding(0, 1).Render("  none"))
	}
	for i, f := range fe.state.Draft.OptionalFilters {
		sections = append(sections, fe.renderFilter(len(required)+i, f))
	}

	switch fe.mode {
	case filterPickField:
		sections = append(sections, "\nField:")
		for i, field := range fe.optionalFields() {
			sections = append(sections, fe.renderChoice(i == fe.pickIndex, fieldLabel(field)))
		}
	case filterPickOperator:
		f, _, _, _ := fe.current()
		sections = append(sections, "\nOperator:")
		for i, op := range filter.AvailableOperators(f.Field) {
			sections = append(sections, fe.renderChoice(i == fe.pickIndex, string(op)))
		}
	case filterEditValue:
		sections = append(sections, "\n"+fe.input.View())
	}

	if where := fe.preview(); where != "" {
		sections = append(sections, "\nQuery Preview:")
		previewStyle := lipgloss.NewStyle().
			Foreground(fe.Theme.Metadata).
			Padding(0, 1).
			Italic(true)
		sections = append(sections, previewStyle.Render(where))
	}

	content := strings.Join(sections, "\n")

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fe.Theme.BorderFocused).
		Foreground(fe.Theme.Foreground).
		Width(fe.Width).
		Height(fe.Height).
		Padding(1)

	return containerStyle.Render(content)
}

func (fe *FilterEditor) renderFilter(i int, f models.FilterField) string {
	value := "(unset)"
	if f.IsSet() {
		value = fe.registry.For(f).Format(f.Value)
	}
	line := fmt.Sprintf(" %d. %s %s %s", i+1, fieldLabel(f.Field), f.ExpressionFunction, value)

	style := lipgloss.NewStyle().Padding(0, 1)
	if i == fe.currentIndex && fe.mode == filterNavigate {
		style = style.Background(fe.Theme.Selection).Foreground(fe.Theme.Foreground)
	}
	if !f.IsSet() {
		style = style.Faint(true)
	}
	return style.Render(line)
}

func (fe *FilterEditor) renderChoice(selected bool, label string) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if selected {
		style = style.Background(fe.Theme.Selection).Foreground(fe.Theme.Foreground)
	}
	return style.Render("  " + label)
}

func (fe *FilterEditor) valueHint() string {
	f, _, _, _ := fe.current()
	switch fe.registry.For(f).Kind() {
	case filter.KindDateRange:
		return "A relative range (This week) or 2025-01-06..2025-01-10, Enter to confirm"
	case filter.KindNumeric:
		if f.ExpressionFunction == models.OpBetween {
			return "Two numbers as 1..5, Enter to confirm"
		}
		return "A number, Enter to confirm"
	case filter.KindTime:
		return "A time as 07:30, Enter to confirm"
	case filter.KindSelect:
		return "An option name (comma separated for a list), Enter to confirm"
	case filter.KindIDList:
		return "Comma separated ids, Enter to confirm"
	case filter.KindNotFound:
		return "No editor is available for this field"
	default:
		return "Type value, Enter to confirm, empty to unset"
	}
}

// preview renders the WHERE part the drafts would produce
func (fe *FilterEditor) preview() string {
	set := filter.SetOnly(fe.state.Draft.RequiredFilters)
	set = append(set, filter.SetOnly(fe.state.Draft.OptionalFilters)...)
	if len(set) == 0 {
		return ""
	}
	parts := make([]string, len(set))
	for i, f := range set {
		parts[i] = query.Predicate(f)
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

func fieldLabel(f models.DataSourceField) string {
	if f.FriendlyName != "" {
		return f.FriendlyName
	}
	return f.DataSourceFieldName
}

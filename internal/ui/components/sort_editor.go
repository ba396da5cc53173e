package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/session"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

// SortEditor edits the drafted sort keys of a session
type SortEditor struct {
	Width  int
	Height int
	Theme  theme.Theme

	state        session.State
	currentIndex int
	message      string
}

// NewSortEditor creates a sort editor
func NewSortEditor(th theme.Theme) *SortEditor {
	return &SortEditor{Width: 60, Height: 20, Theme: th}
}

// SetState gives the editor the session it is editing
func (se *SortEditor) SetState(s session.State) {
	se.state = s
	if n := len(s.Draft.OrderBy); se.currentIndex >= n {
		se.currentIndex = max(n-1, 0)
	}
}

// Reset returns the cursor to the first sort key
func (se *SortEditor) Reset() {
	se.currentIndex = 0
	se.message = ""
}

// Update handles keyboard input
func (se *SortEditor) Update(msg tea.KeyMsg) (*SortEditor, tea.Cmd) {
	se.message = ""
	orderBy := se.state.Draft.OrderBy
	ok := se.currentIndex < len(orderBy)

	switch msg.String() {
	case "up", "k":
		if se.currentIndex > 0 {
			se.currentIndex--
		}
	case "down", "j":
		if se.currentIndex < len(orderBy)-1 {
			se.currentIndex++
		}
	case "a", "n":
		if len(orderBy) >= len(se.state.Columns) {
			se.message = "Every column is already sorted on"
			return se, nil
		}
		se.currentIndex = len(orderBy)
		return se, dispatch(session.AddOrderBy{})
	case "d", "x":
		if ok {
			return se, dispatch(session.RemoveOrderBy{Index: se.currentIndex})
		}
	case " ", "t":
		if ok {
			o := orderBy[se.currentIndex]
			dir := models.Desc
			if o.Direction == models.Desc {
				dir = models.Asc
			}
			return se, dispatch(session.ChangeOrderBy{Index: se.currentIndex, Key: o.Expression.Key(), Direction: dir})
		}
	case "left", "h", "right", "l":
		if ok {
			step := 1
			if s := msg.String(); s == "left" || s == "h" {
				step = -1
			}
			if key, found := se.nextColumn(step); found {
				return se, dispatch(session.ChangeOrderBy{Index: se.currentIndex, Key: key, Direction: orderBy[se.currentIndex].Direction})
			}
			se.message = "No other column is free to sort on"
		}
	case "K", "shift+up":
		if ok && se.currentIndex > 0 {
			se.currentIndex--
			return se, dispatch(session.MoveOrderBy{From: se.currentIndex + 1, To: se.currentIndex})
		}
	case "J", "shift+down":
		if ok && se.currentIndex < len(orderBy)-1 {
			se.currentIndex++
			return se, dispatch(session.MoveOrderBy{From: se.currentIndex - 1, To: se.currentIndex})
		}
	case "enter":
		return se, tea.Batch(dispatch(session.ApplyOrderBy{}), closeEditor)
	case "esc":
		return se, tea.Batch(dispatch(session.DiscardDrafts{}), closeEditor)
	}
	return se, nil
}

// nextColumn finds the next column in step direction that no other sort key uses
func (se *SortEditor) nextColumn(step int) (string, bool) {
	columns := se.state.Columns
	if len(columns) == 0 {
		return "", false
	}
	current := se.state.Draft.OrderBy[se.currentIndex].Expression.Key()
	start := models.IndexOfExpression(columns, current)
	if start < 0 {
		start = 0
	}
	for n := 1; n < len(columns); n++ {
		i := ((start+step*n)%len(columns) + len(columns)) % len(columns)
		key := columns[i].Key()
		if models.IndexOfOrderBy(se.state.Draft.OrderBy, key) < 0 {
			return key, true
		}
	}
	return "", false
}

// View renders the sort editor
func (se *SortEditor) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(se.Theme.Foreground).
		Background(se.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Sort"))
	sections = append(sections, lipgloss.NewStyle().
		Foreground(se.Theme.Metadata).
		Padding(0, 1).
		Render("a=Add d=Delete Space=Direction ←→=Column J/K=Priority Enter=Apply Esc=Cancel"))

	if se.message != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(se.Theme.Warning).Padding(0, 1).Render(se.message))
	}

	sections = append(sections, "")
	if len(se.state.Draft.OrderBy) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(se.Theme.Metadata).Padding(0, 1).Render("  unsorted"))
	}
	for i, o := range se.state.Draft.OrderBy {
		name := o.Expression.DisplayName
		if name == "" {
			name = o.Expression.Key()
		}
		arrow := "↑"
		if o.Direction == models.Desc {
			arrow = "↓"
		}
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == se.currentIndex {
			style = style.Background(se.Theme.Selection).Foreground(se.Theme.Foreground)
		}
		sections = append(sections, style.Render(fmt.Sprintf(" %d. %s %s %s", i+1, arrow, name, o.Direction)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(se.Theme.BorderFocused).
		Foreground(se.Theme.Foreground).
		Width(se.Width).
		Height(se.Height).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

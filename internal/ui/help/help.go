package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc", "Dismiss error or close popover"},
		{"r, F5", "Refresh report"},
		{"Ctrl+X", "Cancel running request"},
	}
}

// GetNavigationKeys returns grid navigation key bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Previous column"},
		{"→/l", "Next column"},
		{"PgUp/PgDn", "Page up or down"},
		{"g/G", "First or last row"},
		{"y", "Copy cell"},
	}
}

// GetQueryKeys returns key bindings that change the report query
func GetQueryKeys() []KeyBinding {
	return []KeyBinding{
		{"f", "Edit filters"},
		{"o", "Edit sort"},
		{"s", "Sort by column (toggle direction)"},
		{"b", "Group by column (toggle)"},
		{"B", "Clear grouping"},
		{"+", "Add next available column"},
		{"x", "Remove column"},
		{"</>", "Move column left or right"},
		{"v", "Show query text"},
	}
}

// GetReportKeys returns saved report and export key bindings
func GetReportKeys() []KeyBinding {
	return []KeyBinding{
		{"e", "Export report to CSV"},
		{"S", "Save report query"},
		{"L", "Load most used saved report"},
		{"H", "Show recent runs"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Navigation", GetNavigationKeys()},
		{"Query", GetQueryKeys()},
		{"Saved Reports", GetReportKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazyreport - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 10))

	return boxStyle.Render(b.String())
}

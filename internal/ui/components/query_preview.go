package components

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

// CopiedMsg reports the outcome of a clipboard copy
type CopiedMsg struct {
	What string
	Err  error
}

// clauses start a new line when a query is laid out for reading
var clauses = []string{" WHERE ", " SELECT ", " ORDER BY ", " SUBTOTAL BY ", " WITH ("}

// QueryPreview shows the query text of the current session, highlighted
type QueryPreview struct {
	Width  int
	Height int
	Theme  theme.Theme

	queryText  string
	exportText string
	showExport bool
	scrollY    int

	chromaStyle     *chroma.Style
	chromaFormatter chroma.Formatter

	// copy writes to the system clipboard
	copy func(string) error
}

// NewQueryPreview creates a query preview
func NewQueryPreview(th theme.Theme) *QueryPreview {
	qp := &QueryPreview{
		Width:  80,
		Height: 20,
		Theme:  th,
		copy:   clipboard.WriteAll,
	}

	qp.chromaStyle = styles.Get(th.ChromaStyle)
	if qp.chromaStyle == nil {
		qp.chromaStyle = styles.Fallback
	}
	qp.chromaFormatter = formatters.Get("terminal256")
	if qp.chromaFormatter == nil {
		qp.chromaFormatter = formatters.Fallback
	}
	return qp
}

// SetQuery sets the live and export query texts
func (qp *QueryPreview) SetQuery(queryText, exportText string) {
	if qp.queryText != queryText || qp.exportText != exportText {
		qp.scrollY = 0
	}
	qp.queryText = queryText
	qp.exportText = exportText
}

// Text returns the query currently shown
func (qp *QueryPreview) Text() string {
	if qp.showExport {
		return qp.exportText
	}
	return qp.queryText
}

// Update handles keyboard input
func (qp *QueryPreview) Update(msg tea.KeyMsg) (*QueryPreview, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if qp.scrollY > 0 {
			qp.scrollY--
		}
	case "down", "j":
		qp.scrollY++
	case "tab", "x":
		qp.showExport = !qp.showExport
		qp.scrollY = 0
	case "y", "c":
		text := qp.Text()
		copyFn := qp.copy
		return qp, func() tea.Msg {
			return CopiedMsg{What: "query", Err: copyFn(text)}
		}
	case "esc", "q", "v":
		return qp, closeEditor
	}
	return qp, nil
}

// FormatQuery lays a query out one clause per line. Keywords inside quoted
// literals are left alone.
func FormatQuery(text string) string {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			inQuote = !inQuote
		}
		if !inQuote && c == ' ' && startsClause(text[i:]) {
			b.WriteByte('\n')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func startsClause(s string) bool {
	for _, c := range clauses {
		if strings.HasPrefix(s, c) {
			return true
		}
	}
	return false
}

func (qp *QueryPreview) highlight(line string) string {
	lexer := lexers.Get("sql")
	if lexer == nil {
		return line
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := qp.chromaFormatter.Format(&buf, qp.chromaStyle, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// View renders the preview
func (qp *QueryPreview) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(qp.Theme.Foreground).
		Background(qp.Theme.Info).
		Padding(0, 1).
		Bold(true)

	title := "Query"
	if qp.showExport {
		title = "Export Query"
	}

	lines := strings.Split(FormatQuery(qp.Text()), "\n")
	bodyHeight := max(qp.Height-6, 1)
	if qp.scrollY > len(lines)-1 {
		qp.scrollY = max(len(lines)-1, 0)
	}
	end := min(qp.scrollY+bodyHeight, len(lines))

	highlighted := make([]string, 0, end-qp.scrollY)
	for _, line := range lines[qp.scrollY:end] {
		highlighted = append(highlighted, qp.highlight(line))
	}

	hint := lipgloss.NewStyle().
		Foreground(qp.Theme.Metadata).
		Render("y=Copy Tab=Live/Export ↑↓=Scroll Esc=Close")

	content := titleStyle.Render(title) + "\n\n" + strings.Join(highlighted, "\n") + "\n\n" + hint

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(qp.Theme.BorderFocused).
		Width(qp.Width).
		Height(qp.Height).
		Padding(0, 1).
		Render(content)
}

package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

func TestFormatQuery(t *testing.T) {
	text := "QUERY FROM Absence WHERE Note = 'x WHERE y' SELECT Date, Hours ORDER BY Date DESC SUBTOTAL BY LocationId WITH (EXPORT)"

	got := FormatQuery(text)
	want := "QUERY FROM Absence\nWHERE Note = 'x WHERE y'\nSELECT Date, Hours\nORDER BY Date DESC\nSUBTOTAL BY LocationId\nWITH (EXPORT)"
	if got != want {
		t.Errorf("FormatQuery mismatch.\nExpected:\n%s\nGot:\n%s", want, got)
	}
}

func TestQueryPreview_ToggleAndCopy(t *testing.T) {
	qp := NewQueryPreview(theme.DefaultTheme())
	var copied string
	qp.copy = func(s string) error {
		copied = s
		return nil
	}
	qp.SetQuery("QUERY FROM Absence SELECT Date", "QUERY FROM Absence SELECT Date WITH (EXPORT)")

	if qp.Text() != "QUERY FROM Absence SELECT Date" {
		t.Errorf("Expected live query first, got %s", qp.Text())
	}

	qp.Update(key("x"))
	if !strings.HasSuffix(qp.Text(), "WITH (EXPORT)") {
		t.Errorf("Expected export query after toggle, got %s", qp.Text())
	}

	_, cmd := qp.Update(key("y"))
	msg, ok := cmd().(CopiedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("Expected successful CopiedMsg, got %#v", msg)
	}
	if copied != qp.Text() {
		t.Errorf("Expected export query copied, got %q", copied)
	}

	_, cmd = qp.Update(key("esc"))
	if _, ok := cmd().(CloseEditorMsg); !ok {
		t.Error("Expected close on esc")
	}
}

func TestQueryPreview_View(t *testing.T) {
	qp := NewQueryPreview(theme.CatppuccinMochaTheme())
	qp.Width = 80
	qp.Height = 12
	qp.SetQuery("QUERY FROM Absence SELECT Date", "")

	view := qp.View()
	if !strings.Contains(view, "Query") || !strings.Contains(view, "Absence") {
		t.Errorf("Unexpected view:\n%s", view)
	}
}

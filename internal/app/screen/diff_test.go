package screen

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chmouel/lazydiff/internal/difftool"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/theme"
)

func TestDiffScreen(t *testing.T) {
	result := difftool.Result{
		Path:  "Content/Map.umap",
		Left:  models.Commit{Revision: "abc1234"},
		Right: models.Commit{Revision: "def5678"},
		Lines: difftool.LineDiff("one\ntwo\n", "one\nthree\n"),
	}
	scr := NewDiffScreen(result, 120, 40, theme.GetTheme(theme.DraculaName))
	view := scr.View()
	for _, want := range []string{"Content/Map.umap", "abc1234 → def5678", "+1", "-1", "+three", "-two"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}

	next, _ := scr.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if next == nil {
		t.Fatal("scrolling must keep the viewer open")
	}
	next, _ = scr.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if next != nil {
		t.Fatal("expected q to close the viewer")
	}
}

func TestDiffScreenIdentical(t *testing.T) {
	scr := NewDiffScreen(difftool.Result{Path: "a"}, 80, 24, theme.GetTheme(theme.DraculaName))
	if !strings.Contains(scr.View(), "identical") {
		t.Fatal("expected identical notice")
	}
}

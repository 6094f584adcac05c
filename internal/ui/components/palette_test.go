package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"peerlink/internal/ui/theme"
)

func TestPaletteSubmitTrimsInput(t *testing.T) {
	t.Parallel()
	p := NewPalette(theme.New(""), []string{"offline on|off", "lang en|ru|uz"})
	p.Open()
	for _, r := range " lang ru " {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("expected palette to close on enter")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "lang ru" {
		t.Fatalf("unexpected submit message %#v", cmd())
	}
}

func TestPaletteTabCompletesSingleMatch(t *testing.T) {
	t.Parallel()
	p := NewPalette(theme.New(""), []string{"offline on|off", "lang en|ru|uz"})
	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := p.input.Value(); got != "offline " {
		t.Fatalf("expected completion, got %q", got)
	}
}

func TestPaletteEscCancels(t *testing.T) {
	t.Parallel()
	p := NewPalette(theme.New(""), nil)
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("expected palette hidden")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("expected cancel message")
	}
}

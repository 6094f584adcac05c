package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	profiledto "peerlink/internal/modules/profile/dto"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/ui/theme"
)

// Port is the minimal interface this view needs from the profile use case.
type Port interface {
	LoadProfile(ctx context.Context, input profiledto.LoadProfileInput) (profiledto.ProfileOutput, error)
	Latest() uint64
}

// LoadedMsg is sent when a load settles. The root model inspects it before
// forwarding so it can react to unauthorized results.
type LoadedMsg struct {
	Output profiledto.ProfileOutput
	Err    error
}

// Stale reports whether a newer load started after this one.
func (m LoadedMsg) Stale(latest uint64) bool {
	return errors.Is(m.Err, apperrors.ErrSuperseded) || m.Output.Generation != latest
}

type Model struct {
	port        Port
	search      textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	styles      theme.Styles
	out         profiledto.ProfileOutput
	loading     bool
	loadingText string
	width       int
	height      int
}

func New(port Port, styles theme.Styles) Model {
	search := textinput.New()
	search.Placeholder = "participant login"
	search.Prompt = "/ "
	search.CharLimit = 64
	search.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	return Model{
		port:        port,
		search:      search,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		renderer:    newRenderer(0),
		styles:      styles,
		loadingText: "Loading…",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m *Model) SetStyles(styles theme.Styles) {
	m.styles = styles
	m.spinner.Style = lipgloss.NewStyle().Foreground(styles.Accent)
}

func (m *Model) SetLoadingText(text string) {
	if text != "" {
		m.loadingText = text
	}
}

// Searching reports whether the search box owns keyboard input.
func (m Model) Searching() bool { return m.search.Focused() }

// Login returns the login of the profile on screen.
func (m Model) Login() string { return m.out.Login }

// Load starts fetching login. The returned Cmd produces a LoadedMsg.
func (m *Model) Load(login string) tea.Cmd {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil
	}
	m.loading = true
	m.search.Blur()
	m.search.SetValue(login)
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.LoadProfile(context.Background(), profiledto.LoadProfileInput{Login: login})
		return LoadedMsg{Output: out, Err: err}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case LoadedMsg:
		if msg.Stale(m.port.Latest()) {
			return m, nil
		}
		m.loading = false
		m.out = msg.Output
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.search.Focused() {
			switch msg.String() {
			case "enter":
				cmd := m.Load(m.search.Value())
				return m, cmd
			case "esc":
				m.search.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "/":
			m.search.SetValue("")
			cmd := m.search.Focus()
			return m, cmd
		case "r":
			cmd := m.Load(m.out.Login)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := m.search.View()
	if m.out.Source == profiledto.SourceCache {
		header += "  " + m.styles.Muted.Render("(cached)")
	}
	header += "\n"

	body := m.viewport.View()
	if m.loading {
		body = lipgloss.Place(m.width, max(m.viewport.Height, 1), lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" "+m.loadingText)
	}
	footer := m.styles.Muted.Render(fmt.Sprintf("%3.0f%%  /: search  r: reload  ↑/↓: scroll", m.viewport.ScrollPercent()*100))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-3, 1)
	m.renderer = newRenderer(m.width)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
}

func (m Model) renderBody() string {
	switch m.out.State {
	case profiledto.StateReady:
		doc := Markdown(m.out)
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(doc); err == nil {
				return rendered
			}
		}
		return doc
	case profiledto.StateNotFound, profiledto.StateUnauthorized, profiledto.StateErrored:
		return m.styles.Error.Render(m.out.Message)
	default:
		return m.styles.Muted.Render("Type a login and press enter.")
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "peerlink/internal/modules/session/dto"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/ui/theme"
)

// Port is the minimal interface this view needs from the session use case.
type Port interface {
	Login(ctx context.Context, input sessiondto.LoginInput) (sessiondto.LoginOutput, error)
}

// LoggedInMsg carries the outcome of one submit.
type LoggedInMsg struct {
	Output sessiondto.LoginOutput
	Err    error
}

const (
	fieldUsername = iota
	fieldPassword
	fieldCount
)

type Model struct {
	port     Port
	inputs   [fieldCount]textinput.Model
	focus    int
	remember bool
	spinner  spinner.Model
	styles   theme.Styles
	busy     bool
	err      string
	width    int
	height   int
}

// New builds the form. rememberedLogin pre-fills the username and turns the
// remember toggle on.
func New(port Port, styles theme.Styles, rememberedLogin string) Model {
	user := textinput.New()
	user.Placeholder = "login"
	user.CharLimit = 64
	user.Prompt = "Login    "

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Prompt = "Password "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	m := Model{port: port, spinner: sp, styles: styles}
	m.inputs[fieldUsername] = user
	m.inputs[fieldPassword] = pass
	if rememberedLogin != "" {
		m.inputs[fieldUsername].SetValue(rememberedLogin)
		m.remember = true
		m.focus = fieldPassword
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m *Model) SetStyles(styles theme.Styles) {
	m.styles = styles
	m.spinner.Style = lipgloss.NewStyle().Foreground(styles.Accent)
}

// Reset clears the password and any error, keeping the typed login.
func (m *Model) Reset(message string) {
	m.inputs[fieldPassword].SetValue("")
	m.busy = false
	m.err = message
	m.setFocus(fieldPassword)
	if m.inputs[fieldUsername].Value() == "" {
		m.setFocus(fieldUsername)
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoggedInMsg:
		m.busy = false
		if msg.Err != nil {
			m.inputs[fieldPassword].SetValue("")
			m.err = describe(msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+r":
			m.remember = !m.remember
			return m, nil
		case "enter":
			if m.focus == fieldUsername {
				m.setFocus(fieldPassword)
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("PeerLink") + m.styles.Muted.Render("  sign in with your platform account") + "\n\n")
	for i := range m.inputs {
		sb.WriteString(m.inputs[i].View() + "\n")
	}
	check := "[ ]"
	if m.remember {
		check = "[x]"
	}
	sb.WriteString("\n" + m.styles.Muted.Render(check+" remember login (ctrl+r)") + "\n")
	switch {
	case m.busy:
		sb.WriteString("\n" + m.spinner.View() + " signing in…")
	case m.err != "":
		sb.WriteString("\n" + m.styles.Error.Render(m.err))
	default:
		sb.WriteString("\n" + m.styles.Muted.Render("enter: submit  tab: next field"))
	}

	form := m.styles.PaneActive.Width(52).Render(sb.String())
	if m.width == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	input := sessiondto.LoginInput{
		Username: m.inputs[fieldUsername].Value(),
		Password: m.inputs[fieldPassword].Value(),
		Remember: m.remember,
	}
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		m.err = "login and password are required"
		return m, nil
	}
	m.busy = true
	m.err = ""
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Login(context.Background(), input)
		return LoggedInMsg{Output: out, Err: err}
	})
}

func describe(err error) string {
	var authErr *apperrors.AuthError
	var netErr *apperrors.NetworkError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &netErr):
		return "identity endpoint unreachable"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return err.Error()
	default:
		return "sign in failed: " + err.Error()
	}
}

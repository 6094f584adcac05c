package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	preferencesdto "peerlink/internal/modules/preferences/dto"
	profiledto "peerlink/internal/modules/profile/dto"
	sessiondto "peerlink/internal/modules/session/dto"
	"peerlink/internal/ui/components"
	"peerlink/internal/ui/theme"
	loginview "peerlink/internal/ui/views/login"
	profileview "peerlink/internal/ui/views/profile"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Login(ctx context.Context, input sessiondto.LoginInput) (sessiondto.LoginOutput, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context, input sessiondto.StatusInput) (sessiondto.StatusOutput, error)
	IsAuthenticated(ctx context.Context) bool
}

type profilePort interface {
	LoadProfile(ctx context.Context, input profiledto.LoadProfileInput) (profiledto.ProfileOutput, error)
	PurgeCache(ctx context.Context, login string) (profiledto.CachePurgeOutput, error)
	Latest() uint64
}

type preferencesPort interface {
	Get(ctx context.Context) (preferencesdto.PreferencesOutput, error)
	SetOfflineMode(ctx context.Context, enabled bool) error
	SetLanguage(ctx context.Context, language string) error
	SetTheme(ctx context.Context, themeID string) error
	ForgetLogin(ctx context.Context) error
	Themes() []preferencesdto.ThemeOutput
	Message(ctx context.Context, key string) string
}

type screen int

const (
	screenLogin screen = iota
	screenProfile
)

// ─── async messages ───────────────────────────────────────────────────────────

type bootMsg struct {
	authenticated bool
	status        sessiondto.StatusOutput
	prefs         preferencesdto.PreferencesOutput
	err           error
}

type prefsChangedMsg struct {
	prefs  preferencesdto.PreferencesOutput
	notice string
	err    error
}

type loggedOutMsg struct{ err error }

type purgedMsg struct {
	out profiledto.CachePurgeOutput
	err error
}

type statusMsg struct {
	out sessiondto.StatusOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Search  key.Binding
	Reload  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Reload},
		{k.Help, k.Palette, k.Quit},
	}
}

func paletteHints(themes []preferencesdto.ThemeOutput) []string {
	ids := make([]string, 0, len(themes))
	for _, t := range themes {
		ids = append(ids, t.ID)
	}
	return []string{
		"offline on|off",
		"lang en|ru|uz",
		"theme " + strings.Join(ids, "|"),
		"purge [login]",
		"status",
		"forget",
		"logout",
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It switches between the login form and
// the profile view and owns the palette, help overlay and status line.
type Model struct {
	session     sessionPort
	profiles    profilePort
	preferences preferencesPort

	loginView   loginview.Model
	profileView profileview.Model

	screen   screen
	styles   theme.Styles
	prefs    preferencesdto.PreferencesOutput
	user     string
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	width    int
	height   int
}

func NewModel(session sessionPort, profiles profilePort, preferences preferencesPort) Model {
	styles := theme.New("")
	return Model{
		session:     session,
		profiles:    profiles,
		preferences: preferences,
		loginView:   loginview.New(session, styles, ""),
		profileView: profileview.New(profiles, styles),
		screen:      screenLogin,
		styles:      styles,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(styles, paletteHints(preferences.Themes())),
		status:      "starting",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bootCmd(), m.loginView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case bootMsg:
		if msg.err != nil {
			m.status = "preferences: " + msg.err.Error()
		}
		m.applyPreferences(msg.prefs)
		m.loginView = loginview.New(m.session, m.styles, msg.prefs.RememberedLogin)
		m.propagateSize()
		if msg.authenticated {
			m.screen = screenProfile
			m.user = msg.status.Login
			m.status = "signed in as " + msg.status.Login
			cmd := m.profileView.Load(msg.status.Login)
			return m, cmd
		}
		m.status = "sign in"
		return m, m.loginView.Init()

	case loginview.LoggedInMsg:
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		if msg.Err != nil {
			m.status = "sign in failed"
			return m, cmd
		}
		m.screen = screenProfile
		m.user = msg.Output.Login
		m.status = "signed in as " + msg.Output.Login
		load := m.profileView.Load(msg.Output.Login)
		return m, tea.Batch(cmd, load, m.refreshPrefsCmd(""))

	case profileview.LoadedMsg:
		if msg.Stale(m.profiles.Latest()) {
			return m, nil
		}
		var cmd tea.Cmd
		m.profileView, cmd = m.profileView.Update(msg)
		switch {
		case msg.Output.State == profiledto.StateUnauthorized:
			m.toLogin(msg.Output.Message)
			return m, tea.Batch(cmd, m.loginView.Init())
		case msg.Output.Reauthenticate:
			m.status = msg.Output.Message
		case msg.Output.State == profiledto.StateReady:
			m.status = fmt.Sprintf("%s loaded from %s", msg.Output.Login, msg.Output.Source)
			if len(msg.Output.Missing) > 0 {
				m.status += fmt.Sprintf(" (%d sections unavailable)", len(msg.Output.Missing))
			}
		default:
			m.status = msg.Output.Message
		}
		return m, cmd

	case prefsChangedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.applyPreferences(msg.prefs)
		if msg.notice != "" {
			m.status = msg.notice
		}
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.status = "logout: " + msg.err.Error()
			return m, nil
		}
		m.toLogin("")
		m.status = "signed out"
		return m, m.loginView.Init()

	case purgedMsg:
		if msg.err != nil {
			m.status = "purge: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("removed %d cached profiles", msg.out.Removed)
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.status = "status: " + msg.err.Error()
			return m, nil
		}
		m.status = describeStatus(msg.out)
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.screen == screenProfile && !m.profileView.Searching() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case ":":
				cmd := m.palette.Open()
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case screenProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	}
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.screen == screenLogin:
		content = m.loginView.View()
	default:
		content = m.profileView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) renderHeader() string {
	parts := []string{m.styles.Hot.Render("PeerLink")}
	if m.user != "" && m.screen == screenProfile {
		parts = append(parts, m.styles.Muted.Render("@"+m.user))
	}
	if m.prefs.OfflineMode {
		parts = append(parts, m.styles.Hot.Render(m.preferences.Message(context.Background(), preferencesdto.MessageOffline)))
	}
	parts = append(parts, m.styles.Muted.Render(strings.ToUpper(m.prefs.Language)))
	return m.styles.Bar.Width(m.width).Render(strings.Join(parts, m.styles.Muted.Render(" │ "))) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := m.styles.Muted.Render("?:help  /:search  :::palette  q:quit")
	if m.screen == screenLogin {
		right = m.styles.Muted.Render("ctrl+c:quit")
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + m.styles.Bar.Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return m, nil
	}
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch parts[0] {
	case "offline":
		if arg != "on" && arg != "off" {
			m.status = "usage: offline on|off"
			return m, nil
		}
		enabled := arg == "on"
		return m, m.changePrefsCmd(func(ctx context.Context) error {
			return m.preferences.SetOfflineMode(ctx, enabled)
		}, "offline mode "+arg)

	case "lang":
		if arg == "" {
			m.status = "usage: lang en|ru|uz"
			return m, nil
		}
		return m, m.changePrefsCmd(func(ctx context.Context) error {
			return m.preferences.SetLanguage(ctx, arg)
		}, "language "+arg)

	case "theme":
		if arg == "" {
			m.status = "usage: theme <id>"
			return m, nil
		}
		return m, m.changePrefsCmd(func(ctx context.Context) error {
			return m.preferences.SetTheme(ctx, arg)
		}, "theme "+arg)

	case "purge":
		return m, m.purgeCmd(arg)

	case "status":
		return m, m.statusCmd()

	case "forget":
		return m, m.changePrefsCmd(m.preferences.ForgetLogin, "remembered login cleared")

	case "logout":
		return m, m.logoutCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) applyPreferences(prefs preferencesdto.PreferencesOutput) {
	m.prefs = prefs
	m.styles = theme.New(prefs.ThemeHex)
	m.palette.SetStyles(m.styles)
	m.loginView.SetStyles(m.styles)
	m.profileView.SetStyles(m.styles)
	m.profileView.SetLoadingText(m.preferences.Message(context.Background(), preferencesdto.MessageLoading))
}

func (m *Model) toLogin(message string) {
	m.screen = screenLogin
	m.user = ""
	m.loginView.Reset(message)
	if message != "" {
		m.status = message
	}
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: max(m.height-3, 1)}
	m.loginView, _ = m.loginView.Update(sz)
	m.profileView, _ = m.profileView.Update(sz)
}

func describeStatus(out sessiondto.StatusOutput) string {
	if !out.Authenticated {
		return "no token held"
	}
	s := "token for " + out.Login
	if !out.ExpiresAt.IsZero() {
		s += ", expires " + out.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	if out.Expired {
		s += " (expired)"
	}
	return s
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) bootCmd() tea.Cmd {
	session, preferences := m.session, m.preferences
	return func() tea.Msg {
		ctx := context.Background()
		prefs, err := preferences.Get(ctx)
		out := bootMsg{prefs: prefs, err: err}
		if session.IsAuthenticated(ctx) {
			out.authenticated = true
			out.status, _ = session.Status(ctx, sessiondto.StatusInput{})
		}
		return out
	}
}

func (m Model) refreshPrefsCmd(notice string) tea.Cmd {
	return m.changePrefsCmd(func(context.Context) error { return nil }, notice)
}

func (m Model) changePrefsCmd(change func(context.Context) error, notice string) tea.Cmd {
	preferences := m.preferences
	return func() tea.Msg {
		ctx := context.Background()
		if err := change(ctx); err != nil {
			return prefsChangedMsg{err: err}
		}
		prefs, err := preferences.Get(ctx)
		return prefsChangedMsg{prefs: prefs, notice: notice, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return loggedOutMsg{err: session.Logout(context.Background())}
	}
}

func (m Model) purgeCmd(login string) tea.Cmd {
	profiles := m.profiles
	return func() tea.Msg {
		out, err := profiles.PurgeCache(context.Background(), login)
		return purgedMsg{out: out, err: err}
	}
}

func (m Model) statusCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Status(context.Background(), sessiondto.StatusInput{Verify: true})
		return statusMsg{out: out, err: err}
	}
}

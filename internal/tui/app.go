package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bankoneone/teller/internal/authstore"
	"github.com/bankoneone/teller/internal/browser"
	"github.com/bankoneone/teller/internal/session"
	"github.com/bankoneone/teller/pkg/client"
)

type view int

const (
	viewLogin view = iota
	viewSignup
	viewReset
	viewDashboard
	viewTransfer
)

// SessionEndedMsg is sent into the program when the session manager force
// ends a session (inactivity or a rejected token).
type SessionEndedMsg struct {
	Reason session.Reason
}

// loginSuccessMsg carries a freshly issued token from any auth screen.
type loginSuccessMsg struct {
	token string
}

// gotoLoginMsg returns to the login screen, optionally with a notice.
type gotoLoginMsg struct {
	notice string
}

type gotoSignupMsg struct{}

type gotoResetMsg struct{}

// logoutMsg is emitted by the dashboard when the user signs out.
type logoutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	client    *client.Client
	session   *session.Manager
	store     *authstore.Store
	socketURL string

	view       view
	login      loginModel
	signup     signupModel
	reset      resetModel
	dashboard  dashboardModel
	transfer   transferModel
	chat       chatModel
	chatOpen   bool
	helpOpen   bool
	helpCursor int
	notice     string // banner shown on the login screen
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, mgr *session.Manager, store *authstore.Store, socketURL string) App {
	a := App{
		client:    c,
		session:   mgr,
		store:     store,
		socketURL: socketURL,
		login:     newLoginModel(c, store),
		signup:    newSignupModel(c),
		reset:     newResetModel(c),
		transfer:  newTransferModel(c),
	}
	if mgr != nil && mgr.IsAuthenticated() {
		a.view = viewDashboard
		a.dashboard = newDashboardModel(c, mgr.UserEmail())
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd()}
	if a.view == viewDashboard {
		cmds = append(cmds, a.dashboard.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + title(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		a.transfer, _ = a.transfer.Update(bodyMsg)
		a.chat, _ = a.chat.Update(bodyMsg)

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case SessionEndedMsg:
		return a.endSession(msg.Reason)

	case loginSuccessMsg:
		if a.session != nil {
			a.session.Login(msg.token)
		}
		a.notice = ""
		a.view = viewDashboard
		a.dashboard = newDashboardModel(a.client, session.EmailFromToken(msg.token))
		a.login = newLoginModel(a.client, a.store)
		a.signup = newSignupModel(a.client)
		a.reset = newResetModel(a.client)
		return a, a.dashboard.Init()

	case logoutMsg:
		if a.session != nil {
			a.session.Logout()
		}
		a.chat = a.chat.shutdown()
		a.chatOpen = false
		a.view = viewLogin
		a.login = newLoginModel(a.client, a.store)
		a.notice = "Signed out."
		return a, nil

	case gotoLoginMsg:
		a.view = viewLogin
		a.login = newLoginModel(a.client, a.store)
		a.notice = msg.notice
		return a, nil

	case gotoSignupMsg:
		a.view = viewSignup
		a.signup = newSignupModel(a.client)
		return a, nil

	case gotoResetMsg:
		a.view = viewReset
		a.reset = newResetModel(a.client)
		return a, nil

	case transferDoneMsg:
		a.transfer, _ = a.transfer.Update(msg)
		if msg.err == nil {
			a.view = viewDashboard
			return a, a.dashboard.refresh()
		}
		return a, nil

	case tea.KeyMsg:
		if a.session != nil {
			a.session.NoteActivity()
		}
		return a.updateKeys(msg)

	case tea.MouseMsg:
		if a.session != nil {
			a.session.NoteActivity()
		}
		return a, nil
	}

	return a.route(msg)
}

func (a App) endSession(reason session.Reason) (tea.Model, tea.Cmd) {
	a.chat = a.chat.shutdown()
	a.chatOpen = false
	a.view = viewLogin
	a.login = newLoginModel(a.client, a.store)
	switch reason {
	case session.ReasonInactivity:
		a.notice = "You were signed out after a period of inactivity."
	case session.ReasonAuthRejected:
		a.notice = "Your session is no longer valid. Please sign in again."
	default:
		a.notice = "You were signed out."
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay captures all keys when open
	if a.helpOpen {
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q", "ctrl+c":
			return a, tea.Quit
		case "j", "down":
			if a.helpCursor < len(helpItems)-1 {
				a.helpCursor++
			}
		case "k", "up":
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case "enter":
			item := helpItems[a.helpCursor]
			if item.url != "" {
				browser.Open(item.url) //nolint:errcheck // best-effort browser open
			}
		}
		return a, nil
	}

	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// Assistant overlay captures all keys when open
	if a.chatOpen {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		if a.chat.closed {
			a.chatOpen = false
		}
		return a, cmd
	}

	// Global keys (only when not editing)
	if !a.isEditing() {
		switch msg.String() {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q":
			return a, tea.Quit
		case "1":
			if a.authenticated() && a.view != viewDashboard {
				a.view = viewDashboard
				return a, a.dashboard.refresh()
			}
			return a, nil
		case "2":
			if a.authenticated() && a.view != viewTransfer {
				a.view = viewTransfer
				a.transfer = newTransferModel(a.client)
				return a, nil
			}
			return a, nil
		case "c":
			if a.authenticated() {
				return a.openChat()
			}
			return a, nil
		}
	}

	if msg.String() == "esc" && a.view == viewTransfer {
		a.view = viewDashboard
		return a, nil
	}

	return a.route(msg)
}

func (a App) openChat() (tea.Model, tea.Cmd) {
	a.chatOpen = true
	a.chat = newChatModel(a.socketURL, a.session)
	a.chat.width = a.width
	a.chat.height = a.height - 4
	return a, a.chat.Init()
}

func (a App) authenticated() bool {
	return a.session != nil && a.session.IsAuthenticated()
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewSignup, viewReset, viewTransfer:
		return true
	case viewDashboard:
		return a.dashboard.finding
	}
	return false
}

// route forwards a message to whichever sub-model owns the current view,
// or to the assistant overlay when it is open.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.chatOpen {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		if a.chat.closed {
			a.chatOpen = false
		}
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewSignup:
		a.signup, cmd = a.signup.Update(msg)
	case viewReset:
		a.reset, cmd = a.reset.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewTransfer:
		a.transfer, cmd = a.transfer.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	// Header: centered shimmer wordmark
	logo := renderShimmerLogo(a.frame)
	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	// Session line below the wordmark
	var sessionLine string
	if a.authenticated() {
		parts := []string{}
		if email := a.session.UserEmail(); email != "" {
			parts = append(parts, email)
		}
		parts = append(parts, fmt.Sprintf("session %s", formatCountdown(a.session.Remaining())))
		sessionLine = metaStyle.Render(strings.Join(parts, " · "))
	}
	if sessionLine != "" {
		pad := (a.width - lipgloss.Width(sessionLine)) / 2
		if pad < 0 {
			pad = 0
		}
		header += "\n" + strings.Repeat(" ", pad) + sessionLine
	} else {
		header += "\n"
	}

	title, body, help := a.renderView()

	// Overlays replace the body
	if a.chatOpen {
		title = selectedStyle.Render(" Assistant")
		body = a.chat.View()
		help = " " + a.chat.helpKeys()
	}
	if a.helpOpen {
		title = selectedStyle.Render(" Help")
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	// Chrome budget: header(2) + title(1) + help(1) = 4 lines + body
	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, title, body, help)
}

func (a App) renderView() (title, body, help string) {
	switch a.view {
	case viewLogin:
		title = selectedStyle.Render(" Sign in")
		body = a.login.View()
		if a.notice != "" {
			body = " " + noticeStyle.Render(a.notice) + "\n\n" + body
		}
		help = " " + a.login.helpKeys()
	case viewSignup:
		title = selectedStyle.Render(" Create account")
		body = a.signup.View()
		help = " " + a.signup.helpKeys()
	case viewReset:
		title = selectedStyle.Render(" Reset password")
		body = a.reset.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "back")
	case viewDashboard:
		title = selectedStyle.Render(" Dashboard")
		body = a.dashboard.View()
		help = " " + a.dashboard.helpKeys()
	case viewTransfer:
		title = selectedStyle.Render(" Transfer")
		body = a.transfer.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "send") + "  " + helpEntry("esc", "back")
	}
	return title, body, help
}

// formatCountdown renders a remaining duration as m:ss.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

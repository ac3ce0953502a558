package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/internal/authstore"
	"github.com/bankoneone/teller/pkg/client"
)

type loginField int

const (
	fieldLoginEmail loginField = iota
	fieldLoginPassword
	numLoginFields
)

// loginModel is the sign-in screen. It also hosts the forgot-password
// sub-form, toggled with ctrl+f.
type loginModel struct {
	client *client.Client
	store  *authstore.Store

	fields     [numLoginFields]string
	focus      loginField
	remember   bool
	forgot     bool // forgot-password mode
	errMsg     string
	statusMsg  string
	submitting bool
}

type loginResultMsg struct {
	token string
	err   error
}

type forgotResultMsg struct {
	err error
}

func newLoginModel(c *client.Client, store *authstore.Store) loginModel {
	m := loginModel{client: c, store: store}
	if store != nil {
		if remember, email := store.Remember(); remember {
			m.remember = true
			m.fields[fieldLoginEmail] = email
			if email != "" {
				m.focus = fieldLoginPassword
			}
		}
	}
	return m
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = mapLoginError(msg.err)
			return m, nil
		}
		if m.store != nil {
			email := ""
			if m.remember {
				email = strings.TrimSpace(m.fields[fieldLoginEmail])
			}
			m.store.SetRemember(m.remember, email) //nolint:errcheck // remember-me is best-effort
		}
		token := msg.token
		return m, func() tea.Msg { return loginSuccessMsg{token: token} }

	case forgotResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Message(msg.err)
			return m, nil
		}
		m.statusMsg = "If that address is registered, a reset link is on its way."
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.errMsg = ""
	m.statusMsg = ""

	switch msg.String() {
	case "enter":
		if m.forgot {
			return m.submitForgot()
		}
		return m.submit()
	case "tab", "down":
		if !m.forgot {
			m.focus = (m.focus + 1) % numLoginFields
		}
	case "shift+tab", "up":
		if !m.forgot {
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		}
	case "ctrl+r":
		m.remember = !m.remember
	case "ctrl+f":
		m.forgot = !m.forgot
	case "ctrl+n":
		return m, func() tea.Msg { return gotoSignupMsg{} }
	case "ctrl+t":
		return m, func() tea.Msg { return gotoResetMsg{} }
	case "esc":
		if m.forgot {
			m.forgot = false
		}
	case "backspace":
		if m.forgot {
			m.fields[fieldLoginEmail] = editRune(m.fields[fieldLoginEmail], "backspace")
		} else {
			m.fields[m.focus] = editRune(m.fields[m.focus], "backspace")
		}
	default:
		key := msg.String()
		if m.forgot {
			m.fields[fieldLoginEmail] = editRune(m.fields[fieldLoginEmail], key)
		} else {
			m.fields[m.focus] = editRune(m.fields[m.focus], key)
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[fieldLoginEmail])
	password := m.fields[fieldLoginPassword]

	if email == "" || password == "" {
		m.errMsg = "Email and password are required."
		return m, nil
	}
	if !validEmail(email) {
		m.errMsg = "That doesn't look like an email address."
		return m, nil
	}

	m.submitting = true
	c := m.client
	return m, func() tea.Msg {
		token, err := c.Login(context.Background(), email, password)
		return loginResultMsg{token: token, err: err}
	}
}

func (m loginModel) submitForgot() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[fieldLoginEmail])
	if !validEmail(email) {
		m.errMsg = "Enter the email you registered with."
		return m, nil
	}

	m.submitting = true
	c := m.client
	return m, func() tea.Msg {
		return forgotResultMsg{err: c.ForgotPassword(context.Background(), email)}
	}
}

// mapLoginError turns backend auth failures into guidance the user can act
// on. Unrecognized messages pass through as-is.
func mapLoginError(err error) string {
	switch client.Message(err) {
	case "User not registered":
		return "No user found. Please register first."
	case "Invalid credentials":
		return "Incorrect password."
	case "Account not verified":
		return "Your account is not verified yet. Please check your email."
	default:
		return client.Message(err)
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	if m.forgot {
		b.WriteString(" " + normalStyle.Render("Enter your email and we'll send a reset link.") + "\n\n")
		b.WriteString(renderFormField("email", m.fields[fieldLoginEmail], true, false) + "\n")
	} else {
		b.WriteString(renderFormField("email", m.fields[fieldLoginEmail], m.focus == fieldLoginEmail, false) + "\n")
		b.WriteString(renderFormField("password", m.fields[fieldLoginPassword], m.focus == fieldLoginPassword, true) + "\n")

		check := "[ ]"
		if m.remember {
			check = accentStyle.Render("[x]")
		}
		b.WriteString("\n  " + check + " " + dimStyle.Render("remember me (ctrl+r)") + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	case m.statusMsg != "":
		b.WriteString(" " + successStyle.Render(m.statusMsg) + "\n")
	}

	return b.String()
}

func (m loginModel) helpKeys() string {
	if m.forgot {
		return helpEntry("enter", "send link") + "  " + helpEntry("ctrl+t", "have a token?") + "  " + helpEntry("esc", "back")
	}
	return helpEntry("enter", "sign in") + "  " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+r", "remember") + "  " + helpEntry("ctrl+f", "forgot") + "  " + helpEntry("ctrl+n", "sign up")
}

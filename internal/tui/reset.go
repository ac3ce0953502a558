package tui

import (
	"context"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
)

type resetField int

const (
	fieldResetToken resetField = iota
	fieldResetPassword
	fieldResetConfirm
	numResetFields
)

// resetModel is the reset-password screen: paste the token from the reset
// email, pick a new password.
type resetModel struct {
	client     *client.Client
	fields     [numResetFields]string
	focus      resetField
	errMsg     string
	submitting bool
}

type resetResultMsg struct {
	err error
}

func newResetModel(c *client.Client) resetModel {
	return resetModel{client: c}
}

func (m resetModel) Init() tea.Cmd {
	return nil
}

func (m resetModel) Update(msg tea.Msg) (resetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case resetResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Message(msg.err)
			return m, nil
		}
		return m, func() tea.Msg {
			return gotoLoginMsg{notice: "Password updated. Sign in with your new password."}
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m resetModel) updateKeys(msg tea.KeyMsg) (resetModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.errMsg = ""

	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return gotoLoginMsg{} }
	case "ctrl+s":
		return m.submit()
	case "tab", "down", "enter":
		m.focus = (m.focus + 1) % numResetFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numResetFields) % numResetFields
	case "backspace":
		m.fields[m.focus] = editRune(m.fields[m.focus], "backspace")
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m resetModel) submit() (resetModel, tea.Cmd) {
	token := strings.TrimSpace(m.fields[fieldResetToken])
	password := m.fields[fieldResetPassword]

	switch {
	case token == "":
		m.errMsg = "Paste the token from your reset email."
		return m, nil
	case utf8.RuneCountInString(password) < 6:
		m.errMsg = "Password must be at least 6 characters."
		return m, nil
	case password != m.fields[fieldResetConfirm]:
		m.errMsg = "Passwords do not match."
		return m, nil
	}

	m.submitting = true
	c := m.client
	return m, func() tea.Msg {
		return resetResultMsg{err: c.ResetPassword(context.Background(), token, password)}
	}
}

func (m resetModel) View() string {
	labels := [numResetFields]string{"token", "new password", "confirm"}
	secret := [numResetFields]bool{false, true, true}

	var b strings.Builder
	for i := resetField(0); i < numResetFields; i++ {
		b.WriteString(renderFormField(labels[i], m.fields[i], i == m.focus, secret[i]) + "\n")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("updating password...") + "\n")
	} else if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	}

	return b.String()
}

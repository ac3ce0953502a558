package tui

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
)

type signupField int

const (
	fieldFirstName signupField = iota
	fieldLastName
	fieldSignupEmail
	fieldPhone
	fieldSignupPassword
	fieldConfirm
	fieldCity
	numSignupFields
)

// verifyPollInterval is how often the signup screen checks whether the
// verification email has been clicked.
const verifyPollInterval = 2500 * time.Millisecond

type verifyTickMsg time.Time

func verifyTickCmd() tea.Cmd {
	return tea.Tick(verifyPollInterval, func(t time.Time) tea.Msg {
		return verifyTickMsg(t)
	})
}

type signupResultMsg struct {
	err error
}

type verifyStatusMsg struct {
	verified bool
	err      error
}

// signupLoginMsg carries the auto-login attempt made once the email is
// verified.
type signupLoginMsg struct {
	token string
	err   error
}

// verifyRedeemMsg carries the result of redeeming a pasted verification code.
type verifyRedeemMsg struct {
	token string
	err   error
}

// signupModel is the account-creation screen. After a successful signup it
// waits for email verification, polling until verified, then signs the new
// user in with the credentials they just entered.
type signupModel struct {
	client *client.Client

	fields [numSignupFields]string
	focus  signupField

	errMsg     string
	statusMsg  string
	submitting bool

	// awaitingVerify gates the poll loop: ticks reschedule only while it is
	// set, so the loop stops exactly once on verification or cancel.
	awaitingVerify bool
	// verifyInput holds a code pasted from the verification email, an
	// alternative to waiting for the poll to notice the link was clicked.
	verifyInput string
}

func newSignupModel(c *client.Client) signupModel {
	return signupModel{client: c}
}

func (m signupModel) Init() tea.Cmd {
	return nil
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signupResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Message(msg.err)
			return m, nil
		}
		m.awaitingVerify = true
		m.statusMsg = "Almost there — click the link in your verification email."
		return m, verifyTickCmd()

	case verifyTickMsg:
		if !m.awaitingVerify {
			return m, nil
		}
		return m, m.checkVerify()

	case verifyStatusMsg:
		if !m.awaitingVerify {
			return m, nil
		}
		if msg.err == nil && msg.verified {
			m.awaitingVerify = false
			m.statusMsg = "Email verified — signing you in..."
			return m, m.autoLogin()
		}
		// Not verified yet (or a transient error): keep waiting.
		return m, verifyTickCmd()

	case verifyRedeemMsg:
		if !m.awaitingVerify {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = client.Message(msg.err)
			return m, nil
		}
		m.awaitingVerify = false
		token := msg.token
		return m, func() tea.Msg { return loginSuccessMsg{token: token} }

	case signupLoginMsg:
		if msg.err != nil {
			// Verified but auto-login failed; let them sign in by hand.
			notice := "Account verified. Please sign in."
			return m, func() tea.Msg { return gotoLoginMsg{notice: notice} }
		}
		token := msg.token
		return m, func() tea.Msg { return loginSuccessMsg{token: token} }

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m signupModel) updateKeys(msg tea.KeyMsg) (signupModel, tea.Cmd) {
	if msg.String() == "esc" {
		m.awaitingVerify = false
		return m, func() tea.Msg { return gotoLoginMsg{} }
	}
	if m.awaitingVerify {
		switch msg.String() {
		case "enter":
			return m.redeemVerify()
		case "backspace":
			m.errMsg = ""
			m.verifyInput = editRune(m.verifyInput, "backspace")
		default:
			m.errMsg = ""
			m.verifyInput = editRune(m.verifyInput, msg.String())
		}
		return m, nil
	}
	if m.submitting {
		return m, nil
	}
	m.errMsg = ""
	m.statusMsg = ""

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "tab", "down", "enter":
		m.focus = (m.focus + 1) % numSignupFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numSignupFields) % numSignupFields
	case "backspace":
		m.fields[m.focus] = editRune(m.fields[m.focus], "backspace")
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m signupModel) validate() string {
	first := strings.TrimSpace(m.fields[fieldFirstName])
	last := strings.TrimSpace(m.fields[fieldLastName])

	switch {
	case utf8.RuneCountInString(first) < 2:
		return "First name must be at least 2 characters."
	case utf8.RuneCountInString(last) < 2:
		return "Last name must be at least 2 characters."
	case !validEmail(m.fields[fieldSignupEmail]):
		return "Enter a valid email address."
	case !validPhone(m.fields[fieldPhone]):
		return "Phone must look like 05XXXXXXXX."
	case utf8.RuneCountInString(m.fields[fieldSignupPassword]) < 6:
		return "Password must be at least 6 characters."
	case m.fields[fieldSignupPassword] != m.fields[fieldConfirm]:
		return "Passwords do not match."
	case strings.TrimSpace(m.fields[fieldCity]) == "":
		return "City is required."
	}
	return ""
}

func (m signupModel) submit() (signupModel, tea.Cmd) {
	if msg := m.validate(); msg != "" {
		m.errMsg = msg
		return m, nil
	}

	m.submitting = true
	req := client.SignupRequest{
		FirstName:   strings.TrimSpace(m.fields[fieldFirstName]),
		LastName:    strings.TrimSpace(m.fields[fieldLastName]),
		Email:       strings.TrimSpace(m.fields[fieldSignupEmail]),
		PhoneNumber: strings.TrimSpace(m.fields[fieldPhone]),
		Password:    m.fields[fieldSignupPassword],
		City:        strings.TrimSpace(m.fields[fieldCity]),
	}
	c := m.client
	return m, func() tea.Msg {
		return signupResultMsg{err: c.Signup(context.Background(), req)}
	}
}

// redeemVerify exchanges a pasted verification code for a session token.
func (m signupModel) redeemVerify() (signupModel, tea.Cmd) {
	code := strings.TrimSpace(m.verifyInput)
	if code == "" {
		return m, nil
	}
	c := m.client
	return m, func() tea.Msg {
		token, err := c.Verify(context.Background(), code)
		return verifyRedeemMsg{token: token, err: err}
	}
}

func (m signupModel) checkVerify() tea.Cmd {
	c := m.client
	email := strings.TrimSpace(m.fields[fieldSignupEmail])
	return func() tea.Msg {
		verified, err := c.VerifyStatus(context.Background(), email)
		return verifyStatusMsg{verified: verified, err: err}
	}
}

func (m signupModel) autoLogin() tea.Cmd {
	c := m.client
	email := strings.TrimSpace(m.fields[fieldSignupEmail])
	password := m.fields[fieldSignupPassword]
	return func() tea.Msg {
		token, err := c.Login(context.Background(), email, password)
		return signupLoginMsg{token: token, err: err}
	}
}

func (m signupModel) View() string {
	if m.awaitingVerify {
		var b strings.Builder
		b.WriteString(" " + successStyle.Render("Account created.") + "\n\n")
		b.WriteString(" " + normalStyle.Render(m.statusMsg) + "\n")
		b.WriteString(" " + dimStyle.Render("waiting for verification...") + "\n\n")
		b.WriteString(renderFormField("verification code", m.verifyInput, true, false) + "\n")
		b.WriteString(" " + dimStyle.Render("or paste the code from the email to verify now") + "\n")
		if m.errMsg != "" {
			b.WriteString("\n " + errorStyle.Render(m.errMsg) + "\n")
		}
		return b.String()
	}

	labels := [numSignupFields]string{
		"first name", "last name", "email", "phone", "password", "confirm", "city",
	}
	secret := [numSignupFields]bool{}
	secret[fieldSignupPassword] = true
	secret[fieldConfirm] = true

	var b strings.Builder
	for i := signupField(0); i < numSignupFields; i++ {
		b.WriteString(renderFormField(labels[i], m.fields[i], i == m.focus, secret[i]) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("creating account...") + "\n")
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	case m.statusMsg != "":
		b.WriteString(" " + successStyle.Render(m.statusMsg) + "\n")
	}

	return b.String()
}

func (m signupModel) helpKeys() string {
	if m.awaitingVerify {
		return helpEntry("enter", "verify") + "  " + helpEntry("esc", "cancel")
	}
	return helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "create") + "  " + helpEntry("esc", "back")
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
)

func filledSignupModel() signupModel {
	m := newSignupModel(nil)
	m.fields[fieldFirstName] = "Ada"
	m.fields[fieldLastName] = "Lovelace"
	m.fields[fieldSignupEmail] = "ada@bank.test"
	m.fields[fieldPhone] = "0512345678"
	m.fields[fieldSignupPassword] = "secret1"
	m.fields[fieldConfirm] = "secret1"
	m.fields[fieldCity] = "Haifa"
	return m
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*signupModel)
		want   string
	}{
		{"short first name", func(m *signupModel) { m.fields[fieldFirstName] = "A" }, "First name"},
		{"short last name", func(m *signupModel) { m.fields[fieldLastName] = "L" }, "Last name"},
		{"bad email", func(m *signupModel) { m.fields[fieldSignupEmail] = "nope" }, "email"},
		{"bad phone", func(m *signupModel) { m.fields[fieldPhone] = "1234567890" }, "05XXXXXXXX"},
		{"short password", func(m *signupModel) { m.fields[fieldSignupPassword] = "abc"; m.fields[fieldConfirm] = "abc" }, "6 characters"},
		{"mismatched confirm", func(m *signupModel) { m.fields[fieldConfirm] = "other12" }, "do not match"},
		{"missing city", func(m *signupModel) { m.fields[fieldCity] = " " }, "City"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := filledSignupModel()
			tt.mutate(&m)
			m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
			if cmd != nil {
				t.Error("expected no submit command for invalid form")
			}
			if !strings.Contains(m.errMsg, tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, m.errMsg)
			}
		})
	}
}

func TestSignupValidFormSubmits(t *testing.T) {
	m := filledSignupModel()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected signup command for valid form")
	}
	if !m.submitting {
		t.Error("expected submitting state")
	}
}

func TestSignupSuccessStartsVerifyPolling(t *testing.T) {
	m := filledSignupModel()
	m.submitting = true
	m, cmd := m.Update(signupResultMsg{})
	if !m.awaitingVerify {
		t.Error("expected awaitingVerify after successful signup")
	}
	if cmd == nil {
		t.Error("expected poll tick command")
	}
	if !strings.Contains(m.View(), "verification") {
		t.Errorf("expected verification notice, got:\n%s", m.View())
	}
}

func TestSignupFailureShowsBackendMessage(t *testing.T) {
	m := filledSignupModel()
	m.submitting = true
	m, _ = m.Update(signupResultMsg{err: &client.HTTPError{StatusCode: 409, Message: "Email already registered"}})
	if m.awaitingVerify {
		t.Error("failed signup must not start polling")
	}
	if !strings.Contains(m.View(), "Email already registered") {
		t.Errorf("expected backend message, got:\n%s", m.View())
	}
}

func TestVerifyTickPollsOnlyWhileWaiting(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true
	m, cmd := m.Update(verifyTickMsg(time.Now()))
	if cmd == nil {
		t.Error("expected status check while awaiting verification")
	}

	m.awaitingVerify = false
	_, cmd = m.Update(verifyTickMsg(time.Now()))
	if cmd != nil {
		t.Error("ticks after the wait ended must not poll again")
	}
}

func TestVerifiedStopsPollingExactlyOnce(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true

	m, cmd := m.Update(verifyStatusMsg{verified: true})
	if m.awaitingVerify {
		t.Error("verification should end the wait")
	}
	if cmd == nil {
		t.Fatal("expected auto-login command after verification")
	}

	// A straggler status result after the wait ended is ignored.
	_, cmd = m.Update(verifyStatusMsg{verified: true})
	if cmd != nil {
		t.Error("late status result must not trigger a second auto-login")
	}
}

func TestUnverifiedKeepsPolling(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true
	m, cmd := m.Update(verifyStatusMsg{verified: false})
	if !m.awaitingVerify {
		t.Error("unverified status should keep the wait going")
	}
	if cmd == nil {
		t.Error("expected next poll tick")
	}
}

func TestAutoLoginSuccessEmitsToken(t *testing.T) {
	m := filledSignupModel()
	_, cmd := m.Update(signupLoginMsg{token: "tok-new"})
	if cmd == nil {
		t.Fatal("expected success command")
	}
	msg, ok := cmd().(loginSuccessMsg)
	if !ok {
		t.Fatalf("expected loginSuccessMsg, got %T", cmd())
	}
	if msg.token != "tok-new" {
		t.Errorf("expected token 'tok-new', got %q", msg.token)
	}
}

func TestAutoLoginFailureFallsBackToLogin(t *testing.T) {
	m := filledSignupModel()
	_, cmd := m.Update(signupLoginMsg{err: &client.HTTPError{StatusCode: 500, Message: "oops"}})
	if cmd == nil {
		t.Fatal("expected fallback command")
	}
	msg, ok := cmd().(gotoLoginMsg)
	if !ok {
		t.Fatalf("expected gotoLoginMsg, got %T", cmd())
	}
	if !strings.Contains(msg.notice, "verified") {
		t.Errorf("expected verified notice, got %q", msg.notice)
	}
}

func TestVerifyCodeEntrySubmitsCode(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true

	for _, r := range "mail-code-7" {
		m, _ = m.Update(keyRunes(string(r)))
	}
	if m.verifyInput != "mail-code-7" {
		t.Fatalf("verifyInput = %q, want %q", m.verifyInput, "mail-code-7")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected redeem command for entered code")
	}
}

func TestVerifyCodeEmptyEnterIsNoop(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with no code must not hit the backend")
	}
}

func TestVerifyCodeRedeemSignsIn(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true

	m, cmd := m.Update(verifyRedeemMsg{token: "tok-new"})
	if m.awaitingVerify {
		t.Error("redeemed code should end the wait")
	}
	if cmd == nil {
		t.Fatal("expected sign-in command")
	}
	msg, ok := cmd().(loginSuccessMsg)
	if !ok {
		t.Fatalf("expected loginSuccessMsg, got %T", cmd())
	}
	if msg.token != "tok-new" {
		t.Errorf("expected token 'tok-new', got %q", msg.token)
	}

	// Polling must not resume after the code signed us in.
	_, cmd = m.Update(verifyTickMsg(time.Now()))
	if cmd != nil {
		t.Error("ticks after redeem must not poll again")
	}
}

func TestVerifyCodeRejectionKeepsWaiting(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true

	m, _ = m.Update(verifyRedeemMsg{err: &client.HTTPError{StatusCode: 400, Message: "Invalid or expired token"}})
	if !m.awaitingVerify {
		t.Error("a bad code should keep the wait going")
	}
	if !strings.Contains(m.View(), "Invalid or expired token") {
		t.Errorf("expected rejection message in view, got:\n%s", m.View())
	}
}

func TestEscCancelsVerifyWait(t *testing.T) {
	m := filledSignupModel()
	m.awaitingVerify = true
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.awaitingVerify {
		t.Error("esc should cancel the verification wait")
	}
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	if _, ok := cmd().(gotoLoginMsg); !ok {
		t.Errorf("expected gotoLoginMsg, got %T", cmd())
	}
}

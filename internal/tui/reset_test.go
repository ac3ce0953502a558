package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
)

func filledResetModel() resetModel {
	m := newResetModel(nil)
	m.fields[fieldResetToken] = "reset-token-1"
	m.fields[fieldResetPassword] = "newpass1"
	m.fields[fieldResetConfirm] = "newpass1"
	return m
}

func TestResetRequiresToken(t *testing.T) {
	m := filledResetModel()
	m.fields[fieldResetToken] = ""
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Error("expected no command without a token")
	}
	if !strings.Contains(m.errMsg, "token") {
		t.Errorf("expected token error, got %q", m.errMsg)
	}
}

func TestResetRejectsShortOrMismatchedPasswords(t *testing.T) {
	m := filledResetModel()
	m.fields[fieldResetPassword] = "abc"
	m.fields[fieldResetConfirm] = "abc"
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || !strings.Contains(m.errMsg, "6 characters") {
		t.Errorf("expected short-password error, got %q", m.errMsg)
	}

	m = filledResetModel()
	m.fields[fieldResetConfirm] = "different1"
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || !strings.Contains(m.errMsg, "do not match") {
		t.Errorf("expected mismatch error, got %q", m.errMsg)
	}
}

func TestResetValidFormSubmits(t *testing.T) {
	m := filledResetModel()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected reset command")
	}
	if !m.submitting {
		t.Error("expected submitting state")
	}
}

func TestResetSuccessReturnsToLogin(t *testing.T) {
	m := filledResetModel()
	m.submitting = true
	_, cmd := m.Update(resetResultMsg{})
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	msg, ok := cmd().(gotoLoginMsg)
	if !ok {
		t.Fatalf("expected gotoLoginMsg, got %T", cmd())
	}
	if !strings.Contains(msg.notice, "Password updated") {
		t.Errorf("expected update notice, got %q", msg.notice)
	}
}

func TestResetFailureShowsBackendMessage(t *testing.T) {
	m := filledResetModel()
	m.submitting = true
	m, _ = m.Update(resetResultMsg{err: &client.HTTPError{StatusCode: 400, Message: "Invalid or expired token"}})
	if !strings.Contains(m.View(), "Invalid or expired token") {
		t.Errorf("expected backend message, got:\n%s", m.View())
	}
}

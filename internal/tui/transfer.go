package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
)

type transferField int

const (
	fieldReceiver transferField = iota
	fieldAmount
	fieldDescription
	numTransferFields
)

// transferModel is the send-money form.
type transferModel struct {
	client     *client.Client
	fields     [numTransferFields]string
	focus      transferField
	errMsg     string
	submitting bool
}

func newTransferModel(c *client.Client) transferModel {
	return transferModel{client: c}
}

func (m transferModel) Init() tea.Cmd {
	return nil
}

func (m transferModel) Update(msg tea.Msg) (transferModel, tea.Cmd) {
	switch msg := msg.(type) {
	case transferDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = client.Message(msg.err)
		} else {
			m.fields = [numTransferFields]string{}
			m.focus = fieldReceiver
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m transferModel) updateKeys(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.errMsg = ""

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numTransferFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numTransferFields) % numTransferFields
	case "enter":
		if m.focus == numTransferFields-1 {
			return m.submit()
		}
		m.focus = (m.focus + 1) % numTransferFields
	case "backspace":
		m.fields[m.focus] = editRune(m.fields[m.focus], "backspace")
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m transferModel) submit() (transferModel, tea.Cmd) {
	receiver := strings.TrimSpace(m.fields[fieldReceiver])
	if receiver == "" {
		m.errMsg = "Receiver email is required."
		return m, nil
	}
	if !validEmail(receiver) {
		m.errMsg = "Enter the receiver's email address."
		return m, nil
	}
	amount, ok := parseAmount(m.fields[fieldAmount])
	if !ok {
		m.errMsg = "Amount must be a positive number."
		return m, nil
	}

	m.submitting = true
	req := client.TransferRequest{
		ReceiverEmail: receiver,
		Amount:        amount,
		Description:   strings.TrimSpace(m.fields[fieldDescription]),
	}
	c := m.client
	return m, func() tea.Msg {
		return transferDoneMsg{err: c.CreateTransaction(context.Background(), req)}
	}
}

func (m transferModel) View() string {
	labels := [numTransferFields]string{"to (email)", "amount", "description"}

	var b strings.Builder
	for i := transferField(0); i < numTransferFields; i++ {
		b.WriteString(renderFormField(labels[i], m.fields[i], i == m.focus, false) + "\n")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("sending...") + "\n")
	} else if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	}

	return b.String()
}

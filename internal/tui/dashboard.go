package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bankoneone/teller/pkg/client"
	"github.com/bankoneone/teller/pkg/domain"
)

// recentCount is how many transactions show before expanding to history.
const recentCount = 5

// -- messages --

type accountLoadedMsg struct {
	snapshot *domain.Snapshot
	err      error
}

type txFoundMsg struct {
	tx  *domain.Transaction
	err error
}

type historyLoadedMsg struct {
	txs []domain.Transaction
	err error
}

type transferDoneMsg struct {
	err error
}

// -- model --

// dashboardModel shows the account balance and transaction activity.
type dashboardModel struct {
	client *client.Client
	email  string // viewer email, for sent/received labelling

	snapshot *domain.Snapshot
	history  []domain.Transaction // full list, fetched on first "all" toggle
	cursor   int
	showAll  bool

	// find-by-id state
	finding   bool
	findInput string
	found     *domain.Transaction

	status  string
	err     string
	loading bool
	width   int
	height  int
}

func newDashboardModel(c *client.Client, email string) dashboardModel {
	return dashboardModel{client: c, email: email, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.refresh()
}

func (m dashboardModel) refresh() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		snap, err := c.Me(context.Background())
		return accountLoadedMsg{snapshot: snap, err: err}
	}
}

func (m dashboardModel) loadHistory() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		txs, err := c.ListTransactions(context.Background())
		return historyLoadedMsg{txs: txs, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case accountLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.snapshot = msg.snapshot
			m.err = ""
			if m.cursor >= len(m.visible()) {
				m.cursor = 0
			}
		}

	case historyLoadedMsg:
		if msg.err != nil {
			m.err = client.Message(msg.err)
		} else {
			m.history = msg.txs
			m.err = ""
			if m.cursor >= len(m.visible()) {
				m.cursor = 0
			}
		}

	case txFoundMsg:
		if msg.err != nil {
			m.err = client.Message(msg.err)
		} else {
			m.found = msg.tx
			m.err = ""
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if m.finding {
		switch msg.String() {
		case "esc":
			m.finding = false
			m.findInput = ""
		case "enter":
			return m.submitFind()
		case "backspace":
			m.findInput = editRune(m.findInput, "backspace")
		default:
			m.findInput = editRune(m.findInput, msg.String())
		}
		return m, nil
	}

	m.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.showAll = !m.showAll
		m.cursor = 0
		if m.showAll && m.history == nil {
			return m, m.loadHistory()
		}
	case "f":
		m.finding = true
		m.findInput = ""
		m.found = nil
	case "y":
		txs := m.visible()
		if m.cursor < len(txs) {
			id := txs[m.cursor].ID.String()
			if err := clipboard.WriteAll(id); err != nil {
				m.err = "copy failed: " + err.Error()
			} else {
				m.status = "copied " + id[:8]
			}
		}
	case "r":
		m.loading = true
		m.history = nil
		if m.showAll {
			return m, tea.Batch(m.refresh(), m.loadHistory())
		}
		return m, m.refresh()
	case "esc":
		if m.found != nil {
			m.found = nil
		}
	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }
	}
	return m, nil
}

func (m dashboardModel) submitFind() (dashboardModel, tea.Cmd) {
	id := strings.TrimSpace(m.findInput)
	m.finding = false
	m.findInput = ""
	if id == "" {
		return m, nil
	}
	c := m.client
	return m, func() tea.Msg {
		tx, err := c.GetTransaction(context.Background(), id)
		return txFoundMsg{tx: tx, err: err}
	}
}

// visible returns the transactions currently on screen: the full fetched
// history in the "all" view, otherwise the snapshot's latest few.
func (m dashboardModel) visible() []domain.Transaction {
	if m.showAll && m.history != nil {
		return m.history
	}
	if m.snapshot == nil {
		return nil
	}
	txs := m.snapshot.Transactions
	if !m.showAll && len(txs) > recentCount {
		return txs[:recentCount]
	}
	return txs
}

func (m dashboardModel) View() string {
	var b strings.Builder

	if m.loading && m.snapshot == nil {
		b.WriteString(" " + dimStyle.Render("loading account...") + "\n")
		return b.String()
	}
	if m.err != "" && m.snapshot == nil {
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
		return b.String()
	}
	if m.snapshot == nil {
		return ""
	}

	acct := m.snapshot.Account
	b.WriteString(" " + dimStyle.Render("balance") + "  " + balanceStyle.Render("$"+formatAmount(acct.Balance)))
	if acct.Status != "" {
		b.WriteString("  " + statusStyle(acct.Status).Render(strings.ToUpper(acct.Status)))
	}
	b.WriteString("\n\n")

	if m.finding {
		b.WriteString(" " + inputPromptStyle.Render("find id> ") + m.findInput + "█\n\n")
	}

	if m.found != nil {
		b.WriteString(m.renderFound())
	}

	label := "recent activity"
	if m.showAll {
		label = "all activity"
	}
	b.WriteString(" " + metaStyle.Render(label) + "\n")

	txs := m.visible()
	if len(txs) == 0 {
		b.WriteString("\n " + dimStyle.Render("no transactions yet — send your first transfer") + "\n")
	}
	for i, tx := range txs {
		cursor := " "
		if i == m.cursor {
			cursor = accentStyle.Render("▸")
		}
		b.WriteString(fmt.Sprintf(" %s %s\n", cursor, m.renderRow(tx)))
	}

	if m.err != "" {
		b.WriteString("\n " + errorStyle.Render(m.err) + "\n")
	} else if m.status != "" {
		b.WriteString("\n " + successStyle.Render(m.status) + "\n")
	}

	return b.String()
}

// renderRow renders one transaction line: signed amount, counterparty,
// description, relative time.
func (m dashboardModel) renderRow(tx domain.Transaction) string {
	sign := tx.SignFor(m.email)

	amount := fmt.Sprintf("%10s", sign+"$"+formatAmount(tx.Amount))
	var amountStyled string
	switch sign {
	case "-":
		amountStyled = debitStyle.Render(amount)
	case "+":
		amountStyled = creditStyle.Render(amount)
	default:
		amountStyled = normalStyle.Render(amount)
	}

	other := tx.ToEmail
	if sign == "+" {
		other = tx.FromEmail
	}

	row := amountStyled + "  " + normalStyle.Render(fmt.Sprintf("%-24s", truncStr(other, 24)))
	row += "  " + dimStyle.Render(truncStr(tx.Title(), 20))
	if !tx.CreatedAt.IsZero() {
		row += "  " + metaStyle.Render(formatTime(tx.CreatedAt))
	}
	return row
}

func (m dashboardModel) renderFound() string {
	tx := m.found
	var b strings.Builder
	b.WriteString(" " + metaStyle.Render("transaction "+tx.ID.String()) + "\n")
	b.WriteString("   " + m.renderRow(*tx) + "\n")
	b.WriteString("   " + dimStyle.Render(tx.FromEmail+" -> "+tx.ToEmail) + "\n\n")
	return b.String()
}

func (m dashboardModel) helpKeys() string {
	if m.finding {
		return helpEntry("enter", "find") + "  " + helpEntry("esc", "cancel")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("a", "all") + "  " + helpEntry("f", "find") + "  " + helpEntry("y", "copy id") + "  " + helpEntry("2", "transfer") + "  " + helpEntry("c", "assistant") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("ctrl+l", "sign out") + "  " + helpEntry("q", "quit")
}

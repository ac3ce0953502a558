package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/bankoneone/teller/internal/assistant"
	"github.com/bankoneone/teller/internal/session"
)

// chatGreeting opens every assistant conversation.
const chatGreeting = "Hi! I'm your Bank One One assistant. Ask me about your balance, transfers, or anything else."

// chatConn is the slice of assistant.Conn the overlay needs; tests swap in
// a fake.
type chatConn interface {
	Send(message string) error
	Events() <-chan assistant.Event
	Close() error
}

type chatConnectedMsg struct {
	conn chatConn
	err  error
}

type chatEventMsg struct {
	ev assistant.Event
	ok bool
}

type chatBlinkMsg struct{}

func chatBlinkCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg {
		return chatBlinkMsg{}
	})
}

type chatLine struct {
	fromUser bool
	isError  bool
	text     string
}

// chatModel is the assistant overlay: a websocket-backed chat with the
// bank-assistant service.
type chatModel struct {
	dial func() (chatConn, error)

	conn       chatConn
	lines      []chatLine
	input      string
	errMsg     string
	connecting bool
	closed     bool
	animFrame  int
	width      int
	height     int
}

func newChatModel(socketURL string, mgr *session.Manager) chatModel {
	m := chatModel{
		connecting: true,
		dial: func() (chatConn, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			token := ""
			if mgr != nil {
				token = mgr.Token()
			}
			return assistant.Dial(ctx, socketURL, token, zerolog.Nop())
		},
	}
	m.lines = append(m.lines, chatLine{text: chatGreeting})
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(m.connect(), chatBlinkCmd())
}

func (m chatModel) connect() tea.Cmd {
	dial := m.dial
	return func() tea.Msg {
		conn, err := dial()
		return chatConnectedMsg{conn: conn, err: err}
	}
}

// waitEvent blocks on the next assistant event.
func waitEvent(conn chatConn) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		return chatEventMsg{ev: ev, ok: ok}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case chatBlinkMsg:
		if m.closed {
			return m, nil
		}
		m.animFrame++
		return m, chatBlinkCmd()

	case chatConnectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.errMsg = "assistant unavailable: " + msg.err.Error()
			return m, nil
		}
		m.conn = msg.conn
		return m, waitEvent(m.conn)

	case chatEventMsg:
		if !msg.ok {
			m.conn = nil
			m.errMsg = "assistant disconnected"
			return m, nil
		}
		switch msg.ev.Type {
		case assistant.EventBotReply:
			m.lines = append(m.lines, chatLine{text: msg.ev.Message})
		case assistant.EventChatError:
			m.lines = append(m.lines, chatLine{isError: true, text: msg.ev.Message})
		}
		return m, waitEvent(m.conn)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

// shutdown tears down the websocket and marks the overlay closed. The root
// model calls it whenever the overlay is dismissed for the user, so the
// authenticated connection never outlives the session.
func (m chatModel) shutdown() chatModel {
	if m.conn != nil {
		m.conn.Close() //nolint:errcheck // teardown
		m.conn = nil
	}
	m.closed = true
	return m
}

func (m chatModel) updateKeys(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.shutdown()
	case "enter":
		text := strings.TrimSpace(m.input)
		if text == "" {
			return m, nil
		}
		if m.conn == nil {
			m.errMsg = "assistant is not connected"
			return m, nil
		}
		if err := m.conn.Send(text); err != nil {
			m.errMsg = "send failed: " + err.Error()
			return m, nil
		}
		m.lines = append(m.lines, chatLine{fromUser: true, text: text})
		m.input = ""
	case "backspace":
		m.input = editRune(m.input, "backspace")
	default:
		m.input = editRune(m.input, msg.String())
	}
	return m, nil
}

func (m chatModel) View() string {
	var b strings.Builder

	for _, line := range m.lines {
		switch {
		case line.isError:
			b.WriteString(" " + errorStyle.Render("! "+line.text) + "\n")
		case line.fromUser:
			b.WriteString(" " + inputPromptStyle.Render("you") + chatSepStyle.Render(" · ") + chatSelfStyle.Render(line.text) + "\n")
		default:
			b.WriteString(" " + chatBotStyle.Render("assistant") + chatSepStyle.Render(" · ") + normalStyle.Render(line.text) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.connecting:
		b.WriteString(" " + dimStyle.Render("connecting...") + "\n")
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n" + renderChatInput(m.input, "ask the assistant...", m.animFrame) + "\n")

	return b.String()
}

func (m chatModel) helpKeys() string {
	return helpEntry("enter", "send") + "  " + helpEntry("esc", "close")
}

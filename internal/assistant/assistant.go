// Package assistant speaks the bank-assistant chat protocol: a websocket
// carrying small JSON events in both directions.
package assistant

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event types on the assistant channel. The client sends chat_message;
// the service answers with bot_reply or chat_error.
const (
	EventChatMessage = "chat_message"
	EventBotReply    = "bot_reply"
	EventChatError   = "chat_error"
)

// Event is one message on the assistant channel.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Conn is a live assistant connection. Incoming events arrive on Events;
// the channel closes when the connection dies.
type Conn struct {
	ws     *websocket.Conn
	events chan Event
	log    zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the assistant service at url, authenticating with the
// session's bearer token.
func Dial(ctx context.Context, url, token string, log zerolog.Logger) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("assistant.Dial: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("assistant.Dial: %w", err)
	}

	c := &Conn{
		ws:     ws,
		events: make(chan Event, 8),
		log:    log,
	}
	go c.readLoop()
	return c, nil
}

// Send submits a user chat message.
func (c *Conn) Send(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(Event{Type: EventChatMessage, Message: message}); err != nil {
		return fmt.Errorf("assistant.Send: %w", err)
	}
	return nil
}

// Events returns the stream of incoming assistant events. The channel is
// closed when the connection is lost or Close is called.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		var ev Event
		if err := c.ws.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("assistant: read loop ended")
			}
			return
		}
		switch ev.Type {
		case EventBotReply, EventChatError:
			c.events <- ev
		default:
			c.log.Debug().Str("type", ev.Type).Msg("assistant: dropping unknown event")
		}
	}
}

package internal

import (
	"context"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"relaychat/internal/storage"
)

const typingIdleWindow = 500 * time.Millisecond

type (
	connectedMsg struct {
		conn   *websocket.Conn
		events chan Event
	}
	connectFailedMsg struct{ err error }
	disconnectedMsg  struct{}
	reconnectMsg     struct{}
	serverEventMsg   Event
	typingIdleMsg    struct{ seq int }
	historyMsg       struct{ messages []storage.Message }
	clientErrMsg     struct{ err error }
)

// websocket dial; on success a reader goroutine starts feeding the events
// channel that waitForEvent drains. The connection rides back inside the
// connectedMsg and is installed on the model by the update loop, so no
// command goroutine ever writes model fields.
func (model *TUIModel) connectCmd() tea.Cmd {
	serverURL := model.serverURL
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(serverURL, http.Header{})
		if err != nil {
			return connectFailedMsg{err: err}
		}
		// fresh channel per connection so a reconnect never reuses one the
		// previous reader already closed.
		events := make(chan Event, 64)
		go readLoop(conn, events)
		return connectedMsg{conn: conn, events: events}
	}
}

func readLoop(conn *websocket.Conn, events chan<- Event) {
	defer close(events)
	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		events <- event
	}
}

// waitForEvent hands the next server event to Update, or reports the
// connection gone when the reader closed the channel.
func (model *TUIModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-model.events
		if !ok {
			return disconnectedMsg{}
		}
		return serverEventMsg(event)
	}
}

func (model *TUIModel) scheduleReconnect() tea.Cmd {
	const retryDelay = 2 * time.Second
	return tea.Tick(retryDelay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

// emit writes one envelope; writes are serialized because both Update and
// command goroutines send.
func (model *TUIModel) emit(kind EventKind, payload interface{}) error {
	event, err := NewEvent(kind, payload)
	if err != nil {
		return err
	}
	model.writeMu.Lock()
	defer model.writeMu.Unlock()
	return model.conn.WriteJSON(event)
}

func (model *TUIModel) emitCmd(kind EventKind, payload interface{}) tea.Cmd {
	return func() tea.Msg {
		if err := model.emit(kind, payload); err != nil {
			return clientErrMsg{err: err}
		}
		return nil
	}
}

// typingIdleCmd arms the stop-typing timer; a newer keystroke bumps the
// sequence number, which voids this tick.
func (model *TUIModel) typingIdleCmd(seq int) tea.Cmd {
	return tea.Tick(typingIdleWindow, func(time.Time) tea.Msg {
		return typingIdleMsg{seq: seq}
	})
}

func (model *TUIModel) loadHistoryCmd(room string) tea.Cmd {
	if model.store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		history, err := model.store.History(ctx, room, 100)
		if err != nil {
			return clientErrMsg{err: err}
		}
		return historyMsg{messages: history}
	}
}

func (model *TUIModel) saveMessage(msg ChatMessage) {
	if model.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, _ = model.store.SaveMessage(ctx, storage.Message{
		MessageID:  msg.MessageID,
		Room:       msg.Room,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Body:       msg.Message,
		Status:     string(msg.Status),
	})
}

func (model *TUIModel) saveStatus(messageID string, status Status) {
	if model.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = model.store.UpdateStatus(ctx, messageID, string(status))
}

func (model *TUIModel) saveRoomSeen(room, seenBy string) {
	if model.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = model.store.MarkRoomSeen(ctx, room, seenBy)
}

func (model *TUIModel) closeConn() {
	if model.conn == nil {
		return
	}
	model.writeMu.Lock()
	defer model.writeMu.Unlock()
	_ = model.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = model.conn.Close()
}

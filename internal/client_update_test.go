package internal

import "testing"

func TestConnectedMsgInstallsConnection(t *testing.T) {
	model := NewTUIModel("ws://localhost/ws", "", "Alice", "", nil)

	events := make(chan Event, 1)
	updated, cmd := model.Update(connectedMsg{events: events})
	m := updated.(*TUIModel)
	if !m.connected || m.connErr != nil {
		t.Fatalf("connectedMsg must mark the model connected")
	}
	if m.events != events {
		t.Fatalf("connectedMsg must install the connection's events channel")
	}
	if cmd == nil {
		t.Fatalf("connectedMsg must arm the event wait")
	}

	events <- Event{Kind: EventUserTypingStop}
	msg, ok := cmd().(serverEventMsg)
	if !ok || Event(msg).Kind != EventUserTypingStop {
		t.Fatalf("expected the queued server event, got %#v", msg)
	}

	// a closed channel means the reader is gone
	close(events)
	if _, ok := m.waitForEvent()().(disconnectedMsg); !ok {
		t.Fatalf("closed events channel must report a disconnect")
	}
}

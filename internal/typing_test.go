package internal

import "testing"

func TestTypingRelayedToOthersOnly(t *testing.T) {
	hub, alice, bob := relayFixture(t)

	sig := TypingSignal{Name: "Alice", Room: "lobby", ProfileImage: "img-a"}
	if err := hub.StartTyping("sock-a", sig); err != nil {
		t.Fatalf("start typing: %v", err)
	}

	notice := decodePayload[TypingNotice](t, mustLast(t, bob, EventUserTyping))
	if notice.Name != "Alice" || notice.ProfileImage != "img-a" {
		t.Fatalf("unexpected typing notice: %+v", notice)
	}
	if alice.count(EventUserTyping) != 0 {
		t.Fatalf("typing signal must not echo back to the typist")
	}

	if err := hub.StopTyping("sock-a", sig); err != nil {
		t.Fatalf("stop typing: %v", err)
	}
	if _, ok := bob.last(EventUserTypingStop); !ok {
		t.Fatalf("bob never received user_typing_stop")
	}
	if alice.count(EventUserTypingStop) != 0 {
		t.Fatalf("typing stop must not echo back to the typist")
	}
}

func TestTypingRequiresMembership(t *testing.T) {
	hub, _, bob := relayFixture(t)
	outsider := newFakeSink("sock-c")
	hub.Connect(outsider)

	err := hub.StartTyping("sock-c", TypingSignal{Name: "Carol", Room: "lobby"})
	if err != ErrNotInRoom {
		t.Fatalf("non-member typing: got %v, want ErrNotInRoom", err)
	}
	err = hub.StartTyping("sock-a", TypingSignal{Name: "Alice", Room: "den"})
	if err != ErrNotInRoom {
		t.Fatalf("wrong-room typing: got %v, want ErrNotInRoom", err)
	}
	if bob.count(EventUserTyping) != 0 {
		t.Fatalf("rejected signals must not be relayed")
	}
}

// arrival order is preserved per room: a stop after a start reaches the
// other members in that order.
func TestTypingOrderPreserved(t *testing.T) {
	hub, _, bob := relayFixture(t)

	sig := TypingSignal{Name: "Alice", Room: "lobby"}
	if err := hub.StartTyping("sock-a", sig); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := hub.StopTyping("sock-a", sig); err != nil {
		t.Fatalf("stop: %v", err)
	}

	bob.mu.Lock()
	defer bob.mu.Unlock()
	var kinds []EventKind
	for _, event := range bob.events {
		if event.Kind == EventUserTyping || event.Kind == EventUserTypingStop {
			kinds = append(kinds, event.Kind)
		}
	}
	if len(kinds) != 2 || kinds[0] != EventUserTyping || kinds[1] != EventUserTypingStop {
		t.Fatalf("unexpected typing order: %v", kinds)
	}
}

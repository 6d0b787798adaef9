package internal

import (
	"fmt"
	"sync"
	"testing"
)

// fakeSink records every event the hub delivers, standing in for a websocket
// client.
type fakeSink struct {
	id string

	mu     sync.Mutex
	events []Event
}

func newFakeSink(id string) *fakeSink {
	return &fakeSink{id: id}
}

func (f *fakeSink) ID() string { return f.id }

func (f *fakeSink) Deliver(event Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return true
}

func (f *fakeSink) count(kind EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, event := range f.events {
		if event.Kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeSink) last(kind EventKind) (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Kind == kind {
			return f.events[i], true
		}
	}
	return Event{}, false
}

func (f *fakeSink) reset() {
	f.mu.Lock()
	f.events = nil
	f.mu.Unlock()
}

func decodePayload[T any](t *testing.T, event Event) T {
	t.Helper()
	var out T
	if err := event.DecodeInto(&out); err != nil {
		t.Fatalf("decode %s: %v", event.Kind, err)
	}
	return out
}

func mustLast(t *testing.T, sink *fakeSink, kind EventKind) Event {
	t.Helper()
	event, ok := sink.last(kind)
	if !ok {
		t.Fatalf("sink %s never received %s", sink.id, kind)
	}
	return event
}

func join(t *testing.T, hub *Hub, sink *fakeSink, room, name string) {
	t.Helper()
	if err := hub.Join(sink.id, JoinRequest{Room: room, Name: name, JoiningTime: "10:00"}); err != nil {
		t.Fatalf("join %s as %s: %v", room, name, err)
	}
}

func TestJoinExclusivity(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	hub.Connect(alice)

	join(t, hub, alice, "lobby", "Alice")
	join(t, hub, alice, "den", "Alice")

	if hub.RoomExists("lobby") {
		t.Fatalf("lobby should be destroyed once its only member moved on")
	}
	if !hub.RoomExists("den") {
		t.Fatalf("den should exist")
	}
	if got := hub.MemberCount("den"); got != 1 {
		t.Fatalf("den member count = %d, want 1", got)
	}

	listing := hub.GlobalListing()
	if len(listing) != 1 {
		t.Fatalf("expected one listing entry, got %d", len(listing))
	}
	if _, ok := listing[0]["lobby"]; ok {
		t.Fatalf("stale lobby entry in global listing")
	}
	if members := listing[0]["den"]; len(members) != 1 || members[0].SocketID != "sock-a" {
		t.Fatalf("unexpected den members: %+v", members)
	}
}

func TestJoinValidation(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	hub.Connect(alice)

	cases := []struct {
		name string
		req  JoinRequest
	}{
		{"empty room", JoinRequest{Room: "", Name: "Alice"}},
		{"blank room", JoinRequest{Room: "   ", Name: "Alice"}},
		{"empty name", JoinRequest{Room: "lobby", Name: ""}},
		{"blank name", JoinRequest{Room: "lobby", Name: "\t "}},
	}
	for _, tc := range cases {
		if err := hub.Join("sock-a", tc.req); err != ErrInvalidJoin {
			t.Errorf("%s: got %v, want ErrInvalidJoin", tc.name, err)
		}
	}
	if listing := hub.GlobalListing(); len(listing) != 0 {
		t.Fatalf("failed joins must not create rooms: %+v", listing)
	}
	if _, ok := alice.last(EventRoomJoined); ok {
		t.Fatalf("failed join must not be acknowledged")
	}
}

func TestJoinNotifications(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	bob := newFakeSink("sock-b")
	hub.Connect(alice)
	hub.Connect(bob)

	join(t, hub, alice, "lobby", "Alice")
	join(t, hub, bob, "lobby", "Bob")

	// the joiner gets a direct ack carrying its own socket id
	ack := decodePayload[RoomJoined](t, mustLast(t, bob, EventRoomJoined))
	if ack.Room != "lobby" || ack.SocketID != "sock-b" || ack.UserName != "Bob" {
		t.Fatalf("unexpected room_joined ack: %+v", ack)
	}

	// the pre-existing member learns about the newcomer, not vice versa
	joined := decodePayload[Member](t, mustLast(t, alice, EventUserJoined))
	if joined.UserName != "Bob" {
		t.Fatalf("alice should see Bob join, saw %+v", joined)
	}
	if got := bob.count(EventUserJoined); got != 0 {
		t.Fatalf("bob should not see his own join, got %d user_joined", got)
	}

	// both get the room snapshot, ordered by join time
	snapshot := decodePayload[[]Member](t, mustLast(t, bob, EventActiveUsers))
	if len(snapshot) != 2 || snapshot[0].UserName != "Alice" || snapshot[1].UserName != "Bob" {
		t.Fatalf("unexpected snapshot order: %+v", snapshot)
	}
}

func TestLeaveRequiresMembership(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	hub.Connect(alice)

	if err := hub.Leave("sock-a", "lobby"); err != ErrNotInRoom {
		t.Fatalf("leave before join: got %v, want ErrNotInRoom", err)
	}

	join(t, hub, alice, "lobby", "Alice")
	if err := hub.Leave("sock-a", "den"); err != ErrNotInRoom {
		t.Fatalf("leave wrong room: got %v, want ErrNotInRoom", err)
	}
	if !hub.RoomExists("lobby") {
		t.Fatalf("failed leave must not touch membership")
	}

	if err := hub.Leave("sock-a", "lobby"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if hub.RoomExists("lobby") {
		t.Fatalf("empty room must be destroyed")
	}
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	bob := newFakeSink("sock-b")
	hub.Connect(alice)
	hub.Connect(bob)
	join(t, hub, alice, "lobby", "Alice")
	join(t, hub, bob, "lobby", "Bob")
	alice.reset()

	if err := hub.Leave("sock-b", "lobby"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	left := decodePayload[UserLeft](t, mustLast(t, alice, EventUserLeft))
	if left.SocketID != "sock-b" || left.UserName != "Bob" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
	snapshot := decodePayload[[]Member](t, mustLast(t, alice, EventActiveUsers))
	if len(snapshot) != 1 || snapshot[0].UserName != "Alice" {
		t.Fatalf("stale snapshot after leave: %+v", snapshot)
	}
}

func TestRoomLifecycleMatchesGlobalSnapshot(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	bob := newFakeSink("sock-b")
	hub.Connect(alice)
	hub.Connect(bob)

	assertListed := func(room string, want bool) {
		t.Helper()
		listing := hub.GlobalListing()
		listed := false
		if len(listing) == 1 {
			_, listed = listing[0][room]
		}
		if listed != want {
			t.Fatalf("room %q listed = %v, want %v (listing %+v)", room, listed, want, listing)
		}
		if hub.RoomExists(room) != want {
			t.Fatalf("RoomExists(%q) = %v, want %v", room, !want, want)
		}
	}

	assertListed("lobby", false)
	join(t, hub, alice, "lobby", "Alice")
	assertListed("lobby", true)
	join(t, hub, bob, "lobby", "Bob")
	assertListed("lobby", true)
	if err := hub.Leave("sock-a", "lobby"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	assertListed("lobby", true)
	hub.Disconnect("sock-b")
	assertListed("lobby", false)
}

func TestDisconnectCleanup(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	bob := newFakeSink("sock-b")
	hub.Connect(alice)
	hub.Connect(bob)
	join(t, hub, alice, "lobby", "Alice")
	join(t, hub, bob, "lobby", "Bob")
	alice.reset()

	hub.Disconnect("sock-b")
	hub.Disconnect("sock-b") // unknown id is a no-op

	if got := alice.count(EventUserLeft); got != 1 {
		t.Fatalf("remaining member got %d user_left, want exactly 1", got)
	}
	left := decodePayload[UserLeft](t, mustLast(t, alice, EventUserLeft))
	if left.SocketID != "sock-b" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
	snapshot := decodePayload[[]Member](t, mustLast(t, alice, EventActiveUsers))
	for _, member := range snapshot {
		if member.SocketID == "sock-b" {
			t.Fatalf("disconnected member still in snapshot: %+v", snapshot)
		}
	}
}

func TestConnectReceivesGlobalListing(t *testing.T) {
	hub := NewHub(nil)
	alice := newFakeSink("sock-a")
	hub.Connect(alice)
	join(t, hub, alice, "lobby", "Alice")

	late := newFakeSink("sock-late")
	hub.Connect(late)

	listing := decodePayload[[]RoomListing](t, mustLast(t, late, EventRoomsWithMembers))
	if len(listing) != 1 {
		t.Fatalf("expected populated listing, got %+v", listing)
	}
	if members := listing[0]["lobby"]; len(members) != 1 || members[0].UserName != "Alice" {
		t.Fatalf("unexpected lobby members: %+v", members)
	}
}

func TestConcurrentJoinsSameRoom(t *testing.T) {
	hub := NewHub(nil)
	const n = 32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sink := newFakeSink(fmt.Sprintf("sock-%02d", i))
		hub.Connect(sink)
		wg.Add(1)
		go func(s *fakeSink, idx int) {
			defer wg.Done()
			if err := hub.Join(s.id, JoinRequest{Room: "lobby", Name: fmt.Sprintf("user-%02d", idx)}); err != nil {
				t.Errorf("join %s: %v", s.id, err)
			}
		}(sink, i)
	}
	wg.Wait()

	if got := hub.MemberCount("lobby"); got != n {
		t.Fatalf("lobby member count = %d, want %d", got, n)
	}
	snapshot := hub.GlobalListing()[0]["lobby"]
	seen := make(map[string]bool, len(snapshot))
	for _, member := range snapshot {
		if seen[member.SocketID] {
			t.Fatalf("duplicate member %s in snapshot", member.SocketID)
		}
		seen[member.SocketID] = true
	}
}

package storage

import (
	"context"
	"testing"
	"time"
)

func TestSaveMessageDeduplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	msg := Message{
		MessageID:  "m1",
		Room:       "lobby",
		SenderID:   "sock-a",
		SenderName: "Alice",
		Body:       "hi",
		Status:     "sent",
		SentAt:     time.Now(),
	}
	inserted, err := store.SaveMessage(ctx, msg)
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first insert to report true")
	}
	inserted, err = store.SaveMessage(ctx, msg)
	if err != nil {
		t.Fatalf("SaveMessage duplicate: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate insert to report false")
	}

	history, err := store.History(ctx, "lobby", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}
}

func TestUpdateStatusNeverRegresses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := store.SaveMessage(ctx, Message{MessageID: "m1", Room: "lobby", SenderID: "a", SenderName: "Alice", Body: "hi", Status: "sent"}); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}

	if err := store.UpdateStatus(ctx, "m1", "seen"); err != nil {
		t.Fatalf("UpdateStatus seen: %v", err)
	}
	// a late delivery report must not undo seen
	if err := store.UpdateStatus(ctx, "m1", "delivered"); err != nil {
		t.Fatalf("UpdateStatus delivered: %v", err)
	}

	history, err := store.History(ctx, "lobby", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Status != "seen" {
		t.Fatalf("expected status seen, got %+v", history)
	}
}

func TestMarkRoomSeenSkipsOwnMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	base := time.Now()
	rows := []Message{
		{MessageID: "m1", Room: "lobby", SenderID: "a", SenderName: "Alice", Body: "hi", Status: "sent", SentAt: base},
		{MessageID: "m2", Room: "lobby", SenderID: "b", SenderName: "Bob", Body: "yo", Status: "delivered", SentAt: base.Add(time.Second)},
		{MessageID: "m3", Room: "den", SenderID: "a", SenderName: "Alice", Body: "hey", Status: "sent", SentAt: base.Add(2 * time.Second)},
	}
	for _, msg := range rows {
		if _, err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage %s: %v", msg.MessageID, err)
		}
	}

	if err := store.MarkRoomSeen(ctx, "lobby", "b"); err != nil {
		t.Fatalf("MarkRoomSeen: %v", err)
	}

	history, err := store.History(ctx, "lobby", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	byID := map[string]string{}
	for _, msg := range history {
		byID[msg.MessageID] = msg.Status
	}
	if byID["m1"] != "seen" {
		t.Fatalf("expected m1 seen, got %q", byID["m1"])
	}
	if byID["m2"] != "delivered" {
		t.Fatalf("expected b's own m2 untouched, got %q", byID["m2"])
	}

	other, err := store.History(ctx, "den", 10)
	if err != nil {
		t.Fatalf("History den: %v", err)
	}
	if len(other) != 1 || other[0].Status != "sent" {
		t.Fatalf("expected den untouched, got %+v", other)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	base := time.Now()
	for i, id := range []string{"m1", "m2", "m3"} {
		msg := Message{MessageID: id, Room: "lobby", SenderID: "a", SenderName: "Alice", Body: id, Status: "sent", SentAt: base.Add(time.Duration(i) * time.Second)}
		if _, err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage %s: %v", id, err)
		}
	}

	history, err := store.History(ctx, "lobby", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].MessageID != "m2" || history[1].MessageID != "m3" {
		t.Fatalf("expected newest two oldest-first, got %q then %q", history[0].MessageID, history[1].MessageID)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := "sqlite://file:" + t.Name() + "?mode=memory&cache=shared"
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

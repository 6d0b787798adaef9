package internal

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// deliveryTracker keeps per-message delivery state. It has its own lock so
// status transitions never contend with membership changes; two concurrent
// acknowledgments for the same message serialize here.
type deliveryTracker struct {
	mu       sync.Mutex
	messages map[string]*messageState
}

type messageState struct {
	room     string
	senderID string
	status   Status
}

func newDeliveryTracker() *deliveryTracker {
	return &deliveryTracker{messages: make(map[string]*messageState)}
}

// record registers a freshly relayed message. It reports false when the id is
// already known, which makes a replayed msz_send a no-op at the relay.
func (t *deliveryTracker) record(id, room, senderID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.messages[id]; ok {
		return false
	}
	t.messages[id] = &messageState{room: room, senderID: senderID, status: StatusSent}
	return true
}

// advance moves a message's status forward on behalf of acker. It reports the
// sender id and whether the transition happened. The sender acking its own
// message is refused before any mutation, and so is a transition that would
// regress the status (seen back to delivered), keeping every observed
// sequence a subsequence of sent, delivered, seen.
func (t *deliveryTracker) advance(id, acker string, next Status) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.messages[id]
	if !ok {
		return "", false
	}
	if acker == state.senderID {
		return state.senderID, false
	}
	if !state.status.Before(next) {
		return state.senderID, false
	}
	state.status = next
	return state.senderID, true
}

// markRoomSeen advances every message in the room not authored by the viewer
// to seen, and returns how many actually moved.
func (t *deliveryTracker) markRoomSeen(room, seenBy string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	moved := 0
	for _, state := range t.messages {
		if state.room != room || state.senderID == seenBy {
			continue
		}
		if state.status.Before(StatusSeen) {
			state.status = StatusSeen
			moved++
		}
	}
	return moved
}

// dropRoom evicts every message tracked for the room. Called when the room
// itself is destroyed, so the tracker never outlives the conversations it
// tracks.
func (t *deliveryTracker) dropRoom(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, state := range t.messages {
		if state.room == room {
			delete(t.messages, id)
		}
	}
}

func (t *deliveryTracker) status(id string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.messages[id]; ok {
		return state.status, true
	}
	return "", false
}

// Send relays a chat message to every member of the room, the sender
// included — the sender's client reconciles the echo with its optimistic
// copy by messageId. Duplicate ids are swallowed so each member receives a
// given message exactly once.
func (h *Hub) Send(id string, msg ChatMessage) error {
	if strings.TrimSpace(msg.Message) == "" {
		return ErrEmptyMessage
	}

	h.mu.RLock()
	_, exists := h.rooms[msg.Room]
	inRoom := h.occupancy[id] == msg.Room
	targets := h.roomSinksLocked(msg.Room, "")
	h.mu.RUnlock()

	if !exists {
		return ErrRoomNotFound
	}
	if !inRoom {
		return ErrNotInRoom
	}

	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	msg.SenderID = id
	if !h.tracker.record(msg.MessageID, msg.Room, id) {
		return nil
	}
	msg.Status = StatusSent

	deliverAll(targets, mustEvent(EventMessageReceived, msg))
	h.metrics.IncMessage()
	return nil
}

// AckDelivered handles a recipient's delivery report. Only the sender learns
// about it, and only when the status actually moved forward — an ack that
// arrives after the room was already marked seen changes nothing.
func (h *Hub) AckDelivered(id string, receipt DeliveryReceipt) error {
	senderID, advanced := h.tracker.advance(receipt.MessageID, id, StatusDelivered)
	if !advanced {
		// unknown message, the sender acking itself, or a status already past
		// delivered; nothing to report.
		return nil
	}
	h.metrics.IncDelivery()
	h.sendTo(senderID, mustEvent(EventMessageStatus, StatusUpdate{
		MessageID:   receipt.MessageID,
		Status:      StatusDelivered,
		RecipientID: id,
	}))
	return nil
}

// MarkSeen applies a room-wide coarse seen marker: every message in the room
// not authored by the viewer moves to seen, and the notice is rebroadcast
// verbatim so each client updates its own copy. A notice for a room that no
// longer has members is silently dropped; the room may have emptied between
// send and seen.
func (h *Hub) MarkSeen(id string, notice SeenNotice) error {
	if notice.SeenBy == "" {
		notice.SeenBy = id
	}

	h.mu.RLock()
	_, exists := h.rooms[notice.Room]
	targets := h.roomSinksLocked(notice.Room, "")
	h.mu.RUnlock()
	if !exists {
		return nil
	}

	h.tracker.markRoomSeen(notice.Room, notice.SeenBy)
	deliverAll(targets, mustEvent(EventMessagesSeen, notice))
	return nil
}

// MessageStatus exposes the tracked status of one message, mainly for tests
// and debugging.
func (h *Hub) MessageStatus(messageID string) (Status, bool) {
	return h.tracker.status(messageID)
}

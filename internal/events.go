package internal

import (
	"encoding/json"
	"fmt"
)

// EventKind names one message type of the wire contract. The set is closed:
// dispatch switches over these constants and rejects anything else.
type EventKind string

// Client -> server events.
const (
	EventJoinRoom         EventKind = "join_room"
	EventLeaveRoom        EventKind = "leave_room"
	EventMessageSend      EventKind = "msz_send"
	EventMessageDelivered EventKind = "message_delivered"
	EventMessagesSeen     EventKind = "messages_seen"
	EventStartTyping      EventKind = "user_start_typing"
	EventStopTyping       EventKind = "user_stop_typing"
)

// Server -> client events. messages_seen is also rebroadcast verbatim under
// its inbound name, so it appears only once above.
const (
	EventRoomJoined       EventKind = "room_joined"
	EventUserJoined       EventKind = "user_joined"
	EventUserLeft         EventKind = "user_left"
	EventActiveUsers      EventKind = "active_users_updated"
	EventRoomsWithMembers EventKind = "rooms_with_members"
	EventMessageReceived  EventKind = "msz_received"
	EventMessageStatus    EventKind = "message_status_update"
	EventUserTyping       EventKind = "user_typing"
	EventUserTypingStop   EventKind = "user_typing_stop"
	EventRoomError        EventKind = "room_error"
	EventMessageError     EventKind = "message_error"
)

// Event is the JSON envelope both sides exchange over the websocket.
type Event struct {
	Kind EventKind       `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps a typed payload into an envelope.
func NewEvent(kind EventKind, payload interface{}) (Event, error) {
	if payload == nil {
		return Event{Kind: kind}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{Kind: kind, Data: data}, nil
}

// mustEvent is for payloads built entirely by the server, where a marshal
// failure would be a programming error.
func mustEvent(kind EventKind, payload interface{}) Event {
	event, err := NewEvent(kind, payload)
	if err != nil {
		panic(err)
	}
	return event
}

// DecodeInto unmarshals the envelope payload into the typed struct for the
// event kind the caller already switched on.
func (e Event) DecodeInto(out interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Kind)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}

// Status is the delivery lifecycle stage of a chat message as observed by
// recipients. It only ever moves forward.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
)

func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	}
	return 0
}

// Before reports whether s precedes other in the sent -> delivered -> seen
// progression. Intermediate stages may be skipped but never revisited.
func (s Status) Before(other Status) bool {
	return s.rank() < other.rank()
}

// Member is one connection's presence record inside a room.
type Member struct {
	SocketID     string `json:"socketId"`
	UserName     string `json:"userName"`
	JoiningTime  string `json:"joiningTime"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// RoomListing maps room names to their member lists. The global snapshot is
// a one-element slice of this, or an empty slice when no room has members;
// clients depend on that exact shape.
type RoomListing map[string][]Member

// JoinRequest is the join_room payload.
type JoinRequest struct {
	Room         string `json:"room"`
	Name         string `json:"name"`
	JoiningTime  string `json:"joiningTime"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// RoomJoined acknowledges a successful join to the joining connection only.
type RoomJoined struct {
	Room         string `json:"room"`
	SocketID     string `json:"socketId"`
	UserName     string `json:"userName"`
	JoiningTime  string `json:"joiningTime"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// LeaveRequest is the leave_room payload.
type LeaveRequest struct {
	Room string `json:"room"`
}

// UserLeft notifies remaining room members that a connection left.
type UserLeft struct {
	SocketID string `json:"socketId"`
	UserName string `json:"userName"`
}

// ChatMessage is the full message record carried by msz_send / msz_received.
type ChatMessage struct {
	MessageID    string `json:"messageId"`
	Message      string `json:"message"`
	Room         string `json:"room"`
	SenderID     string `json:"senderId"`
	SenderName   string `json:"senderName"`
	ProfileImage string `json:"profileImage,omitempty"`
	Time         string `json:"time"`
	Status       Status `json:"status,omitempty"`
}

// DeliveryReceipt is the message_delivered payload a recipient reports back.
type DeliveryReceipt struct {
	MessageID   string `json:"messageId"`
	Room        string `json:"room"`
	RecipientID string `json:"recipientId"`
	SenderID    string `json:"senderId"`
}

// StatusUpdate goes to the message sender only.
type StatusUpdate struct {
	MessageID   string `json:"messageId"`
	Status      Status `json:"status"`
	RecipientID string `json:"recipientId"`
}

// SeenNotice marks every foreign message in a room as seen by one viewer.
// It is rebroadcast verbatim to the whole room.
type SeenNotice struct {
	Room   string `json:"room"`
	SeenBy string `json:"seenBy"`
}

// TypingSignal is the inbound start/stop typing payload.
type TypingSignal struct {
	Name         string `json:"name"`
	Room         string `json:"room"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// TypingNotice is relayed to the other members of the room.
type TypingNotice struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ErrorNotice is the room_error / message_error payload.
type ErrorNotice struct {
	Message string `json:"message"`
}

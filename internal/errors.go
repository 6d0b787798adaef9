package internal

import "errors"

// Relay errors are local and recoverable: they are reported back to the
// originating connection as a room_error or message_error event and leave
// shared state untouched.
var (
	ErrInvalidJoin  = errors.New("invalid room or username")
	ErrNotInRoom    = errors.New("you are not in this room")
	ErrEmptyMessage = errors.New("message text is empty")
	ErrRoomNotFound = errors.New("room does not exist")
)

// errorKindFor picks the error channel an operation reports on. Membership
// and join failures go to room_error, message pipeline failures to
// message_error.
func errorKindFor(kind EventKind) EventKind {
	switch kind {
	case EventMessageSend, EventMessageDelivered, EventMessagesSeen:
		return EventMessageError
	}
	return EventRoomError
}

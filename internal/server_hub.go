package internal

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// EventSink is the outbound half of a connection as the hub sees it. The
// websocket client implements it; tests drive the hub through fakes.
// Deliver must not block: it reports false when the connection is gone or
// cannot keep up, and the hub simply skips that destination.
type EventSink interface {
	ID() string
	Deliver(Event) bool
}

type memberRecord struct {
	member   Member
	joinedAt time.Time
}

// roomState holds one room's membership. A room with zero members is removed
// from the directory immediately, so it never leaks into snapshots.
type roomState struct {
	name    string
	members map[string]*memberRecord
}

// Hub owns all process-wide mutable chat state: the connection registry, the
// room directory, and the delivery tracker. It is constructed explicitly and
// passed to handlers, so tests can run independent instances side by side.
//
// hub.mu serializes every membership mutation; the delivery tracker carries
// its own lock. Outbound fan-out happens after the lock is released, against
// a sink snapshot taken while it was held.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]EventSink
	occupancy map[string]string // connection id -> current room, at most one
	rooms     map[string]*roomState

	tracker *deliveryTracker
	metrics *Metrics
}

func NewHub(metrics *Metrics) *Hub {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Hub{
		conns:     make(map[string]EventSink),
		occupancy: make(map[string]string),
		rooms:     make(map[string]*roomState),
		tracker:   newDeliveryTracker(),
		metrics:   metrics,
	}
}

// Connect registers a live connection with no room yet and pushes the current
// global room listing to every connection, so a fresh client can show active
// rooms before it joins one.
func (h *Hub) Connect(sink EventSink) {
	h.mu.Lock()
	h.conns[sink.ID()] = sink
	listing := h.globalListingLocked()
	targets := h.allSinksLocked()
	h.mu.Unlock()

	h.metrics.IncConn()
	deliverAll(targets, mustEvent(EventRoomsWithMembers, listing))
}

// Disconnect removes the connection and, when it occupied a room, applies
// leave semantics: remaining members get exactly one user_left plus a fresh
// room snapshot, and everyone gets the updated global listing. Disconnecting
// an unknown id is a no-op.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	_, known := h.conns[id]
	delete(h.conns, id)

	var dep *departure
	if room, ok := h.occupancy[id]; ok {
		dep = h.removeMemberLocked(id, room)
		delete(h.occupancy, id)
	}
	var listing []RoomListing
	var everyone []EventSink
	if dep != nil {
		listing = h.globalListingLocked()
		everyone = h.allSinksLocked()
	}
	h.mu.Unlock()

	if known {
		h.metrics.DecConn()
	}
	if dep != nil {
		dep.announce()
		deliverAll(everyone, mustEvent(EventRoomsWithMembers, listing))
	}
}

// Join moves a connection into a room, implicitly leaving its previous room
// first. A connection is never a member of two rooms at once.
func (h *Hub) Join(id string, req JoinRequest) error {
	room := strings.TrimSpace(req.Room)
	name := strings.TrimSpace(req.Name)
	if room == "" || name == "" {
		return ErrInvalidJoin
	}

	h.mu.Lock()
	joiner, registered := h.conns[id]
	if !registered {
		h.mu.Unlock()
		return fmt.Errorf("connection %s is not registered", id)
	}

	var dep *departure
	if old, ok := h.occupancy[id]; ok {
		dep = h.removeMemberLocked(id, old)
	}

	rs, ok := h.rooms[room]
	if !ok {
		rs = &roomState{name: room, members: make(map[string]*memberRecord)}
		h.rooms[room] = rs
	}
	member := Member{
		SocketID:     id,
		UserName:     name,
		JoiningTime:  req.JoiningTime,
		ProfileImage: req.ProfileImage,
	}
	rs.members[id] = &memberRecord{member: member, joinedAt: time.Now()}
	h.occupancy[id] = room

	others := h.roomSinksLocked(room, id)
	roomSinks := h.roomSinksLocked(room, "")
	snapshot := h.roomSnapshotLocked(room)
	listing := h.globalListingLocked()
	everyone := h.allSinksLocked()
	h.mu.Unlock()

	joiner.Deliver(mustEvent(EventRoomJoined, RoomJoined{
		Room:         room,
		SocketID:     id,
		UserName:     name,
		JoiningTime:  req.JoiningTime,
		ProfileImage: req.ProfileImage,
	}))
	deliverAll(others, mustEvent(EventUserJoined, member))
	deliverAll(roomSinks, mustEvent(EventActiveUsers, snapshot))
	if dep != nil {
		dep.announce()
	}
	deliverAll(everyone, mustEvent(EventRoomsWithMembers, listing))

	h.metrics.IncJoin()
	return nil
}

// Leave removes the connection from the named room. It fails with
// ErrNotInRoom when the connection is not currently a member of that room;
// the check and the removal happen under one lock, so a failed leave has no
// side effects.
func (h *Hub) Leave(id, room string) error {
	h.mu.Lock()
	if room == "" || h.occupancy[id] != room {
		h.mu.Unlock()
		return ErrNotInRoom
	}
	dep := h.removeMemberLocked(id, room)
	delete(h.occupancy, id)
	listing := h.globalListingLocked()
	everyone := h.allSinksLocked()
	h.mu.Unlock()

	if dep != nil {
		dep.announce()
	}
	deliverAll(everyone, mustEvent(EventRoomsWithMembers, listing))
	return nil
}

// departure captures everything needed to notify a room after one of its
// members went away, collected while the hub lock was held.
type departure struct {
	member    Member
	remaining []EventSink
	snapshot  []Member
}

func (d *departure) announce() {
	if d == nil || len(d.remaining) == 0 {
		return
	}
	deliverAll(d.remaining, mustEvent(EventUserLeft, UserLeft{
		SocketID: d.member.SocketID,
		UserName: d.member.UserName,
	}))
	deliverAll(d.remaining, mustEvent(EventActiveUsers, d.snapshot))
}

// removeMemberLocked deletes the member and destroys the room when it becomes
// empty. Callers hold h.mu and own the occupancy bookkeeping.
func (h *Hub) removeMemberLocked(id, room string) *departure {
	rs, ok := h.rooms[room]
	if !ok {
		return nil
	}
	rec, ok := rs.members[id]
	if !ok {
		return nil
	}
	delete(rs.members, id)
	if len(rs.members) == 0 {
		delete(h.rooms, room)
		h.tracker.dropRoom(room)
		return &departure{member: rec.member}
	}
	return &departure{
		member:    rec.member,
		remaining: h.roomSinksLocked(room, ""),
		snapshot:  h.roomSnapshotLocked(room),
	}
}

// Dispatch decodes an inbound envelope and routes it to the matching hub
// operation. Any failure is reported back to the originating connection only,
// on the error channel that matches the operation.
func (h *Hub) Dispatch(id string, event Event) {
	var err error
	switch event.Kind {
	case EventJoinRoom:
		var req JoinRequest
		if err = event.DecodeInto(&req); err == nil {
			err = h.Join(id, req)
		}
	case EventLeaveRoom:
		var req LeaveRequest
		if err = event.DecodeInto(&req); err == nil {
			err = h.Leave(id, req.Room)
		}
	case EventMessageSend:
		var msg ChatMessage
		if err = event.DecodeInto(&msg); err == nil {
			err = h.Send(id, msg)
		}
	case EventMessageDelivered:
		var receipt DeliveryReceipt
		if err = event.DecodeInto(&receipt); err == nil {
			err = h.AckDelivered(id, receipt)
		}
	case EventMessagesSeen:
		var notice SeenNotice
		if err = event.DecodeInto(&notice); err == nil {
			err = h.MarkSeen(id, notice)
		}
	case EventStartTyping:
		var sig TypingSignal
		if err = event.DecodeInto(&sig); err == nil {
			err = h.StartTyping(id, sig)
		}
	case EventStopTyping:
		var sig TypingSignal
		if err = event.DecodeInto(&sig); err == nil {
			err = h.StopTyping(id, sig)
		}
	default:
		err = fmt.Errorf("unsupported event %q", event.Kind)
	}
	if err != nil {
		h.metrics.IncError()
		h.sendTo(id, mustEvent(errorKindFor(event.Kind), ErrorNotice{Message: err.Error()}))
	}
}

func (h *Hub) sendTo(id string, event Event) {
	h.mu.RLock()
	sink := h.conns[id]
	h.mu.RUnlock()
	if sink != nil {
		sink.Deliver(event)
	}
}

func deliverAll(sinks []EventSink, event Event) {
	for _, sink := range sinks {
		// a sink that reports false has disconnected or fallen behind; the
		// broadcast skips it without failing.
		sink.Deliver(event)
	}
}

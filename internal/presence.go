package internal

import "sort"

// Presence derivation. Snapshots are pure functions of the directory: the
// full member list of one room, or the full room->members listing for every
// room that still has members. Whole-state broadcasts are deliberate — a
// client that missed an update is corrected by the next one.

// roomSnapshotLocked returns the room's members ordered by join time, ties
// broken by socket id so the listing is deterministic.
func (h *Hub) roomSnapshotLocked(room string) []Member {
	rs, ok := h.rooms[room]
	if !ok {
		return nil
	}
	records := make([]*memberRecord, 0, len(rs.members))
	for _, rec := range rs.members {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].joinedAt.Equal(records[j].joinedAt) {
			return records[i].member.SocketID < records[j].member.SocketID
		}
		return records[i].joinedAt.Before(records[j].joinedAt)
	})
	members := make([]Member, len(records))
	for i, rec := range records {
		members[i] = rec.member
	}
	return members
}

// globalListingLocked builds the rooms_with_members payload: a single
// listing wrapped in a slice, or an empty slice when no room has members.
func (h *Hub) globalListingLocked() []RoomListing {
	if len(h.rooms) == 0 {
		return []RoomListing{}
	}
	listing := make(RoomListing, len(h.rooms))
	for name := range h.rooms {
		listing[name] = h.roomSnapshotLocked(name)
	}
	return []RoomListing{listing}
}

func (h *Hub) roomSinksLocked(room, except string) []EventSink {
	rs, ok := h.rooms[room]
	if !ok {
		return nil
	}
	sinks := make([]EventSink, 0, len(rs.members))
	for id := range rs.members {
		if id == except {
			continue
		}
		if sink, ok := h.conns[id]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

func (h *Hub) allSinksLocked() []EventSink {
	sinks := make([]EventSink, 0, len(h.conns))
	for _, sink := range h.conns {
		sinks = append(sinks, sink)
	}
	return sinks
}

// RoomExists reports whether the room currently has members, without
// creating it. Backs the lightweight /exists endpoint.
func (h *Hub) RoomExists(room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room]
	return ok
}

// GlobalListing returns the current global snapshot for the HTTP surface.
func (h *Hub) GlobalListing() []RoomListing {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.globalListingLocked()
}

// MemberCount returns the current size of a room's member set.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rs, ok := h.rooms[room]; ok {
		return len(rs.members)
	}
	return 0
}

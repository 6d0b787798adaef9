package internal

// Typing signals are relayed stateless and in arrival order. Debouncing and
// stop-after-idle timing belong to the emitting client, not to the relay.

// StartTyping tells every other member of the room that this connection is
// composing. A signal from a non-member is rejected.
func (h *Hub) StartTyping(id string, sig TypingSignal) error {
	return h.relayTyping(id, sig, EventUserTyping)
}

// StopTyping tells every other member of the room that this connection
// stopped composing.
func (h *Hub) StopTyping(id string, sig TypingSignal) error {
	return h.relayTyping(id, sig, EventUserTypingStop)
}

func (h *Hub) relayTyping(id string, sig TypingSignal, kind EventKind) error {
	h.mu.RLock()
	inRoom := sig.Room != "" && h.occupancy[id] == sig.Room
	targets := h.roomSinksLocked(sig.Room, id)
	h.mu.RUnlock()

	if !inRoom {
		return ErrNotInRoom
	}
	deliverAll(targets, mustEvent(kind, TypingNotice{
		Name:         sig.Name,
		ProfileImage: sig.ProfileImage,
	}))
	h.metrics.IncTyping()
	return nil
}

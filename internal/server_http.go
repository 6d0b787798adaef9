package internal

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the HTTP surface: the websocket entry point plus a few
// plain endpoints for probing rooms and scraping counters.
func NewRouter(server *Server, wsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(wsPath, server.ServeWS)
	r.Get("/healthz", handleHealth)
	r.Get("/exists", server.handleRoomExists)
	r.Get("/rooms", server.handleRooms)
	r.Method(http.MethodGet, "/metrics", server.metrics)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleRoomExists checks for a live room without creating it.
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	if s.hub.RoomExists(room) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// handleRooms serves the same global snapshot the relay broadcasts, for
// callers that want it over plain HTTP.
func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.hub.GlobalListing())
}

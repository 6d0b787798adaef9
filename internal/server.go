package internal

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the relay carries no credentials, so cross-origin dials are fine.
		return true
	},
}

// Server owns one hub and its metrics and exposes the websocket entry point.
type Server struct {
	hub     *Hub
	metrics *Metrics
}

func NewServer() *Server {
	metrics := NewMetrics()
	return &Server{
		hub:     NewHub(metrics),
		metrics: metrics,
	}
}

// Hub exposes the coordinator, mainly so embedding callers and tests can
// inspect state.
func (s *Server) Hub() *Hub { return s.hub }

// ServeWS upgrades the request and hands the connection to the hub. Every
// connection gets a fresh uuid that is its socketId for the whole session.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}
	client := newClient(uuid.NewString(), s.hub, conn)
	s.hub.Connect(client)

	go client.writePump()
	go client.readPump()
}

package internal

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

type Metrics struct {
	connsTotal      atomic.Uint64
	activeConns     atomic.Int64
	joins           atomic.Uint64
	messages        atomic.Uint64
	deliveryUpdates atomic.Uint64
	typingSignals   atomic.Uint64
	relayErrors     atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncConn() {
	m.connsTotal.Add(1)
	m.activeConns.Add(1)
}

func (m *Metrics) DecConn() {
	m.activeConns.Add(-1)
}

func (m *Metrics) IncJoin() {
	m.joins.Add(1)
}

func (m *Metrics) IncMessage() {
	m.messages.Add(1)
}

func (m *Metrics) IncDelivery() {
	m.deliveryUpdates.Add(1)
}

func (m *Metrics) IncTyping() {
	m.typingSignals.Add(1)
}

func (m *Metrics) IncError() {
	m.relayErrors.Add(1)
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"connections_total":      m.connsTotal.Load(),
		"active_connections":     m.activeConns.Load(),
		"joins_total":            m.joins.Load(),
		"messages_relayed":       m.messages.Load(),
		"delivery_updates_total": m.deliveryUpdates.Load(),
		"typing_signals_total":   m.typingSignals.Load(),
		"relay_errors_total":     m.relayErrors.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

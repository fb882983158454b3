package server

import "sync"

// Hub routes engine broadcast frames to participant connections. One
// channel per participant name; a reconnecting participant replaces
// the prior channel, which is closed so the stale writer exits.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]chan []byte)}
}

// Register returns the outbound channel for the named participant,
// displacing any existing connection.
func (h *Hub) Register(name string) chan []byte {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	if old, ok := h.conns[name]; ok {
		close(old)
	}
	h.conns[name] = ch
	h.mu.Unlock()
	return ch
}

// Unregister removes the channel if it is still the active one for the
// name. Returns true when this caller owned the registration.
func (h *Hub) Unregister(name string, ch chan []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[name] != ch {
		return false
	}
	delete(h.conns, name)
	close(ch)
	return true
}

// Broadcast delivers one frame per participant. Slow consumers drop
// frames; the next broadcast supersedes them anyway.
func (h *Hub) Broadcast(frames map[string][]byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for name, data := range frames {
		ch, ok := h.conns[name]
		if !ok {
			continue
		}
		select {
		case ch <- data:
		default:
		}
	}
}

// Kick closes the named participant's connection, if any. Used when
// the engine forfeits a seat.
func (h *Hub) Kick(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.conns[name]; ok {
		close(ch)
		delete(h.conns, name)
	}
}

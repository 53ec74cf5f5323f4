// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package web serves the display and keypad to browsers over a websocket.
// Frames go out as 256 byte binary messages in the machine's display
// layout; key events come back as two bytes, the key index and 1 for down
// or 0 for up.
package web

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/gorilla/websocket"

	"github.com/lassandro/gochip8/pkg/machine"
)

//go:embed index.html
var indexPage []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64,
	WriteBufferSize: machine.SCREEN_SIZE * 2,
}

type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
	frame   machine.Frame
	hash    uint64
	sent    bool
	mux     *http.ServeMux
}

func NewHub() *Hub {
	h := &Hub{clients: make(map[*client]bool)}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/", h.serveIndex)
	h.mux.HandleFunc("/ws", h.serveSocket)

	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Hub) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (h *Hub) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)

	if err != nil {
		// Upgrade has already replied with an error status
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 4),
	}

	h.mu.Lock()
	h.clients[c] = true

	// Late joiners start from the current picture
	if h.sent {
		frame := h.frame
		c.send <- frame[:]
	}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Render broadcasts frame to every client unless it matches the previous
// one. A client that has fallen behind misses the frame rather than
// stalling the machine.
func (h *Hub) Render(frame machine.Frame) error {
	hash := xxhash.Sum64(frame[:])

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sent && hash == h.hash {
		return nil
	}

	h.frame = frame
	h.hash = hash
	h.sent = true

	for c := range h.clients {
		message := frame

		select {
		case c.send <- message[:]:
		default:
		}
	}

	return nil
}

// PollKeys merges the keys held by every connected client.
func (h *Hub) PollKeys() machine.KeyState {
	var keys [machine.NUM_KEYS]bool

	h.mu.Lock()
	for c := range h.clients {
		for i, down := range c.keys {
			keys[i] = keys[i] || down
		}
	}
	h.mu.Unlock()

	return machine.NewKeyState(keys)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

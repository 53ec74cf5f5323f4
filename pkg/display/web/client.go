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

package web

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/lassandro/gochip8/pkg/machine"
)

const writeWait = time.Second

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Guarded by hub.mu
	keys [machine.NUM_KEYS]bool
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		kind, message, err := c.conn.ReadMessage()

		if err != nil {
			return
		}

		if kind != websocket.BinaryMessage || len(message) != 2 {
			continue
		}

		if key := message[0]; key < machine.NUM_KEYS {
			c.hub.mu.Lock()
			c.keys[key] = message[1] != 0
			c.hub.mu.Unlock()
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

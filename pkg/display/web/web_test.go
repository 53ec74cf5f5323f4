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

package web_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lassandro/gochip8/pkg/display/web"
	"github.com/lassandro/gochip8/pkg/machine"
)

func frameWith(pixels ...[2]uint8) machine.Frame {
	var mem machine.Memory
	mem.Reset()

	for _, p := range pixels {
		mem.FlipPixel(p[0], p[1])
	}

	return mem.Display()
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	kind, message, err := conn.ReadMessage()

	if err != nil {
		t.Fatal(err)
	}

	if kind != websocket.BinaryMessage {
		t.Fatalf("Message type mismatch\nwant:%d\nhave:%d", websocket.BinaryMessage, kind)
	}

	return message
}

// Polls until the merged key state satisfies cond
func waitKeys(t *testing.T, hub *web.Hub, cond func(machine.KeyState) bool) machine.KeyState {
	deadline := time.Now().Add(2 * time.Second)

	for {
		state := hub.PollKeys()

		if cond(state) {
			return state
		}

		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for key state, last:%+v", state)
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestIndex(t *testing.T) {
	server := httptest.NewServer(web.NewHub())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")

	if err != nil {
		t.Fatal(err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("<canvas")) {
		t.Fatalf("Index mismatch\nwant:200 with canvas\nhave:%d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/missing")

	if err != nil {
		t.Fatal(err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want:%d\nhave:%d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestFrames(t *testing.T) {
	hub := web.NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	first := frameWith([2]uint8{0, 0})
	second := frameWith([2]uint8{1, 0})

	hub.Render(first)

	conn := dial(t, server)

	if have := readFrame(t, conn); !bytes.Equal(have, first[:]) {
		t.Fatalf("Initial frame mismatch\nwant:% X\nhave:% X", first[:8], have[:8])
	}

	// A repeated frame is not sent, so the next message is the second one
	hub.Render(first)
	hub.Render(second)

	if have := readFrame(t, conn); !bytes.Equal(have, second[:]) {
		t.Fatalf("Frame mismatch\nwant:% X\nhave:% X", second[:8], have[:8])
	}
}

func TestKeys(t *testing.T) {
	hub := web.NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	a := dial(t, server)
	b := dial(t, server)

	send := func(conn *websocket.Conn, message ...byte) {
		if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			t.Fatal(err)
		}
	}

	send(a, 0x5, 1)
	send(b, 0x9, 1)
	send(b, 0x20, 1)
	send(b, 0x1)

	state := waitKeys(t, hub, func(s machine.KeyState) bool {
		return s.Keys[0x5] && s.Keys[0x9]
	})

	if state.Latest != 0x9 {
		t.Fatalf("Latest mismatch\nwant:9\nhave:%d", state.Latest)
	}

	send(b, 0x9, 0)

	state = waitKeys(t, hub, func(s machine.KeyState) bool {
		return !s.Keys[0x9]
	})

	if state.Latest != 0x5 {
		t.Fatalf("Latest mismatch\nwant:5\nhave:%d", state.Latest)
	}

	// Keys held by a client are released when it disconnects
	a.Close()

	state = waitKeys(t, hub, func(s machine.KeyState) bool {
		return !s.Keys[0x5]
	})

	if state.Latest != machine.KEY_NONE {
		t.Fatalf("Latest mismatch\nwant:%d\nhave:%d", machine.KEY_NONE, state.Latest)
	}
}

func TestMachine(t *testing.T) {
	hub := web.NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn := dial(t, server)

	// Wait for the client to register before the machine renders
	hub.Render(frameWith())
	readFrame(t, conn)

	mc := machine.New()
	mc.Renderer = hub
	mc.Keys = hub

	// LD V0, 0; LD F, V0; DRW V0, V0, 5
	if err := mc.Load([]byte{0x60, 0x00, 0xF0, 0x29, 0xD0, 0x05}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	frame := readFrame(t, conn)

	// Top row of the "0" glyph
	if frame[0] != 0xF0 {
		t.Fatalf("Glyph mismatch\nwant:0xF0\nhave:%#02x", frame[0])
	}
}

func serve(t *testing.T, ctx context.Context, words ...uint16) (net.Addr, <-chan error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")

	if err != nil {
		t.Fatal(err)
	}

	image := make([]byte, 0, len(words)*2)
	for _, word := range words {
		image = append(image, uint8(word>>8), uint8(word))
	}

	mc := machine.New()
	if err := mc.Load(image); err != nil {
		t.Fatal(err)
	}

	result := make(chan error, 1)

	go func() {
		result <- web.NewHub().Serve(ctx, listener, mc)
	}()

	return listener.Addr(), result
}

func waitResult(t *testing.T, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}

	return nil
}

func TestServe(t *testing.T) {
	t.Run("Fault", func(t *testing.T) {
		_, result := serve(t, context.Background(), 0xFFFF)

		var unknown *machine.UnknownInstructionError
		if err := waitResult(t, result); !errors.As(err, &unknown) {
			t.Fatalf("Error mismatch\nwant:*machine.UnknownInstructionError\nhave:%v", err)
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		_, result := serve(t, ctx, 0x1200)

		cancel()

		if err := waitResult(t, result); !errors.Is(err, context.Canceled) {
			t.Fatalf("Error mismatch\nwant:%v\nhave:%v", context.Canceled, err)
		}
	})

	t.Run("Halt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr, result := serve(t, ctx, 0x0000)

		select {
		case err := <-result:
			t.Fatalf("Serve returned after halt: %v", err)
		case <-time.After(100 * time.Millisecond):
		}

		resp, err := http.Get("http://" + addr.String() + "/")

		if err != nil {
			t.Fatal(err)
		}

		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Status mismatch\nwant:%d\nhave:%d", http.StatusOK, resp.StatusCode)
		}

		cancel()

		if err := waitResult(t, result); err != nil {
			t.Fatalf("Error mismatch\nwant:<nil>\nhave:%v", err)
		}
	})
}

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

package main

import (
	"context"
	"log"
	"net"
	"os"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/display/web"
	"github.com/lassandro/gochip8/pkg/display/window"
	"github.com/lassandro/gochip8/pkg/keyboard"
	"github.com/lassandro/gochip8/pkg/machine"
)

// Raw mode swallows SIGINT, so Ctrl-C arrives as a byte on the keyboard
func runTerminal(ctx context.Context, mc *machine.Machine) error {
	if err := display.CheckSize(int(os.Stdout.Fd())); err != nil {
		return err
	}

	screen := display.NewTerminal(os.Stdout)
	mc.Renderer = screen

	if err := screen.Clear(); err != nil {
		return err
	}

	kb, err := keyboard.Open(int(os.Stdin.Fd()))

	if err != nil {
		return err
	}

	defer kb.Close()

	mc.Keys = kb

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-kb.Interrupted():
			cancel()
		case <-ctx.Done():
		}
	}()

	return mc.Run(ctx)
}

// The window owns the main goroutine, so the machine runs beside it and is
// cancelled when the window closes
func runWindow(ctx context.Context, mc *machine.Machine, title string) error {
	win := window.New("gochip8 - "+title, scalevar)
	mc.Renderer = win
	mc.Keys = win

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)

	go func() {
		result <- mc.Run(ctx)
	}()

	if err := win.Run(); err != nil {
		cancel()
		<-result
		return err
	}

	cancel()

	return <-result
}

// Keeps serving the final frame after the machine halts until interrupted
func runWeb(ctx context.Context, mc *machine.Machine) error {
	listener, err := net.Listen("tcp", addrvar)

	if err != nil {
		return err
	}

	log.Printf("serving on http://%s, Ctrl-C to stop", listener.Addr())

	return web.NewHub().Serve(ctx, listener, mc)
}

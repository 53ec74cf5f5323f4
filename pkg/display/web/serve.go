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
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Serve runs mc with the hub as its display and keypad while serving the hub
// on listener. A halted machine keeps its final frame up until ctx is done.
// A fault or a cancelled run returns as soon as the machine stops.
func (h *Hub) Serve(ctx context.Context, listener net.Listener, mc *machine.Machine) error {
	mc.Renderer = h
	mc.Keys = h

	server := &http.Server{Handler: h}
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.Serve(listener)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		h.Close()
		server.Shutdown(shutdownCtx)
	}()

	if err := mc.Run(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	return nil
}

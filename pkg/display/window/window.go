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

//go:build !headless

// Package window shows the display in a desktop window and reads the keypad
// from the physical keyboard.
package window

import (
	"bytes"
	"log"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/machine"
)

// Physical key for each keypad index, matching the terminal layout
var keymap = [machine.NUM_KEYS]ebiten.Key{
	ebiten.KeyX,
	ebiten.KeyDigit1,
	ebiten.KeyDigit2,
	ebiten.KeyDigit3,
	ebiten.KeyQ,
	ebiten.KeyW,
	ebiten.KeyE,
	ebiten.KeyA,
	ebiten.KeyS,
	ebiten.KeyD,
	ebiten.KeyZ,
	ebiten.KeyC,
	ebiten.KeyDigit4,
	ebiten.KeyR,
	ebiten.KeyF,
	ebiten.KeyV,
}

type Window struct {
	Title string
	Scale int

	mu     sync.RWMutex
	frame  machine.Frame
	pixels []byte
	keys   [machine.NUM_KEYS]bool
	image  *ebiten.Image
}

func New(title string, scale int) *Window {
	return &Window{
		Title:  title,
		Scale:  max(scale, 1),
		pixels: display.RGBA(machine.Frame{}),
	}
}

// Render may be called from any goroutine.
func (w *Window) Render(frame machine.Frame) error {
	pixels := display.RGBA(frame)

	w.mu.Lock()
	w.frame = frame
	w.pixels = pixels
	w.mu.Unlock()

	return nil
}

func (w *Window) PollKeys() machine.KeyState {
	w.mu.RLock()
	keys := w.keys
	w.mu.RUnlock()

	return machine.NewKeyState(keys)
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(machine.SCREEN_WIDTH*w.Scale, machine.SCREEN_HEIGHT*w.Scale)
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	return ebiten.RunGame(w)
}

func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	var keys [machine.NUM_KEYS]bool

	for i, key := range keymap {
		keys[i] = ebiten.IsKeyPressed(key)
	}

	w.mu.Lock()
	w.keys = keys
	frame := w.frame
	w.mu.Unlock()

	// Dialogs and the clipboard block, keep them off the game loop
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		go saveScreenshot(frame, w.Scale)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		go copyScreenshot(frame, w.Scale)
	}

	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT)
	}

	w.mu.RLock()
	w.image.WritePixels(w.pixels)
	w.mu.RUnlock()

	screen.DrawImage(w.image, nil)
}

func (w *Window) Layout(_, _ int) (int, int) {
	return machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT
}

// PickFile asks for a program to run.
func PickFile(startDir string) (string, error) {
	return dialog.File().
		Filter("CHIP-8 programs", "ch8", "c8", "asm", "s", "gz", "xz", "zst", "lz4", "zip", "7z").
		SetStartDir(startDir).
		Title("Open program").
		Load()
}

var clipboardOnce sync.Once
var clipboardErr error

func copyScreenshot(frame machine.Frame, scale int) {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})

	if clipboardErr != nil {
		log.Println(clipboardErr)
		return
	}

	var buffer bytes.Buffer

	if err := display.WritePNG(&buffer, frame, scale); err != nil {
		log.Println(err)
		return
	}

	clipboard.Write(clipboard.FmtImage, buffer.Bytes())
}

func saveScreenshot(frame machine.Frame, scale int) {
	filename, err := dialog.File().Filter("PNG Image", "png").Title("Save Image").Save()

	if err != nil {
		if err != dialog.ErrCancelled {
			log.Println(err)
		}

		return
	}

	file, err := os.Create(filename)

	if err != nil {
		log.Println(err)
		return
	}

	defer file.Close()

	if err := display.WritePNG(file, frame, scale); err != nil {
		log.Println(err)
	}
}

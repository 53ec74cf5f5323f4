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

package display

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/lassandro/gochip8/pkg/machine"
)

var (
	ColorOn  = color.Gray{Y: 0xFF}
	ColorOff = color.Gray{Y: 0x00}
)

// Image converts a frame into a 64x32 grayscale image.
func Image(frame machine.Frame) *image.Gray {
	img := image.NewGray(
		image.Rect(0, 0, machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT),
	)

	for y := 0; y < machine.SCREEN_HEIGHT; y++ {
		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			if frame.Pixel(x, y) {
				img.SetGray(x, y, ColorOn)
			} else {
				img.SetGray(x, y, ColorOff)
			}
		}
	}

	return img
}

// Screenshot returns the frame enlarged by scale with nearest neighbour
// sampling so pixels stay square. A scale below 1 is treated as 1.
func Screenshot(frame machine.Frame, scale int) *image.Gray {
	src := Image(frame)

	if scale <= 1 {
		return src
	}

	dst := image.NewGray(
		image.Rect(0, 0, machine.SCREEN_WIDTH*scale, machine.SCREEN_HEIGHT*scale),
	)

	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return dst
}

// RGBA expands a frame into 8-bit RGBA pixels, row-major, for texture
// uploads.
func RGBA(frame machine.Frame) []byte {
	pixels := make([]byte, 0, machine.SCREEN_WIDTH*machine.SCREEN_HEIGHT*4)

	for y := 0; y < machine.SCREEN_HEIGHT; y++ {
		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			c := ColorOff

			if frame.Pixel(x, y) {
				c = ColorOn
			}

			pixels = append(pixels, c.Y, c.Y, c.Y, 0xFF)
		}
	}

	return pixels
}

func WritePNG(w io.Writer, frame machine.Frame, scale int) error {
	return png.Encode(w, Screenshot(frame, scale))
}

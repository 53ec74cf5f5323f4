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
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/display/window"
	"github.com/lassandro/gochip8/pkg/loader"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var hzvar int
var uivar string
var addrvar string
var seedvar int64
var waitvar bool
var screenshotvar string
var scalevar int
var memdumpvar bool

const usage = "gochip8 [-ui term|window|web|none] [-hz rate] [-screenshot file.png] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.IntVar(
		&hzvar, "hz", machine.DEFAULT_HZ,
		"Instructions executed per second, a negative rate runs unpaced",
	)
	flag.StringVar(
		&uivar, "ui", "term",
		"Front end used for display and input: term, window, web or none",
	)
	flag.StringVar(&addrvar, "addr", ":8080", "Listen address for -ui web")
	flag.Int64Var(
		&seedvar, "seed", 0,
		"Seed for the random number instruction, 0 seeds from the clock",
	)
	flag.BoolVar(
		&waitvar, "wait", true,
		"Prints the program and waits for Enter before running it",
	)
	flag.StringVar(
		&screenshotvar, "screenshot", "",
		"Writes the final display to the given PNG file",
	)
	flag.IntVar(&scalevar, "scale", 8, "Pixel scale for -screenshot and -ui window")
	flag.BoolVar(
		&memdumpvar, "memdump", false,
		"Prints the whole address space once the machine stops",
	)
	flag.Parse()
}

func waitForEnter(name string, program []byte) error {
	fmt.Printf("%s\n\nProgram:\n", name)

	if err := machine.DumpProgram(os.Stdout, program); err != nil {
		return err
	}

	fmt.Print("\nPress Enter to start...")

	_, err := bufio.NewReader(os.Stdin).ReadString('\n')

	return err
}

func writeScreenshot(mc *machine.Machine) error {
	file, err := os.Create(screenshotvar)

	if err != nil {
		return err
	}

	defer file.Close()

	if err := display.WritePNG(file, mc.State.Memory.Display(), scalevar); err != nil {
		return err
	}

	return file.Close()
}

func gochip8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	// The window front end can ask for a program instead
	if len(args) == 0 && uivar == "window" {
		dir, _ := os.Getwd()
		filename, err := window.PickFile(dir)

		if err != nil {
			log.Println(err)
			return 1
		}

		args = []string{filename}
	}

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	program, err := loader.LoadFile(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	mc := machine.New()
	mc.Hz = hzvar

	if seedvar == 0 {
		seedvar = time.Now().UnixNano()
	}

	mc.Rand = rand.New(rand.NewSource(seedvar))

	if err := mc.Load(program); err != nil {
		log.Println(err)
		return 1
	}

	if waitvar {
		if err := waitForEnter(filepath.Base(args[0]), program); err != nil {
			log.Println(err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch uivar {
	case "term":
		err = runTerminal(ctx, mc)
	case "window":
		err = runWindow(ctx, mc, filepath.Base(args[0]))
	case "web":
		err = runWeb(ctx, mc)
	case "none":
		err = mc.Run(ctx)
	default:
		log.Printf("Unknown front end '%s'", uivar)
		return 1
	}

	status := 0

	var unknownErr *machine.UnknownInstructionError
	var underflowErr *machine.StackUnderflowError
	var addressErr *machine.AddressError

	switch {
	case err == nil:
		log.Printf("finished after %d instructions", mc.State.Cycles)
	case errors.Is(err, context.Canceled):
		log.Printf("interrupted after %d instructions", mc.State.Cycles)
	case errors.As(err, &unknownErr),
		errors.As(err, &underflowErr),
		errors.As(err, &addressErr):
		log.Printf("fault after %d instructions", mc.State.Cycles)
		log.Println(err)
		status = 1
	default:
		log.Println(err)
		status = 1
	}

	if memdumpvar {
		if err := machine.DumpMemory(os.Stdout, &mc.State.Memory); err != nil {
			log.Println(err)
			status = 1
		}
	}

	if screenshotvar != "" {
		if err := writeScreenshot(mc); err != nil {
			log.Println("Error writing screenshot")
			log.Println(err)
			status = 1
		}
	}

	return status
}

func main() {
	os.Exit(gochip8())
}

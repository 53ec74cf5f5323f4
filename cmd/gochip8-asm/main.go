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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var dumpvar bool
var outvar string

const usage = "gochip8-asm [-dump] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&dumpvar, "dump", false,
		"Prints the assembled program as address/instruction pairs",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

// Prints err with the offending source line and an underline beneath the
// token that caused it
func printTokenError(input io.ReadSeeker, err error) {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
		panic(err)
	}

	line, _ := bufio.NewReader(input).ReadString('\n')

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		int(cursor.Byte-cursor.LineByte)+1,
		strings.Repeat("~", max(int(cursor.Size)-1, 0)),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		strings.TrimRight(line, "\r\n"),
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func gochip8_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var input io.ReadSeeker

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.ch8"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid CHIP-8 assembly file", filename)
			return 1
		}

		input = file
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".ch8"
		}
	}

	result, errs := assembler.AssembleSource(input)

	if len(errs) > 0 {
		for _, err := range errs {
			if input == os.Stdin {
				log.Println(err)
			} else {
				printTokenError(input, err)
			}
		}

		return 1
	}

	if dumpvar {
		if err := machine.DumpProgram(os.Stdout, result); err != nil {
			log.Println(err)
			return 1
		}
	}

	if err := os.WriteFile(outvar, result, 0666); err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8_asm())
}

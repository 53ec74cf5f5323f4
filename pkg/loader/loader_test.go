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

package loader_test

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/lassandro/gochip8/pkg/loader"
)

var program = []byte{0x60, 0x05, 0x70, 0x03, 0x00, 0xE0}

type testCase struct {
	Name   string
	Input  func(t *testing.T) []byte
	Output []byte
}

func compress(t *testing.T, newWriter func(io.Writer) (io.WriteCloser, error), data []byte) []byte {
	var buffer bytes.Buffer

	writer, err := newWriter(&buffer)

	if err != nil {
		t.Fatal(err)
	}

	if _, err := writer.Write(data); err != nil {
		t.Fatal(err)
	}

	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	return buffer.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	return compress(t, func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	}, data)
}

func zipped(t *testing.T, name string, data []byte) []byte {
	var buffer bytes.Buffer

	archive := zip.NewWriter(&buffer)

	if _, err := archive.Create("roms/"); err != nil {
		t.Fatal(err)
	}

	file, err := archive.Create("roms/" + name)

	if err != nil {
		t.Fatal(err)
	}

	if _, err := file.Write(data); err != nil {
		t.Fatal(err)
	}

	if err := archive.Close(); err != nil {
		t.Fatal(err)
	}

	return buffer.Bytes()
}

func TestDecode(t *testing.T) {
	source := []byte("LD V0, 5\nADD V0, 3\nCLS\n")

	tests := map[string]testCase{
		"pong.ch8": {
			Name:   "Raw",
			Input:  func(t *testing.T) []byte { return program },
			Output: program,
		},
		"pong": {
			Name:   "No Extension",
			Input:  func(t *testing.T) []byte { return program },
			Output: program,
		},
		"pong.asm": {
			Name:   "Assembly",
			Input:  func(t *testing.T) []byte { return source },
			Output: program,
		},
		"pong.ch8.gz": {
			Name:   "Gzip",
			Input:  func(t *testing.T) []byte { return gzipped(t, program) },
			Output: program,
		},
		"pong.asm.GZ": {
			Name:   "Gzip Assembly",
			Input:  func(t *testing.T) []byte { return gzipped(t, source) },
			Output: program,
		},
		"pong.xz": {
			Name: "XZ",
			Input: func(t *testing.T) []byte {
				return compress(t, func(w io.Writer) (io.WriteCloser, error) {
					return xz.NewWriter(w)
				}, program)
			},
			Output: program,
		},
		"pong.zst": {
			Name: "Zstandard",
			Input: func(t *testing.T) []byte {
				return compress(t, func(w io.Writer) (io.WriteCloser, error) {
					return zstd.NewWriter(w)
				}, program)
			},
			Output: program,
		},
		"pong.lz4": {
			Name: "LZ4",
			Input: func(t *testing.T) []byte {
				return compress(t, func(w io.Writer) (io.WriteCloser, error) {
					return lz4.NewWriter(w), nil
				}, program)
			},
			Output: program,
		},
		"roms.zip": {
			Name:   "Zip",
			Input:  func(t *testing.T) []byte { return zipped(t, "pong.ch8", program) },
			Output: program,
		},
		"sources.zip": {
			Name:   "Zip Assembly",
			Input:  func(t *testing.T) []byte { return zipped(t, "pong.s", source) },
			Output: program,
		},
	}

	for name, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := loader.Decode(name, test.Input(t))

			if err != nil {
				t.Fatal(err)
			}

			if !bytes.Equal(have, test.Output) {
				t.Fatalf("want:% X\nhave:% X", test.Output, have)
			}
		})
	}
}

func TestDecodeFail(t *testing.T) {
	t.Run("Empty Zip", func(t *testing.T) {
		var buffer bytes.Buffer

		if err := zip.NewWriter(&buffer).Close(); err != nil {
			t.Fatal(err)
		}

		_, err := loader.Decode("empty.zip", buffer.Bytes())

		if !errors.Is(err, loader.ErrEmptyArchive) {
			t.Fatalf("want:%v\nhave:%v", loader.ErrEmptyArchive, err)
		}
	})

	t.Run("Corrupt Gzip", func(t *testing.T) {
		if _, err := loader.Decode("pong.gz", program); err == nil {
			t.Fatal("want:error\nhave:<nil>")
		}
	})

	t.Run("Oversized Payload", func(t *testing.T) {
		data := gzipped(t, make([]byte, loader.MAX_FILE_SIZE+1))

		_, err := loader.Decode("pong.gz", data)

		if !errors.Is(err, loader.ErrFileTooLarge) {
			t.Fatalf("want:%v\nhave:%v", loader.ErrFileTooLarge, err)
		}
	})

	t.Run("Nesting Too Deep", func(t *testing.T) {
		name, data := "pong.ch8", program

		for i := 0; i < loader.MAX_DEPTH; i++ {
			name, data = name+".gz", gzipped(t, data)
		}

		have, err := loader.Decode(name, data)

		if err != nil {
			t.Fatalf("%d layers\nwant:<nil>\nhave:%v", loader.MAX_DEPTH, err)
		}

		if !reflect.DeepEqual(have, program) {
			t.Fatalf("%d layers\nwant:%v\nhave:%v", loader.MAX_DEPTH, program, have)
		}

		_, err = loader.Decode(name+".gz", gzipped(t, data))

		if !errors.Is(err, loader.ErrNestingTooDeep) {
			t.Fatalf("want:%v\nhave:%v", loader.ErrNestingTooDeep, err)
		}
	})

	t.Run("Self Nested Zip", func(t *testing.T) {
		data := zipped(t, "pong.ch8", program)

		for i := 0; i < loader.MAX_DEPTH; i++ {
			data = zipped(t, "pong.zip", data)
		}

		_, err := loader.Decode("pong.zip", data)

		if !errors.Is(err, loader.ErrNestingTooDeep) {
			t.Fatalf("want:%v\nhave:%v", loader.ErrNestingTooDeep, err)
		}
	})

	t.Run("Assembly Errors", func(t *testing.T) {
		_, err := loader.Decode("bad.asm", []byte("JP NOWHERE\nLD V0"))

		var asmErr *loader.AssemblyError

		if !errors.As(err, &asmErr) {
			t.Fatalf("want:%T\nhave:%T", asmErr, err)
		}

		if have := len(asmErr.Errs); have != 2 {
			t.Fatalf("want:2 errors\nhave:%d", have)
		}
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pong.ch8.gz")

	if err := os.WriteFile(path, gzipped(t, program), 0666); err != nil {
		t.Fatal(err)
	}

	have, err := loader.LoadFile(path)

	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(have, program) {
		t.Fatalf("want:% X\nhave:% X", program, have)
	}

	if _, err := loader.LoadFile(filepath.Join(dir, "missing.ch8")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want:%v\nhave:%v", os.ErrNotExist, err)
	}
}

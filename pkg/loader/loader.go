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

// Package loader reads program images from disk. Compressed files and
// archives are unpacked by extension and assembly sources are assembled, so
// every path ends in a raw image ready for machine.Load.
package loader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/lassandro/gochip8/pkg/assembler"
)

// Upper bound on any decompressed payload
const MAX_FILE_SIZE = 1 << 20

// Number of nested archive layers unpacked before giving up
const MAX_DEPTH = 8

var ErrEmptyArchive = errors.New("Archive contains no files")
var ErrFileTooLarge = errors.New("Decompressed file too large")
var ErrNestingTooDeep = errors.New("Archive nesting too deep")

type AssemblyError struct {
	Name string
	Errs []error
}

func (err *AssemblyError) Error() string {
	return fmt.Sprintf("%s: %v", err.Name, errors.Join(err.Errs...))
}

func (err *AssemblyError) Unwrap() []error {
	return err.Errs
}

// LoadFile reads filename and decodes it by extension.
func LoadFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, err
	}

	return Decode(filepath.Base(filename), data)
}

// Decode unpacks data according to the extension of name. Nested
// extensions are peeled one at a time, i.e. pong.asm.gz is decompressed and
// then assembled. At most MAX_DEPTH layers are unpacked.
func Decode(name string, data []byte) ([]byte, error) {
	return decode(name, data, 0)
}

func decode(name string, data []byte, depth int) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(name))
	inner := strings.TrimSuffix(name, filepath.Ext(name))

	var decoder io.Reader

	switch ext {
	case ".asm", ".s", ".8s":
		image, errs := assembler.AssembleSource(bytes.NewReader(data))

		if len(errs) > 0 {
			return nil, &AssemblyError{name, errs}
		}

		return image, nil

	case ".gz":
		reader, err := gzip.NewReader(bytes.NewReader(data))

		if err != nil {
			return nil, err
		}

		defer reader.Close()
		decoder = reader

	case ".xz":
		reader, err := xz.NewReader(bytes.NewReader(data))

		if err != nil {
			return nil, err
		}

		decoder = reader

	case ".zst":
		reader, err := zstd.NewReader(bytes.NewReader(data))

		if err != nil {
			return nil, err
		}

		defer reader.Close()
		decoder = reader

	case ".lz4":
		decoder = lz4.NewReader(bytes.NewReader(data))

	case ".zip":
		archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))

		if err != nil {
			return nil, err
		}

		for _, file := range archive.File {
			if file.FileInfo().IsDir() {
				continue
			}

			reader, err := file.Open()

			if err != nil {
				return nil, err
			}

			defer reader.Close()
			decoder = reader
			inner = filepath.Base(file.Name)
			break
		}

	case ".7z":
		archive, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))

		if err != nil {
			return nil, err
		}

		for _, file := range archive.File {
			if file.FileInfo().IsDir() {
				continue
			}

			reader, err := file.Open()

			if err != nil {
				return nil, err
			}

			defer reader.Close()
			decoder = reader
			inner = filepath.Base(file.Name)
			break
		}

	default:
		return data, nil
	}

	if decoder == nil {
		return nil, ErrEmptyArchive
	}

	payload, err := io.ReadAll(io.LimitReader(decoder, MAX_FILE_SIZE+1))

	if err != nil {
		return nil, err
	}

	if len(payload) > MAX_FILE_SIZE {
		return nil, ErrFileTooLarge
	}

	if depth >= MAX_DEPTH {
		return nil, ErrNestingTooDeep
	}

	return decode(inner, payload, depth+1)
}

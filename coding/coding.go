// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package coding implements the low-level details of one fixed QR code
configuration: version 6 (41×41 modules), error correction level H,
data in byte mode preceded by an ECI header declaring UTF-8.

The configuration holds 60 data codewords in four blocks of 15, each
protected by 28 error correction codewords, for 172 codewords in all.
Three bytes go to the header and the length, leaving at most 57 bytes
of text.

Everything shared between calls (field tables, generator polynomial,
template) is built once and never written again, so Encode may be
called from any number of goroutines.
*/
package coding // import "github.com/promc/payqr/coding"

import (
	"errors"
	"fmt"
	"strings"

	"github.com/promc/payqr/gf256"
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// Parameters of the configuration.
const (
	Version    = 6                  // QR version
	Size       = Version*4 + 17     // modules on a side
	DataBytes  = 60                 // data codewords
	Blocks     = 4                  // error correction blocks
	BlockData  = DataBytes / Blocks // data codewords per block
	BlockCheck = 28                 // check codewords per block
	TotalBytes = DataBytes + Blocks*BlockCheck
	MaxContent = DataBytes - 3 // text bytes after header and length

	// DataHeader is ECI mode (0111), ECI assignment 26 (UTF-8,
	// 00011010) and byte mode (0100).
	DataHeader = 0x71a4

	// Remainder bits left after the codewords in version 6.
	remainderBits = 7
)

var (
	ErrCapacity = errors.New("qr: text too long")
	ErrMask     = errors.New("qr: invalid mask")
)

// CapacityError reports text whose UTF-8 form has more than MaxContent
// bytes.  It matches ErrCapacity with errors.Is.
type CapacityError int

func (e CapacityError) Error() string {
	return fmt.Sprintf("qr: %d bytes of text do not fit in %d",
		int(e), MaxContent)
}

func (e CapacityError) Is(target error) bool { return target == ErrCapacity }

// A Module is one cell of a QR matrix.
type Module uint8

const (
	Unset Module = iota // reserved for data, not yet written
	Light
	Dark
)

func (v Module) String() string {
	switch v {
	case Unset:
		return "unset"
	case Light:
		return "light"
	case Dark:
		return "dark"
	}
	return fmt.Sprintf("Module(%d)", uint8(v))
}

// A Matrix is a grid of modules indexed [row][column].  Matrix is an
// array, so assignment copies it.
type Matrix [Size][Size]Module

// At returns the module at row, col.  Outside the grid At returns
// Light, the colour of the quiet zone.
func (m *Matrix) At(row, col int) Module {
	if uint(row) >= Size || uint(col) >= Size {
		return Light
	}
	return m[row][col]
}

// Dark reports whether the module at row, col is dark.
func (m *Matrix) Dark(row, col int) bool { return m.At(row, col) == Dark }

// Count returns the number of modules with value v.
func (m *Matrix) Count(v Module) int {
	n := 0
	for i := range m {
		for _, w := range m[i] {
			if w == v {
				n++
			}
		}
	}
	return n
}

// Complete reports whether every module is Light or Dark.
func (m *Matrix) Complete() bool { return m.Count(Unset) == 0 }

// String renders m one character per module: '#' dark, '.' light,
// '?' unset.
func (m *Matrix) String() string {
	var b strings.Builder
	b.Grow((Size + 1) * Size)
	for i := range m {
		for _, v := range m[i] {
			b.WriteByte("?.#"[v%3])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DataCodewords returns the data codewords for text: the header, the
// length in bytes, the UTF-8 bytes of text, a zero terminator if there
// is room, and alternating pad bytes 0xec and 0x11.
//
// Invalid UTF-8 in text is replaced by U+FFFD so that the code holds
// what the ECI header declares.  Text longer than MaxContent bytes is
// rejected with a CapacityError.
func DataCodewords(text string) ([DataBytes]byte, error) {
	var d [DataBytes]byte
	s := strings.ToValidUTF8(text, "\uFFFD")
	if len(s) > MaxContent {
		return d, CapacityError(len(s))
	}
	d[0], d[1] = DataHeader>>8, DataHeader&0xff
	d[2] = byte(len(s))
	n := 3 + copy(d[3:], s)
	if n < DataBytes {
		d[n] = 0 // terminator
		n++
	}
	pad(d[n:])
	return d, nil
}

// pad fills buf with alternating pad codewords.
func pad(buf []byte) {
	for len(buf) >= 2 {
		buf[0], buf[1] = 0xec, 0x11
		buf = buf[2:]
	}
	if len(buf) > 0 {
		buf[0] = 0xec
	}
}

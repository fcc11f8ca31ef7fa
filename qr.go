// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes short text as a version 6 QR code at error
correction level H, with the text in UTF-8 behind an ECI header.

Encode and EncodeMask return a Code, the module matrix.  Rasterize
turns a Code into a square Bitmap of a requested pixel size, which can
be written as PBM or PNG or used as an image.Image.

All functions in this package are safe for concurrent use.
*/
package qr // import "github.com/promc/payqr"

import (
	"strings"

	"github.com/promc/payqr/coding"
)

// ErrCapacity is matched by errors from Encode when the text is longer
// than coding.MaxContent bytes of UTF-8.
var ErrCapacity = coding.ErrCapacity

// A Code is an encoded QR code.
type Code struct {
	Matrix coding.Matrix // every module Light or Dark
	Mask   coding.Mask   // mask the data was encoded with
}

// Encode returns the QR code for text with the default mask.
func Encode(text string) (*Code, error) {
	return EncodeMask(text, coding.DefaultMask)
}

// EncodeMask returns the QR code for text with the given mask.
func EncodeMask(text string, mask coding.Mask) (*Code, error) {
	m, err := coding.Encode(text, mask)
	if err != nil {
		return nil, err
	}
	return &Code{Matrix: *m, Mask: mask}, nil
}

// Size returns the number of modules on a side.
func (c *Code) Size() int { return coding.Size }

// Black returns true if the module at column x, row y is dark.
func (c *Code) Black(x, y int) bool { return c.Matrix.Dark(y, x) }

// quiet zone for String, in modules
const textBorder = 2

// String renders c for a terminal, two rows of modules per line of
// half block characters, dark modules drawn.
func (c *Code) String() string {
	const siz = coding.Size
	blocks := [4]string{" ", "▄", "▀", "█"}
	var b strings.Builder
	b.Grow((siz + 2*textBorder + 1) * (siz/2 + textBorder + 1) * 3)
	for y := -textBorder; y < siz+textBorder; y += 2 {
		for x := -textBorder; x < siz+textBorder; x++ {
			var i int
			if c.Black(x, y) {
				i |= 2
			}
			if c.Black(x, y+1) {
				i |= 1
			}
			b.WriteString(blocks[i])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

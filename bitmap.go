// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	"github.com/promc/payqr/coding"
)

// A Bitmap is a square 1 bit per pixel image of a code.  Rows are
// Stride bytes long, most significant bit first; 1 is dark.
type Bitmap struct {
	Pix    []byte
	Size   int // pixels on a side
	Stride int // bytes per row
	Scale  int // pixels per module
	Margin int // light pixels before the first module on each side
}

// Rasterize draws c on a size×size light canvas.  Each module becomes
// a square of size/41 pixels and the code is centred, leaving
// (size - 41*scale)/2 light pixels at the top and left.  Sizes below
// 41 are raised to 41.
func Rasterize(c *Code, size int) *Bitmap {
	const siz = coding.Size
	size = max(size, siz)
	scale := size / siz
	margin := (size - siz*scale) / 2
	stride := (size + 7) / 8
	b := &Bitmap{
		Pix:    make([]byte, stride*size),
		Size:   size,
		Stride: stride,
		Scale:  scale,
		Margin: margin,
	}
	srow := make([]byte, (siz+7)/8)
	slen := margin & 7
	for y := 0; y < siz; y++ {
		for i := range srow {
			srow[i] = 0
		}
		for x := 0; x < siz; x++ {
			if c.Black(x, y) {
				srow[x>>3] |= 0x80 >> (x & 7)
			}
		}
		top := (margin + y*scale) * stride
		row := b.Pix[top : top+stride]
		data := row[margin/8 : (margin+siz*scale+7)/8]
		// Bespoke fast encoders for common cases.
		switch {
		case scale == 8 && slen == 0:
			scaleRow8(data, srow)
		case scale == 4 && slen&3 == 0:
			scaleRow4(data, srow, slen)
		default:
			scaleRow(data, srow, scale, slen)
		}
		for i := 1; i < scale; i++ {
			copy(b.Pix[top+i*stride:], row)
		}
	}
	return b
}

// scaleRow8 scales a row of modules by 8.
func scaleRow8(row, srow []byte) {
	var b uint64
	for _, v := range srow {
		for i := 0; i < 8; i++ {
			b = b<<8 | uint64(-(v & 1))
			v >>= 1
		}
		if len(row) < 8 {
			break
		}
		binary.LittleEndian.PutUint64(row, b)
		row = row[8:]
	}
	if len(row) > 4 {
		binary.LittleEndian.PutUint32(row, uint32(b))
		b >>= 32
		row = row[4:]
	}
	for i := range row {
		row[i] = byte(b)
		b >>= 8
	}
}

// scaleRow4 scales a row of modules by 4, starting slen bits (0 or 4)
// into row.
func scaleRow4(row, srow []byte, slen int) {
	var b uint32
	var last uint16
	slen >>= 2
	for _, v := range srow {
		last |= uint16(v)
		b = uint32(byte(last>>slen)) * 01001001 & 0300070007 *
			0111 & 0x11111111 * 0xf
		last <<= 8
		if len(row) < 4 {
			break
		}
		binary.BigEndian.PutUint32(row, b)
		row = row[4:]
	}
	for i := range row {
		row[i] = byte(b >> 24)
		b <<= 8
	}
}

// scaleRow scales a row of modules by scale, starting slen bits into
// row.
func scaleRow(row, srow []byte, scale, slen int) {
	j := 0
	var z byte
	if scale == 1 {
		for _, v := range srow {
			row[j] = z | v>>slen
			z = v << (8 - slen)
			j++
		}
		if j < len(row) {
			row[j] = z
		}
		return
	}
	nz := slen
	for _, v := range srow {
		for i := 0; i < 8; i++ {
			bits := byte(int8(v) >> 7)
			v <<= 1
			shift := min(8-nz, scale)
			z = z<<shift | bits>>(8-shift)
			for nz += scale; nz >= 8; nz -= 8 {
				if j >= len(row) {
					return
				}
				row[j] = z
				z = bits
				j++
			}
		}
	}
}

// Black returns true if the pixel at (x,y) is dark.
func (b *Bitmap) Black(x, y int) bool {
	return 0 <= x && x < b.Size && 0 <= y && y < b.Size &&
		b.Pix[y*b.Stride+x/8]&(0x80>>uint(x&7)) != 0
}

// Image returns an Image displaying the bitmap.
func (b *Bitmap) Image() image.Image {
	return &bitmapImage{b}
}

// bitmapImage implements image.Image
type bitmapImage struct {
	*Bitmap
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (b *bitmapImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Size, b.Size)
}

func (b *bitmapImage) At(x, y int) color.Color {
	if b.Black(x, y) {
		return blackColor
	}
	return whiteColor
}

func (b *bitmapImage) ColorModel() color.Model {
	return color.GrayModel
}

// EncodePBM writes the bitmap to w as a raw Portable Bit Map, for use
// with netpbm.
func (b *Bitmap) EncodePBM(w io.Writer) error {
	bw := bufio.NewWriter(w)
	ls := strconv.Itoa(b.Size)
	if _, err := bw.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	// PBM rows have the same layout as Pix.
	if _, err := bw.Write(b.Pix); err != nil {
		return err
	}
	return bw.Flush()
}

var pngPalette = color.Palette{whiteColor, blackColor}

// EncodePNG writes the bitmap to w as a 1 bit per pixel PNG.
func (b *Bitmap) EncodePNG(w io.Writer) error {
	img := image.NewPaletted(image.Rect(0, 0, b.Size, b.Size), pngPalette)
	for y := 0; y < b.Size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Size; x++ {
			if b.Black(x, y) {
				row[x] = 1
			}
		}
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}

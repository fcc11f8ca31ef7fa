// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"sync"

	"github.com/promc/payqr/gf256"
)

// A Plan holds what every encoding shares: the template matrix and
// the Reed-Solomon encoder.  A Plan is never modified after GetPlan
// returns it.
type Plan struct {
	template Matrix
	rs       *gf256.RSEncoder
}

// The Plan is created the first time it is asked for.
var plan struct {
	once sync.Once
	p    *Plan
}

// GetPlan returns the Plan, building it on first use.
func GetPlan() *Plan {
	plan.once.Do(func() { plan.p = newPlan() })
	return plan.p
}

func newPlan() *Plan {
	p := &Plan{
		template: newTemplate(),
		rs:       gf256.NewRSEncoder(Field, BlockCheck),
	}
	if n := p.template.Count(Unset); n != TotalBytes*8+remainderBits {
		panic("qr: template has wrong number of data modules")
	}
	return p
}

// Template returns a copy of the template: function patterns set,
// format information reserved as Light, data modules Unset.
func (p *Plan) Template() Matrix { return p.template }

// newTemplate draws the function patterns.
func newTemplate() Matrix {
	var m Matrix

	// Timing patterns, overwritten by the position boxes at the ends.
	for i := 0; i < Size; i++ {
		v := Light
		if i%2 == 0 {
			v = Dark
		}
		m[6][i] = v
		m[i][6] = v
	}

	// Position boxes with separators.
	posBox(&m, 0, 0)
	posBox(&m, 0, Size-7)
	posBox(&m, Size-7, 0)

	// Alignment box.  Version 6 has one, centred at 34, 34.
	alignBox(&m, Size-7, Size-7)

	// Format information, written by WriteFormat.
	for i := range formatA {
		a, b := formatA[i], formatB[i]
		m[a.row][a.col] = Light
		m[b.row][b.col] = Light
	}

	// One lonely dark module
	m[Size-8][8] = Dark
	return m
}

// posBox draws a position (finder) box with its upper left corner at
// row, col and a light separator around it, clipped to the grid.
func posBox(m *Matrix, row, col int) {
	for i := -1; i <= 7; i++ {
		for j := -1; j <= 7; j++ {
			r, c := row+i, col+j
			if uint(r) >= Size || uint(c) >= Size {
				continue
			}
			// Chebyshev distance from the centre:
			// 0-1 core, 2 light ring, 3 dark ring, 4 separator.
			d := max(abs(i-3), abs(j-3))
			if d == 2 || d == 4 {
				m[r][c] = Light
			} else {
				m[r][c] = Dark
			}
		}
	}
}

// alignBox draws an alignment box centred at row, col.
func alignBox(m *Matrix, row, col int) {
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			v := Dark
			if max(abs(i), abs(j)) == 1 {
				v = Light
			}
			m[row+i][col+j] = v
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FinalCodewords splits data into blocks, appends the error correction
// codewords to each and interleaves the blocks.
func (p *Plan) FinalCodewords(data *[DataBytes]byte) [TotalBytes]byte {
	var src [TotalBytes]byte
	for i := 0; i < Blocks; i++ {
		blk := data[i*BlockData : (i+1)*BlockData]
		p.rs.ECC(blk, src[DataBytes+i*BlockCheck:])
	}
	copy(src[:], data[:])
	var dst [TotalBytes]byte
	interleave(dst[:DataBytes], src[:DataBytes], Blocks)
	interleave(dst[DataBytes:], src[DataBytes:], Blocks)
	return dst
}

// interleave interleaves nblock equal blocks from src to dst: byte j
// of block i goes to dst[j*nblock+i].
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
	}
}

// BitStream reads bits from the underlying buffer, most significant
// bit of each byte first.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Next returns the next bit from s as 0 or 1.
// Past end of buffer Next returns 0.
func (s *BitStream) Next() byte {
	var b byte
	if i := s.pos >> 3; i < len(s.b) {
		b = s.b[i] >> (7 &^ s.pos) & 1
	}
	s.pos++
	return b
}

// Pos returns the number of bits read so far, including those past
// the end of the buffer.
func (s *BitStream) Pos() int { return s.pos }

// Serialise writes bits from s, XORed with mask, to the Unset modules
// of m in zigzag scan order: from the bottom right corner, two columns
// at a time, right column first, alternately upwards and downwards,
// skipping the vertical timing column.
func Serialise(m *Matrix, s *BitStream, mask Mask) {
	up := true
	for x := Size - 1; x > 0; x -= 2 {
		if x == 6 { // vertical timing strip
			x--
		}
		for i := 0; i < Size; i++ {
			y := i
			if up {
				y = Size - 1 - i
			}
			for c := x; c >= x-1; c-- {
				if m[y][c] != Unset {
					continue
				}
				if (s.Next() != 0) != mask.Bit(y, c) {
					m[y][c] = Dark
				} else {
					m[y][c] = Light
				}
			}
		}
		up = !up
	}
}

// Encode returns the QR code for text with the given mask.
func (p *Plan) Encode(text string, mask Mask) (*Matrix, error) {
	data, err := DataCodewords(text)
	if err != nil {
		return nil, err
	}
	cw := p.FinalCodewords(&data)
	m := p.template
	WriteFormat(&m, mask)
	s := NewBitStream(cw[:])
	Serialise(&m, &s, mask)
	if s.Pos() != TotalBytes*8+remainderBits {
		panic("qr: internal error: wrong number of modules written")
	}
	return &m, nil
}

// Encode encodes text using the Plan with the given mask.
func Encode(text string, mask Mask) (*Matrix, error) {
	return GetPlan().Encode(text, mask)
}

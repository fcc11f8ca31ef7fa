// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "fmt"

// A Mask is one of the eight QR data mask patterns.  Masks can only be
// obtained from this package, so every Mask value is valid; the zero
// Mask is Mask0.
type Mask struct{ n uint8 }

// The mask patterns.
var (
	Mask0 = Mask{0}
	Mask1 = Mask{1}
	Mask2 = Mask{2}
	Mask3 = Mask{3}
	Mask4 = Mask{4}
	Mask5 = Mask{5}
	Mask6 = Mask{6}
	Mask7 = Mask{7}

	// DefaultMask is used when the caller does not choose one.
	DefaultMask = Mask1
)

// Masks returns all mask patterns in index order.
func Masks() [8]Mask {
	return [8]Mask{Mask0, Mask1, Mask2, Mask3, Mask4, Mask5, Mask6, Mask7}
}

// MaskError reports a mask index outside 0 to 7.  It matches ErrMask
// with errors.Is.
type MaskError int

func (e MaskError) Error() string {
	return fmt.Sprintf("qr: invalid mask %d", int(e))
}

func (e MaskError) Is(target error) bool { return target == ErrMask }

// MaskOf returns the mask with index n.
func MaskOf(n int) (Mask, error) {
	if n < 0 || n > 7 {
		return Mask{}, MaskError(n)
	}
	return Mask{uint8(n)}, nil
}

// Mask patterns:
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
//
// Each mask carries its format information for level H: the 5 bit
// level and mask number, BCH(15,5) coded and XORed with 0x5412.
var maskTab = [8]struct {
	bit    func(i, j int) bool // i is the row, j the column
	format uint16
}{
	{func(i, j int) bool { return (i+j)%2 == 0 }, 0x1689},
	{func(i, j int) bool { return i%2 == 0 }, 0x13be},
	{func(i, j int) bool { return j%3 == 0 }, 0x1ce7},
	{func(i, j int) bool { return (i+j)%3 == 0 }, 0x19d0},
	{func(i, j int) bool { return (i/2+j/3)%2 == 0 }, 0x0762},
	{func(i, j int) bool { return i*j%2+i*j%3 == 0 }, 0x0255},
	{func(i, j int) bool { return (i*j%2+i*j%3)%2 == 0 }, 0x0d0c},
	{func(i, j int) bool { return ((i+j)%2+i*j%3)%2 == 0 }, 0x083b},
}

// Index returns the mask number, 0 to 7.
func (m Mask) Index() int { return int(m.n & 7) }

func (m Mask) String() string { return fmt.Sprintf("mask %d", m.Index()) }

// Bit reports whether the mask inverts the module at row, col.
func (m Mask) Bit(row, col int) bool { return maskTab[m.Index()].bit(row, col) }

// Format returns the 15-bit format information for level H and m.
func (m Mask) Format() uint16 { return maskTab[m.Index()].format }

type pos struct{ row, col uint8 }

// Format information locations, indexed by bit number, bit 0 being
// the least significant.  formatA wraps around the top left finder
// pattern, skipping the timing row and column; formatB runs along the
// top right finder pattern and down the bottom left one.
var (
	formatA = [15]pos{
		{0, 8}, {1, 8}, {2, 8}, {3, 8}, {4, 8}, {5, 8}, {7, 8}, {8, 8},
		{8, 7}, {8, 5}, {8, 4}, {8, 3}, {8, 2}, {8, 1}, {8, 0},
	}
	formatB = [15]pos{
		{8, 40}, {8, 39}, {8, 38}, {8, 37}, {8, 36}, {8, 35}, {8, 34},
		{8, 33}, {34, 8}, {35, 8}, {36, 8}, {37, 8}, {38, 8}, {39, 8},
		{40, 8},
	}
)

// WriteFormat writes both copies of the format information for mask
// to m.
func WriteFormat(m *Matrix, mask Mask) {
	fb := mask.Format()
	for i := 0; i < 15; i++ {
		v := Light
		if fb>>i&1 != 0 {
			v = Dark
		}
		a, b := formatA[i], formatB[i]
		m[a.row][a.col] = v
		m[b.row][b.col] = v
	}
}

// ReadFormat returns both copies of the format information in m.
func ReadFormat(m *Matrix) (a, b uint16) {
	for i := 14; i >= 0; i-- {
		pa, pb := formatA[i], formatB[i]
		a <<= 1
		b <<= 1
		if m[pa.row][pa.col] == Dark {
			a |= 1
		}
		if m[pb.row][pb.col] == Dark {
			b |= 1
		}
	}
	return a, b
}

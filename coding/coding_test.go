// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

const payURL = "https://example/pay/123"

func TestDataCodewords(t *testing.T) {
	d, err := DataCodewords("hi")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x71, 0xa4, 2, 'h', 'i', 0}
	for i := len(want); i < DataBytes; i++ {
		want = append(want, [2]byte{0xec, 0x11}[(i-len("hi")-4)%2])
	}
	if diff := cmp.Diff(want, d[:]); diff != "" {
		t.Errorf("DataCodewords(\"hi\") (-want +got):\n%s", diff)
	}
}

func TestDataCodewordsUTF8(t *testing.T) {
	s := "支付¥"
	d, err := DataCodewords(s)
	if err != nil {
		t.Fatal(err)
	}
	if int(d[2]) != len(s) || string(d[3:3+len(s)]) != s {
		t.Errorf("content = %d % x, want %d % x",
			d[2], d[3:3+len(s)], len(s), s)
	}
	// invalid UTF-8 becomes U+FFFD
	d, err = DataCodewords("a\xffb")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(d[3 : 3+int(d[2])]); got != "a\uFFFDb" {
		t.Errorf("invalid UTF-8 encoded as %q", got)
	}
}

func TestDataCodewordsBoundary(t *testing.T) {
	for _, tt := range []struct {
		n    int
		tail []byte
	}{
		{0, nil},
		{54, []byte{0, 0xec, 0x11}},
		{55, []byte{0, 0xec}},
		{56, []byte{0}},
		{57, nil}, // no room for the terminator
	} {
		s := strings.Repeat("x", tt.n)
		d, err := DataCodewords(s)
		if err != nil {
			t.Errorf("%d bytes: %v", tt.n, err)
			continue
		}
		if d[2] != byte(tt.n) {
			t.Errorf("%d bytes: length byte %d", tt.n, d[2])
		}
		if tt.tail != nil {
			if got := d[3+tt.n:]; !bytes.Equal(got, tt.tail) {
				t.Errorf("%d bytes: tail % x, want % x",
					tt.n, got, tt.tail)
			}
		}
	}
	for _, n := range []int{58, 100, 300} {
		_, err := DataCodewords(strings.Repeat("x", n))
		var ce CapacityError
		if !errors.As(err, &ce) || int(ce) != n {
			t.Errorf("%d bytes: err = %v, want CapacityError", n, err)
		}
		if !errors.Is(err, ErrCapacity) {
			t.Errorf("%d bytes: %v is not ErrCapacity", n, err)
		}
	}
	// 19 three-byte runes are 57 bytes, 20 are too many.
	if _, err := DataCodewords(strings.Repeat("码", 19)); err != nil {
		t.Errorf("57 UTF-8 bytes: %v", err)
	}
	if _, err := DataCodewords(strings.Repeat("码", 20)); err == nil {
		t.Error("60 UTF-8 bytes: no error")
	}
}

func TestBitStream(t *testing.T) {
	s := NewBitStream([]byte{0xa5, 0x01})
	var got []byte
	for i := 0; i < 20; i++ {
		got = append(got, s.Next())
	}
	want := []byte{
		1, 0, 1, 0, 0, 1, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 1,
		0, 0, 0, 0, // past the end
	}
	if !bytes.Equal(got, want) {
		t.Errorf("bits = %v, want %v", got, want)
	}
	if s.Pos() != 20 {
		t.Errorf("Pos = %d, want 20", s.Pos())
	}
}

func TestInterleave(t *testing.T) {
	var data [DataBytes]byte
	for i := range data {
		data[i] = byte(i)
	}
	p := GetPlan()
	cw := p.FinalCodewords(&data)
	for j := 0; j < BlockData; j++ {
		for i := 0; i < Blocks; i++ {
			if got, want := cw[j*Blocks+i], byte(i*BlockData+j); got != want {
				t.Fatalf("cw[%d] = %d, want %d", j*Blocks+i, got, want)
			}
		}
	}
	for i := 0; i < Blocks; i++ {
		blk := p.rs.Encode(data[i*BlockData : (i+1)*BlockData])
		for j := 0; j < BlockCheck; j++ {
			k := DataBytes + j*Blocks + i
			if cw[k] != blk[BlockData+j] {
				t.Fatalf("cw[%d] = %#x, want check byte %d of block %d",
					k, cw[k], j, i)
			}
		}
	}
}

// calcFormat returns the BCH(15,5) code of the 5 format bits in fb.
func calcFormat(fb uint16) uint16 {
	const formatPoly = 0x537
	rem := fb
	for i := 4; i >= 0; i-- {
		if rem&((1<<10)<<i) != 0 {
			rem ^= formatPoly << i
		}
	}
	return fb | rem
}

func TestMaskFormat(t *testing.T) {
	for i, m := range Masks() {
		if m.Index() != i {
			t.Errorf("Masks()[%d].Index() = %d", i, m.Index())
		}
		fb := uint16(2)<<13 | uint16(i)<<10 // level H is 10
		if want := calcFormat(fb) ^ 0x5412; m.Format() != want {
			t.Errorf("mask %d format = %015b, want %015b",
				i, m.Format(), want)
		}
	}
	for _, n := range []int{-1, 8, 255} {
		if _, err := MaskOf(n); !errors.Is(err, ErrMask) {
			t.Errorf("MaskOf(%d) err = %v", n, err)
		}
	}
	if m, err := MaskOf(5); err != nil || m != Mask5 {
		t.Errorf("MaskOf(5) = %v, %v", m, err)
	}
	if (Mask{}) != Mask0 {
		t.Error("zero Mask is not Mask0")
	}
}

func TestMaskBits(t *testing.T) {
	// Top left 6x6 of each pattern; '#' inverts.
	want := [8][6]string{
		{"#.#.#.", ".#.#.#", "#.#.#.", ".#.#.#", "#.#.#.", ".#.#.#"},
		{"######", "......", "######", "......", "######", "......"},
		{"#..#..", "#..#..", "#..#..", "#..#..", "#..#..", "#..#.."},
		{"#..#..", "..#..#", ".#..#.", "#..#..", "..#..#", ".#..#."},
		{"###...", "###...", "...###", "...###", "###...", "###..."},
		{"######", "#.....", "#..#..", "#.#.#.", "#..#..", "#....."},
		{"######", "###...", "##.##.", "#.#.#.", "#.##.#", "#...##"},
		{"#.#.#.", "...###", "#...##", ".#.#.#", "###...", ".###.."},
	}
	for n, m := range Masks() {
		for i := 0; i < 6; i++ {
			var b strings.Builder
			for j := 0; j < 6; j++ {
				b.WriteByte(".#"[btoi(m.Bit(i, j))])
			}
			if got := b.String(); got != want[n][i] {
				t.Errorf("mask %d row %d = %s, want %s",
					n, i, got, want[n][i])
			}
		}
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

var finder = [7]string{
	"#######",
	"#.....#",
	"#.###.#",
	"#.###.#",
	"#.###.#",
	"#.....#",
	"#######",
}

// checkFunctionPatterns checks the parts of m that never change.
func checkFunctionPatterns(t *testing.T, m *Matrix) {
	t.Helper()
	for _, c := range [][2]int{{0, 0}, {0, Size - 7}, {Size - 7, 0}} {
		for i := -1; i <= 7; i++ {
			for j := -1; j <= 7; j++ {
				want := Light
				if i >= 0 && i < 7 && j >= 0 && j < 7 &&
					finder[i][j] == '#' {
					want = Dark
				}
				if got := m.At(c[0]+i, c[1]+j); got != want {
					t.Errorf("finder at %v: (%d,%d) = %v, want %v",
						c, c[0]+i, c[1]+j, got, want)
				}
			}
		}
	}
	for i := 8; i < Size-8; i++ {
		want := Light
		if i%2 == 0 {
			want = Dark
		}
		if m[6][i] != want || m[i][6] != want {
			t.Errorf("timing %d = %v, %v, want %v",
				i, m[6][i], m[i][6], want)
		}
	}
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			want := Dark
			if max(abs(i), abs(j)) == 1 {
				want = Light
			}
			if got := m[34+i][34+j]; got != want {
				t.Errorf("alignment (%d,%d) = %v, want %v",
					34+i, 34+j, got, want)
			}
		}
	}
	if m[Size-8][8] != Dark {
		t.Error("dark module is not dark")
	}
}

func TestTemplate(t *testing.T) {
	m := GetPlan().Template()
	checkFunctionPatterns(t, &m)
	if n := m.Count(Unset); n != 1383 {
		t.Errorf("%d data modules, want 1383", n)
	}
	for i := range formatA {
		a, b := formatA[i], formatB[i]
		if m[a.row][a.col] != Light || m[b.row][b.col] != Light {
			t.Errorf("format bit %d not reserved", i)
		}
	}
	// Template returns a copy.
	m[20][20] = Dark
	if GetPlan().template[20][20] != Unset {
		t.Error("Template shares storage with the Plan")
	}
}

func TestEncode(t *testing.T) {
	for _, mask := range Masks() {
		m, err := Encode(payURL, mask)
		if err != nil {
			t.Fatal(err)
		}
		if !m.Complete() {
			t.Errorf("%v: %d unset modules", mask, m.Count(Unset))
		}
		checkFunctionPatterns(t, m)
		a, b := ReadFormat(m)
		if a != mask.Format() || b != mask.Format() {
			t.Errorf("%v: format %015b %015b, want %015b",
				mask, a, b, mask.Format())
		}
	}
	if _, err := Encode(strings.Repeat("x", 58), DefaultMask); !errors.Is(err, ErrCapacity) {
		t.Errorf("58 bytes: err = %v", err)
	}
	if _, err := Encode(strings.Repeat("x", 57), DefaultMask); err != nil {
		t.Errorf("57 bytes: %v", err)
	}
}

// unmask recovers the codeword bits from m by walking the same zigzag
// path over the template.
func unmask(m *Matrix, mask Mask) []byte {
	tmpl := GetPlan().Template()
	out := make([]byte, TotalBytes)
	n := 0
	up := true
	for x := Size - 1; x > 0; x -= 2 {
		if x == 6 {
			x--
		}
		for i := 0; i < Size; i++ {
			y := i
			if up {
				y = Size - 1 - i
			}
			for c := x; c >= x-1; c-- {
				if tmpl[y][c] != Unset {
					continue
				}
				if n < TotalBytes*8 &&
					(m[y][c] == Dark) != mask.Bit(y, c) {
					out[n>>3] |= 0x80 >> (n & 7)
				}
				n++
			}
		}
		up = !up
	}
	return out
}

func TestPlacement(t *testing.T) {
	data, err := DataCodewords(payURL)
	if err != nil {
		t.Fatal(err)
	}
	want := GetPlan().FinalCodewords(&data)
	for _, mask := range Masks() {
		m, err := Encode(payURL, mask)
		if err != nil {
			t.Fatal(err)
		}
		if got := unmask(m, mask); !bytes.Equal(got, want[:]) {
			t.Errorf("%v: codewords read back differ:\n% x\nwant\n% x",
				mask, got, want)
		}
	}
	// The bottom right corner holds the top bit of 0x71, a 0,
	// inverted by mask 0.
	m, _ := Encode(payURL, Mask0)
	if m[Size-1][Size-1] != Dark {
		t.Errorf("corner = %v, want dark", m[Size-1][Size-1])
	}
}

func TestMaskIndependence(t *testing.T) {
	tmpl := GetPlan().Template()
	var ms [8]*Matrix
	for i, mask := range Masks() {
		var err error
		if ms[i], err = Encode(payURL, mask); err != nil {
			t.Fatal(err)
		}
	}
	reserved := make(map[pos]bool)
	for i := range formatA {
		reserved[formatA[i]] = true
		reserved[formatB[i]] = true
	}
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if tmpl[y][x] == Unset || reserved[pos{uint8(y), uint8(x)}] {
				continue
			}
			for i := 1; i < 8; i++ {
				if ms[i][y][x] != ms[0][y][x] {
					t.Errorf("(%d,%d) differs between %v and %v",
						y, x, Mask0, Masks()[i])
				}
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, err := Encode(payURL, Mask3)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Encode(payURL, Mask3)
	if *a != *b {
		t.Errorf("two encodings differ:\n%s\n%s", a, b)
	}
	if a == b {
		t.Error("Encode returned shared matrix")
	}
}

func TestConcurrent(t *testing.T) {
	want, err := Encode(payURL, DefaultMask)
	if err != nil {
		t.Fatal(err)
	}
	var g errgroup.Group
	got := make([]*Matrix, 32)
	for i := range got {
		i := i
		g.Go(func() error {
			var err error
			got[i], err = Encode(payURL, DefaultMask)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, m := range got {
		if *m != *want {
			t.Errorf("goroutine %d produced a different matrix", i)
		}
	}
}

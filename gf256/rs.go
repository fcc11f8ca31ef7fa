// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

// An RSEncoder implements systematic Reed-Solomon encoding over a
// field with a fixed number of error correction bytes.  It holds no
// per-call state and may be used by concurrent goroutines.
type RSEncoder struct {
	f    *Field
	c    int
	gen  []byte // generator polynomial, gen[0] is the x^c term (1)
	lgen []byte // log of gen; 255 stands for log 0
}

// gen returns the generator polynomial Π_{i<e} (x - α^i) and its logs.
func (f *Field) gen(e int) (gen, lgen []byte) {
	// p = 1, stored least significant term last.
	p := make([]byte, e+1)
	p[e] = 1
	for i := 0; i < e; i++ {
		// p *= (x + α^i):  p[j] = p[j]*α^i + p[j+1].
		// Subtraction is addition is XOR.
		c := f.Exp(i)
		for j := 0; j < e; j++ {
			p[j] = f.Mul(p[j], c) ^ p[j+1]
		}
		p[e] = f.Mul(p[e], c)
	}
	// The loop builds coefficients from the constant end while
	// shifting, leaving the leading 1 in p[0].
	if p[0] != 1 {
		panic("gf256: generator polynomial not monic")
	}
	lp := make([]byte, e+1)
	for i, c := range p {
		if c == 0 {
			lp[i] = 255
		} else {
			lp[i] = byte(f.Log(c))
		}
	}
	return p, lp
}

// NewRSEncoder returns a Reed-Solomon encoder over f producing c error
// correction bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	if c < 0 || c > 254 {
		panic("gf256: invalid check byte count")
	}
	gen, lgen := f.gen(c)
	return &RSEncoder{f: f, c: c, gen: gen, lgen: lgen}
}

// CheckBytes returns the number of error correction bytes.
func (rs *RSEncoder) CheckBytes() int { return rs.c }

// Gen returns a copy of the generator polynomial, most significant
// coefficient first.
func (rs *RSEncoder) Gen() []byte {
	return append([]byte(nil), rs.gen...)
}

// divide divides p, holding data padded with c zeros, by the generator
// polynomial in place.  The remainder is left in p[len(p)-c:]; the
// leading bytes are clobbered.
func (rs *RSEncoder) divide(p []byte) {
	f := rs.f
	lgen := rs.lgen[1:]
	for i := 0; i < len(p)-rs.c; i++ {
		c := p[i]
		if c == 0 {
			continue
		}
		// q -= c*gen, with logs: exp[log c + log g].
		q := p[i+1:]
		exp := f.exp[f.log[c]:]
		for j, lg := range lgen {
			if lg != 255 {
				q[j] ^= exp[lg]
			}
		}
	}
}

// ECC writes to check the error correction bytes for data.
func (rs *RSEncoder) ECC(data, check []byte) {
	if len(check) < rs.c {
		panic("gf256: invalid check byte length")
	}
	if rs.c == 0 {
		return
	}
	p := make([]byte, len(data)+rs.c)
	copy(p, data)
	rs.divide(p)
	copy(check, p[len(data):])
}

// Encode returns the systematic codeword for data: the data bytes
// followed by the error correction bytes.
func (rs *RSEncoder) Encode(data []byte) []byte {
	p := make([]byte, len(data)+rs.c)
	copy(p, data)
	rs.divide(p)
	// divide uses the data region as scratch space.
	copy(p, data)
	return p
}

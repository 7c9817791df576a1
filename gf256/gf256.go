// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package gf256 implements arithmetic in GF(2^8) fields defined by a
primitive polynomial, as used by QR code Reed-Solomon error
correction.
*/
package gf256

import "fmt"

// A Field represents an instance of GF(256) defined by a specific
// primitive polynomial and generator.
type Field struct {
	log [256]byte // log[0] is unused
	exp [510]byte // exponential table, doubled to avoid a modular
	// reduction on multiply; exp[i] == exp[i+255] for i in [0,255).
}

// NewField returns a new field defined by the given primitive
// polynomial and generator.  The standard QR code field uses
// poly=0x11d, generator=2.
func NewField(poly, generator int) *Field {
	f := new(Field)
	x := 1
	for i := 0; i < 255; i++ {
		f.exp[i] = byte(x)
		f.log[x] = byte(i)
		x *= generator
		if x >= 256 {
			x ^= poly
		}
	}
	for i := 255; i < 510; i++ {
		f.exp[i] = f.exp[i-255]
	}
	return f
}

// Add returns a+b in the field.  Addition and subtraction in GF(2^n)
// are both XOR.
func (f *Field) Add(a, b byte) byte { return a ^ b }

// Exp returns generator^e in the field, where e may be negative.
func (f *Field) Exp(e int) byte {
	for e < 0 {
		e += 255
	}
	return f.exp[e%255]
}

// Log returns the discrete log of the nonzero element a.
func (f *Field) Log(a byte) int {
	if a == 0 {
		panic("gf256: log(0)")
	}
	return int(f.log[a])
}

// Mul returns a*b in the field.
func (f *Field) Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[int(f.log[a])+int(f.log[b])]
}

// Inverse returns the multiplicative inverse of the nonzero element a.
func (f *Field) Inverse(a byte) byte {
	if a == 0 {
		panic("gf256: inverse(0)")
	}
	return f.exp[255-int(f.log[a])]
}

// Div returns a/b in the field.  Div panics if b is zero.
func (f *Field) Div(a, b byte) byte {
	if b == 0 {
		panic("gf256: division by zero")
	}
	if a == 0 {
		return 0
	}
	return f.exp[int(f.log[a])-int(f.log[b])+255]
}

// A Poly is a polynomial over the field, stored high-order coefficient
// first.  A nil or empty Poly represents the zero polynomial.
type Poly []byte

// String returns a debug representation of p.
func (p Poly) String() string {
	return fmt.Sprintf("%x", []byte(p))
}

// mulPoly returns the product of p and q over the field f.
func (f *Field) mulPoly(p, q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	r := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			r[i+j] ^= f.Mul(a, b)
		}
	}
	return r
}

// GeneratorPoly returns the Reed-Solomon generator polynomial of
// degree n: prod_{i=0}^{n-1} (x - alpha^i), with alpha = generator
// used to construct f.
func (f *Field) GeneratorPoly(n int) Poly {
	g := Poly{1}
	for i := 0; i < n; i++ {
		g = f.mulPoly(g, Poly{1, f.Exp(i)})
	}
	return g
}

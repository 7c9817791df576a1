// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

// An RSEncoder computes Reed-Solomon error correction codewords over
// a Field, for a fixed number of EC codewords.
type RSEncoder struct {
	field *Field
	gen   Poly
}

// NewRSEncoder returns an RSEncoder producing n error correction
// codewords over field.
func NewRSEncoder(field *Field, n int) *RSEncoder {
	return &RSEncoder{field: field, gen: field.GeneratorPoly(n)}
}

// ECC writes the Reed-Solomon error correction codewords for data
// into ecc.  len(ecc) determines the number of codewords and must
// match the value passed to NewRSEncoder.
func (e *RSEncoder) ECC(data []byte, ecc []byte) {
	n := len(ecc)
	if n != len(e.gen)-1 {
		panic("gf256: ecc length does not match generator degree")
	}
	for i := range ecc {
		ecc[i] = 0
	}
	remainder := make([]byte, len(data)+n)
	copy(remainder, data)
	f := e.field
	for i := 0; i < len(data); i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j, g := range e.gen {
			remainder[i+j] ^= f.Mul(g, coef)
		}
	}
	copy(ecc, remainder[len(data):])
}

// Encode returns the Reed-Solomon codeword for data: the n error
// correction codewords computed by synthetic division of data*x^n by
// the generator polynomial, where n is the number of EC codewords
// configured for e.
func (e *RSEncoder) Encode(data []byte) []byte {
	ecc := make([]byte, len(e.gen)-1)
	e.ECC(data, ecc)
	return ecc
}

// Syndromes returns the n evaluations of the codeword polynomial
// (data followed by its EC codewords) at alpha^0 .. alpha^(n-1),
// where alpha is the field's generator. All values are zero if and
// only if the codeword is free of errors under this field.
func Syndromes(field *Field, codeword []byte, n int) []byte {
	s := make([]byte, n)
	for i := 0; i < n; i++ {
		var acc byte
		x := field.Exp(i)
		for _, c := range codeword {
			acc = field.Mul(acc, x) ^ c
		}
		s[i] = acc
	}
	return s
}

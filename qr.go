// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qrstream encodes and decodes QR codes and streams arbitrary
payloads across a sequence of them.
*/
package qrstream // import "github.com/qrstream/qrstream"

import (
	"errors"
	"image"
	"image/color"

	"github.com/qrstream/qrstream/coding"
)

// A Level denotes a QR error correction level.  From least to most
// tolerant of errors, they are L, M, Q, H.
type Level = coding.Level

const (
	L = coding.L
	M = coding.M
	Q = coding.Q
	H = coding.H
)

// ErrArgs is the package's invalid-arguments error.  No function in
// this package returns it: Black treats modules outside the symbol's
// bounds as light, and EncodePBM/EncodePNG report only write errors.
var ErrArgs = errors.New("qrstream: invalid arguments")

// A Code is a QR symbol ready for rendering.  It implements
// image.Image through Image, and can also be written directly as PBM
// or PNG.
type Code struct {
	m       *coding.Matrix
	Scale   int  // image pixels per QR module; 0 means 1
	Border  int  // quiet zone width in modules
	Reverse bool // if true, render as white-on-black
}

// Encode builds a Code for data at the requested level, searching
// for the smallest version (beginning at coding.MinVersion) that can
// hold it.
func Encode(data []byte, level Level) (*Code, error) {
	m, err := coding.Encode(data, level, coding.MinVersion)
	if err != nil {
		return nil, err
	}
	return &Code{m: m, Scale: 1, Border: 4}, nil
}

// Decode locates and decodes a QR symbol in a grayscale image of the
// given width and height (one byte per pixel, row-major).
func Decode(gray []byte, w, h int) (*coding.DecodedSymbol, error) {
	return coding.Decode(gray, w, h)
}

// Size returns the number of modules on a side of the symbol, not
// including the quiet zone border.
func (c *Code) Size() int { return c.m.Size }

// Version returns the QR version of the symbol.
func (c *Code) Version() int { return c.m.Version }

// Black reports whether module (x,y) is dark, treating out-of-bounds
// coordinates as light.
func (c *Code) Black(x, y int) bool {
	return c.m.Get(y, x)
}

// scale and border return c's rendering parameters with their
// zero-value defaults applied.
func (c *Code) scale() int {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}

func (c *Code) border() int { return c.Border }

// Image returns an image.Image displaying the code, scaled and
// bordered per c.Scale and c.Border.
func (c *Code) Image() image.Image {
	return &codeImage{c}
}

// codeImage implements image.Image over a Code.
type codeImage struct {
	*Code
}

var (
	whiteColor color.Color = color.Gray{Y: 0xFF}
	blackColor color.Color = color.Gray{Y: 0x00}
)

func (ci *codeImage) Bounds() image.Rectangle {
	d := (ci.Size() + 2*ci.border()) * ci.scale()
	return image.Rect(0, 0, d, d)
}

func (ci *codeImage) At(x, y int) color.Color {
	s, b := ci.scale(), ci.border()
	mx, my := x/s-b, y/s-b
	dark := ci.Black(mx, my)
	if ci.Reverse {
		dark = !dark
	}
	if dark {
		return blackColor
	}
	return whiteColor
}

func (ci *codeImage) ColorModel() color.Model { return color.GrayModel }

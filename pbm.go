// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstream

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm viewers.
func (c *Code) EncodePBM(w io.Writer) error {
	img := c.Image()
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P4\n%d %d\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	row := make([]byte, (b.Dx()+7)/8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r == 0 {
				row[(x-b.Min.X)/8] |= 1 << uint(7-(x-b.Min.X)%8)
			}
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodePNG writes a PNG image displaying the code to w, using the
// standard library's encoder.
func (c *Code) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.Image())
}

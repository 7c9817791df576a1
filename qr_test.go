// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstream

import (
	"bytes"
	"image/png"
	"testing"
)

func TestEncodeImagePNGRoundTrip(t *testing.T) {
	c, err := Encode([]byte("HELLO WORLD"), M)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	b := img.Bounds()
	wantSide := (c.Size() + 2*c.Border) * 1
	if b.Dx() != wantSide || b.Dy() != wantSide {
		t.Errorf("decoded image size = %dx%d, want %dx%d", b.Dx(), b.Dy(), wantSide, wantSide)
	}
}

func TestEncodePBMHeader(t *testing.T) {
	c, err := Encode([]byte("12345"), L)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var buf bytes.Buffer
	if err := c.EncodePBM(&buf); err != nil {
		t.Fatalf("EncodePBM: %v", err)
	}
	if got := buf.Bytes()[:2]; string(got) != "P4" {
		t.Errorf("PBM magic = %q, want P4", got)
	}
}

func TestDecodeLatin1(t *testing.T) {
	got, err := DecodeLatin1([]byte{0xE9}) // e-acute in Latin-1
	if err != nil {
		t.Fatalf("DecodeLatin1: %v", err)
	}
	if got != "é" {
		t.Errorf("DecodeLatin1(0xE9) = %q, want %q", got, "é")
	}
}

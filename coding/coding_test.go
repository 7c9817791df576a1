// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"bytes"
	"testing"
)

func TestSizeFormula(t *testing.T) {
	cases := map[int]int{1: 21, 2: 25, 7: 45, 40: 177}
	for v, want := range cases {
		if got := Size(v); got != want {
			t.Errorf("Size(%d) = %d, want %d", v, got, want)
		}
	}
}

func TestAlignmentPositions(t *testing.T) {
	cases := map[int][]int{
		1:  nil,
		7:  {6, 22, 38},
		40: {6, 30, 58, 86, 114, 142, 170},
	}
	for v, want := range cases {
		got := AlignmentPositions(v)
		if !intsEqual(got, want) {
			t.Errorf("AlignmentPositions(%d) = %v, want %v", v, got, want)
		}
	}
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFormatRoundTrip(t *testing.T) {
	for l := L; l <= H; l++ {
		for mask := 0; mask < 8; mask++ {
			fb := EncodeFormat(l, mask)
			gotLevel, gotMask, ok := DecodeFormat(fb)
			if !ok || gotLevel != l || gotMask != mask {
				t.Errorf("DecodeFormat(EncodeFormat(%v,%d)) = %v,%d,%v", l, mask, gotLevel, gotMask, ok)
			}
		}
	}
}

func TestFormatCorrectsBitErrors(t *testing.T) {
	fb := EncodeFormat(M, 3)
	for bit := 0; bit < 15; bit++ {
		corrupted := fb ^ (1 << uint(bit))
		level, mask, ok := DecodeFormat(corrupted)
		if !ok || level != M || mask != 3 {
			t.Errorf("DecodeFormat did not correct single bit %d: got %v,%d,%v", bit, level, mask, ok)
		}
	}
}

func TestBlockPlanV5Q(t *testing.T) {
	bp := BlockPlan(5, Q)
	if bp.nBlock1+bp.nBlock2 != 4 {
		t.Fatalf("nBlock = %d, want 4", bp.nBlock1+bp.nBlock2)
	}
	if bp.ecPerBlock != 18 {
		t.Errorf("ecPerBlock = %d, want 18", bp.ecPerBlock)
	}
	total := bp.nBlock1*bp.dataLen1 + bp.nBlock2*bp.dataLen2
	if total != DataCodewords(5, Q) {
		t.Errorf("total data codewords = %d, want %d", total, DataCodewords(5, Q))
	}
}

func TestBitWriterReaderRoundTrip(t *testing.T) {
	var w BitWriter
	w.WriteBits(0x1, 4)
	w.WriteBits(0x2A, 8)
	w.WriteBits(0x3, 2)
	w.PadToByte()
	r := NewBitReader(w.Bytes())
	if v, err := r.ReadBits(4); err != nil || v != 0x1 {
		t.Fatalf("ReadBits(4) = %d, %v", v, err)
	}
	if v, err := r.ReadBits(8); err != nil || v != 0x2A {
		t.Fatalf("ReadBits(8) = %d, %v", v, err)
	}
	if v, err := r.ReadBits(2); err != nil || v != 0x3 {
		t.Fatalf("ReadBits(2) = %d, %v", v, err)
	}
}

func TestClassifyMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"0123456789", ModeNumeric},
		{"HELLO WORLD", ModeAlphanumeric},
		{"hello world", ModeByte},
	}
	for _, c := range cases {
		if got := ClassifyMode([]byte(c.in)); got != c.want {
			t.Errorf("ClassifyMode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMaskFuncExhaustive(t *testing.T) {
	for m := 0; m < 8; m++ {
		MaskFunc(m, 3, 5) // must not panic for any valid mask index
	}
}

func TestReserveFunctionPatternsDeterministic(t *testing.T) {
	a := NewMatrix(7)
	a.ReserveFunctionPatterns()
	b := NewMatrix(7)
	b.ReserveFunctionPatterns()
	for i := range a.reserved {
		if a.reserved[i] != b.reserved[i] || a.bit[i] != b.bit[i] {
			t.Fatalf("two ReserveFunctionPatterns runs disagree at module %d", i)
		}
	}
}

func TestEncodeProducesSquareSymbol(t *testing.T) {
	m, err := Encode([]byte("HELLO WORLD"), M, MinVersion)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if m.Size != Size(m.Version) {
		t.Errorf("Size = %d, want %d", m.Size, Size(m.Version))
	}
	fb1, fb2 := readFormatCopies(m)
	level, mask, ok := DecodeFormat(fb1)
	if !ok {
		t.Fatalf("format copy 1 does not decode")
	}
	level2, mask2, ok2 := DecodeFormat(fb2)
	if !ok2 || level2 != level || mask2 != mask {
		t.Fatalf("format copies disagree: (%v,%d) vs (%v,%d)", level, mask, level2, mask2)
	}
	if level != M {
		t.Errorf("decoded level = %v, want M", level)
	}
}

func TestEncodeRoundTripThroughDeinterleave(t *testing.T) {
	payload := []byte("THE QUICK BROWN FOX 0123456789")
	m, err := Encode(payload, Q, MinVersion)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	fb, _ := readFormatCopies(m)
	level, mask, ok := DecodeFormat(fb)
	if !ok {
		t.Fatalf("format does not decode")
	}
	unmasked := cloneMatrix(m)
	ApplyMask(unmasked, mask)
	words := readCodewords(unmasked, m.Version)
	data, err := deinterleaveAndValidate(words, m.Version, level)
	if err != nil {
		t.Fatalf("deinterleaveAndValidate: %v", err)
	}
	got, err := decodeBitStream(data, m.Version)
	if err != nil {
		t.Fatalf("decodeBitStream: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip = %q, want %q", got, payload)
	}
}

func TestEncodeHelloWorldByteModeHeader(t *testing.T) {
	payload := []byte("HELLO WORLD")
	bits, ok := buildBitStream(payload, ModeByte, 1, M)
	if !ok {
		t.Fatalf("buildBitStream: payload does not fit version 1")
	}
	r := NewBitReader(bits)
	if v, _ := r.ReadBits(4); v != 0x4 {
		t.Errorf("mode indicator = %#x, want 0x4 (byte mode)", v)
	}
	if v, _ := r.ReadBits(8); v != uint32(len(payload)) {
		t.Errorf("length field = %d, want %d", v, len(payload))
	}
	if v, _ := r.ReadBits(8); v != 'H' {
		t.Errorf("first payload byte = %#x, want %#x ('H')", v, 'H')
	}
}

func TestEncodeModeNumericAndAlphanumericRoundTrip(t *testing.T) {
	cases := []struct {
		payload string
		mode    Mode
	}{
		{"0123456789012345", ModeNumeric},
		{"HELLO WORLD 123", ModeAlphanumeric},
	}
	for _, c := range cases {
		payload := []byte(c.payload)
		if got := ClassifyMode(payload); got != c.mode {
			t.Fatalf("ClassifyMode(%q) = %v, want %v", c.payload, got, c.mode)
		}
		m, err := EncodeMode(payload, c.mode, Q, MinVersion)
		if err != nil {
			t.Fatalf("EncodeMode(%v): %v", c.mode, err)
		}
		fb, _ := readFormatCopies(m)
		level, mask, ok := DecodeFormat(fb)
		if !ok {
			t.Fatalf("format does not decode")
		}
		unmasked := cloneMatrix(m)
		ApplyMask(unmasked, mask)
		words := readCodewords(unmasked, m.Version)
		data, err := deinterleaveAndValidate(words, m.Version, level)
		if err != nil {
			t.Fatalf("deinterleaveAndValidate: %v", err)
		}
		got, err := decodeBitStream(data, m.Version)
		if err != nil {
			t.Fatalf("decodeBitStream: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip (%v) = %q, want %q", c.mode, got, payload)
		}
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	big := bytes.Repeat([]byte("A"), 1<<20)
	_, err := Encode(big, H, MinVersion)
	if err != ErrPayloadTooLarge {
		t.Fatalf("Encode oversized payload: err = %v, want ErrPayloadTooLarge", err)
	}
}

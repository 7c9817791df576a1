// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "github.com/qrstream/qrstream/gf256"

// rsField is the GF(256) field used by all QR Reed-Solomon
// computations: primitive polynomial 0x11d, generator 2, per
// ISO/IEC 18004 Annex A.
var rsField = gf256.NewField(0x11d, 2)

// Encode builds a complete QR symbol for data at the requested error
// correction level, always in byte mode (ISO/IEC 18004 7.4.5), so
// that arbitrary binary payloads round-trip unchanged.  It selects
// the smallest version that can hold data at level, starting the
// search at minVersion (pass MinVersion to search the full range),
// and returns ErrPayloadTooLarge if no version up to MaxVersion
// suffices.
func Encode(data []byte, level Level, minVersion int) (*Matrix, error) {
	return EncodeMode(data, ModeByte, level, minVersion)
}

// EncodeMode is Encode with an explicit segment mode.  Callers that
// know their payload is all-digit or all-alphanumeric (see
// ClassifyMode) can pass ModeNumeric or ModeAlphanumeric to pack it
// more densely; passing a mode the payload doesn't fit (e.g.
// ModeNumeric on a non-digit byte) produces a corrupt symbol, so
// callers that aren't sure should stick to ModeByte or call
// ClassifyMode themselves first.
func EncodeMode(data []byte, mode Mode, level Level, minVersion int) (*Matrix, error) {
	if level < L || level > H {
		return nil, ErrLevel
	}
	version := minVersion
	if version < MinVersion {
		version = MinVersion
	}
	var payload []byte
	for ; version <= MaxVersion; version++ {
		p, ok := buildBitStream(data, mode, version, level)
		if ok {
			payload = p
			break
		}
	}
	if payload == nil {
		return nil, ErrPayloadTooLarge
	}
	words := interleave(payload, version, level)
	m := NewMatrix(version)
	m.ReserveFunctionPatterns()
	placeData(m, words)
	mask := chooseMask(m)
	ApplyMask(m, mask)
	m.WriteFormat(EncodeFormat(level, mask))
	if version >= 7 {
		m.WriteVersion(VersionInfoWord(version))
	}
	return m, nil
}

// buildBitStream packs data into the full codeword-aligned data
// bitstream for version at level: mode indicator, character count,
// payload bits, terminator, byte-alignment padding, and padding
// codewords 0xEC/0x11 alternating to fill capacity.  ok is false if
// data does not fit at version.
func buildBitStream(data []byte, mode Mode, version int, level Level) ([]byte, bool) {
	capacityBits := DataCodewords(version, level) * 8
	var w BitWriter
	w.WriteBits(mode.modeIndicator(), 4)
	w.WriteBits(uint32(len(data)), mode.charCountBits(version))
	switch mode {
	case ModeNumeric:
		appendNumeric(&w, data)
	case ModeAlphanumeric:
		appendAlphanumeric(&w, data)
	case ModeByte:
		appendByte(&w, data)
	}
	if w.Len() > capacityBits {
		return nil, false
	}
	// Terminator, up to 4 bits, only as many as fit.
	term := 4
	if capacityBits-w.Len() < term {
		term = capacityBits - w.Len()
	}
	w.WriteBits(terminatorIndicator, term)
	w.PadToByte()
	pad := []byte{0xEC, 0x11}
	for i := 0; w.Len() < capacityBits; i++ {
		w.WriteBits(uint32(pad[i%2]), 8)
	}
	return w.Bytes(), true
}

// interleave splits payload into its data blocks, computes each
// block's Reed-Solomon error correction codewords, and returns the
// final codeword stream: data codewords round-robin across blocks,
// followed by EC codewords round-robin across blocks, per
// ISO/IEC 18004 7.5.
func interleave(payload []byte, version int, level Level) []byte {
	bp := BlockPlan(version, level)
	type block struct {
		data []byte
		ec   []byte
	}
	blocksList := make([]block, 0, bp.nBlock1+bp.nBlock2)
	enc := gf256.NewRSEncoder(rsField, bp.ecPerBlock)
	off := 0
	addBlocks := func(n, dataLen int) {
		for i := 0; i < n; i++ {
			d := payload[off : off+dataLen]
			off += dataLen
			ec := enc.Encode(d)
			blocksList = append(blocksList, block{data: d, ec: ec})
		}
	}
	addBlocks(bp.nBlock1, bp.dataLen1)
	addBlocks(bp.nBlock2, bp.dataLen2)

	var out []byte
	maxData := bp.dataLen2
	for i := 0; i < maxData; i++ {
		for _, b := range blocksList {
			if i < len(b.data) {
				out = append(out, b.data[i])
			}
		}
	}
	for i := 0; i < bp.ecPerBlock; i++ {
		for _, b := range blocksList {
			out = append(out, b.ec[i])
		}
	}
	return out
}

// placeData writes the codeword stream words into m's non-reserved
// modules in zigzag order, MSB first within each byte.
func placeData(m *Matrix, words []byte) {
	positions := m.DataPositions()
	for i, pos := range positions {
		byteIdx, bitIdx := i/8, i%8
		var bit bool
		if byteIdx < len(words) {
			bit = words[byteIdx]>>uint(7-bitIdx)&1 != 0
		}
		m.Set(pos.R, pos.C, bit)
	}
}

// chooseMask tries all 8 mask patterns against m's unmasked module
// data and returns the index minimizing the Annex C penalty score.
func chooseMask(m *Matrix) int {
	best, bestScore := 0, -1
	for mask := 0; mask < 8; mask++ {
		trial := cloneMatrix(m)
		ApplyMask(trial, mask)
		score := Penalty(trial)
		if bestScore < 0 || score < bestScore {
			best, bestScore = mask, score
		}
	}
	return best
}

// cloneMatrix returns a deep copy of m.
func cloneMatrix(m *Matrix) *Matrix {
	c := &Matrix{
		Size:     m.Size,
		Version:  m.Version,
		bit:      make([]bool, len(m.bit)),
		reserved: make([]bool, len(m.reserved)),
	}
	copy(c.bit, m.bit)
	copy(c.reserved, m.reserved)
	return c
}

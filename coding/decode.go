// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"math"

	"github.com/qrstream/qrstream/gf256"
)

// A DecodedSymbol is the result of successfully decoding a QR symbol
// from an image.
type DecodedSymbol struct {
	Version int
	Level   Level
	Mask    int
	Payload []byte
}

// Binarize converts a grayscale image (one byte per pixel, row-major,
// w x h) to a binary dark/light bitmap using a locally adaptive mean
// threshold, computed over odd-sided blocks of about min(w,h)/8
// pixels (at least 3) via an
// IntegralImage, offset by a constant bias so that borderline gray
// pixels away from strong edges fall on the light side.
func Binarize(gray []byte, w, h int) []bool {
	const bias = 7
	blockSize := w
	if h < w {
		blockSize = h
	}
	blockSize /= 8
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	half := blockSize / 2
	ii := NewIntegralImage(gray, w, h)
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mean := ii.Mean(x-half, y-half, x+half, y+half)
			out[y*w+x] = float64(gray[y*w+x]) < mean-bias
		}
	}
	return out
}

// Luma converts an 8-bit RGB image (3 bytes per pixel, row-major) to
// grayscale using the ITU-R BT.601 luma weights.
func Luma(rgb []byte, w, h int) []byte {
	out := make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		r, g, b := rgb[3*i], rgb[3*i+1], rgb[3*i+2]
		out[i] = byte(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
	}
	return out
}

// finderHit is one 1:1:3:1:1 run match found while scanning a single
// row or column.
type finderHit struct {
	pos  float64 // coordinate along the scan axis
	unit float64 // estimated module width
}

// scanLine finds every run-length-ratio match for a finder pattern
// cross-section along a single row or column of dark/light values,
// with a tolerance of half a module on each of the five runs.
func scanLine(line []bool) []finderHit {
	var lens []int
	var colors []bool
	run := 1
	for i := 1; i <= len(line); i++ {
		if i < len(line) && line[i] == line[i-1] {
			run++
			continue
		}
		lens = append(lens, run)
		colors = append(colors, line[i-1])
		run = 1
	}
	var hits []finderHit
	want := [5]float64{1, 1, 3, 1, 1}
	for i := 0; i+5 <= len(lens); i++ {
		if !(colors[i] && !colors[i+1] && colors[i+2] && !colors[i+3] && colors[i+4]) {
			continue
		}
		total := 0
		for j := 0; j < 5; j++ {
			total += lens[i+j]
		}
		unit := float64(total) / 7
		ok := true
		for j := 0; j < 5; j++ {
			if math.Abs(float64(lens[i+j])/unit-want[j]) > 0.5 {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		start := 0
		for j := 0; j < i; j++ {
			start += lens[j]
		}
		hits = append(hits, finderHit{pos: float64(start) + float64(total)/2, unit: unit})
	}
	return hits
}

// finderCandidate is a clustered cross-check between a row hit and a
// column hit, estimating a finder pattern center.
type finderCandidate struct {
	p      Point
	unit   float64
	weight int
}

// findFinderCandidates scans every row and column of bits (w x h) for
// 1:1:3:1:1 cross-sections, then clusters hits (row and column hits
// alike) that lie within 3 module widths of each other into candidate
// centers.
func findFinderCandidates(bits []bool, w, h int) []finderCandidate {
	type rawHit struct {
		p    Point
		unit float64
	}
	var raw []rawHit
	for y := 0; y < h; y++ {
		row := bits[y*w : y*w+w]
		for _, hit := range scanLine(row) {
			raw = append(raw, rawHit{Point{hit.pos, float64(y)}, hit.unit})
		}
	}
	col := make([]bool, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = bits[y*w+x]
		}
		for _, hit := range scanLine(col) {
			raw = append(raw, rawHit{Point{float64(x), hit.pos}, hit.unit})
		}
	}
	var clusters []finderCandidate
	for _, h := range raw {
		merged := false
		for i := range clusters {
			if Dist(h.p, clusters[i].p) <= 3*clusters[i].unit {
				n := clusters[i].weight
				clusters[i].p = clusters[i].p.Scale(float64(n)).Add(h.p).Scale(1 / float64(n+1))
				clusters[i].unit = (clusters[i].unit*float64(n) + h.unit) / float64(n+1)
				clusters[i].weight++
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, finderCandidate{p: h.p, unit: h.unit, weight: 1})
		}
	}
	return clusters
}

// orderFinders identifies the top-left finder as the vertex where the
// other two points subtend close to a right angle, then uses the sign
// of the cross product to tell top-right from bottom-left.
func orderFinders(pts [3]Point) (tl, tr, bl Point) {
	bestIdx, bestDot := 0, math.MaxFloat64
	for i := 0; i < 3; i++ {
		a, b, c := pts[i], pts[(i+1)%3], pts[(i+2)%3]
		v1, v2 := b.Sub(a), c.Sub(a)
		dot := math.Abs(v1.X*v2.X+v1.Y*v2.Y) / (Dist(a, b) * Dist(a, c))
		if dot < bestDot {
			bestDot, bestIdx = dot, i
		}
	}
	tl = pts[bestIdx]
	p1, p2 := pts[(bestIdx+1)%3], pts[(bestIdx+2)%3]
	if Cross(p1.Sub(tl), p2.Sub(tl)) < 0 {
		p1, p2 = p2, p1
	}
	return tl, p1, p2
}

// Locate finds the three finder patterns in a binarized image and
// returns their centers in (top-left, top-right, bottom-left) order
// along with the estimated module size.
func Locate(bits []bool, w, h int) (tl, tr, bl Point, moduleSize float64, err error) {
	clusters := findFinderCandidates(bits, w, h)
	var best []finderCandidate
	for _, c := range clusters {
		if c.weight < 2 {
			continue
		}
		best = append(best, c)
	}
	if len(best) < 3 {
		return Point{}, Point{}, Point{}, 0, ErrNoFinderPatterns
	}
	for i := 0; i < len(best); i++ {
		for j := i + 1; j < len(best); j++ {
			if best[j].weight > best[i].weight {
				best[i], best[j] = best[j], best[i]
			}
		}
	}
	top3 := [3]Point{best[0].p, best[1].p, best[2].p}
	tl, tr, bl = orderFinders(top3)
	moduleSize = (best[0].unit + best[1].unit + best[2].unit) / 3
	return tl, tr, bl, moduleSize, nil
}

// sampleMatrix builds a Matrix of the given version by affinely
// sampling bits using tl/tr/bl as the module-(3,3) centers of the
// three finder patterns.
func sampleMatrix(bits []bool, w, h int, version int, tl, tr, bl Point) *Matrix {
	size := Size(version)
	span := float64(size - 7)
	dR := tr.Sub(tl).Scale(1 / span)
	dD := bl.Sub(tl).Scale(1 / span)
	origin := tl.Sub(dR.Scale(3)).Sub(dD.Scale(3))
	m := NewMatrix(version)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			p := origin.Add(dR.Scale(float64(c))).Add(dD.Scale(float64(r)))
			x := int(math.Round(ClampF(p.X, 0, float64(w-1))))
			y := int(math.Round(ClampF(p.Y, 0, float64(h-1))))
			m.Set(r, c, bits[y*w+x])
		}
	}
	return m
}

// readFormatCopies returns the two 15-bit format information words
// read from m's format area.  Safe to call any time after sampling,
// since ReserveFunctionPatterns never writes to the format area, only
// marks it reserved.
func readFormatCopies(m *Matrix) (a, b uint16) {
	get := func(r, c int) uint16 {
		if m.Get(r, c) {
			return 1
		}
		return 0
	}
	for i := 0; i <= 5; i++ {
		a |= get(8, i) << uint(i)
	}
	a |= get(8, 7) << 6
	a |= get(8, 8) << 7
	a |= get(7, 8) << 8
	for i := 9; i <= 14; i++ {
		a |= get(14-i, 8) << uint(i)
	}
	for i := 0; i <= 7; i++ {
		b |= get(8, m.Size-1-i) << uint(i)
	}
	for i := 8; i <= 14; i++ {
		b |= get(m.Size-15+i, 8) << uint(i)
	}
	return a, b
}

// readVersionCopies returns the two 18-bit version information words
// read from m's version area, for version >= 7.
func readVersionCopies(m *Matrix) (a, b uint32) {
	for i := 0; i < 18; i++ {
		r, c := i/3, i%3
		if m.Get(r, m.Size-11+c) {
			a |= 1 << uint(i)
		}
		if m.Get(m.Size-11+c, r) {
			b |= 1 << uint(i)
		}
	}
	return a, b
}

// decodeVersionWord corrects a raw 18-bit version information word
// to the nearest table entry by Hamming distance, returning ok=false
// if none is within 3 bits.
func decodeVersionWord(w uint32) (version int, ok bool) {
	best, bestDist := -1, 64
	for i, v := range versionInfo {
		d := 0
		for x := v ^ w; x != 0; x &= x - 1 {
			d++
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > 3 {
		return 0, false
	}
	return best + 7, true
}

// Decode locates, samples, and decodes a QR symbol out of a grayscale
// image. It returns ErrNoFinderPatterns, ErrFormatInfo, ErrVersionInfo,
// or ErrDataCorrupt when the symbol cannot be read.
func Decode(gray []byte, w, h int) (*DecodedSymbol, error) {
	bits := Binarize(gray, w, h)
	tl, tr, bl, unit, err := Locate(bits, w, h)
	if err != nil {
		return nil, err
	}
	sizeEst := Dist(tl, tr)/unit + 7
	version := Clamp(int(math.Round((sizeEst-17)/4)), MinVersion, MaxVersion)

	for attempt := 0; attempt < 2; attempt++ {
		m := sampleMatrix(bits, w, h, version, tl, tr, bl)
		m.ReserveFunctionPatterns()

		fa, fb := readFormatCopies(m)
		levelA, maskA, okA := DecodeFormat(fa)
		levelB, maskB, okB := DecodeFormat(fb)
		var level Level
		var mask int
		switch {
		case okA:
			level, mask = levelA, maskA
		case okB:
			level, mask = levelB, maskB
		default:
			return nil, ErrFormatInfo
		}
		if okA && okB && (levelA != levelB || maskA != maskB) {
			level, mask = levelA, maskA
		}

		if version >= 7 {
			va, vb := readVersionCopies(m)
			dva, okva := decodeVersionWord(va)
			dvb, okvb := decodeVersionWord(vb)
			var decodedVersion int
			switch {
			case okva:
				decodedVersion = dva
			case okvb:
				decodedVersion = dvb
			default:
				return nil, ErrVersionInfo
			}
			if decodedVersion != version && attempt == 0 {
				version = decodedVersion
				continue
			}
		}

		ApplyMask(m, mask)
		words := readCodewords(m, version)
		payload, err := deinterleaveAndValidate(words, version, level)
		if err != nil {
			return nil, err
		}
		data, err := decodeBitStream(payload, version)
		if err != nil {
			return nil, err
		}
		return &DecodedSymbol{Version: version, Level: level, Mask: mask, Payload: data}, nil
	}
	return nil, ErrVersionInfo
}

// readCodewords reads m's non-reserved modules in zigzag order into
// codeword bytes, the inverse of placeData.
func readCodewords(m *Matrix, version int) []byte {
	positions := m.DataPositions()
	words := make([]byte, (len(positions)+7)/8)
	for i, pos := range positions {
		if !m.Get(pos.R, pos.C) {
			continue
		}
		words[i/8] |= 1 << uint(7-i%8)
	}
	return words
}

// deinterleaveAndValidate splits words into its per-block data and EC
// codewords, the inverse of interleave, verifies each block's
// Reed-Solomon syndromes are all zero, and returns the concatenated
// data codewords in original segment order.  It does not attempt to
// correct errors; a nonzero syndrome is reported as ErrDataCorrupt.
func deinterleaveAndValidate(words []byte, version int, level Level) ([]byte, error) {
	bp := BlockPlan(version, level)
	nBlock := bp.nBlock1 + bp.nBlock2
	dataLens := make([]int, nBlock)
	for i := 0; i < bp.nBlock1; i++ {
		dataLens[i] = bp.dataLen1
	}
	for i := 0; i < bp.nBlock2; i++ {
		dataLens[bp.nBlock1+i] = bp.dataLen2
	}
	blockData := make([][]byte, nBlock)
	for i := range blockData {
		blockData[i] = make([]byte, dataLens[i])
	}
	blockEC := make([][]byte, nBlock)
	for i := range blockEC {
		blockEC[i] = make([]byte, bp.ecPerBlock)
	}
	pos := 0
	maxData := bp.dataLen2
	for i := 0; i < maxData; i++ {
		for b := 0; b < nBlock; b++ {
			if i < dataLens[b] {
				if pos >= len(words) {
					return nil, ErrDataCorrupt
				}
				blockData[b][i] = words[pos]
				pos++
			}
		}
	}
	for i := 0; i < bp.ecPerBlock; i++ {
		for b := 0; b < nBlock; b++ {
			if pos >= len(words) {
				return nil, ErrDataCorrupt
			}
			blockEC[b][i] = words[pos]
			pos++
		}
	}
	var out []byte
	for b := 0; b < nBlock; b++ {
		codeword := append(append([]byte{}, blockData[b]...), blockEC[b]...)
		for _, s := range gf256.Syndromes(rsField, codeword, bp.ecPerBlock) {
			if s != 0 {
				return nil, ErrDataCorrupt
			}
		}
		out = append(out, blockData[b]...)
	}
	return out, nil
}

// decodeBitStream reads mode-dispatched segments out of data until a
// terminator or an exhausted bitstream, per ISO/IEC 18004 7.4.
// Kanji, ECI, and structured-append mode indicators are rejected as
// ErrDataCorrupt.
func decodeBitStream(data []byte, version int) ([]byte, error) {
	r := NewBitReader(data)
	var out []byte
	for r.Remaining() >= 4 {
		ind, err := r.ReadBits(4)
		if err != nil {
			return nil, ErrDataCorrupt
		}
		if ind == terminatorIndicator {
			break
		}
		var mode Mode
		switch ind {
		case 0x1:
			mode = ModeNumeric
		case 0x2:
			mode = ModeAlphanumeric
		case 0x4:
			mode = ModeByte
		default:
			return nil, ErrDataCorrupt
		}
		countBits := mode.charCountBits(version)
		if r.Remaining() < countBits {
			return nil, ErrDataCorrupt
		}
		countV, err := r.ReadBits(countBits)
		if err != nil {
			return nil, ErrDataCorrupt
		}
		count := int(countV)
		var seg []byte
		switch mode {
		case ModeNumeric:
			seg, err = decodeNumericSeg(r, count)
		case ModeAlphanumeric:
			seg, err = decodeAlphanumericSeg(r, count)
		case ModeByte:
			seg, err = decodeByteSeg(r, count)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, seg...)
	}
	return out, nil
}

func decodeNumericSeg(r *BitReader, count int) ([]byte, error) {
	out := make([]byte, 0, count)
	for count > 0 {
		n := 3
		bits := 10
		if count < 3 {
			n = count
			bits = [4]int{0, 4, 7, 10}[n]
		}
		v, err := r.ReadBits(bits)
		if err != nil {
			return nil, ErrDataCorrupt
		}
		digits := make([]byte, n)
		for i := n - 1; i >= 0; i-- {
			digits[i] = byte(v%10) + '0'
			v /= 10
		}
		out = append(out, digits...)
		count -= n
	}
	return out, nil
}

func decodeAlphanumericSeg(r *BitReader, count int) ([]byte, error) {
	out := make([]byte, 0, count)
	for count > 0 {
		if count == 1 {
			v, err := r.ReadBits(6)
			if err != nil || int(v) >= len(alphanumericChars) {
				return nil, ErrDataCorrupt
			}
			out = append(out, alphanumericChars[v])
			count--
			continue
		}
		v, err := r.ReadBits(11)
		if err != nil {
			return nil, ErrDataCorrupt
		}
		a, b := v/45, v%45
		if int(a) >= len(alphanumericChars) || int(b) >= len(alphanumericChars) {
			return nil, ErrDataCorrupt
		}
		out = append(out, alphanumericChars[a], alphanumericChars[b])
		count -= 2
	}
	return out, nil
}

func decodeByteSeg(r *BitReader, count int) ([]byte, error) {
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, ErrDataCorrupt
		}
		out[i] = byte(v)
	}
	return out, nil
}

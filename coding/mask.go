// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// MaskFunc reports whether mask pattern index m flips module (r,c),
// per ISO/IEC 18004 Table 10.  Recast from the source's array of
// predicates into a dense, exhaustiveness-checked dispatch.
func MaskFunc(m, r, c int) bool {
	switch m {
	case 0:
		return (r+c)%2 == 0
	case 1:
		return r%2 == 0
	case 2:
		return c%3 == 0
	case 3:
		return (r+c)%3 == 0
	case 4:
		return (r/2+c/3)%2 == 0
	case 5:
		return r*c%2+r*c%3 == 0
	case 6:
		return (r*c%2+r*c%3)%2 == 0
	case 7:
		return (r*c%3+(r+c)%2)%2 == 0
	default:
		panic("coding: invalid mask index")
	}
}

// ApplyMask XORs mask pattern m onto every non-reserved module of m2.
func ApplyMask(m2 *Matrix, mask int) {
	for r := 0; r < m2.Size; r++ {
		for c := 0; c < m2.Size; c++ {
			if !m2.Reserved(r, c) && MaskFunc(mask, r, c) {
				m2.Flip(r, c)
			}
		}
	}
}

// Penalty computes the total P1+P2+P3+P4 mask-scoring penalty for m,
// per ISO/IEC 18004 Annex C.
func Penalty(m *Matrix) int {
	return runPenalty(m) + boxPenalty(m) + finderPenalty(m) + balancePenalty(m)
}

// runPenalty is P1: for each row and column, for every run of >=5
// same-colored modules, add run_length-2.
func runPenalty(m *Matrix) int {
	p := 0
	for r := 0; r < m.Size; r++ {
		p += rowRunPenalty(m, r, true)
	}
	for c := 0; c < m.Size; c++ {
		p += rowRunPenalty(m, c, false)
	}
	return p
}

func rowRunPenalty(m *Matrix, fixed int, horizontal bool) int {
	p := 0
	run := 1
	get := func(i int) bool {
		if horizontal {
			return m.Get(fixed, i)
		}
		return m.Get(i, fixed)
	}
	prev := get(0)
	for i := 1; i < m.Size; i++ {
		v := get(i)
		if v == prev {
			run++
			continue
		}
		if run >= 5 {
			p += run - 2
		}
		run = 1
		prev = v
	}
	if run >= 5 {
		p += run - 2
	}
	return p
}

// boxPenalty is P2: for each 2x2 monochromatic block, add 3.
func boxPenalty(m *Matrix) int {
	p := 0
	for r := 0; r < m.Size-1; r++ {
		for c := 0; c < m.Size-1; c++ {
			v := m.Get(r, c)
			if m.Get(r, c+1) == v && m.Get(r+1, c) == v && m.Get(r+1, c+1) == v {
				p += 3
			}
		}
	}
	return p
}

// finderPenalty is P3: the 1:1:3:1:1 pattern with a four-module light
// margin on at least one side scores 40 per occurrence, scanned in
// both rows and columns.  Implemented by matching the dark/light
// sequence "light*4 dark light dark*3 light dark" (and its reverse)
// against every row/column, sliding window style.
func finderPenalty(m *Matrix) int {
	p := 0
	pattern := []bool{false, false, false, false, true, false, true, true, true, false, true}
	rev := make([]bool, len(pattern))
	for i, v := range pattern {
		rev[len(pattern)-1-i] = v
	}
	scan := func(get func(int) bool, n int) int {
		cnt := 0
		line := make([]bool, n)
		for i := 0; i < n; i++ {
			line[i] = get(i)
		}
		for _, pat := range [][]bool{pattern, rev} {
			for start := -(len(pattern) - 4); start <= n-4; start++ {
				if matchesPattern(line, start, pat) {
					cnt++
				}
			}
		}
		return cnt
	}
	for r := 0; r < m.Size; r++ {
		p += 40 * scan(func(c int) bool { return m.Get(r, c) }, m.Size)
	}
	for c := 0; c < m.Size; c++ {
		p += 40 * scan(func(r int) bool { return m.Get(r, c) }, m.Size)
	}
	return p
}

// matchesPattern reports whether pat matches line at offset start,
// treating any index outside [0,len(line)) as light (as if the
// quiet zone were light, which it always is).
func matchesPattern(line []bool, start int, pat []bool) bool {
	for i, want := range pat {
		idx := start + i
		var got bool
		if idx >= 0 && idx < len(line) {
			got = line[idx]
		}
		if got != want {
			return false
		}
	}
	return true
}

// balancePenalty is P4: 10*floor(|percent_dark-50|/5).
func balancePenalty(m *Matrix) int {
	dark := 0
	for r := 0; r < m.Size; r++ {
		for c := 0; c < m.Size; c++ {
			if m.Get(r, c) {
				dark++
			}
		}
	}
	total := m.Size * m.Size
	// |100*dark/total - 50| / 5 == |20*dark - 10*total| / total
	diff := 20*dark - 10*total
	if diff < 0 {
		diff = -diff
	}
	return 10 * (diff / total)
}

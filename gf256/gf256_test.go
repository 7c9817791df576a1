package gf256

import "testing"

var qrField = NewField(0x11d, 2)

func TestMulCommutative(t *testing.T) {
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			if x, y := qrField.Mul(byte(a), byte(b)), qrField.Mul(byte(b), byte(a)); x != y {
				t.Fatalf("Mul(%d,%d)=%d, Mul(%d,%d)=%d", a, b, x, b, a, y)
			}
		}
	}
}

func TestMulZero(t *testing.T) {
	for a := 0; a < 256; a++ {
		if got := qrField.Mul(byte(a), 0); got != 0 {
			t.Fatalf("Mul(%d,0)=%d, want 0", a, got)
		}
	}
}

func TestMulDivRoundTrip(t *testing.T) {
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			inv := qrField.Div(1, byte(b))
			if got, want := qrField.Mul(byte(a), inv), qrField.Div(byte(a), byte(b)); got != want {
				t.Fatalf("Mul(%d, Div(1,%d))=%d, want Div(%d,%d)=%d", a, b, got, a, b, want)
			}
		}
	}
}

func TestSyndromesZeroForEncodedBlock(t *testing.T) {
	for _, nEC := range []int{7, 10, 13, 17, 20, 24, 28, 30} {
		enc := NewRSEncoder(qrField, nEC)
		data := make([]byte, 20)
		for i := range data {
			data[i] = byte(i*37 + 11)
		}
		codeword := append(append([]byte(nil), data...), enc.Encode(data)...)
		for i, s := range Syndromes(qrField, codeword, nEC) {
			if s != 0 {
				t.Fatalf("nEC=%d: syndrome[%d] = %d, want 0", nEC, i, s)
			}
		}
	}
}

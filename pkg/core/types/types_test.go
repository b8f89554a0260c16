package types

import "testing"

func TestPriceFromDecimal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantOK  bool
		wantStr string
	}{
		{name: "simple integer", in: "100", wantOK: true, wantStr: "100"},
		{name: "zero", in: "0", wantOK: true, wantStr: "0"},
		{name: "large value", in: "115792089237316195423570985008687907853269984665640564039457584007913129639935", wantOK: true},
		{name: "empty string", in: "", wantOK: false},
		{name: "negative", in: "-5", wantOK: false},
		{name: "hex disguised as decimal", in: "0x10", wantOK: false},
		{name: "whitespace padded", in: " 42 ", wantOK: true, wantStr: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := PriceFromDecimal(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("PriceFromDecimal(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && tt.wantStr != "" && p.String() != tt.wantStr {
				t.Errorf("PriceFromDecimal(%q).String() = %q, want %q", tt.in, p.String(), tt.wantStr)
			}
		})
	}
}

func TestPriceOrdering(t *testing.T) {
	a := NewPriceFromUint64(10)
	b := NewPriceFromUint64(20)

	if !a.Less(b) {
		t.Error("expected 10 < 20")
	}
	if b.Less(a) {
		t.Error("expected 20 not < 10")
	}
	if !a.LessOrEqual(a) {
		t.Error("expected a <= a")
	}
	if !a.LessOrEqual(b) {
		t.Error("expected 10 <= 20")
	}
	if b.LessOrEqual(a) {
		t.Error("expected 20 not <= 10")
	}
	if !a.Equal(NewPriceFromUint64(10)) {
		t.Error("expected 10 == 10")
	}
}

func TestPriceSub(t *testing.T) {
	a := NewPriceFromUint64(30)
	b := NewPriceFromUint64(12)
	got := a.Sub(b)
	if got.Cmp(NewQtyFromUint64(18)) != 0 {
		t.Errorf("30 - 12 = %s, want 18", got)
	}
}

func TestQtySatSub(t *testing.T) {
	tests := []struct {
		a, b, want uint64
	}{
		{a: 10, b: 4, want: 6},
		{a: 10, b: 10, want: 0},
		{a: 10, b: 15, want: 0}, // saturates at zero, never wraps
	}
	for _, tt := range tests {
		got := NewQtyFromUint64(tt.a).SatSub(NewQtyFromUint64(tt.b))
		want := NewQtyFromUint64(tt.want)
		if got.Cmp(want) != 0 {
			t.Errorf("SatSub(%d, %d) = %s, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestQtyMin(t *testing.T) {
	a := NewQtyFromUint64(5)
	b := NewQtyFromUint64(9)
	if got := a.Min(b); got.Cmp(a) != 0 {
		t.Errorf("Min(5,9) = %s, want 5", got)
	}
	if got := b.Min(a); got.Cmp(a) != 0 {
		t.Errorf("Min(9,5) = %s, want 5", got)
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	const hex = "0x000000000000000000000000000000DeaDBeef"
	addr, ok := ParseAddress(hex)
	if !ok {
		t.Fatalf("ParseAddress(%q) failed", hex)
	}
	got := FormatAddress(addr)
	addr2, ok := ParseAddress(got)
	if !ok || addr2 != addr {
		t.Errorf("round trip through %q did not preserve address", got)
	}
}

func TestParseAddressRejectsBadInput(t *testing.T) {
	tests := []string{
		"",
		"not hex at all",
		"0xzz",
		"0x1234", // too short
	}
	for _, in := range tests {
		if _, ok := ParseAddress(in); ok {
			t.Errorf("ParseAddress(%q) should have failed", in)
		}
	}
}

func TestParseHexBytesDistinguishesEmptyFromMalformed(t *testing.T) {
	if b, ok := ParseHexBytes(""); !ok || b != nil {
		t.Errorf("ParseHexBytes(\"\") = (%v, %v), want (nil, true)", b, ok)
	}
	if b, ok := ParseHexBytes("0x"); !ok || len(b) != 0 {
		t.Errorf("ParseHexBytes(\"0x\") = (%v, %v), want ([]byte{}, true)", b, ok)
	}
	if _, ok := ParseHexBytes("0xzz"); ok {
		t.Error("ParseHexBytes(\"0xzz\") should fail: not valid hex")
	}
	if _, ok := ParseHexBytes("deadbeef"); ok {
		t.Error("ParseHexBytes(\"deadbeef\") should fail: missing 0x prefix")
	}
}

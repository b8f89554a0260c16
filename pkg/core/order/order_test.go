package order

import (
	"testing"
	"time"

	"github.com/tracer-protocol/ome/pkg/core/types"
)

var (
	trader = mustAddr("0x1111111111111111111111111111111111111111")
	market = mustAddr("0x2222222222222222222222222222222222222222")
)

func mustAddr(s string) types.Address {
	a, ok := types.ParseAddress(s)
	if !ok {
		panic("bad test address: " + s)
	}
	return a
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantOK  bool
	}{
		{in: "bid", want: Bid, wantOK: true},
		{in: "Bid", want: Bid, wantOK: true},
		{in: "BID", want: Bid, wantOK: true},
		{in: "ask", want: Ask, wantOK: true},
		{in: "Ask", want: Ask, wantOK: true},
		{in: "ASK", want: Ask, wantOK: true},
		{in: "buy", wantOK: false},
		{in: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ParseSide(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseSide(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseSide(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeriveIDDeterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	exp := time.Unix(1700003600, 0)
	price := types.NewPriceFromUint64(100)
	qty := types.NewQtyFromUint64(10)

	id1 := DeriveID(trader, market, Bid, price, qty, exp, now)
	id2 := DeriveID(trader, market, Bid, price, qty, exp, now)
	if id1 != id2 {
		t.Error("DeriveID is not deterministic for identical inputs")
	}

	id3 := DeriveID(trader, market, Ask, price, qty, exp, now)
	if id1 == id3 {
		t.Error("DeriveID must differ when side differs")
	}
}

func TestDeriveIDTruncatesToSeconds(t *testing.T) {
	price := types.NewPriceFromUint64(100)
	qty := types.NewQtyFromUint64(10)
	exp := time.Unix(1700003600, 0)

	a := time.Unix(1700000000, 0)
	b := time.Unix(1700000000, 999_000_000) // same second, different nanos

	idA := DeriveID(trader, market, Bid, price, qty, exp, a)
	idB := DeriveID(trader, market, Bid, price, qty, exp, b)
	if idA != idB {
		t.Error("DeriveID should be insensitive to sub-second precision")
	}
}

func TestNewSetsRemainingToQuantity(t *testing.T) {
	qty := types.NewQtyFromUint64(50)
	o := New(trader, market, Bid, types.NewPriceFromUint64(10), qty, time.Time{}, time.Now(), nil)

	if o.Remaining.Cmp(qty) != 0 {
		t.Errorf("Remaining = %s, want %s", o.Remaining, qty)
	}
	if o.ID == (types.OrderId{}) {
		t.Error("expected a derived non-zero ID")
	}
}

func TestExternalRoundTrip(t *testing.T) {
	o := New(trader, market, Ask, types.NewPriceFromUint64(250), types.NewQtyFromUint64(7),
		time.Unix(1800000000, 0), time.Unix(1700000000, 0), []byte{0xde, 0xad})

	ext := ToExternal(o)
	back, err := FromExternal(ext)
	if err != nil {
		t.Fatalf("FromExternal failed: %v", err)
	}

	if back.Trader != o.Trader || back.Market != o.Market || back.Side != o.Side {
		t.Error("identity fields did not survive the round trip")
	}
	if back.Price.Cmp(o.Price) != 0 || back.Quantity.Cmp(o.Quantity) != 0 {
		t.Error("price/quantity did not survive the round trip")
	}
	if back.ID != o.ID {
		t.Error("ID did not survive the round trip (derivation must be reproducible)")
	}
}

func TestFromExternalRejectsMalformedFields(t *testing.T) {
	valid := ToExternal(New(trader, market, Bid, types.NewPriceFromUint64(1), types.NewQtyFromUint64(1),
		time.Now().Add(time.Hour), time.Now(), nil))

	tests := []struct {
		name    string
		mutate  func(e External) External
		wantKind ParseErrorKind
	}{
		{
			name:    "bad user address",
			mutate:  func(e External) External { e.User = "not-hex"; return e },
			wantKind: InvalidHexadecimal,
		},
		{
			name:    "bad side",
			mutate:  func(e External) External { e.Side = "buy"; return e },
			wantKind: InvalidSide,
		},
		{
			name:    "bad price",
			mutate:  func(e External) External { e.Price = "not-a-number"; return e },
			wantKind: InvalidDecimal,
		},
		{
			name:    "bad timestamp",
			mutate:  func(e External) External { e.Created = "yesterday"; return e },
			wantKind: InvalidTimestamp,
		},
		{
			name:    "bad signed data",
			mutate:  func(e External) External { e.SignedData = "not-hex"; return e },
			wantKind: InvalidHexadecimal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromExternal(tt.mutate(valid))
			pe, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("expected a *ParseError, got %v", err)
			}
			if pe.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", pe.Kind, tt.wantKind)
			}
		})
	}
}

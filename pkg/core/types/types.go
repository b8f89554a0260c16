// Package types holds the numeric and identity primitives shared by the
// order model, the book, and the wire-facing DTOs: 256-bit prices and
// quantities, 20-byte market/trader addresses, and 32-byte order IDs.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Price is an unsigned 256-bit integer, total-ordered.
type Price struct {
	u uint256.Int
}

// Qty is an unsigned 256-bit integer, closed under saturating subtraction
// at zero.
type Qty struct {
	u uint256.Int
}

// Address is an opaque 20-byte identifier (an Ethereum-style contract or
// account address). Only equality and hashing are meaningful.
type Address = common.Address

// OrderId is a 32-byte identifier derived deterministically from an
// order's immutable fields. See order.DeriveID.
type OrderId = common.Hash

// ZeroPrice is the zero price, used as the initial LTP before any fill.
func ZeroPrice() Price { return Price{} }

// ZeroQty is the zero quantity.
func ZeroQty() Qty { return Qty{} }

// NewPriceFromUint64 builds a Price from a small non-negative integer;
// convenient for tests and seed data.
func NewPriceFromUint64(v uint64) Price { return Price{u: *uint256.NewInt(v)} }

// NewQtyFromUint64 builds a Qty from a small non-negative integer.
func NewQtyFromUint64(v uint64) Qty { return Qty{u: *uint256.NewInt(v)} }

// PriceFromDecimal parses a base-10 string into a Price. Returns false on
// a malformed or negative literal.
func PriceFromDecimal(s string) (Price, bool) {
	u, ok := parseDecimalUint256(s)
	if !ok {
		return Price{}, false
	}
	return Price{u: u}, true
}

// QtyFromDecimal parses a base-10 string into a Qty.
func QtyFromDecimal(s string) (Qty, bool) {
	u, ok := parseDecimalUint256(s)
	if !ok {
		return Qty{}, false
	}
	return Qty{u: u}, true
}

func parseDecimalUint256(s string) (uint256.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint256.Int{}, false
	}
	var u uint256.Int
	if err := u.SetFromDecimal(s); err != nil {
		return uint256.Int{}, false
	}
	return u, true
}

// String renders the price as a decimal string.
func (p Price) String() string { return p.u.Dec() }

// String renders the quantity as a decimal string.
func (q Qty) String() string { return q.u.Dec() }

// Cmp compares two prices: -1, 0, or 1.
func (p Price) Cmp(other Price) int { return p.u.Cmp(&other.u) }

// Less reports whether p < other.
func (p Price) Less(other Price) bool { return p.u.Lt(&other.u) }

// Equal reports whether p == other.
func (p Price) Equal(other Price) bool { return p.u.Eq(&other.u) }

// LessOrEqual reports whether p <= other.
func (p Price) LessOrEqual(other Price) bool { return !other.u.Lt(&p.u) }

// Sub returns p - other as a Qty-shaped magnitude, assuming p >= other.
func (p Price) Sub(other Price) Qty {
	var out uint256.Int
	out.Sub(&p.u, &other.u)
	return Qty{u: out}
}

// IsZero reports whether the price is zero.
func (p Price) IsZero() bool { return p.u.IsZero() }

// Cmp compares two quantities.
func (q Qty) Cmp(other Qty) int { return q.u.Cmp(&other.u) }

// IsZero reports whether the quantity is zero.
func (q Qty) IsZero() bool { return q.u.IsZero() }

// Min returns the smaller of two quantities.
func (q Qty) Min(other Qty) Qty {
	if q.u.Lt(&other.u) {
		return q
	}
	return other
}

// SatSub returns q - other, saturating at zero rather than wrapping.
// Matching never calls this with other > q (amount is always
// min(maker.remaining, taker.remaining)) but saturation keeps the type
// safe for callers that don't maintain that invariant themselves.
func (q Qty) SatSub(other Qty) Qty {
	if other.u.Gt(&q.u) {
		return Qty{}
	}
	var out uint256.Int
	out.Sub(&q.u, &other.u)
	return Qty{u: out}
}

// Add returns q + other.
func (q Qty) Add(other Qty) Qty {
	var out uint256.Int
	out.Add(&q.u, &other.u)
	return Qty{u: out}
}

// ParseAddress decodes a "0x"-prefixed 20-byte hex address. Returns false
// if the string is not exactly 20 bytes once decoded.
func ParseAddress(s string) (Address, bool) {
	raw, ok := ParseHexBytes(s)
	if !ok || len(raw) != common.AddressLength {
		return Address{}, false
	}
	return common.BytesToAddress(raw), true
}

// FormatAddress renders an address as an EIP-55 checksummed hex string.
func FormatAddress(a Address) string {
	return a.Hex()
}

// ParseOrderId decodes a "0x"-prefixed 32-byte hex order ID.
func ParseOrderId(s string) (OrderId, bool) {
	raw, ok := ParseHexBytes(s)
	if !ok || len(raw) != common.HashLength {
		return OrderId{}, false
	}
	return common.BytesToHash(raw), true
}

// FormatOrderId renders an order ID as a "0x"-prefixed hex string.
func FormatOrderId(id OrderId) string {
	return id.Hex()
}

// ParseHexBytes decodes an opaque "0x"-prefixed byte string (signed_data).
func ParseHexBytes(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	trimmed := s[2:]
	if trimmed == "" {
		return []byte{}, true
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// FormatHexBytes renders opaque bytes as a "0x"-prefixed hex string.
func FormatHexBytes(b []byte) string {
	return fmt.Sprintf("0x%x", b)
}

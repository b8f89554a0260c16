// Package order defines the matching engine's order identity: immutable
// fields plus a mutable remaining quantity, deterministic ID derivation,
// and the external (stringly-typed) wire form used at the API boundary.
package order

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/tracer-protocol/ome/pkg/core/types"
)

// Side identifies which side of the book an order rests on.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

func (s Side) bytes() []byte {
	if s == Bid {
		return []byte{0x00}
	}
	return []byte{0x01}
}

// ParseSide accepts the spellings the spec allows: {bid,Bid,BID,ask,Ask,ASK}.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "bid", "Bid", "BID":
		return Bid, true
	case "ask", "Ask", "ASK":
		return Ask, true
	default:
		return 0, false
	}
}

// Order is an order resting in (or being matched against) a book.
//
// Every field except Remaining is immutable once constructed; Remaining
// is mutated in place by the matching algorithm and by nothing else.
type Order struct {
	ID         types.OrderId
	Trader     types.Address
	Market     types.Address
	Side       Side
	Price      types.Price
	Quantity   types.Qty // original size, never mutated
	Remaining  types.Qty // 0 <= Remaining <= Quantity
	Expiration time.Time
	Created    time.Time
	SignedData []byte // opaque; preserved verbatim
}

// New constructs an order, deriving its ID from the immutable fields.
// Construction never fails for well-formed inputs.
func New(
	trader, market types.Address,
	side Side,
	price types.Price,
	quantity types.Qty,
	expiration, created time.Time,
	signedData []byte,
) Order {
	o := Order{
		Trader:     trader,
		Market:     market,
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		Remaining:  quantity,
		Expiration: expiration,
		Created:    created,
		SignedData: signedData,
	}
	o.ID = DeriveID(trader, market, side, price, quantity, expiration, created)
	return o
}

// DeriveID computes the canonical OrderId: the Keccak256 digest of the
// concatenation-encoded tuple (trader, market, side, price, quantity,
// expiration_ts, created_ts). Two orders with identical fields yield
// identical IDs — this is part of the contract (spec.md §3, §9).
//
// Timestamps are truncated to whole seconds before hashing (spec.md §9's
// open question: this implementation picks seconds, matching the Unix
// second resolution used everywhere else at the wire boundary).
func DeriveID(
	trader, market types.Address,
	side Side,
	price types.Price,
	quantity types.Qty,
	expiration, created time.Time,
) types.OrderId {
	h := sha3.NewLegacyKeccak256()
	h.Write(trader.Bytes())
	h.Write(market.Bytes())
	h.Write(side.bytes())
	h.Write(canonicalBytes(price))
	h.Write(canonicalBytes(quantity))
	h.Write(beUnixSeconds(expiration))
	h.Write(beUnixSeconds(created))
	return types.OrderId(h.Sum(nil))
}

// canonicalBytes hashes over the canonical decimal string of a Price/Qty
// rather than a raw byte encoding, so the derivation depends only on
// value, not on representation.
func canonicalBytes(v interface{ String() string }) []byte {
	return []byte(v.String())
}

func beUnixSeconds(t time.Time) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.Unix()))
	return buf[:]
}

// ParseErrorKind tags the reason an external order failed to convert.
type ParseErrorKind string

const (
	InvalidHexadecimal ParseErrorKind = "InvalidHexadecimal"
	InvalidSide        ParseErrorKind = "InvalidSide"
	InvalidTimestamp   ParseErrorKind = "InvalidTimestamp"
	IntegerBounds      ParseErrorKind = "IntegerBounds"
	InvalidDecimal     ParseErrorKind = "InvalidDecimal"
)

// ParseError reports why FromExternal failed.
type ParseError struct {
	Kind  ParseErrorKind
	Field string
}

func (e *ParseError) Error() string {
	return string(e.Kind) + ": " + e.Field
}

// External is the wire-level projection of an order: every field is a
// string (addresses hex with 0x prefix, price/quantity/amount_left
// decimal, timestamps decimal Unix seconds, signed_data hex).
type External struct {
	ID           string `json:"id"`
	User         string `json:"user"`
	TargetTracer string `json:"target_tracer"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	AmountLeft   string `json:"amount_left"`
	Expiration   string `json:"expiration"`
	Created      string `json:"created"`
	SignedData   string `json:"signed_data"`
}

// ToExternal converts an internal Order to its wire projection. Infallible.
func ToExternal(o Order) External {
	return External{
		ID:           types.FormatOrderId(o.ID),
		User:         types.FormatAddress(o.Trader),
		TargetTracer: types.FormatAddress(o.Market),
		Side:         o.Side.String(),
		Price:        o.Price.String(),
		Amount:       o.Quantity.String(),
		AmountLeft:   o.Remaining.String(),
		Expiration:   strconv.FormatInt(o.Expiration.Unix(), 10),
		Created:      strconv.FormatInt(o.Created.Unix(), 10),
		SignedData:   types.FormatHexBytes(o.SignedData),
	}
}

// FromExternal validates and converts a wire order into an internal Order,
// deriving a fresh ID and Remaining := Quantity.
func FromExternal(e External) (Order, error) {
	trader, ok := types.ParseAddress(e.User)
	if !ok {
		return Order{}, &ParseError{Kind: InvalidHexadecimal, Field: "user"}
	}
	market, ok := types.ParseAddress(e.TargetTracer)
	if !ok {
		return Order{}, &ParseError{Kind: InvalidHexadecimal, Field: "target_tracer"}
	}
	side, ok := ParseSide(strings.TrimSpace(e.Side))
	if !ok {
		return Order{}, &ParseError{Kind: InvalidSide, Field: "side"}
	}
	price, ok := types.PriceFromDecimal(e.Price)
	if !ok {
		return Order{}, &ParseError{Kind: InvalidDecimal, Field: "price"}
	}
	amount, ok := types.QtyFromDecimal(e.Amount)
	if !ok {
		return Order{}, &ParseError{Kind: InvalidDecimal, Field: "amount"}
	}
	expiration, err := parseUnixSeconds(e.Expiration)
	if err != nil {
		return Order{}, &ParseError{Kind: InvalidTimestamp, Field: "expiration"}
	}
	created, err := parseUnixSeconds(e.Created)
	if err != nil {
		return Order{}, &ParseError{Kind: InvalidTimestamp, Field: "created"}
	}
	signedData, ok := types.ParseHexBytes(e.SignedData)
	if !ok {
		return Order{}, &ParseError{Kind: InvalidHexadecimal, Field: "signed_data"}
	}

	return New(trader, market, side, price, amount, expiration, created, signedData), nil
}

func parseUnixSeconds(s string) (time.Time, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

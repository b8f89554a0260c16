package book

import (
	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// ExternalBook is the wire-level projection of a Book: the market
// address hex-encoded, the last-traded price decimal, and every resting
// order on both sides as an order.External record. It round-trips
// losslessly with Book via ToExternalBook/FromExternalBook (spec.md §6,
// §8 P5) and is the shape the REST read-market response, the dumpfile,
// and the markets-discovery client all exchange.
type ExternalBook struct {
	Market string           `json:"market"`
	LTP    string           `json:"ltp"`
	Bids   []order.External `json:"bids"`
	Asks   []order.External `json:"asks"`
}

// ToExternalBook projects b into its wire-level form, preserving every
// resting order's identity, trader, timestamps, and remaining quantity,
// plus the book's last-traded price.
func (b *Book) ToExternalBook() ExternalBook {
	return ExternalBook{
		Market: types.FormatAddress(b.market),
		LTP:    b.ltp.String(),
		Bids:   externalOrders(b.Orders(order.Bid)),
		Asks:   externalOrders(b.Orders(order.Ask)),
	}
}

func externalOrders(orders []*order.Order) []order.External {
	out := make([]order.External, len(orders))
	for i, o := range orders {
		out[i] = order.ToExternal(*o)
	}
	return out
}

// FromExternalBook rebuilds a Book from its wire-level projection,
// including the last-traded price. Orders are restored with their saved
// remaining quantity and are not rematched against the opposite side: a
// lawful ExternalBook is already a non-crossed snapshot (spec.md §9).
func FromExternalBook(eb ExternalBook) (*Book, error) {
	market, ok := types.ParseAddress(eb.Market)
	if !ok {
		return nil, &BookError{msg: "externalbook: invalid market address " + eb.Market}
	}

	b := New(market)
	if err := restoreExternalSide(b, eb.Bids); err != nil {
		return nil, err
	}
	if err := restoreExternalSide(b, eb.Asks); err != nil {
		return nil, err
	}

	if eb.LTP != "" {
		ltp, ok := types.PriceFromDecimal(eb.LTP)
		if !ok {
			return nil, &BookError{msg: "externalbook: invalid ltp " + eb.LTP}
		}
		b.RestoreLTP(ltp)
	}
	return b, nil
}

func restoreExternalSide(b *Book, externals []order.External) error {
	for _, ext := range externals {
		o, err := order.FromExternal(ext)
		if err != nil {
			return err
		}
		remaining, ok := types.QtyFromDecimal(ext.AmountLeft)
		if !ok {
			return &BookError{msg: "externalbook: invalid amount_left " + ext.AmountLeft}
		}
		o.Remaining = remaining
		b.Restore(o)
	}
	return nil
}

// Package dto holds the JSON projections returned across the REST/WS
// boundary: book snapshots, fills, and match results. Order wire framing
// itself lives in pkg/core/order.External; these types wrap it for the
// shapes that are specific to the host layer.
package dto

import (
	"sort"

	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// PriceLevelView is one [price, aggregate size] row of a book snapshot.
type PriceLevelView struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookSnapshot is the REST/WS projection of a Book returned from
// "read market": book.ExternalBook itself (the market, LTP, and every
// resting order on both sides as order.External records — the
// round-trippable projection spec.md names), plus best-of-book and
// aggregated price levels for depth display.
type BookSnapshot struct {
	book.ExternalBook
	BidLevels []PriceLevelView `json:"bidLevels"` // sorted best (highest) first
	AskLevels []PriceLevelView `json:"askLevels"` // sorted best (lowest) first
	BestBid   *string          `json:"bestBid,omitempty"`
	BestAsk   *string          `json:"bestAsk,omitempty"`
}

// NewBookSnapshot projects b through its canonical ExternalBook, then
// derives the aggregated depth levels from that same projection so the
// REST/WS layer and the round-trip projection never disagree.
func NewBookSnapshot(b *book.Book) BookSnapshot {
	eb := b.ToExternalBook()
	snap := BookSnapshot{
		ExternalBook: eb,
		BidLevels:    aggregateLevels(eb.Bids, true),
		AskLevels:    aggregateLevels(eb.Asks, false),
	}

	bestBid, bestAsk := b.Top()
	if bestBid != nil {
		s := bestBid.String()
		snap.BestBid = &s
	}
	if bestAsk != nil {
		s := bestAsk.String()
		snap.BestAsk = &s
	}
	return snap
}

// aggregateLevels sums remaining quantity per distinct price across a
// side's external order records, sorted descending (best bid first) or
// ascending (best ask first). Malformed entries are skipped: they can
// only arise from an upstream-corrupted projection, since order.ToExternal
// never produces one.
func aggregateLevels(orders []order.External, descending bool) []PriceLevelView {
	totals := make(map[string]types.Qty, len(orders))
	var prices []types.Price

	for _, ext := range orders {
		price, ok := types.PriceFromDecimal(ext.Price)
		if !ok {
			continue
		}
		amount, ok := types.QtyFromDecimal(ext.AmountLeft)
		if !ok {
			continue
		}
		key := price.String()
		if cur, exists := totals[key]; exists {
			totals[key] = cur.Add(amount)
		} else {
			totals[key] = amount
			prices = append(prices, price)
		}
	}

	sort.Slice(prices, func(i, j int) bool {
		if descending {
			return prices[j].Less(prices[i])
		}
		return prices[i].Less(prices[j])
	})

	out := make([]PriceLevelView, len(prices))
	for i, p := range prices {
		out[i] = PriceLevelView{Price: p.String(), Size: totals[p.String()].String()}
	}
	return out
}

// FillView is the external projection of a book.Fill.
type FillView struct {
	Maker    string `json:"maker"`
	Taker    string `json:"taker"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// MatchResultView is the external projection of a book.MatchResult,
// returned from POST .../orders.
type MatchResultView struct {
	OrderID string     `json:"orderId"`
	Status  string     `json:"status"`
	Fills   []FillView `json:"fills"`
}

// NewMatchResultView projects a MatchResult for the order that produced it.
func NewMatchResultView(orderID types.OrderId, r book.MatchResult) MatchResultView {
	fills := make([]FillView, len(r.Fills))
	for i, f := range r.Fills {
		fills[i] = FillView{
			Maker:    types.FormatOrderId(f.Maker),
			Taker:    types.FormatOrderId(f.Taker),
			Price:    f.Price.String(),
			Quantity: f.Quantity.String(),
		}
	}
	return MatchResultView{
		OrderID: types.FormatOrderId(orderID),
		Status:  string(r.Status),
		Fills:   fills,
	}
}

// MarketList is the response body for GET /api/v1/books.
type MarketList struct {
	Markets []string `json:"markets"`
}

// NewMarketList projects a slice of market addresses.
func NewMarketList(markets []types.Address) MarketList {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = types.FormatAddress(m)
	}
	return MarketList{Markets: out}
}

// OrderList is the response body for a per-trader order listing.
type OrderList struct {
	Orders []order.External `json:"orders"`
}

// NewOrderList projects every order in orders belonging to trader,
// filtering on trader address.
func NewOrderList(orders []*order.Order, trader types.Address) OrderList {
	out := make([]order.External, 0, len(orders))
	for _, o := range orders {
		if o.Trader != trader {
			continue
		}
		out = append(out, order.ToExternal(*o))
	}
	return OrderList{Orders: out}
}

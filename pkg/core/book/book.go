// Package book implements the per-market limit order book and the
// continuous price-time-priority matching algorithm that runs on every
// incoming order (spec.md §4.2-§4.4).
package book

import (
	"time"

	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// Status classifies the outcome of a submit call.
type Status string

const (
	Placed       Status = "Placed"
	PartialMatch Status = "PartialMatch"
	FullMatch    Status = "FullMatch"
)

// Fill is the atomic unit of a match: one (maker, taker, price, quantity)
// tuple. Price is always the resting (maker) order's price.
type Fill struct {
	Maker    types.OrderId
	Taker    types.OrderId
	Price    types.Price
	Quantity types.Qty
}

// MatchResult is the outcome of submit: a status plus the ordered fills
// it produced. Placed implies no fills; FullMatch implies the taker was
// fully consumed and not rested; PartialMatch implies the taker was
// rested with a non-zero remaining.
type MatchResult struct {
	Status Status
	Fills  []Fill
}

// BookError is the domain error taxonomy reserved for the book and its
// matching algorithm (spec.md §4.2, §7).
type BookError struct {
	msg string
}

func (e *BookError) Error() string { return e.msg }

// ErrMatchingFault is reserved: given the invariants spec.md guarantees,
// matching has no fallible substeps, so this is never returned today. It
// exists because the original implementation's BookError enum carried a
// variant for a failure mode (a settlement RPC call inside submit) that
// this design relocates outside the core entirely (spec.md §4.2, §9).
var ErrMatchingFault = &BookError{msg: "matching fault"}

// Book is the double-sided limit order book for a single market.
type Book struct {
	market types.Address
	bids   *ladder // ascending by price; best bid = max key
	asks   *ladder // ascending by price; best ask = min key
	ltp    types.Price
}

// New returns an empty book for the given market.
func New(market types.Address) *Book {
	return &Book{
		market: market,
		bids:   newLadder(),
		asks:   newLadder(),
		ltp:    types.ZeroPrice(),
	}
}

// Market returns the address of the contract this book belongs to.
func (b *Book) Market() types.Address { return b.market }

// LTP returns the last traded price (zero until the first fill).
func (b *Book) LTP() types.Price { return b.ltp }

// Crossed reports whether the book is in a crossed state: best bid >=
// best ask with both sides non-empty. Reserved by spec.md's data model.
// Submit leaves the book crossed only when a taker rests at a crossing
// price because every viable maker was its own order; Restore can also
// produce a crossed book if given crossing orders.
func (b *Book) Crossed() bool {
	bestBid, hasBid := b.bids.bestMax()
	bestAsk, hasAsk := b.asks.bestMin()
	if !hasBid || !hasAsk {
		return false
	}
	return bestAsk.price.LessOrEqual(bestBid.price)
}

// Spread returns min(asks) - max(bids) when both sides are non-empty and
// the book is not crossed, else zero. Reserved by spec.md's data model.
func (b *Book) Spread() types.Qty {
	bestBid, hasBid := b.bids.bestMax()
	bestAsk, hasAsk := b.asks.bestMin()
	if !hasBid || !hasAsk || b.Crossed() {
		return types.ZeroQty()
	}
	return bestAsk.price.Sub(bestBid.price)
}

// Depth returns the count of live orders on (bids, asks).
func (b *Book) Depth() (int, int) {
	return b.bids.depth(), b.asks.depth()
}

// Top returns the best bid and best ask prices; nil if the respective
// side is empty.
func (b *Book) Top() (*types.Price, *types.Price) {
	var bestBid, bestAsk *types.Price
	if lv, ok := b.bids.bestMax(); ok {
		p := lv.price
		bestBid = &p
	}
	if lv, ok := b.asks.bestMin(); ok {
		p := lv.price
		bestAsk = &p
	}
	return bestBid, bestAsk
}

// BidLevels returns every resting bid price level, best (highest) first.
func (b *Book) BidLevels() []LevelSummary { return b.bids.summaries(false) }

// AskLevels returns every resting ask price level, best (lowest) first.
func (b *Book) AskLevels() []LevelSummary { return b.asks.summaries(true) }

// Orders returns every resting order on the given side, in no particular
// cross-level order beyond FIFO within a level. Used by the API layer to
// answer per-trader order listings without exposing ladder internals.
func (b *Book) Orders(side order.Side) []*order.Order {
	var l *ladder
	if side == order.Bid {
		l = b.bids
	} else {
		l = b.asks
	}
	var out []*order.Order
	l.ascend(func(lv *level) bool {
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			out = append(out, e.Value.(*order.Order))
		}
		return true
	})
	return out
}

// Order returns the first order matching id, scanning both sides.
func (b *Book) Order(id types.OrderId) (*order.Order, bool) {
	if o := b.bids.find(id); o != nil {
		return o, true
	}
	if o := b.asks.find(id); o != nil {
		return o, true
	}
	return nil, false
}

// Submit runs the matching algorithm against an incoming order, mutating
// the book, and returns the resulting status and fills (spec.md §4.3).
func (b *Book) Submit(o order.Order) (MatchResult, error) {
	taker := &o

	var opposing, own *ladder
	var bestOpposing func() (*level, bool)
	var walk func(func(*level) bool)
	var viable func(opposingPrice types.Price) bool

	if taker.Side == order.Bid {
		opposing, own = b.asks, b.bids
		bestOpposing = opposing.bestMin
		walk = opposing.ascend
		viable = func(opposingPrice types.Price) bool { return opposingPrice.LessOrEqual(taker.Price) }
	} else {
		opposing, own = b.bids, b.asks
		bestOpposing = opposing.bestMax
		walk = opposing.descend
		viable = func(opposingPrice types.Price) bool { return taker.Price.LessOrEqual(opposingPrice) }
	}

	topLevel, hasTop := bestOpposing()
	if !hasTop || !viable(topLevel.price) {
		own.pushBack(taker)
		return MatchResult{Status: Placed}, nil
	}

	var fills []Fill
	walk(func(lv *level) bool {
		if !viable(lv.price) {
			return false
		}
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			maker := e.Value.(*order.Order)
			if maker.Trader == taker.Trader {
				continue
			}
			amount := maker.Remaining.Min(taker.Remaining)
			maker.Remaining = maker.Remaining.SatSub(amount)
			taker.Remaining = taker.Remaining.SatSub(amount)

			fills = append(fills, Fill{
				Maker:    maker.ID,
				Taker:    taker.ID,
				Price:    lv.price,
				Quantity: amount,
			})
			b.ltp = lv.price

			if taker.Remaining.IsZero() {
				break
			}
		}
		return !taker.Remaining.IsZero()
	})

	opposing.prune()

	if !taker.Remaining.IsZero() {
		own.pushBack(taker)
		return MatchResult{Status: PartialMatch, Fills: fills}, nil
	}
	return MatchResult{Status: FullMatch, Fills: fills}, nil
}

// Restore adds o directly to its resting side without running the
// matching algorithm. Used by FromExternalBook to rebuild a book from a
// snapshot (a pkg/persist dumpfile or a markets-discovery response),
// where every order was already resting and non-crossed; running it back
// through Submit would re-match orders that were never meant to trade
// against each other.
func (b *Book) Restore(o order.Order) {
	taker := &o
	if taker.Side == order.Bid {
		b.bids.pushBack(taker)
	} else {
		b.asks.pushBack(taker)
	}
}

// RestoreLTP sets the last-traded price directly, bypassing Submit. Used
// alongside Restore when rebuilding a book from a snapshot or external
// projection that already captured an LTP from before the rebuild.
func (b *Book) RestoreLTP(p types.Price) { b.ltp = p }

// Cancel removes the first order with the given ID from either side.
// Returns the current timestamp on success, ok=false if no such order.
func (b *Book) Cancel(id types.OrderId) (time.Time, bool) {
	if _, ok := b.bids.removeOrder(id); ok {
		return time.Now(), true
	}
	if _, ok := b.asks.removeOrder(id); ok {
		return time.Now(), true
	}
	return time.Time{}, false
}

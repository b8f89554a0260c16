package book

import (
	"testing"
	"time"

	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

var market = mustAddr("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

func mustAddr(s string) types.Address {
	a, ok := types.ParseAddress(s)
	if !ok {
		panic("bad test address: " + s)
	}
	return a
}

var addrCounter byte

func nextTrader() types.Address {
	addrCounter++
	var a types.Address
	a[19] = addrCounter
	return a
}

func newOrder(trader types.Address, side order.Side, price, qty uint64) order.Order {
	return order.New(trader, market, side, types.NewPriceFromUint64(price), types.NewQtyFromUint64(qty),
		time.Now().Add(time.Hour), time.Now(), nil)
}

func TestSubmitRestsWhenBookEmpty(t *testing.T) {
	b := New(market)
	res, err := b.Submit(newOrder(nextTrader(), order.Bid, 100, 10))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Status != Placed {
		t.Errorf("Status = %v, want Placed", res.Status)
	}
	if len(res.Fills) != 0 {
		t.Errorf("expected no fills, got %d", len(res.Fills))
	}
	bids, asks := b.Depth()
	if bids != 1 || asks != 0 {
		t.Errorf("Depth = (%d,%d), want (1,0)", bids, asks)
	}
}

func TestSubmitFullMatchSingleLevel(t *testing.T) {
	b := New(market)
	maker := newOrder(nextTrader(), order.Ask, 100, 10)
	if _, err := b.Submit(maker); err != nil {
		t.Fatal(err)
	}

	taker := newOrder(nextTrader(), order.Bid, 100, 10)
	res, err := b.Submit(taker)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != FullMatch {
		t.Errorf("Status = %v, want FullMatch", res.Status)
	}
	if len(res.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(res.Fills))
	}
	if res.Fills[0].Quantity.Cmp(types.NewQtyFromUint64(10)) != 0 {
		t.Errorf("fill quantity = %s, want 10", res.Fills[0].Quantity)
	}
	if res.Fills[0].Price.Cmp(types.NewPriceFromUint64(100)) != 0 {
		t.Errorf("fill price = %s, want the maker's resting price 100", res.Fills[0].Price)
	}

	bids, asks := b.Depth()
	if bids != 0 || asks != 0 {
		t.Errorf("Depth after full match = (%d,%d), want (0,0)", bids, asks)
	}
	if b.LTP().Cmp(types.NewPriceFromUint64(100)) != 0 {
		t.Errorf("LTP = %s, want 100", b.LTP())
	}
}

// TestSubmitFIFOWithinLevel verifies that two resting orders at the same
// price fill in arrival order: the taker should exhaust the earlier maker
// first, leaving the later maker fully untouched.
func TestSubmitFIFOWithinLevel(t *testing.T) {
	b := New(market)
	first := newOrder(nextTrader(), order.Ask, 100, 5)
	second := newOrder(nextTrader(), order.Ask, 100, 5)
	b.Submit(first)
	b.Submit(second)

	taker := newOrder(nextTrader(), order.Bid, 100, 5)
	res, err := b.Submit(taker)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != FullMatch {
		t.Fatalf("Status = %v, want FullMatch", res.Status)
	}
	if len(res.Fills) != 1 || res.Fills[0].Maker != first.ID {
		t.Errorf("expected the sole fill to be against the first-arrived maker")
	}

	_, asks := b.Depth()
	if asks != 1 {
		t.Fatalf("expected the second maker still resting, depth=%d", asks)
	}
	remaining := b.Orders(order.Ask)
	if len(remaining) != 1 || remaining[0].ID != second.ID || remaining[0].Remaining.Cmp(types.NewQtyFromUint64(5)) != 0 {
		t.Errorf("second maker should be untouched at full remaining size")
	}
}

// TestSubmitPartialMatchAcrossMultipleLevels walks a taker through two
// price levels, fully consuming both, then resting the unfilled
// remainder.
func TestSubmitPartialMatchAcrossMultipleLevels(t *testing.T) {
	b := New(market)
	b.Submit(newOrder(nextTrader(), order.Ask, 100, 4))
	b.Submit(newOrder(nextTrader(), order.Ask, 101, 4))

	taker := newOrder(nextTrader(), order.Bid, 101, 10)
	res, err := b.Submit(taker)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != PartialMatch {
		t.Fatalf("Status = %v, want PartialMatch", res.Status)
	}
	if len(res.Fills) != 2 {
		t.Fatalf("expected 2 fills across both levels, got %d", len(res.Fills))
	}
	if res.Fills[0].Price.Cmp(types.NewPriceFromUint64(100)) != 0 {
		t.Errorf("first fill should be against the best (lowest) ask price")
	}
	if res.Fills[1].Price.Cmp(types.NewPriceFromUint64(101)) != 0 {
		t.Errorf("second fill should be against the next ask price")
	}

	bids, asks := b.Depth()
	if asks != 0 {
		t.Errorf("both ask levels should be fully consumed, asks depth=%d", asks)
	}
	if bids != 1 {
		t.Fatalf("taker's unfilled 2 remaining should rest, bids depth=%d", bids)
	}
	resting := b.Orders(order.Bid)
	if len(resting) != 1 || resting[0].Remaining.Cmp(types.NewQtyFromUint64(2)) != 0 {
		t.Errorf("resting taker remainder should be 2, got %v", resting)
	}
}

// TestSubmitSkipsSelfTrade verifies a taker never matches a resting order
// from the same trader: the self-trade is skipped and the maker survives
// untouched.
func TestSubmitSkipsSelfTrade(t *testing.T) {
	b := New(market)
	trader := nextTrader()
	maker := newOrder(trader, order.Ask, 100, 10)
	b.Submit(maker)

	other := newOrder(nextTrader(), order.Ask, 100, 10)
	b.Submit(other)

	taker := newOrder(trader, order.Bid, 100, 10)
	res, err := b.Submit(taker)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != FullMatch {
		t.Fatalf("Status = %v, want FullMatch (against the non-self maker)", res.Status)
	}
	if len(res.Fills) != 1 || res.Fills[0].Maker != other.ID {
		t.Errorf("expected the only fill to be against the non-self maker, got %+v", res.Fills)
	}

	askOrders := b.Orders(order.Ask)
	if len(askOrders) != 1 || askOrders[0].ID != maker.ID {
		t.Errorf("self-trade maker should remain resting untouched")
	}
}

// TestSubmitSelfTradeOnlyCounterpartyYieldsEmptyPartialMatch covers the
// edge case where every crossing resting order belongs to the taker: the
// taker cannot fill anything so it rests in full, but the book did cross
// on price, so the result is PartialMatch with no fills rather than Placed.
func TestSubmitSelfTradeOnlyCounterpartyYieldsEmptyPartialMatch(t *testing.T) {
	b := New(market)
	trader := nextTrader()
	maker := newOrder(trader, order.Ask, 100, 10)
	b.Submit(maker)

	taker := newOrder(trader, order.Bid, 100, 10)
	res, err := b.Submit(taker)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != PartialMatch {
		t.Errorf("Status = %v, want PartialMatch", res.Status)
	}
	if len(res.Fills) != 0 {
		t.Errorf("expected no fills, got %d", len(res.Fills))
	}

	bids, asks := b.Depth()
	if bids != 1 || asks != 1 {
		t.Errorf("both orders should remain resting untouched, depth=(%d,%d)", bids, asks)
	}
}

func TestSubmitDoesNotMatchAcrossNonCrossingPrice(t *testing.T) {
	b := New(market)
	b.Submit(newOrder(nextTrader(), order.Ask, 105, 10))

	res, err := b.Submit(newOrder(nextTrader(), order.Bid, 100, 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Placed {
		t.Errorf("Status = %v, want Placed: bid 100 should not cross ask 105", res.Status)
	}
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	b := New(market)
	o := newOrder(nextTrader(), order.Bid, 100, 10)
	b.Submit(o)

	if _, ok := b.Cancel(o.ID); !ok {
		t.Fatal("Cancel should succeed for a resting order")
	}
	bids, _ := b.Depth()
	if bids != 0 {
		t.Errorf("order should be gone after cancel, depth=%d", bids)
	}
	if _, ok := b.Cancel(o.ID); ok {
		t.Error("Cancel should fail the second time for an already-removed order")
	}
}

func TestCancelUnknownOrderFails(t *testing.T) {
	b := New(market)
	if _, ok := b.Cancel(types.OrderId{0x01}); ok {
		t.Error("Cancel should fail for an ID never submitted")
	}
}

func TestTopAndSpread(t *testing.T) {
	b := New(market)
	if bid, ask := b.Top(); bid != nil || ask != nil {
		t.Error("Top on an empty book should return (nil, nil)")
	}

	b.Submit(newOrder(nextTrader(), order.Bid, 95, 10))
	b.Submit(newOrder(nextTrader(), order.Ask, 105, 10))

	bid, ask := b.Top()
	if bid == nil || bid.Cmp(types.NewPriceFromUint64(95)) != 0 {
		t.Errorf("best bid = %v, want 95", bid)
	}
	if ask == nil || ask.Cmp(types.NewPriceFromUint64(105)) != 0 {
		t.Errorf("best ask = %v, want 105", ask)
	}
	if b.Crossed() {
		t.Error("book should not be crossed")
	}
	if spread := b.Spread(); spread.Cmp(types.NewQtyFromUint64(10)) != 0 {
		t.Errorf("spread = %s, want 10", spread)
	}
}

func TestRestoreDoesNotMatch(t *testing.T) {
	b := New(market)
	bid := newOrder(nextTrader(), order.Bid, 100, 10)
	ask := newOrder(nextTrader(), order.Ask, 90, 10)

	// A crossed pair: if Restore ran matching, these would fill each other.
	b.Restore(bid)
	b.Restore(ask)

	bids, asks := b.Depth()
	if bids != 1 || asks != 1 {
		t.Errorf("Restore must not match crossing orders, depth=(%d,%d), want (1,1)", bids, asks)
	}
	if !b.LTP().IsZero() {
		t.Errorf("Restore must not update LTP, got %s", b.LTP())
	}
}

func TestBidAndAskLevelsOrdering(t *testing.T) {
	b := New(market)
	b.Submit(newOrder(nextTrader(), order.Bid, 90, 5))
	b.Submit(newOrder(nextTrader(), order.Bid, 95, 5))
	b.Submit(newOrder(nextTrader(), order.Ask, 110, 5))
	b.Submit(newOrder(nextTrader(), order.Ask, 105, 5))

	bidLevels := b.BidLevels()
	if len(bidLevels) != 2 || bidLevels[0].Price.Cmp(types.NewPriceFromUint64(95)) != 0 {
		t.Errorf("BidLevels should be best (highest) first, got %+v", bidLevels)
	}

	askLevels := b.AskLevels()
	if len(askLevels) != 2 || askLevels[0].Price.Cmp(types.NewPriceFromUint64(105)) != 0 {
		t.Errorf("AskLevels should be best (lowest) first, got %+v", askLevels)
	}
}

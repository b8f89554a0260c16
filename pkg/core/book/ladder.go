package book

import (
	"container/list"

	"github.com/google/btree"

	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// btreeDegree controls the branching factor of the price ladder. 32 keeps
// node scans cache-friendly without the tree growing too deep for typical
// book sizes (adapted from the b-tree ladder pattern in the pack's other
// perp-dex order book).
const btreeDegree = 32

// level is one price level: a FIFO queue of resting orders plus the price
// key used to order it in the ladder.
type level struct {
	price types.Price
	fifo  *list.List // of *order.Order, insertion order preserved
}

// Less implements btree.Item: levels order ascending by price.
func (l *level) Less(than btree.Item) bool {
	return l.price.Less(than.(*level).price)
}

// ladder is one side of the book (bids or asks), stored ascending by
// price in a b-tree so both "best bid" (max) and "best ask" (min) come
// from the same uniform structure (spec.md §4.3's storage rationale).
type ladder struct {
	tree *btree.BTree
}

func newLadder() *ladder {
	return &ladder{tree: btree.New(btreeDegree)}
}

func (s *ladder) levelAt(price types.Price) *level {
	item := s.tree.Get(&level{price: price})
	if item == nil {
		return nil
	}
	return item.(*level)
}

func (s *ladder) getOrCreate(price types.Price) *level {
	if lv := s.levelAt(price); lv != nil {
		return lv
	}
	lv := &level{price: price, fifo: list.New()}
	s.tree.ReplaceOrInsert(lv)
	return lv
}

func (s *ladder) removeIfEmpty(price types.Price) {
	lv := s.levelAt(price)
	if lv != nil && lv.fifo.Len() == 0 {
		s.tree.Delete(&level{price: price})
	}
}

// pushBack appends o to the FIFO tail at its own price.
func (s *ladder) pushBack(o *order.Order) {
	lv := s.getOrCreate(o.Price)
	lv.fifo.PushBack(o)
}

// bestMax returns the maximal-keyed level (used for bids' "best bid").
func (s *ladder) bestMax() (*level, bool) {
	item := s.tree.Max()
	if item == nil {
		return nil, false
	}
	return item.(*level), true
}

// bestMin returns the minimal-keyed level (used for asks' "best ask").
func (s *ladder) bestMin() (*level, bool) {
	item := s.tree.Min()
	if item == nil {
		return nil, false
	}
	return item.(*level), true
}

// ascend walks levels from lowest to highest price, stopping early if fn
// returns false.
func (s *ladder) ascend(fn func(*level) bool) {
	s.tree.Ascend(func(item btree.Item) bool {
		return fn(item.(*level))
	})
}

// descend walks levels from highest to lowest price, stopping early if fn
// returns false.
func (s *ladder) descend(fn func(*level) bool) {
	s.tree.Descend(func(item btree.Item) bool {
		return fn(item.(*level))
	})
}

// removeOrder scans this side's FIFOs for an order with the given ID and
// removes it in place, preserving the relative order of survivors.
// Reports the price it was removed from.
func (s *ladder) removeOrder(id types.OrderId) (types.Price, bool) {
	var (
		found    bool
		foundAt  types.Price
		toRemove *list.Element
		foundLv  *level
	)
	s.tree.Ascend(func(item btree.Item) bool {
		lv := item.(*level)
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			if e.Value.(*order.Order).ID == id {
				toRemove, foundLv, foundAt, found = e, lv, lv.price, true
				return false
			}
		}
		return true
	})
	if !found {
		return types.Price{}, false
	}
	foundLv.fifo.Remove(toRemove)
	s.removeIfEmpty(foundAt)
	return foundAt, true
}

// depth counts live (non-zero-remaining) orders across all levels.
// Orders are pruned as soon as they hit zero remaining (see prune
// below, called from Book.Submit), so in practice every stored order is live; depth still walks
// and filters defensively rather than trusting that invariant blindly.
func (s *ladder) depth() int {
	n := 0
	s.tree.Ascend(func(item btree.Item) bool {
		lv := item.(*level)
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			if !e.Value.(*order.Order).Remaining.IsZero() {
				n++
			}
		}
		return true
	})
	return n
}

// LevelSummary is one aggregated price level: the price key plus the sum
// of every resting order's remaining quantity at that price.
type LevelSummary struct {
	Price types.Price
	Total types.Qty
}

// summaries aggregates remaining quantity per level, walking ascending
// if asc is true and descending otherwise.
func (s *ladder) summaries(asc bool) []LevelSummary {
	var out []LevelSummary
	walk := func(item btree.Item) bool {
		lv := item.(*level)
		total := types.ZeroQty()
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			total = total.Add(e.Value.(*order.Order).Remaining)
		}
		out = append(out, LevelSummary{Price: lv.price, Total: total})
		return true
	}
	if asc {
		s.tree.Ascend(walk)
	} else {
		s.tree.Descend(walk)
	}
	return out
}

// find scans this side's FIFOs for the first order with the given ID.
func (s *ladder) find(id types.OrderId) *order.Order {
	var found *order.Order
	s.tree.Ascend(func(item btree.Item) bool {
		lv := item.(*level)
		for e := lv.fifo.Front(); e != nil; e = e.Next() {
			o := e.Value.(*order.Order)
			if o.ID == id {
				found = o
				return false
			}
		}
		return true
	})
	return found
}

// prune removes every order with zero Remaining from every level, then
// every level whose FIFO became empty, maintaining invariants I2/I4.
func (s *ladder) prune() {
	var emptyPrices []types.Price
	s.tree.Ascend(func(item btree.Item) bool {
		lv := item.(*level)
		for e := lv.fifo.Front(); e != nil; {
			next := e.Next()
			if e.Value.(*order.Order).Remaining.IsZero() {
				lv.fifo.Remove(e)
			}
			e = next
		}
		if lv.fifo.Len() == 0 {
			emptyPrices = append(emptyPrices, lv.price)
		}
		return true
	})
	for _, p := range emptyPrices {
		s.tree.Delete(&level{price: p})
	}
}

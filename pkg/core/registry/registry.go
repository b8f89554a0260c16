// Package registry implements the multi-market book registry: a map of
// market address to Book, guarded by a single exclusive writer lock
// (spec.md §4.5, §5). Adapted from the teacher's
// pkg/app/core/market.MarketRegistry, generalized from a symbol-keyed
// market-parameters table to an address-keyed book table and narrowed
// from sync.RWMutex to a plain sync.Mutex: every exported operation here
// may mutate the book it looks up (submit/cancel run inside the same
// critical section as lookup), so there is no pure-read fast path to
// give a second lock mode to (spec.md §5's "no shared read lock" design).
package registry

import (
	"errors"
	"sync"

	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// ErrBookExists is returned by AddBook when a book for the market is
// already registered.
var ErrBookExists = errors.New("registry: book already exists")

// Registry owns every market's book under one exclusive writer lock.
type Registry struct {
	mu    sync.Mutex
	books map[types.Address]*book.Book
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{books: make(map[types.Address]*book.Book)}
}

// AddBook inserts a book keyed by its own market address. Rejects
// duplicates.
func (r *Registry) AddBook(b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[b.Market()]; exists {
		return ErrBookExists
	}
	r.books[b.Market()] = b
	return nil
}

// RemoveBook removes and returns the book for market, if present.
func (r *Registry) RemoveBook(market types.Address) (*book.Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[market]
	if !ok {
		return nil, false
	}
	delete(r.books, market)
	return b, true
}

// Book returns the book for market, if present.
func (r *Registry) Book(market types.Address) (*book.Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[market]
	return b, ok
}

// WithBook runs fn with exclusive access to the registry and the book
// for market, if present. This is the sole way callers should read or
// mutate a book: fn executes inside the registry's single writer lock,
// so a book observed by fn is never mid-mutation by another caller
// (spec.md §5).
func (r *Registry) WithBook(market types.Address, fn func(*book.Book) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[market]
	if !ok {
		return ErrNoSuchBook
	}
	return fn(b)
}

// ErrNoSuchBook is returned when a market has no registered book.
var ErrNoSuchBook = errors.New("registry: no such book")

// Markets returns every registered market address. Iteration order is
// unspecified (spec.md §4.5).
func (r *Registry) Markets() []types.Address {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Address, 0, len(r.books))
	for m := range r.books {
		out = append(out, m)
	}
	return out
}

// Count returns the number of registered markets.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}

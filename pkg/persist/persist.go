// Package persist snapshots the registry's books to a pebble-backed
// dumpfile and restores them on boot, so a restarted OME does not start
// from an empty book set. Host-only: it runs on a ticker, holds the
// registry lock only while projecting each book, and encodes and writes
// outside it. Adapted from the teacher's pkg/storage.PebbleStore (same KV
// engine, one-record-per-key pattern) generalized from consensus
// blocks/certs to book snapshots, and grounded on
// original_source/src/util.rs's is_existing_state for the
// restore-on-boot check.
//
// Records are JSON-encoded via book.ExternalBook rather than gob over
// book.Book: Price/Qty wrap an unexported uint256.Int field, which gob
// silently drops, so the wire (stringly-typed) projection is the only
// safe encode-at-rest form. book.ExternalBook is also the one canonical
// round-trip projection of a Book (spec.md §6, §8 P5); persist stores
// it verbatim rather than maintaining its own parallel record shape.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/registry"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// Store is a pebble-backed dumpfile: one key per market address, whose
// value is the JSON-encoded ExternalBook projection of that market.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the dumpfile at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Exists reports whether path already holds a dumpfile, mirroring
// original_source's is_existing_state check used to decide whether to
// restore or start from an empty registry.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func marketKey(market types.Address) []byte {
	return append([]byte("book:"), market.Bytes()...)
}

// Save writes every registered book's external projection, LTP included,
// to the dumpfile. Each book is projected under the registry lock via
// WithBook, so Save must not be called from inside a WithBook critical
// section. Called periodically from a ticker in cmd/ome.
func (s *Store) Save(reg *registry.Registry) error {
	for _, market := range reg.Markets() {
		var eb book.ExternalBook
		if err := reg.WithBook(market, func(b *book.Book) error {
			eb = b.ToExternalBook()
			return nil
		}); err != nil {
			continue
		}

		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(eb); err != nil {
			return fmt.Errorf("persist: encode %s: %w", types.FormatAddress(market), err)
		}
		if err := s.db.Set(marketKey(market), buf.Bytes(), pebble.Sync); err != nil {
			return fmt.Errorf("persist: write %s: %w", types.FormatAddress(market), err)
		}
	}
	return nil
}

// Restore rebuilds a book for every market previously saved and adds it
// to reg. Orders are replayed with their stored Remaining and the saved
// LTP, not rematched against each other: the dumpfile is a snapshot of
// rested state, not an event log, so replay never re-triggers matching.
func (s *Store) Restore(reg *registry.Registry) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("book:"),
		UpperBound: []byte("book;"), // ';' is 1 past ':' in ASCII, bounds the prefix scan
	})
	if err != nil {
		return fmt.Errorf("persist: iterate: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		market := types.Address{}
		copy(market[:], key[len("book:"):])

		var eb book.ExternalBook
		if err := json.Unmarshal(iter.Value(), &eb); err != nil {
			return fmt.Errorf("persist: decode %s: %w", types.FormatAddress(market), err)
		}
		eb.Market = types.FormatAddress(market) // the key is the source of truth for identity

		b, err := book.FromExternalBook(eb)
		if err != nil {
			return fmt.Errorf("persist: rebuild %s: %w", types.FormatAddress(market), err)
		}
		if err := reg.AddBook(b); err != nil && err != registry.ErrBookExists {
			return err
		}
	}
	return nil
}

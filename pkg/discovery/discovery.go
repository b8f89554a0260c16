// Package discovery fetches the known-markets list and per-market
// external book snapshots at startup, so a restarted OME can rebuild
// its registry against whatever an upstream market registrar already
// knows about. Grounded on original_source/src/args.rs's
// known_markets_url/external_book_url flags and, for the HTTP client
// shape, the teacher pack's resty usage (0xtitan6-polymarket-mm). The
// snapshot endpoint is decoded straight into book.ExternalBook — the
// same round-trip projection the dumpfile and the REST read-market
// response use — rather than a bespoke price/amount pair shape, so a
// discovered book carries real order identity, not just aggregate size.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// knownMarket is one row of the known-markets response body.
type knownMarket struct {
	Address string `json:"address"`
}

// Client fetches markets and book snapshots from an upstream registrar.
type Client struct {
	http                  *resty.Client
	knownMarketsURL       string
	externalBookURLPrefix string
}

// New builds a discovery client. knownMarketsURL is fetched once for the
// market list; externalBookURLPrefix is concatenated with a market's hex
// address to fetch that market's snapshot.
func New(knownMarketsURL, externalBookURLPrefix string) *Client {
	return &Client{
		http:                  resty.New().SetTimeout(10 * time.Second),
		knownMarketsURL:       knownMarketsURL,
		externalBookURLPrefix: externalBookURLPrefix,
	}
}

// KnownMarkets fetches the list of markets an upstream registrar knows
// about.
func (c *Client) KnownMarkets(ctx context.Context) ([]types.Address, error) {
	var rows []knownMarket
	resp, err := c.http.R().SetContext(ctx).SetResult(&rows).Get(c.knownMarketsURL)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetch known markets: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("discovery: known markets endpoint returned %d", resp.StatusCode())
	}

	out := make([]types.Address, 0, len(rows))
	for _, row := range rows {
		addr, ok := types.ParseAddress(row.Address)
		if !ok {
			continue
		}
		out = append(out, addr)
	}
	return out, nil
}

// ExternalSnapshot fetches the upstream book snapshot for market as its
// ExternalBook projection, ready to pass to book.FromExternalBook.
func (c *Client) ExternalSnapshot(ctx context.Context, market types.Address) (book.ExternalBook, error) {
	url := c.externalBookURLPrefix + types.FormatAddress(market)

	var eb book.ExternalBook
	resp, err := c.http.R().SetContext(ctx).SetResult(&eb).Get(url)
	if err != nil {
		return book.ExternalBook{}, fmt.Errorf("discovery: fetch external book %s: %w", url, err)
	}
	if resp.IsError() {
		return book.ExternalBook{}, fmt.Errorf("discovery: external book endpoint returned %d", resp.StatusCode())
	}

	if eb.Market == "" {
		eb.Market = types.FormatAddress(market)
	}
	return eb, nil
}

// Package settlement forwards matched fills to an external executioner
// service over HTTP. It is strictly a host-layer concern: a dispatch
// failure here never unwinds or blocks a completed match (spec.md §7,
// §9's relocation of the original's in-submit settlement call out of
// the core). Grounded on the teacher's pack peer
// 0xtitan6-polymarket-mm's internal/exchange.Client (resty client with
// retry/timeout) and on original_source/src/rpc.rs's send_matched_orders.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// matchRequest mirrors original_source's MatchRequest{maker, taker}
// payload, generalized to the full fill tuple this design exposes.
type matchRequest struct {
	Market types.Address `json:"market"`
	Maker  string        `json:"maker"`
	Taker  string        `json:"taker"`
	Price  string        `json:"price"`
	Amount string        `json:"amount"`
}

// Dispatcher posts every fill from a match to an external executioner
// address (a settlement/forwarder RPC endpoint), asynchronously and
// independently of the matching call that produced it.
type Dispatcher struct {
	http *resty.Client
	log  *zap.Logger
}

// New builds a dispatcher that posts to executionerURL.
func New(executionerURL string, log *zap.Logger) *Dispatcher {
	http := resty.New().
		SetBaseURL(executionerURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	return &Dispatcher{http: http, log: log}
}

// Dispatch forwards every fill for market in its own goroutine. It never
// blocks the caller and never returns an error to it: a dropped
// settlement post does not corrupt book state, only delays off-chain
// execution, which the executioner is expected to reconcile out of band.
func (d *Dispatcher) Dispatch(market types.Address, fills []book.Fill) {
	for _, f := range fills {
		f := f
		go d.post(market, f)
	}
}

func (d *Dispatcher) post(market types.Address, f book.Fill) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := matchRequest{
		Market: market,
		Maker:  types.FormatOrderId(f.Maker),
		Taker:  types.FormatOrderId(f.Taker),
		Price:  f.Price.String(),
		Amount: f.Quantity.String(),
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/settle")
	if err != nil {
		d.log.Warn("settlement dispatch failed",
			zap.String("maker", req.Maker), zap.String("taker", req.Taker), zap.Error(err))
		return
	}
	if resp.IsError() {
		d.log.Warn("settlement dispatch rejected",
			zap.String("maker", req.Maker), zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return
	}
	d.log.Debug("settlement dispatched", zap.String(
		"fill", fmt.Sprintf("%s/%s@%s", req.Maker, req.Taker, req.Price)))
}

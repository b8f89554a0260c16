// Package api implements the REST/WS host layer: a thin adapter from
// HTTP/websocket requests to the registry/book/order core, grounded on
// the teacher's pkg/api (gorilla/mux + rs/cors + a websocket hub).
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tracer-protocol/ome/pkg/api/dto"
	"github.com/tracer-protocol/ome/pkg/api/message"
	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/order"
	"github.com/tracer-protocol/ome/pkg/core/registry"
	"github.com/tracer-protocol/ome/pkg/core/types"
)

// FillSink receives every fill produced by a successful submit, for
// forwarding to the settlement dispatcher. It runs after the registry's
// critical section has already released, never inside it.
type FillSink interface {
	Dispatch(market types.Address, fills []book.Fill)
}

// Server adapts the registry to HTTP and websocket transports.
type Server struct {
	reg    *registry.Registry
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
	sink   FillSink // optional; nil disables settlement forwarding
}

// NewServer builds a server around reg. sink may be nil.
func NewServer(reg *registry.Registry, log *zap.Logger, sink FillSink) *Server {
	s := &Server{
		reg:    reg,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
		sink:   sink,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/books", s.handleListBooks).Methods(http.MethodGet)
	v1.HandleFunc("/books", s.handleCreateBook).Methods(http.MethodPost)
	v1.HandleFunc("/books/{market}", s.handleGetBook).Methods(http.MethodGet)
	v1.HandleFunc("/books/{market}", s.handleDeleteBook).Methods(http.MethodDelete)
	v1.HandleFunc("/books/{market}/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/books/{market}/orders", s.handleListOrders).Methods(http.MethodGet)
	v1.HandleFunc("/books/{market}/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	v1.HandleFunc("/books/{market}/orders/{id}", s.handleCancelOrder).Methods(http.MethodDelete)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the CORS-wrapped router, ready to hand to http.Server.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.router)
}

// Run starts the websocket hub's dispatch loop. Call once before serving
// traffic; it runs until the process exits.
func (s *Server) Run() {
	go s.hub.Run()
}

// ==============================
// REST handlers
// ==============================

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewMarketList(s.reg.Markets()))
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req message.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, message.New(message.InvalidOrder, "malformed request body"))
		return
	}
	market, ok := types.ParseAddress(req.Market)
	if !ok {
		respondError(w, message.WithField(message.InvalidOrder, "malformed market address", "market"))
		return
	}
	if err := s.reg.AddBook(book.New(market)); err != nil {
		respondError(w, message.New(message.BookExists, err.Error()))
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewMarketList([]types.Address{market}))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	var snap dto.BookSnapshot
	err := s.reg.WithBook(market, func(b *book.Book) error {
		snap = dto.NewBookSnapshot(b)
		return nil
	})
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	if _, ok := s.reg.RemoveBook(market); !ok {
		respondError(w, message.New(message.NoSuchBook, "no book for market"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}

	var ext order.External
	if err := json.NewDecoder(r.Body).Decode(&ext); err != nil {
		respondError(w, message.New(message.InvalidOrder, "malformed request body"))
		return
	}
	ext.TargetTracer = types.FormatAddress(market)

	o, err := order.FromExternal(ext)
	if err != nil {
		if pe, ok := err.(*order.ParseError); ok {
			respondError(w, message.WithField(message.InvalidOrder, pe.Error(), pe.Field))
			return
		}
		respondError(w, message.New(message.InvalidOrder, err.Error()))
		return
	}

	var result book.MatchResult
	err = s.reg.WithBook(market, func(b *book.Book) error {
		var submitErr error
		result, submitErr = b.Submit(o)
		return submitErr
	})
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}

	s.broadcastAfterSubmit(market, o, result)
	if s.sink != nil && len(result.Fills) > 0 {
		s.sink.Dispatch(market, result.Fills)
	}

	respondJSON(w, http.StatusOK, dto.NewMatchResultView(o.ID, result))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	trader, ok := types.ParseAddress(r.URL.Query().Get("trader"))
	if !ok {
		respondError(w, message.WithField(message.InvalidOrder, "malformed or missing trader address", "trader"))
		return
	}

	var orders []*order.Order
	err := s.reg.WithBook(market, func(b *book.Book) error {
		orders = append(b.Orders(order.Bid), b.Orders(order.Ask)...)
		return nil
	})
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewOrderList(orders, trader))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	id, ok := types.ParseOrderId(mux.Vars(r)["id"])
	if !ok {
		respondError(w, message.WithField(message.InvalidOrder, "malformed order id", "id"))
		return
	}

	var found *order.Order
	err := s.reg.WithBook(market, func(b *book.Book) error {
		if o, ok := b.Order(id); ok {
			found = o
		}
		return nil
	})
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}
	if found == nil {
		respondError(w, message.New(message.NoSuchOrder, "no order with that id"))
		return
	}
	respondJSON(w, http.StatusOK, order.ToExternal(*found))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	market, ok := s.marketFromPath(w, r)
	if !ok {
		return
	}
	id, ok := types.ParseOrderId(mux.Vars(r)["id"])
	if !ok {
		respondError(w, message.WithField(message.InvalidOrder, "malformed order id", "id"))
		return
	}

	var cancelled bool
	err := s.reg.WithBook(market, func(b *book.Book) error {
		_, cancelled = b.Cancel(id)
		return nil
	})
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}
	if !cancelled {
		respondError(w, message.New(message.NoSuchOrder, "no order with that id"))
		return
	}
	s.broadcastBook(market)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast
// ==============================

func (s *Server) broadcastAfterSubmit(market types.Address, taker order.Order, result book.MatchResult) {
	marketHex := types.FormatAddress(market)
	now := time.Now().UnixMilli()

	for _, f := range result.Fills {
		s.hub.BroadcastToChannel(message.TradeChannel(marketHex), message.TradeUpdate{
			Type:      "trade",
			Market:    marketHex,
			Price:     f.Price.String(),
			Quantity:  f.Quantity.String(),
			Maker:     types.FormatOrderId(f.Maker),
			Taker:     types.FormatOrderId(f.Taker),
			Timestamp: now,
		})
	}
	s.broadcastBook(market)
}

func (s *Server) broadcastBook(market types.Address) {
	var snap dto.BookSnapshot
	err := s.reg.WithBook(market, func(b *book.Book) error {
		snap = dto.NewBookSnapshot(b)
		return nil
	})
	if err != nil {
		return
	}
	s.hub.BroadcastToChannel(message.OrderbookChannel(snap.Market), message.OrderbookUpdate{
		Type:      "orderbook",
		Market:    snap.Market,
		Bids:      snap.BidLevels,
		Asks:      snap.AskLevels,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ==============================
// Helpers
// ==============================

func (s *Server) marketFromPath(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	market, ok := types.ParseAddress(mux.Vars(r)["market"])
	if !ok {
		respondError(w, message.WithField(message.InvalidOrder, "malformed market address", "market"))
		return types.Address{}, false
	}
	return market, true
}

func (s *Server) respondRegistryError(w http.ResponseWriter, err error) {
	if err == registry.ErrNoSuchBook {
		respondError(w, message.New(message.NoSuchBook, err.Error()))
		return
	}
	respondError(w, message.New(message.BookError, err.Error()))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, e *message.Error) {
	respondJSON(w, e.Kind.HTTPStatus(), e)
}

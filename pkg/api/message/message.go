// Package message defines the error taxonomy returned at the API
// boundary (spec.md §7) and the envelope REST handlers use to report it.
package message

import "net/http"

// Kind enumerates the domain error conditions the host layer can surface.
// BookError and MatchingFault are reserved for parity with the core's
// book.ErrMatchingFault; neither is produced by any path today.
type Kind string

const (
	BookExists    Kind = "BookExists"
	NoSuchBook    Kind = "NoSuchBook"
	NoSuchOrder   Kind = "NoSuchOrder"
	InvalidOrder  Kind = "InvalidOrder"
	BookError     Kind = "BookError"
	MatchingFault Kind = "MatchingFault"
)

// HTTPStatus maps a Kind to the status code the REST surface responds
// with. Kinds outside this table fall back to 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case BookExists:
		return http.StatusConflict
	case NoSuchBook, NoSuchOrder:
		return http.StatusNotFound
	case InvalidOrder:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the wire envelope for every non-2xx response.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithField attaches a field name, used for InvalidOrder responses that
// point back at the offending external field.
func WithField(kind Kind, message, field string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// CreateBookRequest is the body of POST /api/v1/books.
type CreateBookRequest struct {
	Market string `json:"market"`
}

// Subscription is sent by a websocket client to opt into broadcast
// channels ("orderbook:0x...", "trades:0x...").
type Subscription struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// OrderbookChannel and TradeChannel name the websocket broadcast
// channels for a given market.
func OrderbookChannel(market string) string { return "orderbook:" + market }
func TradeChannel(market string) string     { return "trades:" + market }

// OrderbookUpdate is broadcast to an orderbook channel after every
// submit/cancel that changes the book.
type OrderbookUpdate struct {
	Type      string `json:"type"` // "orderbook"
	Market    string `json:"market"`
	Bids      any    `json:"bids"`
	Asks      any    `json:"asks"`
	Timestamp int64  `json:"timestamp"`
}

// TradeUpdate is broadcast to a trades channel once per fill produced
// by a submit call.
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Market    string `json:"market"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	Timestamp int64  `json:"timestamp"`
}

package inventory

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// LineStatus is the per-line outcome of a batch order operation.
type LineStatus string

const (
	LineReserved          LineStatus = "reserved"
	LineReservationFailed LineStatus = "reservation_failed"
	LineReleased          LineStatus = "released"
	LineReleaseFailed     LineStatus = "release_failed"
	LineReturned          LineStatus = "returned"
	LineReturnFailed      LineStatus = "return_failed"
)

// OrderLine is a value object. One product and quantity on an order.
type OrderLine struct {
	ProductID  string `json:"productId"`
	Quantity   int64  `json:"quantity"`
	LocationID string `json:"locationId,omitempty"`
}

// OrderRequest asks for one ledger operation per line. The order id becomes the reference id of every entry.
type OrderRequest struct {
	OrderID string      `json:"orderId" validate:"required"`
	Actor   string      `json:"actor"`
	Lines   []OrderLine `json:"lines"   validate:"required,min=1"`
}

// LineResult records what happened to a single line. A failed line never undoes the lines before it.
type LineResult struct {
	OrderLine
	Status LineStatus `json:"status"`
	Kind   Kind       `json:"kind,omitempty"`
	Error  string     `json:"error,omitempty"`

	err error
}

type OrderResult struct {
	OrderID string       `json:"orderId"`
	Lines   []LineResult `json:"lines"`
}

func (r *OrderResult) succeed(line OrderLine, status LineStatus) {
	r.Lines = append(r.Lines, LineResult{OrderLine: line, Status: status})
}

func (r *OrderResult) fail(line OrderLine, status LineStatus, err error) {
	r.Lines = append(r.Lines, LineResult{
		OrderLine: line,
		Status:    status,
		Kind:      KindOf(err),
		Error:     err.Error(),
		err:       err,
	})
}

// Failed reports how many lines did not apply.
func (r OrderResult) Failed() int {
	n := 0
	for _, l := range r.Lines {
		if l.err != nil {
			n++
		}
	}
	return n
}

// Err combines the errors of every failed line, or nil when all lines applied.
func (r OrderResult) Err() error {
	var err error
	for _, l := range r.Lines {
		if l.err != nil {
			err = multierr.Append(err, errors.WithMessagef(l.err, "line %s", l.ProductID))
		}
	}
	return err
}

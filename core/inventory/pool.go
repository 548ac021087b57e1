package inventory

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Quantity returns the value of the given bucket. Unknown stock types hold nothing.
func (p StockPool) Quantity(st StockType) int64 {
	switch st {
	case StockAvailable:
		return p.Available
	case StockReserved:
		return p.Reserved
	case StockDamaged:
		return p.Damaged
	default:
		return 0
	}
}

func (p *StockPool) field(st StockType) (*int64, error) {
	switch st {
	case StockAvailable:
		return &p.Available, nil
	case StockReserved:
		return &p.Reserved, nil
	case StockDamaged:
		return &p.Damaged, nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "stock type %q cannot be changed", st)
	}
}

// apply adds delta to one bucket. The pool is left untouched when the result would be negative or would not fit in
// an int64.
func (p *StockPool) apply(st StockType, delta int64) (prev, next int64, err error) {
	f, err := p.field(st)
	if err != nil {
		return 0, 0, err
	}
	prev = *f
	if delta > 0 && prev > math.MaxInt64-delta {
		return prev, prev, errors.Wrapf(ErrInvalidQuantity,
			"adding %d to %s at location %s exceeds the largest storable quantity", delta, st, p.LocationID)
	}
	next = prev + delta
	if next < 0 {
		return prev, prev, errors.Wrapf(ErrNegativeStockRejected,
			"%s at location %s would become %d", st, p.LocationID, next)
	}
	*f = next
	return prev, next, nil
}

func (p *StockPool) stamp(at time.Time, actor string) {
	p.LastStockCheck = at
	p.LastCheckedBy = actor
}

// addCapped sums two non-negative quantities, stopping at math.MaxInt64 instead of wrapping.
func addCapped(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func (p StockPool) isNegative() bool {
	return p.Available < 0 || p.Reserved < 0 || p.Damaged < 0 || p.InTransit < 0
}

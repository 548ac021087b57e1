package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLocationID              = "DEFAULT"
	DefaultLocationName            = "Default"
	DefaultLocationType            = "warehouse"
	DefaultFallbackReorderQuantity = 100

	// SystemActor is recorded on entries the ledger writes on its own behalf.
	SystemActor = "system"
)

// Ledger applies stock mutations to an InventoryItem. It does no I/O and keeps no state between calls; serializing
// load, mutate and store for a product is the caller's job.
//
// Every mutating operation is all or nothing: it works on a copy of the item and only replaces the caller's item
// when every precondition held.
type Ledger struct {
	now                     func() time.Time
	newID                   func() string
	defaultLocation         StockPool
	fallbackReorderQuantity int64
}

type LedgerOption func(l *Ledger)

// WithClock sets the source of mutation timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDGenerator sets how audit entry ids are minted.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(l *Ledger) {
		l.newID = newID
	}
}

// WithDefaultLocation configures the pool created for items that have none. The id is fixed.
func WithDefaultLocation(name, locationType string) LedgerOption {
	return func(l *Ledger) {
		if name != "" {
			l.defaultLocation.LocationName = name
		}
		if locationType != "" {
			l.defaultLocation.LocationType = locationType
		}
	}
}

func WithFallbackReorderQuantity(qty int64) LedgerOption {
	return func(l *Ledger) {
		if qty > 0 {
			l.fallbackReorderQuantity = qty
		}
	}
}

func NewLedger(options ...LedgerOption) *Ledger {
	l := &Ledger{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		defaultLocation: StockPool{
			LocationID:   DefaultLocationID,
			LocationName: DefaultLocationName,
			LocationType: DefaultLocationType,
		},
		fallbackReorderQuantity: DefaultFallbackReorderQuantity,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Reserve moves quantity from available to reserved at the first location that can cover it alone.
func (l *Ledger) Reserve(item *InventoryItem, quantity int64, referenceID, actor string) error {
	if quantity <= 0 {
		return errors.Wrapf(ErrInvalidQuantity, "reserve quantity must be positive, got %d", quantity)
	}
	return l.mutate(item, actor, func(w *InventoryItem, at time.Time) error {
		pool := w.firstLocationWith(StockAvailable, quantity)
		if pool == nil {
			return errors.Wrapf(ErrInsufficientStock,
				"product %s has no location with %d available", w.ProductID, quantity)
		}
		return l.transfer(w, pool, StockAvailable, StockReserved, quantity, ReasonReservation, actor, referenceID, at)
	})
}

// Release moves quantity from reserved back to available. Reserved stock is never summed across locations.
func (l *Ledger) Release(item *InventoryItem, quantity int64, referenceID, actor string) error {
	if quantity <= 0 {
		return errors.Wrapf(ErrInvalidQuantity, "release quantity must be positive, got %d", quantity)
	}
	return l.mutate(item, actor, func(w *InventoryItem, at time.Time) error {
		pool := w.firstLocationWith(StockReserved, quantity)
		if pool == nil {
			return errors.Wrapf(ErrInsufficientReservedStock,
				"product %s has no location with %d reserved", w.ProductID, quantity)
		}
		return l.transfer(w, pool, StockReserved, StockAvailable, quantity, ReasonRelease, actor, referenceID, at)
	})
}

// Adjust applies a signed correction to one stock type at a named location. An empty reason is recorded as an
// adjustment.
func (l *Ledger) Adjust(item *InventoryItem, locationID string, stockType StockType, delta int64, reason Reason,
	actor, referenceID string) error {

	st, err := ParseStockType(string(stockType))
	if err != nil {
		return err
	}
	r, err := ParseReason(string(reason))
	if err != nil {
		return err
	}

	return l.mutate(item, actor, func(w *InventoryItem, at time.Time) error {
		pool, ok := w.Location(locationID)
		if !ok {
			return errors.Wrapf(ErrLocationNotFound, "product %s has no location %s", w.ProductID, locationID)
		}
		prev, next, err := pool.apply(st, delta)
		if err != nil {
			return err
		}
		pool.stamp(at, actor)
		w.AuditLog.append(l.entry(at, r, actor, pool.LocationID, st, prev, next, referenceID, ""))
		return nil
	})
}

// Restock adds received stock to available at the first location. A zero quantity means the item's configured
// reorder quantity.
func (l *Ledger) Restock(item *InventoryItem, quantity int64, actor string) error {
	if item == nil {
		return errors.Wrap(ErrInvalidArgument, "item is required")
	}
	if quantity < 0 {
		return errors.Wrapf(ErrInvalidQuantity, "restock quantity must not be negative, got %d", quantity)
	}
	if quantity == 0 {
		if item.ReorderQuantity == nil || *item.ReorderQuantity <= 0 {
			return errors.Wrapf(ErrInvalidConfiguration,
				"product %s has no reorder quantity to restock with", item.ProductID)
		}
		quantity = *item.ReorderQuantity
	}

	err := l.mutate(item, actor, func(w *InventoryItem, at time.Time) error {
		pool := &w.StockByLocation[0]
		prev, next, err := pool.apply(StockAvailable, quantity)
		if err != nil {
			return err
		}
		pool.stamp(at, actor)
		w.AuditLog.append(l.entry(at, ReasonRestock, actor, pool.LocationID, StockAvailable, prev, next, "",
			fmt.Sprintf("received %d units", quantity)))
		return nil
	})
	if err != nil {
		return err
	}

	if res := l.evaluate(item); res.NeedsReorder {
		log.Warn().
			Str("productId", item.ProductID).
			Str("sku", item.Sku).
			Int64("totalAvailable", res.TotalAvailable).
			Int64("reorderPoint", *item.ReorderPoint).
			Msg("item still at or below reorder point after restock")
	}
	return nil
}

// ReorderCheck evaluates the reorder rule. When a reorder is needed it appends one reorder_check entry, every time
// it is called.
func (l *Ledger) ReorderCheck(item *InventoryItem) (ReorderResult, error) {
	if item == nil {
		return ReorderResult{}, errors.Wrap(ErrInvalidArgument, "item is required")
	}
	item.RecomputeTotals()
	res := l.evaluate(item)
	if !res.NeedsReorder {
		return res, nil
	}

	locationID := ""
	if len(item.StockByLocation) > 0 {
		locationID = item.StockByLocation[0].LocationID
	}
	at := l.now()
	notes := fmt.Sprintf("available %d is at or below reorder point %d, suggest ordering %d",
		res.TotalAvailable, *item.ReorderPoint, res.SuggestedQuantity)
	item.AuditLog.append(l.entry(at, ReasonReorderCheck, SystemActor, locationID, StockAvailable,
		res.TotalAvailable, res.TotalAvailable, "", notes))

	log.Warn().
		Str("productId", item.ProductID).
		Str("sku", item.Sku).
		Int64("totalAvailable", res.TotalAvailable).
		Int64("reorderPoint", *item.ReorderPoint).
		Int64("suggestedQuantity", res.SuggestedQuantity).
		Msg("reorder needed")

	return res, nil
}

// EnsureDefaultLocation creates the default pool on an item that has none. It reports whether it did.
func (l *Ledger) EnsureDefaultLocation(item *InventoryItem, actor string) bool {
	if len(item.StockByLocation) > 0 {
		return false
	}
	at := l.now()
	pool := l.defaultLocation
	pool.stamp(at, actor)
	item.StockByLocation = append(item.StockByLocation, pool)
	item.AuditLog.append(l.entry(at, ReasonLocationCreated, actor, pool.LocationID, StockMetadata, 0, 0, "",
		fmt.Sprintf("created default location %s (%s)", pool.LocationName, pool.LocationType)))
	return true
}

// AddLocation registers a new empty location on the item and records it in the audit trail.
func (l *Ledger) AddLocation(item *InventoryItem, locationID, name, locationType, actor string) error {
	if item == nil {
		return errors.Wrap(ErrInvalidArgument, "item is required")
	}
	w := item.Clone()
	at := l.now()
	pool := StockPool{LocationID: locationID, LocationName: name, LocationType: locationType}
	pool.stamp(at, actor)
	if err := w.AddLocation(pool); err != nil {
		return err
	}
	w.AuditLog.append(l.entry(at, ReasonLocationCreated, actor, locationID, StockMetadata, 0, 0, "",
		fmt.Sprintf("created location %s (%s)", name, locationType)))
	w.RecomputeTotals()
	*item = w
	return nil
}

// mutate runs fn against a working copy of item and commits it back only when fn succeeds.
func (l *Ledger) mutate(item *InventoryItem, actor string, fn func(w *InventoryItem, at time.Time) error) error {
	if item == nil {
		return errors.Wrap(ErrInvalidArgument, "item is required")
	}
	w := item.Clone()
	l.EnsureDefaultLocation(&w, actor)
	if err := fn(&w, l.now()); err != nil {
		return err
	}
	w.RecomputeTotals()
	*item = w
	return nil
}

func (l *Ledger) transfer(w *InventoryItem, pool *StockPool, from, to StockType, quantity int64, reason Reason,
	actor, referenceID string, at time.Time) error {

	fromPrev, fromNext, err := pool.apply(from, -quantity)
	if err != nil {
		return err
	}
	toPrev, toNext, err := pool.apply(to, quantity)
	if err != nil {
		return err
	}
	pool.stamp(at, actor)
	w.AuditLog.append(l.entry(at, reason, actor, pool.LocationID, from, fromPrev, fromNext, referenceID, ""))
	w.AuditLog.append(l.entry(at, reason, actor, pool.LocationID, to, toPrev, toNext, referenceID, ""))
	return nil
}

func (l *Ledger) entry(at time.Time, reason Reason, actor, locationID string, st StockType, prev, next int64,
	referenceID, notes string) AuditLogEntry {

	return AuditLogEntry{
		ID:            l.newID(),
		Timestamp:     at,
		Reason:        reason,
		Actor:         actor,
		LocationID:    locationID,
		StockType:     st,
		Delta:         next - prev,
		PreviousValue: prev,
		NewValue:      next,
		ReferenceID:   referenceID,
		Notes:         notes,
	}
}

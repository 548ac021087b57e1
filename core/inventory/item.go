package inventory

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Validate checks the item's configuration. Every failure is reported as ErrInvalidConfiguration.
func (i *InventoryItem) Validate() error {
	if err := validate.Struct(i); err != nil {
		return errors.Wrapf(ErrInvalidConfiguration, "item %q: %v", i.ProductID, err)
	}
	return nil
}

// Location returns the pool stored for locationID. The pointer aliases the item's own pool.
func (i *InventoryItem) Location(locationID string) (*StockPool, bool) {
	for idx := range i.StockByLocation {
		if i.StockByLocation[idx].LocationID == locationID {
			return &i.StockByLocation[idx], true
		}
	}
	return nil, false
}

// AddLocation appends a new empty pool. Location ids are unique within an item.
func (i *InventoryItem) AddLocation(pool StockPool) error {
	if pool.LocationID == "" {
		return errors.Wrap(ErrInvalidConfiguration, "location id is required")
	}
	if _, ok := i.Location(pool.LocationID); ok {
		return errors.Wrapf(ErrInvalidConfiguration, "location %s already exists", pool.LocationID)
	}
	if pool.isNegative() {
		return errors.Wrapf(ErrNegativeStockRejected, "location %s has negative quantities", pool.LocationID)
	}
	i.StockByLocation = append(i.StockByLocation, pool)
	return nil
}

// firstLocationWith scans pools in list order. Ties go to the earlier pool and requests are never split.
func (i *InventoryItem) firstLocationWith(st StockType, quantity int64) *StockPool {
	for idx := range i.StockByLocation {
		if i.StockByLocation[idx].Quantity(st) >= quantity {
			return &i.StockByLocation[idx]
		}
	}
	return nil
}

// RecomputeTotals overwrites the cached totals with the sums across all pools. A sum too large for an int64 is
// held at math.MaxInt64.
func (i *InventoryItem) RecomputeTotals() {
	var available, reserved, damaged int64
	for _, p := range i.StockByLocation {
		available = addCapped(available, p.Available)
		reserved = addCapped(reserved, p.Reserved)
		damaged = addCapped(damaged, p.Damaged)
	}
	i.TotalAvailable = available
	i.TotalReserved = reserved
	i.TotalDamaged = damaged
}

// Clone returns a deep copy so a failed operation can be thrown away without touching the receiver.
func (i InventoryItem) Clone() InventoryItem {
	c := i
	if i.ReorderPoint != nil {
		v := *i.ReorderPoint
		c.ReorderPoint = &v
	}
	if i.ReorderQuantity != nil {
		v := *i.ReorderQuantity
		c.ReorderQuantity = &v
	}
	if i.Attributes.ExpiryDate != nil {
		v := *i.Attributes.ExpiryDate
		c.Attributes.ExpiryDate = &v
	}
	if i.Attributes.Extra != nil {
		c.Attributes.Extra = make(map[string]string, len(i.Attributes.Extra))
		for k, v := range i.Attributes.Extra {
			c.Attributes.Extra[k] = v
		}
	}
	if i.StockByLocation != nil {
		c.StockByLocation = make([]StockPool, len(i.StockByLocation))
		copy(c.StockByLocation, i.StockByLocation)
	}
	if i.AuditLog != nil {
		c.AuditLog = make(AuditTrail, len(i.AuditLog))
		copy(c.AuditLog, i.AuditLog)
	}
	return c
}

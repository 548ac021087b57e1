package invrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/db"
)

// memRepo keeps items in process memory. It honours optimistic versioning but its transactions are no-ops,
// so writes are visible as soon as SaveItem or UpdateItem returns.
type memRepo struct {
	mu     sync.RWMutex
	nextID uint64
	items  map[string]inventory.InventoryItem
	byID   map[uint64]string
}

func NewMemoryRepo() inventory.Repository {
	return &memRepo{
		items: make(map[string]inventory.InventoryItem),
		byID:  make(map[uint64]string),
	}
}

func (r *memRepo) GetItem(_ context.Context, id uint64, _ ...core.QueryOptions) (inventory.InventoryItem, error) {
	m := db.StartMetric("GetItem")
	r.mu.RLock()
	defer r.mu.RUnlock()

	productID, ok := r.byID[id]
	if !ok {
		m.Complete(core.ErrNotFound)
		return inventory.InventoryItem{}, errors.WithStack(core.ErrNotFound)
	}
	m.Complete(nil)
	return r.items[productID].Clone(), nil
}

func (r *memRepo) GetItemByProductID(_ context.Context, productID string, _ ...core.QueryOptions) (inventory.InventoryItem, error) {
	m := db.StartMetric("GetItemByProductID")
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		m.Complete(core.ErrNotFound)
		return inventory.InventoryItem{}, errors.WithStack(core.ErrNotFound)
	}
	m.Complete(nil)
	return item.Clone(), nil
}

func (r *memRepo) SearchItems(_ context.Context, filter inventory.ItemFilter, limit, offset int, _ ...core.QueryOptions) ([]inventory.InventoryItem, error) {
	m := db.StartMetric("SearchItems")
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]inventory.InventoryItem, 0)
	skipped := 0
	for _, id := range ids {
		item := r.items[id]
		if !matches(item, filter) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(items) >= limit {
			break
		}
		c := item.Clone()
		c.AuditLog = nil
		items = append(items, c)
	}
	m.Complete(nil)
	return items, nil
}

func matches(item inventory.InventoryItem, filter inventory.ItemFilter) bool {
	if filter.Sku != "" && item.Sku != filter.Sku {
		return false
	}
	if filter.State != inventory.StateNone && item.State != filter.State {
		return false
	}
	if filter.LocationID != "" {
		if _, ok := item.Location(filter.LocationID); !ok {
			return false
		}
	}
	return true
}

func (r *memRepo) SaveItem(_ context.Context, item *inventory.InventoryItem, _ ...core.UpdateOptions) error {
	m := db.StartMetric("SaveItem")
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ProductID]; ok {
		err := errors.Errorf("item %s already exists", item.ProductID)
		m.Complete(err)
		return err
	}

	r.nextID++
	now := time.Now()
	item.ID = r.nextID
	item.Version = 1
	if item.State == inventory.StateNone {
		item.State = inventory.StateActive
	}
	if item.Created.IsZero() {
		item.Created = now
	}
	item.Updated = now

	r.items[item.ProductID] = item.Clone()
	r.byID[item.ID] = item.ProductID
	m.Complete(nil)
	return nil
}

func (r *memRepo) UpdateItem(_ context.Context, item *inventory.InventoryItem, transition inventory.ItemState, _ ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateItem")
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ProductID]
	if !ok {
		m.Complete(core.ErrNotFound)
		return errors.WithStack(core.ErrNotFound)
	}
	if stored.Version != item.Version {
		m.Complete(core.ErrVersionConflict)
		return errors.Wrapf(core.ErrVersionConflict, "item %s at version %d", item.ProductID, item.Version)
	}

	if transition != inventory.StateNone {
		item.State = transition
	} else {
		item.State = stored.State
	}
	// stored audit entries are never rewritten
	if len(item.AuditLog) >= len(stored.AuditLog) {
		item.AuditLog = append(append(inventory.AuditTrail{}, stored.AuditLog...), item.AuditLog[len(stored.AuditLog):]...)
	}
	item.ID = stored.ID
	item.Created = stored.Created
	item.Updated = time.Now()
	item.Version++

	r.items[item.ProductID] = item.Clone()
	m.Complete(nil)
	return nil
}

func (r *memRepo) BeginTransaction(_ context.Context) (core.Transaction, error) {
	return noopTx{}, nil
}

type noopTx struct{}

func (noopTx) Commit(_ context.Context) error   { return nil }
func (noopTx) Rollback(_ context.Context) error { return nil }

func (noopTx) Query(_ context.Context, _ string, _ ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("in-memory transaction does not support queries")
}

func (noopTx) QueryRow(_ context.Context, _ string, _ ...interface{}) pgx.Row {
	return errRow{}
}

func (noopTx) Exec(_ context.Context, _ string, _ ...interface{}) (pgconn.CommandTag, error) {
	return nil, errors.New("in-memory transaction does not support statements")
}

func (noopTx) Begin(_ context.Context) (pgx.Tx, error) {
	return nil, errors.New("in-memory transaction does not support nesting")
}

type errRow struct{}

func (errRow) Scan(_ ...interface{}) error {
	return errors.New("in-memory transaction does not support queries")
}

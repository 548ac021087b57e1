package inventory

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core"
)

func rollback(ctx context.Context, tx core.Transaction, err error) {
	if tx == nil {
		return
	}
	e := tx.Rollback(ctx)
	if e != nil {
		log.Warn().Err(e).AnErr("cause", err).Msg("failed to rollback")
	}
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (core.Transaction, error)
}

// Repository is the entity store for inventory items. Items are addressed by their technical id or by the
// productId business key.
type Repository interface {
	Transactional
	GetItem(ctx context.Context, id uint64, options ...core.QueryOptions) (InventoryItem, error)
	GetItemByProductID(ctx context.Context, productID string, options ...core.QueryOptions) (InventoryItem, error)
	SearchItems(ctx context.Context, filter ItemFilter, limit, offset int, options ...core.QueryOptions) ([]InventoryItem, error)

	SaveItem(ctx context.Context, item *InventoryItem, options ...core.UpdateOptions) error
	// UpdateItem writes the whole item back when its version still matches the stored one, bumping item.Version.
	// A non-empty transition replaces the stored state tag. Audit entries already stored are left alone.
	UpdateItem(ctx context.Context, item *InventoryItem, transition ItemState, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishInventory(ctx context.Context, item InventoryItem) error
	PublishReorderAlert(ctx context.Context, alert ReorderAlert) error
}

// Locker serializes load, mutate and store for one key across every instance of the service.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

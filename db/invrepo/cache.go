package invrepo

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
)

// cachedRepo serves plain reads by productId from an LRU cache. Reads that run inside a transaction or lock
// rows always go to the underlying repository. Writes evict the item, and evict it again once their
// transaction commits so a read racing the write cannot leave a stale copy behind.
type cachedRepo struct {
	inventory.Repository
	c *lru.Cache
}

func NewCachingRepo(repo inventory.Repository, size int) inventory.Repository {
	c, err := lru.New(size)
	if err != nil {
		log.Warn().Err(err).Int("size", size).Msg("unable to configure cache, serving reads uncached")
		return repo
	}
	return &cachedRepo{Repository: repo, c: c}
}

func (r *cachedRepo) GetItemByProductID(ctx context.Context, productID string, options ...core.QueryOptions) (inventory.InventoryItem, error) {
	if !plainRead(options) {
		return r.Repository.GetItemByProductID(ctx, productID, options...)
	}

	if v, ok := r.c.Get(productID); ok {
		if item, ok := v.(inventory.InventoryItem); ok {
			return item.Clone(), nil
		}
	}

	item, err := r.Repository.GetItemByProductID(ctx, productID, options...)
	if err != nil {
		return item, err
	}
	r.c.Add(productID, item.Clone())
	return item, nil
}

func (r *cachedRepo) SaveItem(ctx context.Context, item *inventory.InventoryItem, options ...core.UpdateOptions) error {
	r.evict(item.ProductID, options)
	return r.Repository.SaveItem(ctx, item, options...)
}

func (r *cachedRepo) UpdateItem(ctx context.Context, item *inventory.InventoryItem, transition inventory.ItemState, options ...core.UpdateOptions) error {
	r.evict(item.ProductID, options)
	return r.Repository.UpdateItem(ctx, item, transition, options...)
}

func (r *cachedRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	tx, err := r.Repository.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &evictingTx{Transaction: tx, c: r.c}, nil
}

func (r *cachedRepo) evict(productID string, options []core.UpdateOptions) {
	r.c.Remove(productID)
	if len(options) == 0 {
		return
	}
	if tx, ok := options[0].Tx.(*evictingTx); ok {
		tx.onCommit(productID)
	}
}

func plainRead(options []core.QueryOptions) bool {
	return len(options) == 0 || (options[0].Tx == nil && !options[0].ForUpdate)
}

type evictingTx struct {
	core.Transaction
	c *lru.Cache

	mu   sync.Mutex
	keys []string
}

func (t *evictingTx) onCommit(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys = append(t.keys, key)
}

func (t *evictingTx) Commit(ctx context.Context) error {
	if err := t.Transaction.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range t.keys {
		t.c.Remove(k)
	}
	t.keys = nil
	return nil
}

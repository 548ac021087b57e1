package invrepo_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/db/invrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItem(productID, sku string, pools ...inventory.StockPool) *inventory.InventoryItem {
	item := &inventory.InventoryItem{ProductID: productID, Sku: sku, StockByLocation: pools}
	item.RecomputeTotals()
	return item
}

func TestMemoryRepoSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := invrepo.NewMemoryRepo()

	item := newItem("P-1", "SKU-1", inventory.StockPool{LocationID: "A", Available: 5})
	require.NoError(t, repo.SaveItem(ctx, item))

	assert.Equal(t, uint64(1), item.ID)
	assert.Equal(t, int64(1), item.Version)
	assert.Equal(t, inventory.StateActive, item.State)

	got, err := repo.GetItemByProductID(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.TotalAvailable)

	byID, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "P-1", byID.ProductID)

	got.StockByLocation[0].Available = 99
	again, err := repo.GetItemByProductID(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.StockByLocation[0].Available, "callers must not alias stored items")

	_, err = repo.GetItemByProductID(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	assert.Error(t, repo.SaveItem(ctx, newItem("P-1", "SKU-1")), "duplicate product id")
}

func TestMemoryRepoUpdateItem(t *testing.T) {
	ctx := context.Background()
	repo := invrepo.NewMemoryRepo()

	item := newItem("P-1", "SKU-1", inventory.StockPool{LocationID: "A", Available: 5})
	require.NoError(t, repo.SaveItem(ctx, item))

	first, err := repo.GetItemByProductID(ctx, "P-1")
	require.NoError(t, err)
	second, err := repo.GetItemByProductID(ctx, "P-1")
	require.NoError(t, err)

	first.StockByLocation[0].Available = 3
	first.AuditLog = append(first.AuditLog, inventory.AuditLogEntry{ID: "e-1", Reason: inventory.ReasonAdjustment})
	require.NoError(t, repo.UpdateItem(ctx, &first, inventory.StateReorderPending))
	assert.Equal(t, int64(2), first.Version)
	assert.Equal(t, inventory.StateReorderPending, first.State)

	second.StockByLocation[0].Available = 1
	err = repo.UpdateItem(ctx, &second, inventory.StateNone)
	assert.True(t, errors.Is(err, core.ErrVersionConflict))

	stored, err := repo.GetItemByProductID(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.StockByLocation[0].Available)
	assert.Len(t, stored.AuditLog, 1)

	require.NoError(t, repo.UpdateItem(ctx, &stored, inventory.StateNone))
	assert.Equal(t, inventory.StateReorderPending, stored.State, "empty transition keeps the stored state")

	missing := newItem("P-9", "SKU-9")
	assert.True(t, errors.Is(repo.UpdateItem(ctx, missing, inventory.StateNone), core.ErrNotFound))
}

func TestMemoryRepoSearchItems(t *testing.T) {
	ctx := context.Background()
	repo := invrepo.NewMemoryRepo()

	require.NoError(t, repo.SaveItem(ctx, newItem("P-3", "SKU-B", inventory.StockPool{LocationID: "A"})))
	require.NoError(t, repo.SaveItem(ctx, newItem("P-1", "SKU-A", inventory.StockPool{LocationID: "A"})))
	require.NoError(t, repo.SaveItem(ctx, newItem("P-2", "SKU-A", inventory.StockPool{LocationID: "B"})))

	tests := []struct {
		name   string
		filter inventory.ItemFilter
		limit  int
		offset int
		want   []string
	}{
		{name: "everything sorted", limit: 10, want: []string{"P-1", "P-2", "P-3"}},
		{name: "by sku", filter: inventory.ItemFilter{Sku: "SKU-A"}, limit: 10, want: []string{"P-1", "P-2"}},
		{name: "by location", filter: inventory.ItemFilter{LocationID: "A"}, limit: 10, want: []string{"P-1", "P-3"}},
		{name: "by state", filter: inventory.ItemFilter{State: inventory.StateReorderPending}, limit: 10, want: []string{}},
		{name: "paged", limit: 1, offset: 1, want: []string{"P-2"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			items, err := repo.SearchItems(ctx, test.filter, test.limit, test.offset)
			require.NoError(t, err)

			got := make([]string, 0, len(items))
			for _, i := range items {
				got = append(got, i.ProductID)
			}
			assert.Equal(t, test.want, got)
		})
	}
}

func TestMemoryRepoTransactionIsNoop(t *testing.T) {
	ctx := context.Background()
	tx, err := invrepo.NewMemoryRepo().BeginTransaction(ctx)
	require.NoError(t, err)
	assert.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx))
}

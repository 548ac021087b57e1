package invrepo

import (
	"context"

	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/db"
	"github.com/sksmith/stock-ledger/test"
)

type MockRepo struct {
	GetItemFunc            func(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.InventoryItem, error)
	GetItemByProductIDFunc func(ctx context.Context, productID string, options ...core.QueryOptions) (inventory.InventoryItem, error)
	SearchItemsFunc        func(ctx context.Context, filter inventory.ItemFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryItem, error)
	SaveItemFunc           func(ctx context.Context, item *inventory.InventoryItem, options ...core.UpdateOptions) error
	UpdateItemFunc         func(ctx context.Context, item *inventory.InventoryItem, transition inventory.ItemState, options ...core.UpdateOptions) error
	BeginTransactionFunc   func(ctx context.Context) (core.Transaction, error)
	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetItemFunc: func(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.InventoryItem, error) {
			return inventory.InventoryItem{}, nil
		},
		GetItemByProductIDFunc: func(ctx context.Context, productID string, options ...core.QueryOptions) (inventory.InventoryItem, error) {
			return inventory.InventoryItem{}, nil
		},
		SearchItemsFunc: func(ctx context.Context, filter inventory.ItemFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryItem, error) {
			return []inventory.InventoryItem{}, nil
		},
		SaveItemFunc: func(ctx context.Context, item *inventory.InventoryItem, options ...core.UpdateOptions) error {
			return nil
		},
		UpdateItemFunc: func(ctx context.Context, item *inventory.InventoryItem, transition inventory.ItemState, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) {
			return db.NewMockTransaction(), nil
		},
		CallWatcher: test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetItem(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.InventoryItem, error) {
	r.AddCall(ctx, id, options)
	return r.GetItemFunc(ctx, id, options...)
}

func (r *MockRepo) GetItemByProductID(ctx context.Context, productID string, options ...core.QueryOptions) (inventory.InventoryItem, error) {
	r.AddCall(ctx, productID, options)
	return r.GetItemByProductIDFunc(ctx, productID, options...)
}

func (r *MockRepo) SearchItems(ctx context.Context, filter inventory.ItemFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryItem, error) {
	r.AddCall(ctx, filter, limit, offset, options)
	return r.SearchItemsFunc(ctx, filter, limit, offset, options...)
}

func (r *MockRepo) SaveItem(ctx context.Context, item *inventory.InventoryItem, options ...core.UpdateOptions) error {
	r.AddCall(ctx, item, options)
	return r.SaveItemFunc(ctx, item, options...)
}

func (r *MockRepo) UpdateItem(ctx context.Context, item *inventory.InventoryItem, transition inventory.ItemState, options ...core.UpdateOptions) error {
	r.AddCall(ctx, item, transition, options)
	return r.UpdateItemFunc(ctx, item, transition, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}

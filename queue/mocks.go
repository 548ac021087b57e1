package queue

import (
	"context"

	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/test"
)

type MockQueue struct {
	PublishInventoryFunc    func(ctx context.Context, item inventory.InventoryItem) error
	PublishReorderAlertFunc func(ctx context.Context, alert inventory.ReorderAlert) error
	*test.CallWatcher
}

func NewMockQueue() *MockQueue {
	return &MockQueue{
		PublishInventoryFunc: func(ctx context.Context, item inventory.InventoryItem) error {
			return nil
		},
		PublishReorderAlertFunc: func(ctx context.Context, alert inventory.ReorderAlert) error {
			return nil
		},
		CallWatcher: test.NewCallWatcher(),
	}
}

func (m *MockQueue) PublishInventory(ctx context.Context, item inventory.InventoryItem) error {
	m.AddCall(ctx, item)
	return m.PublishInventoryFunc(ctx, item)
}

func (m *MockQueue) PublishReorderAlert(ctx context.Context, alert inventory.ReorderAlert) error {
	m.AddCall(ctx, alert)
	return m.PublishReorderAlertFunc(ctx, alert)
}

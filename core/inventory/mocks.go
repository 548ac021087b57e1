package inventory

import "context"

type MockInventoryService struct {
	CreateItemFunc   func(ctx context.Context, req NewItemRequest) (InventoryItem, error)
	AddLocationFunc  func(ctx context.Context, productID string, req LocationRequest) (InventoryItem, error)
	GetItemFunc      func(ctx context.Context, productID string) (InventoryItem, error)
	ListItemsFunc    func(ctx context.Context, filter ItemFilter, limit, offset int) ([]InventoryItem, error)
	GetAuditLogFunc  func(ctx context.Context, productID string, filter AuditFilter, limit, offset int) (AuditTrail, error)
	ReserveFunc      func(ctx context.Context, productID string, req StockRequest) (InventoryItem, error)
	ReleaseFunc      func(ctx context.Context, productID string, req StockRequest) (InventoryItem, error)
	AdjustFunc       func(ctx context.Context, productID string, req AdjustRequest) (InventoryItem, error)
	RestockFunc      func(ctx context.Context, productID string, req RestockRequest) (InventoryItem, error)
	CheckReorderFunc func(ctx context.Context, productID string) (ReorderResult, error)
	ReserveOrderFunc func(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelOrderFunc  func(ctx context.Context, req OrderRequest) (OrderResult, error)
	ReturnOrderFunc  func(ctx context.Context, req OrderRequest) (OrderResult, error)
}

func NewMockInventoryService() MockInventoryService {
	return MockInventoryService{
		CreateItemFunc: func(ctx context.Context, req NewItemRequest) (InventoryItem, error) { return InventoryItem{}, nil },
		AddLocationFunc: func(ctx context.Context, productID string, req LocationRequest) (InventoryItem, error) {
			return InventoryItem{}, nil
		},
		GetItemFunc: func(ctx context.Context, productID string) (InventoryItem, error) { return InventoryItem{}, nil },
		ListItemsFunc: func(ctx context.Context, filter ItemFilter, limit, offset int) ([]InventoryItem, error) {
			return []InventoryItem{}, nil
		},
		GetAuditLogFunc: func(ctx context.Context, productID string, filter AuditFilter, limit, offset int) (AuditTrail, error) {
			return AuditTrail{}, nil
		},
		ReserveFunc: func(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
			return InventoryItem{}, nil
		},
		ReleaseFunc: func(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
			return InventoryItem{}, nil
		},
		AdjustFunc: func(ctx context.Context, productID string, req AdjustRequest) (InventoryItem, error) {
			return InventoryItem{}, nil
		},
		RestockFunc: func(ctx context.Context, productID string, req RestockRequest) (InventoryItem, error) {
			return InventoryItem{}, nil
		},
		CheckReorderFunc: func(ctx context.Context, productID string) (ReorderResult, error) { return ReorderResult{}, nil },
		ReserveOrderFunc: func(ctx context.Context, req OrderRequest) (OrderResult, error) { return OrderResult{}, nil },
		CancelOrderFunc:  func(ctx context.Context, req OrderRequest) (OrderResult, error) { return OrderResult{}, nil },
		ReturnOrderFunc:  func(ctx context.Context, req OrderRequest) (OrderResult, error) { return OrderResult{}, nil },
	}
}

func (i *MockInventoryService) CreateItem(ctx context.Context, req NewItemRequest) (InventoryItem, error) {
	return i.CreateItemFunc(ctx, req)
}

func (i *MockInventoryService) AddLocation(ctx context.Context, productID string, req LocationRequest) (InventoryItem, error) {
	return i.AddLocationFunc(ctx, productID, req)
}

func (i *MockInventoryService) GetItem(ctx context.Context, productID string) (InventoryItem, error) {
	return i.GetItemFunc(ctx, productID)
}

func (i *MockInventoryService) ListItems(ctx context.Context, filter ItemFilter, limit, offset int) ([]InventoryItem, error) {
	return i.ListItemsFunc(ctx, filter, limit, offset)
}

func (i *MockInventoryService) GetAuditLog(ctx context.Context, productID string, filter AuditFilter, limit, offset int) (AuditTrail, error) {
	return i.GetAuditLogFunc(ctx, productID, filter, limit, offset)
}

func (i *MockInventoryService) Reserve(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
	return i.ReserveFunc(ctx, productID, req)
}

func (i *MockInventoryService) Release(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
	return i.ReleaseFunc(ctx, productID, req)
}

func (i *MockInventoryService) Adjust(ctx context.Context, productID string, req AdjustRequest) (InventoryItem, error) {
	return i.AdjustFunc(ctx, productID, req)
}

func (i *MockInventoryService) Restock(ctx context.Context, productID string, req RestockRequest) (InventoryItem, error) {
	return i.RestockFunc(ctx, productID, req)
}

func (i *MockInventoryService) CheckReorder(ctx context.Context, productID string) (ReorderResult, error) {
	return i.CheckReorderFunc(ctx, productID)
}

func (i *MockInventoryService) ReserveOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return i.ReserveOrderFunc(ctx, req)
}

func (i *MockInventoryService) CancelOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return i.CancelOrderFunc(ctx, req)
}

func (i *MockInventoryService) ReturnOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return i.ReturnOrderFunc(ctx, req)
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	body     []byte
}

func recorder(sent *[]published, err error) publishFunc {
	return func(ctx context.Context, exchange string, body []byte) error {
		*sent = append(*sent, published{exchange: exchange, body: body})
		return err
	}
}

func TestPublishInventory(t *testing.T) {
	var sent []published
	q := &inventoryQueue{publish: recorder(&sent, nil), inventoryExchange: "inventory.exchange", reorderExchange: "reorder.exchange"}

	item := inventory.InventoryItem{
		ProductID:       "P-1",
		Sku:             "SKU-1",
		State:           inventory.StateActive,
		Version:         3,
		StockByLocation: []inventory.StockPool{{LocationID: "A", Available: 7}},
		AuditLog:        inventory.AuditTrail{{ID: "e-1"}, {ID: "e-2", Reason: inventory.ReasonRestock}},
		TotalAvailable:  7,
	}
	require.NoError(t, q.PublishInventory(context.Background(), item))
	require.Len(t, sent, 1)
	assert.Equal(t, "inventory.exchange", sent[0].exchange)

	msg := InventoryMessage{}
	require.NoError(t, json.Unmarshal(sent[0].body, &msg))
	assert.Equal(t, "P-1", msg.ProductID)
	assert.Equal(t, int64(7), msg.TotalAvailable)
	assert.Equal(t, int64(3), msg.Version)
	require.NotNil(t, msg.LastEntry)
	assert.Equal(t, "e-2", msg.LastEntry.ID)
}

func TestPublishReorderAlert(t *testing.T) {
	var sent []published
	q := &inventoryQueue{publish: recorder(&sent, errors.New("connection closed")), inventoryExchange: "inventory.exchange", reorderExchange: "reorder.exchange"}

	err := q.PublishReorderAlert(context.Background(), inventory.ReorderAlert{ProductID: "P-1", SuggestedQuantity: 100})
	assert.Error(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "reorder.exchange", sent[0].exchange)
}

type creator struct {
	got []inventory.NewItemRequest
	err error
}

func (c *creator) CreateItem(_ context.Context, req inventory.NewItemRequest) (inventory.InventoryItem, error) {
	c.got = append(c.got, req)
	return inventory.InventoryItem{ProductID: req.ProductID}, c.err
}

func TestProductQueueHandle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantCreate int
		wantDlt    bool
	}{
		{
			name:       "product is onboarded",
			body:       `{"productId":"P-1","sku":"sku-1","reorderPoint":5}`,
			wantCreate: 1,
		},
		{
			name:    "malformed message goes to dlt",
			body:    `{"productId":`,
			wantDlt: true,
		},
		{
			name:       "failed onboarding goes to dlt",
			body:       `{"productId":"P-1"}`,
			createErr:  inventory.ErrInvalidConfiguration,
			wantCreate: 1,
			wantDlt:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var sent []published
			p := &ProductQueue{publish: recorder(&sent, nil), newProductQueue: "product.queue", newProductDltExchange: "product.dlt"}
			c := &creator{err: test.createErr}

			p.handle(context.Background(), []byte(test.body), c)

			assert.Len(t, c.got, test.wantCreate)
			if test.wantCreate > 0 {
				assert.Equal(t, "catalogue", c.got[0].Actor)
			}
			if test.wantDlt {
				require.Len(t, sent, 1)
				assert.Equal(t, "product.dlt", sent[0].exchange)
				assert.Equal(t, test.body, string(sent[0].body))
			} else {
				assert.Empty(t, sent)
			}
		})
	}
}

package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/streadway/amqp"
)

type publishFunc func(ctx context.Context, exchange string, body []byte) error

func bunnyPublisher(bq *bunnyq.BunnyQ) publishFunc {
	return func(ctx context.Context, exchange string, body []byte) error {
		return bq.Publish(ctx, exchange, body)
	}
}

type inventoryQueue struct {
	publish           publishFunc
	inventoryExchange string
	reorderExchange   string
}

func New(bq *bunnyq.BunnyQ, inventoryExchange, reorderExchange string) inventory.Queue {
	return &inventoryQueue{publish: bunnyPublisher(bq), inventoryExchange: inventoryExchange, reorderExchange: reorderExchange}
}

// InventoryMessage is the snapshot published after every committed change. The audit trail is left out;
// consumers read it through the API.
type InventoryMessage struct {
	ProductID       string                   `json:"productId"`
	Sku             string                   `json:"sku"`
	State           inventory.ItemState      `json:"state"`
	Version         int64                    `json:"version"`
	TotalAvailable  int64                    `json:"totalAvailable"`
	TotalReserved   int64                    `json:"totalReserved"`
	TotalDamaged    int64                    `json:"totalDamaged"`
	StockByLocation []inventory.StockPool    `json:"stockByLocation"`
	LastEntry       *inventory.AuditLogEntry `json:"lastEntry,omitempty"`
}

func NewInventoryMessage(item inventory.InventoryItem) InventoryMessage {
	msg := InventoryMessage{
		ProductID:       item.ProductID,
		Sku:             item.Sku,
		State:           item.State,
		Version:         item.Version,
		TotalAvailable:  item.TotalAvailable,
		TotalReserved:   item.TotalReserved,
		TotalDamaged:    item.TotalDamaged,
		StockByLocation: item.StockByLocation,
	}
	if last, ok := item.AuditLog.Last(); ok {
		msg.LastEntry = &last
	}
	return msg
}

func (i *inventoryQueue) PublishInventory(ctx context.Context, item inventory.InventoryItem) error {
	body, err := json.Marshal(NewInventoryMessage(item))
	if err != nil {
		return errors.WithMessage(err, "failed to serialize message for queue")
	}
	if err = i.publish(ctx, i.inventoryExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send inventory update to queue")
	}
	return nil
}

func (i *inventoryQueue) PublishReorderAlert(ctx context.Context, alert inventory.ReorderAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return errors.WithMessage(err, "error marshalling reorder alert to send to queue")
	}
	if err = i.publish(ctx, i.reorderExchange, body); err != nil {
		return errors.WithMessage(err, "error publishing reorder alert")
	}
	return nil
}

// ProductQueue onboards products announced by the catalogue. Messages that cannot be onboarded go to the
// dead letter exchange.
type ProductQueue struct {
	queue                 *bunnyq.BunnyQ
	publish               publishFunc
	newProductQueue       string
	newProductDltExchange string
}

func NewProductQueue(bq *bunnyq.BunnyQ, newProductQueue, newProductDltExchange string) *ProductQueue {
	return &ProductQueue{
		queue:                 bq,
		publish:               bunnyPublisher(bq),
		newProductQueue:       newProductQueue,
		newProductDltExchange: newProductDltExchange,
	}
}

type ItemCreator interface {
	CreateItem(ctx context.Context, req inventory.NewItemRequest) (inventory.InventoryItem, error)
}

func (p *ProductQueue) ConsumeProducts(ctx context.Context, handler ItemCreator) {
	p.queue.Stream(ctx, p.newProductQueue, func(delivery amqp.Delivery) {
		p.handle(ctx, delivery.Body, handler)
	}, bunnyq.StreamOpAutoAck)
}

func (p *ProductQueue) handle(ctx context.Context, body []byte, handler ItemCreator) {
	const funcName = "ConsumeProducts"

	req := inventory.NewItemRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error().Err(err).Str("func", funcName).Msg("error unmarshalling product, writing to dlt")
		p.sendToDlt(ctx, body)
		return
	}
	if req.Actor == "" {
		req.Actor = "catalogue"
	}

	if _, err := handler.CreateItem(ctx, req); err != nil {
		log.Error().Err(err).Str("func", funcName).Str("productId", req.ProductID).
			Msg("error onboarding product, writing to dlt")
		p.sendToDlt(ctx, body)
	}
}

func (p *ProductQueue) sendToDlt(ctx context.Context, data []byte) {
	if err := p.publish(ctx, p.newProductDltExchange, data); err != nil {
		log.Error().Err(err).Msg("error writing to dlt")
	}
}

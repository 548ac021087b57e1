package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core"
)

func NewService(repo Repository, q Queue, locker Locker, ledger *Ledger) *service {
	return &service{
		repo:   repo,
		queue:  q,
		locker: locker,
		ledger: ledger,
	}
}

type Service interface {
	CreateItem(ctx context.Context, req NewItemRequest) (InventoryItem, error)
	AddLocation(ctx context.Context, productID string, req LocationRequest) (InventoryItem, error)

	GetItem(ctx context.Context, productID string) (InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter, limit, offset int) ([]InventoryItem, error)
	GetAuditLog(ctx context.Context, productID string, filter AuditFilter, limit, offset int) (AuditTrail, error)

	Reserve(ctx context.Context, productID string, req StockRequest) (InventoryItem, error)
	Release(ctx context.Context, productID string, req StockRequest) (InventoryItem, error)
	Adjust(ctx context.Context, productID string, req AdjustRequest) (InventoryItem, error)
	Restock(ctx context.Context, productID string, req RestockRequest) (InventoryItem, error)
	CheckReorder(ctx context.Context, productID string) (ReorderResult, error)

	ReserveOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ReturnOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// NewItemRequest onboards a product. Locations start empty; stock arrives through Restock or Adjust.
type NewItemRequest struct {
	ProductID       string            `json:"productId" validate:"required"`
	Sku             string            `json:"sku"       validate:"required"`
	ReorderPoint    *int64            `json:"reorderPoint,omitempty"`
	ReorderQuantity *int64            `json:"reorderQuantity,omitempty"`
	Attributes      Attributes        `json:"attributes"`
	Locations       []LocationRequest `json:"locations"`
	Actor           string            `json:"actor"`
}

type LocationRequest struct {
	LocationID   string `json:"locationId"   validate:"required"`
	LocationName string `json:"locationName"`
	LocationType string `json:"locationType"`
	Actor        string `json:"actor"`
}

type StockRequest struct {
	Quantity    int64  `json:"quantity"`
	ReferenceID string `json:"referenceId"`
	Actor       string `json:"actor"`
}

type AdjustRequest struct {
	LocationID  string    `json:"locationId"`
	StockType   StockType `json:"stockType"`
	Delta       int64     `json:"delta"`
	Reason      Reason    `json:"reason"`
	ReferenceID string    `json:"referenceId"`
	Actor       string    `json:"actor"`
}

type RestockRequest struct {
	Quantity int64  `json:"quantity"`
	Actor    string `json:"actor"`
}

type service struct {
	repo   Repository
	queue  Queue
	locker Locker
	ledger *Ledger
}

func (s *service) CreateItem(ctx context.Context, req NewItemRequest) (InventoryItem, error) {
	const funcName = "CreateItem"

	if err := validate.Struct(req); err != nil {
		return InventoryItem{}, errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}

	unlock, err := s.locker.Lock(ctx, req.ProductID)
	if err != nil {
		return InventoryItem{}, errors.WithMessage(err, "failed to lock product")
	}
	defer unlock()

	existing, err := s.repo.GetItemByProductID(ctx, req.ProductID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return InventoryItem{}, errors.WithStack(err)
	}
	if err == nil {
		log.Debug().
			Str("func", funcName).
			Str("productId", req.ProductID).
			Msg("item already exists")
		return existing, nil
	}

	item := InventoryItem{
		ProductID:       req.ProductID,
		Sku:             NormalizeSku(req.Sku),
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		Attributes:      req.Attributes,
		State:           StateActive,
		Created:         time.Now(),
	}
	for _, loc := range req.Locations {
		if err = s.ledger.AddLocation(&item, loc.LocationID, loc.LocationName, loc.LocationType, req.Actor); err != nil {
			return InventoryItem{}, err
		}
	}
	s.ledger.EnsureDefaultLocation(&item, req.Actor)
	item.RecomputeTotals()

	if err = item.Validate(); err != nil {
		return InventoryItem{}, err
	}

	transition, alert := s.reorderTransition(&item)
	if transition != StateNone {
		item.State = transition
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return InventoryItem{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	log.Info().
		Str("func", funcName).
		Str("productId", item.ProductID).
		Str("sku", item.Sku).
		Int("locations", len(item.StockByLocation)).
		Msg("creating item")

	if err = s.repo.SaveItem(ctx, &item, core.UpdateOptions{Tx: tx}); err != nil {
		return InventoryItem{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return InventoryItem{}, errors.WithStack(err)
	}

	s.publishInventory(ctx, item)
	if alert != nil {
		s.publishReorderAlert(ctx, *alert)
	}

	return item, nil
}

func (s *service) AddLocation(ctx context.Context, productID string, req LocationRequest) (InventoryItem, error) {
	if err := validate.Struct(req); err != nil {
		return InventoryItem{}, errors.Wrapf(ErrInvalidArgument, "%v", err)
	}
	return s.modify(ctx, productID, "AddLocation", 0, func(item *InventoryItem) error {
		return s.ledger.AddLocation(item, req.LocationID, req.LocationName, req.LocationType, req.Actor)
	})
}

func (s *service) GetItem(ctx context.Context, productID string) (InventoryItem, error) {
	const funcName = "GetItem"

	log.Info().
		Str("func", funcName).
		Str("productId", productID).
		Msg("getting item")

	item, err := s.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return item, errors.WithStack(err)
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, filter ItemFilter, limit, offset int) ([]InventoryItem, error) {
	const funcName = "ListItems"

	log.Info().
		Str("func", funcName).
		Str("sku", filter.Sku).
		Str("state", string(filter.State)).
		Str("locationId", filter.LocationID).
		Msg("listing items")

	filter.Sku = NormalizeSku(filter.Sku)
	items, err := s.repo.SearchItems(ctx, filter, limit, offset)
	if err != nil {
		return items, errors.WithStack(err)
	}
	return items, nil
}

// GetAuditLog pages through the entries of an item's trail that match filter.
func (s *service) GetAuditLog(ctx context.Context, productID string, filter AuditFilter, limit, offset int) (AuditTrail, error) {
	item, err := s.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return item.AuditLog.Filter(filter).Page(limit, offset), nil
}

func (s *service) Reserve(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
	return s.modify(ctx, productID, "Reserve", req.Quantity, func(item *InventoryItem) error {
		return s.ledger.Reserve(item, req.Quantity, req.ReferenceID, req.Actor)
	})
}

func (s *service) Release(ctx context.Context, productID string, req StockRequest) (InventoryItem, error) {
	return s.modify(ctx, productID, "Release", req.Quantity, func(item *InventoryItem) error {
		return s.ledger.Release(item, req.Quantity, req.ReferenceID, req.Actor)
	})
}

func (s *service) Adjust(ctx context.Context, productID string, req AdjustRequest) (InventoryItem, error) {
	return s.modify(ctx, productID, "Adjust", abs(req.Delta), func(item *InventoryItem) error {
		return s.ledger.Adjust(item, req.LocationID, req.StockType, req.Delta, req.Reason, req.Actor, req.ReferenceID)
	})
}

func (s *service) Restock(ctx context.Context, productID string, req RestockRequest) (InventoryItem, error) {
	return s.modify(ctx, productID, "Restock", req.Quantity, func(item *InventoryItem) error {
		return s.ledger.Restock(item, req.Quantity, req.Actor)
	})
}

// CheckReorder runs the reorder rule on demand. The reorder_check entry it may append is persisted. A check that
// finds nothing to do leaves the stored item alone.
func (s *service) CheckReorder(ctx context.Context, productID string) (ReorderResult, error) {
	var res ReorderResult
	_, err := s.modify(ctx, productID, "ReorderCheck", 0, func(item *InventoryItem) error {
		var err error
		res, err = s.ledger.ReorderCheck(item)
		return err
	})
	if err != nil {
		return ReorderResult{}, err
	}
	return res, nil
}

// ReserveOrder reserves every line of an order. A line that cannot be reserved is marked reservation_failed and
// the remaining lines are still attempted.
func (s *service) ReserveOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return s.eachLine(ctx, "ReserveOrder", req, LineReserved, LineReservationFailed,
		func(item *InventoryItem, line OrderLine) error {
			return s.ledger.Reserve(item, line.Quantity, req.OrderID, req.Actor)
		})
}

func (s *service) CancelOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return s.eachLine(ctx, "CancelOrder", req, LineReleased, LineReleaseFailed,
		func(item *InventoryItem, line OrderLine) error {
			return s.ledger.Release(item, line.Quantity, req.OrderID, req.Actor)
		})
}

// ReturnOrder puts returned units back into available at the line's location, or the first location when the line
// names none.
func (s *service) ReturnOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return s.eachLine(ctx, "ReturnOrder", req, LineReturned, LineReturnFailed,
		func(item *InventoryItem, line OrderLine) error {
			if line.Quantity <= 0 {
				return errors.Wrapf(ErrInvalidQuantity, "return quantity must be positive, got %d", line.Quantity)
			}
			locationID := line.LocationID
			if locationID == "" {
				locationID = DefaultLocationID
				if len(item.StockByLocation) > 0 {
					locationID = item.StockByLocation[0].LocationID
				}
			}
			return s.ledger.Adjust(item, locationID, StockAvailable, line.Quantity, ReasonReturn, req.Actor, req.OrderID)
		})
}

func (s *service) eachLine(ctx context.Context, funcName string, req OrderRequest, ok, failed LineStatus,
	apply func(item *InventoryItem, line OrderLine) error) (OrderResult, error) {

	if err := validate.Struct(req); err != nil {
		return OrderResult{}, errors.Wrapf(ErrInvalidArgument, "%v", err)
	}

	log.Info().
		Str("func", funcName).
		Str("orderId", req.OrderID).
		Int("lines", len(req.Lines)).
		Msg("processing order")

	result := OrderResult{OrderID: req.OrderID}
	for _, line := range req.Lines {
		line := line
		_, err := s.modify(ctx, line.ProductID, funcName, line.Quantity, func(item *InventoryItem) error {
			return apply(item, line)
		})
		if err != nil {
			log.Warn().
				Err(err).
				Str("func", funcName).
				Str("orderId", req.OrderID).
				Str("productId", line.ProductID).
				Int64("quantity", line.Quantity).
				Msg("order line failed")
			result.fail(line, failed, err)
			continue
		}
		result.succeed(line, ok)
	}

	if n := result.Failed(); n > 0 {
		log.Warn().
			Err(result.Err()).
			Str("func", funcName).
			Str("orderId", req.OrderID).
			Int("failed", n).
			Int("lines", len(req.Lines)).
			Msg("order completed with failed lines")
	}

	return result, nil
}

// modify is the load, mutate and store cycle every write goes through. It holds the product lock for the whole
// cycle, and the repository rejects the write when another writer got there first. When fn appends nothing and the
// state stays put the item is neither stored nor published.
func (s *service) modify(ctx context.Context, productID, op string, units int64, fn func(item *InventoryItem) error) (item InventoryItem, err error) {
	defer func() { recordOperation(op, units, err) }()

	log.Info().
		Str("func", op).
		Str("productId", productID).
		Int64("units", units).
		Msg("modifying item")

	unlock, err := s.locker.Lock(ctx, productID)
	if err != nil {
		return InventoryItem{}, errors.WithMessage(err, "failed to lock product")
	}
	defer unlock()

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return InventoryItem{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	item, err = s.repo.GetItemByProductID(ctx, productID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return InventoryItem{}, errors.WithMessagef(err, "failed to get item %s", productID)
	}

	logged := len(item.AuditLog)
	if err = fn(&item); err != nil {
		return InventoryItem{}, err
	}

	transition, alert := s.reorderTransition(&item)

	if len(item.AuditLog) == logged && transition == StateNone {
		log.Debug().
			Str("func", op).
			Str("productId", productID).
			Msg("item unchanged")
		if err = tx.Commit(ctx); err != nil {
			return InventoryItem{}, errors.WithStack(err)
		}
		return item, nil
	}

	if err = s.repo.UpdateItem(ctx, &item, transition, core.UpdateOptions{Tx: tx}); err != nil {
		return InventoryItem{}, errors.WithMessagef(err, "failed to update item %s", productID)
	}

	if err = tx.Commit(ctx); err != nil {
		return InventoryItem{}, errors.WithStack(err)
	}

	s.publishInventory(ctx, item)
	if alert != nil {
		s.publishReorderAlert(ctx, *alert)
	}

	return item, nil
}

// reorderTransition moves the item between active and reorder_pending. Entering reorder_pending records the
// reorder_check entry and produces the alert to publish.
func (s *service) reorderTransition(item *InventoryItem) (ItemState, *ReorderAlert) {
	res := s.ledger.evaluate(item)
	switch {
	case res.NeedsReorder && item.State != StateReorderPending:
		if last, ok := item.AuditLog.Last(); !ok || last.Reason != ReasonReorderCheck {
			res, _ = s.ledger.ReorderCheck(item)
		}
		alert := s.ledger.Alert(*item, res)
		return StateReorderPending, &alert
	case !res.NeedsReorder && item.State == StateReorderPending:
		return StateActive, nil
	default:
		return StateNone, nil
	}
}

func (s *service) publishInventory(ctx context.Context, item InventoryItem) {
	if err := s.queue.PublishInventory(ctx, item); err != nil {
		log.Error().Err(err).Str("productId", item.ProductID).Msg("failed to publish inventory to queue")
	}
}

func (s *service) publishReorderAlert(ctx context.Context, alert ReorderAlert) {
	reorderAlerts.Inc()
	if err := s.queue.PublishReorderAlert(ctx, alert); err != nil {
		log.Error().Err(err).Str("productId", alert.ProductID).Msg("failed to publish reorder alert to queue")
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

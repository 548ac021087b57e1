// Package inventory is a per-location stock ledger. An InventoryItem owns one StockPool per storage location and an
// append-only AuditTrail; the Ledger is the only thing that mutates them, and the Service loads, mutates and persists
// items on behalf of order, return and restock workflows.
package inventory

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// StockType names one of the quantity buckets tracked by a StockPool.
type StockType string

const (
	StockAvailable StockType = "available"
	StockReserved  StockType = "reserved"
	StockDamaged   StockType = "damaged"
	StockMetadata  StockType = "metadata"
)

// ParseStockType accepts only the stock types that can be adjusted.
func ParseStockType(v string) (StockType, error) {
	switch StockType(strings.ToLower(v)) {
	case StockAvailable:
		return StockAvailable, nil
	case StockReserved:
		return StockReserved, nil
	case StockDamaged:
		return StockDamaged, nil
	default:
		return "", errors.Wrapf(ErrInvalidArgument, "unsupported stock type %q", v)
	}
}

// Reason explains why an audit entry was written.
type Reason string

const (
	ReasonReservation     Reason = "reservation"
	ReasonRelease         Reason = "release"
	ReasonSale            Reason = "sale"
	ReasonReturn          Reason = "return"
	ReasonRestock         Reason = "restock"
	ReasonAdjustment      Reason = "adjustment"
	ReasonReorderCheck    Reason = "reorder_check"
	ReasonUpdate          Reason = "update"
	ReasonLocationCreated Reason = "location_created"
)

var reasons = map[Reason]bool{
	ReasonReservation:     true,
	ReasonRelease:         true,
	ReasonSale:            true,
	ReasonReturn:          true,
	ReasonRestock:         true,
	ReasonAdjustment:      true,
	ReasonReorderCheck:    true,
	ReasonUpdate:          true,
	ReasonLocationCreated: true,
}

// ParseReason defaults an empty reason to ReasonAdjustment.
func ParseReason(v string) (Reason, error) {
	if v == "" {
		return ReasonAdjustment, nil
	}
	r := Reason(strings.ToLower(v))
	if !reasons[r] {
		return "", errors.Wrapf(ErrInvalidArgument, "unknown reason %q", v)
	}
	return r, nil
}

// ItemState is the state tag the entity store keeps alongside an item.
type ItemState string

const (
	StateActive         ItemState = "active"
	StateReorderPending ItemState = "reorder_pending"
	StateNone           ItemState = ""
)

func ParseItemState(v string) (ItemState, error) {
	switch ItemState(v) {
	case StateActive:
		return StateActive, nil
	case StateReorderPending:
		return StateReorderPending, nil
	case StateNone:
		return StateNone, nil
	default:
		return StateNone, errors.Wrapf(ErrInvalidArgument, "invalid item state %q", v)
	}
}

// StockPool is a value object. The quantities held for a product at one storage location.
type StockPool struct {
	LocationID     string    `json:"locationId"     validate:"required"`
	LocationName   string    `json:"locationName"`
	LocationType   string    `json:"locationType"`
	Available      int64     `json:"available"      validate:"gte=0"`
	Reserved       int64     `json:"reserved"       validate:"gte=0"`
	Damaged        int64     `json:"damaged"        validate:"gte=0"`
	InTransit      int64     `json:"inTransit"      validate:"gte=0"`
	LastStockCheck time.Time `json:"lastStockCheck"`
	LastCheckedBy  string    `json:"lastCheckedBy"`
}

// AuditLogEntry is an immutable record of a single stock mutation.
type AuditLogEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        Reason    `json:"reason"`
	Actor         string    `json:"actor"`
	LocationID    string    `json:"locationId"`
	StockType     StockType `json:"stockType"`
	Delta         int64     `json:"delta"`
	PreviousValue int64     `json:"previousValue"`
	NewValue      int64     `json:"newValue"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

type Attributes struct {
	ExpiryDate *time.Time        `json:"expiryDate,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// InventoryItem is an entity and the aggregate root. It exclusively owns its stock pools and audit trail.
type InventoryItem struct {
	ID              uint64      `json:"id"`
	ProductID       string      `json:"productId"                 validate:"required"`
	Sku             string      `json:"sku"                       validate:"required"`
	ReorderPoint    *int64      `json:"reorderPoint,omitempty"    validate:"omitempty,gte=0"`
	ReorderQuantity *int64      `json:"reorderQuantity,omitempty" validate:"omitempty,gt=0"`
	Attributes      Attributes  `json:"attributes"`
	StockByLocation []StockPool `json:"stockByLocation"           validate:"unique=LocationID,dive"`
	AuditLog        AuditTrail  `json:"auditLog"`
	TotalAvailable  int64       `json:"totalAvailable"`
	TotalReserved   int64       `json:"totalReserved"`
	TotalDamaged    int64       `json:"totalDamaged"`
	State           ItemState   `json:"state"`
	Version         int64       `json:"version"`
	Created         time.Time   `json:"created"`
	Updated         time.Time   `json:"updated"`
}

// ReorderResult is the outcome of evaluating the reorder rule against an item.
type ReorderResult struct {
	NeedsReorder      bool  `json:"needsReorder"`
	TotalAvailable    int64 `json:"totalAvailable"`
	SuggestedQuantity int64 `json:"suggestedQuantity"`
}

// ReorderAlert is published when an item falls to or below its reorder point.
type ReorderAlert struct {
	ProductID         string    `json:"productId"`
	Sku               string    `json:"sku"`
	ReorderPoint      int64     `json:"reorderPoint"`
	TotalAvailable    int64     `json:"totalAvailable"`
	SuggestedQuantity int64     `json:"suggestedQuantity"`
	Raised            time.Time `json:"raised"`
}

// ItemFilter narrows an item search. Empty fields match everything.
type ItemFilter struct {
	Sku        string
	State      ItemState
	LocationID string
}

// AuditFilter narrows an audit trail. Zero fields match everything.
type AuditFilter struct {
	Since       time.Time
	LocationID  string
	ReferenceID string
}

// NormalizeSku is the canonical form skus are stored and compared in.
func NormalizeSku(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

package inventory

import (
	stderrors "errors"
)

// Kind classifies ledger failures so callers can react without matching on messages.
type Kind string

const (
	KindNone                      Kind = ""
	KindInvalidQuantity           Kind = "InvalidQuantity"
	KindInsufficientStock         Kind = "InsufficientStock"
	KindInsufficientReservedStock Kind = "InsufficientReservedStock"
	KindNegativeStockRejected     Kind = "NegativeStockRejected"
	KindLocationNotFound          Kind = "LocationNotFound"
	KindInvalidConfiguration      Kind = "InvalidConfiguration"
	KindInvalidArgument           Kind = "InvalidArgument"
	KindUnknown                   Kind = "Unknown"
)

var (
	ErrInvalidQuantity           = stderrors.New("inventory: invalid quantity")
	ErrInsufficientStock         = stderrors.New("inventory: insufficient stock")
	ErrInsufficientReservedStock = stderrors.New("inventory: insufficient reserved stock")
	ErrNegativeStockRejected     = stderrors.New("inventory: negative stock rejected")
	ErrLocationNotFound          = stderrors.New("inventory: location not found")
	ErrInvalidConfiguration      = stderrors.New("inventory: invalid configuration")
	ErrInvalidArgument           = stderrors.New("inventory: invalid argument")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrInsufficientReservedStock, KindInsufficientReservedStock},
	{ErrNegativeStockRejected, KindNegativeStockRejected},
	{ErrLocationNotFound, KindLocationNotFound},
	{ErrInvalidConfiguration, KindInvalidConfiguration},
	{ErrInvalidArgument, KindInvalidArgument},
}

// KindOf reports the ledger kind of err, KindNone for nil and KindUnknown for anything that is not a ledger error.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if stderrors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

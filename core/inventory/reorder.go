package inventory

import "math"

// evaluate applies the reorder rule to the item's current totals without touching its audit trail.
func (l *Ledger) evaluate(item *InventoryItem) ReorderResult {
	res := ReorderResult{TotalAvailable: item.TotalAvailable}
	if item.ReorderPoint != nil {
		res.NeedsReorder = item.TotalAvailable <= *item.ReorderPoint
	}
	res.SuggestedQuantity = l.suggestedQuantity(item)
	return res
}

func (l *Ledger) suggestedQuantity(item *InventoryItem) int64 {
	if item.ReorderQuantity != nil && *item.ReorderQuantity > 0 {
		return *item.ReorderQuantity
	}
	if item.ReorderPoint != nil {
		point := *item.ReorderPoint
		if point > math.MaxInt64/2 {
			point = math.MaxInt64 / 2
		}
		q := 2*point - item.TotalAvailable
		if q < 0 {
			return 0
		}
		return q
	}
	return l.fallbackReorderQuantity
}

// Alert builds the message published for an item that needs reordering.
func (l *Ledger) Alert(item InventoryItem, res ReorderResult) ReorderAlert {
	var point int64
	if item.ReorderPoint != nil {
		point = *item.ReorderPoint
	}
	return ReorderAlert{
		ProductID:         item.ProductID,
		Sku:               item.Sku,
		ReorderPoint:      point,
		TotalAvailable:    res.TotalAvailable,
		SuggestedQuantity: res.SuggestedQuantity,
		Raised:            l.now(),
	}
}

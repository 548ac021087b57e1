package api

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core/inventory"
)

type OrderRequestDto struct {
	Actor string                `json:"actor"`
	Lines []inventory.OrderLine `json:"lines"`
}

func (p *OrderRequestDto) Bind(_ *http.Request) error {
	if len(p.Lines) == 0 {
		return errors.New("at least one line is required")
	}
	for i, l := range p.Lines {
		if l.ProductID == "" {
			return errors.Errorf("line %d is missing a productId", i)
		}
	}
	return nil
}

// OrderResponse is rendered with 200 even when some lines failed. Each line carries its own status.
type OrderResponse struct {
	inventory.OrderResult
	Failed int `json:"failed"`
}

func NewOrderResponse(res inventory.OrderResult) *OrderResponse {
	return &OrderResponse{OrderResult: res, Failed: res.Failed()}
}

func (rd *OrderResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	if rd.Lines == nil {
		rd.Lines = []inventory.LineResult{}
	}
	return nil
}

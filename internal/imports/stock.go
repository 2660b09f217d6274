package imports

import (
	"context"
	"encoding/json"
)

// OpeningStockRow is the payload schema for opening-stock imports.
type OpeningStockRow struct {
	ProductSku  string  `json:"productSku"`
	WarehouseID int64   `json:"warehouseId"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unitCost,omitempty"`
}

func decodeOpeningStockRow(raw json.RawMessage) (Row, error) {
	var row OpeningStockRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// OpeningStock builds the independent-row entity definition for
// opening-stock imports. Each row creates a stock movement through the
// stock module's compound operation, which validates the row and runs its
// own transaction.
func OpeningStock(gw StockGateway) EntityDefinition {
	return EntityDefinition{
		Type:     EntityOpeningStock,
		Slug:     "opening-stock",
		Label:    "Opening Stock",
		Protocol: IndependentRows,
		Decode:   decodeOpeningStockRow,
		Processor: NewIndependentProcessor(decodeOpeningStockRow, func(ctx context.Context, r Row) error {
			return gw.CreateOpeningStock(ctx, r.(OpeningStockRow))
		}),
	}
}

package imports

import (
	"context"
	"encoding/json"
)

// OrderLine is one line of a sales or purchase order row.
type OrderLine struct {
	ProductSku string  `json:"productSku"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
}

// SalesOrderRow is the payload schema for sales-order imports.
type SalesOrderRow struct {
	CustomerEmail string      `json:"customerEmail"`
	OrderDate     string      `json:"orderDate,omitempty"`
	CurrencyID    int64       `json:"currencyId,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Lines         []OrderLine `json:"lines"`
}

// PurchaseOrderRow is the payload schema for purchase-order imports.
type PurchaseOrderRow struct {
	SupplierEmail    string      `json:"supplierEmail"`
	OrderDate        string      `json:"orderDate,omitempty"`
	ExpectedDelivery string      `json:"expectedDeliveryDate,omitempty"`
	CurrencyID       int64       `json:"currencyId,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Lines            []OrderLine `json:"lines"`
}

func decodeSalesOrderRow(raw json.RawMessage) (Row, error) {
	var row SalesOrderRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func decodePurchaseOrderRow(raw json.RawMessage) (Row, error) {
	var row PurchaseOrderRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// SalesOrders builds the independent-row entity definition for sales-order
// imports. One row spans the order header and its lines; the order module
// validates it and scopes its own transaction, so one bad order never
// blocks the others.
func SalesOrders(gw SalesOrderGateway) EntityDefinition {
	return EntityDefinition{
		Type:     EntitySalesOrder,
		Slug:     "sales-orders",
		Label:    "Sales Orders",
		Protocol: IndependentRows,
		Decode:   decodeSalesOrderRow,
		Processor: NewIndependentProcessor(decodeSalesOrderRow, func(ctx context.Context, r Row) error {
			return gw.CreateOrder(ctx, r.(SalesOrderRow))
		}),
	}
}

// PurchaseOrders builds the independent-row entity definition for
// purchase-order imports.
func PurchaseOrders(gw PurchaseOrderGateway) EntityDefinition {
	return EntityDefinition{
		Type:     EntityPurchaseOrder,
		Slug:     "purchase-orders",
		Label:    "Purchase Orders",
		Protocol: IndependentRows,
		Decode:   decodePurchaseOrderRow,
		Processor: NewIndependentProcessor(decodePurchaseOrderRow, func(ctx context.Context, r Row) error {
			return gw.CreateOrder(ctx, r.(PurchaseOrderRow))
		}),
	}
}

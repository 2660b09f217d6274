package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseOrders is the purchasing module's import gateway, the supplier
// counterpart of SalesOrders.
type PurchaseOrders struct {
	pool *pgxpool.Pool
}

func NewPurchaseOrders(pool *pgxpool.Pool) *PurchaseOrders {
	return &PurchaseOrders{pool: pool}
}

func (g *PurchaseOrders) CreateOrder(ctx context.Context, row imports.PurchaseOrderRow) error {
	if row.SupplierEmail == "" {
		return errors.New("missing required field \"supplierEmail\"")
	}
	if len(row.Lines) == 0 {
		return errors.New("order must have at least one line")
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var supplierID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM suppliers WHERE email = $1`, row.SupplierEmail).Scan(&supplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("supplier %q not found", row.SupplierEmail)
		}
		return fmt.Errorf("look up supplier: %w", err)
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_id, order_date, expected_delivery_date, currency_id, notes, status)
		VALUES ($1, COALESCE(NULLIF($2, '')::date, CURRENT_DATE), NULLIF($3, '')::date, NULLIF($4, 0), $5, 'DRAFT')
		RETURNING id`,
		supplierID, row.OrderDate, row.ExpectedDelivery, row.CurrencyID, row.Notes).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	for i, line := range row.Lines {
		var productID int64
		err = tx.QueryRow(ctx,
			`SELECT id FROM products WHERE sku = $1`, line.ProductSku).Scan(&productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("line %d: product %q not found", i+1, line.ProductSku)
			}
			return fmt.Errorf("line %d: look up product: %w", i+1, err)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("line %d: quantity must be positive", i+1)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_order_lines (purchase_order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			orderID, productID, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("line %d: insert order line: %w", i+1, err)
		}
	}

	return tx.Commit(ctx)
}

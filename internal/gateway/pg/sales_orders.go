package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SalesOrders is the sales module's import gateway. One row creates the
// order header and all of its lines inside a single transaction scoped to
// that row.
type SalesOrders struct {
	pool *pgxpool.Pool
}

func NewSalesOrders(pool *pgxpool.Pool) *SalesOrders {
	return &SalesOrders{pool: pool}
}

func (g *SalesOrders) CreateOrder(ctx context.Context, row imports.SalesOrderRow) error {
	if row.CustomerEmail == "" {
		return errors.New("missing required field \"customerEmail\"")
	}
	if len(row.Lines) == 0 {
		return errors.New("order must have at least one line")
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM customers WHERE email = $1`, row.CustomerEmail).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("customer %q not found", row.CustomerEmail)
		}
		return fmt.Errorf("look up customer: %w", err)
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sales_orders (customer_id, order_date, currency_id, notes, status)
		VALUES ($1, COALESCE(NULLIF($2, '')::date, CURRENT_DATE), NULLIF($3, 0), $4, 'DRAFT')
		RETURNING id`,
		customerID, row.OrderDate, row.CurrencyID, row.Notes).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("insert sales order: %w", err)
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
			INSERT INTO sales_order_lines (sales_order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			orderID, productID, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("line %d: insert order line: %w", i+1, err)
		}
	}

	return tx.Commit(ctx)
}

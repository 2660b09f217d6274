package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stock is the stock module's import gateway. Creating an opening-stock
// entry spans the movement ledger and the level table, so the whole row
// runs inside one transaction of its own.
type Stock struct {
	pool *pgxpool.Pool
}

func NewStock(pool *pgxpool.Pool) *Stock {
	return &Stock{pool: pool}
}

func (g *Stock) CreateOpeningStock(ctx context.Context, row imports.OpeningStockRow) error {
	if row.ProductSku == "" {
		return errors.New("missing required field \"productSku\"")
	}
	if row.WarehouseID == 0 {
		return errors.New("missing required field \"warehouseId\"")
	}
	if row.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var productID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM products WHERE sku = $1`, row.ProductSku).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %q not found", row.ProductSku)
		}
		return fmt.Errorf("look up product: %w", err)
	}

	var warehouseID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM warehouses WHERE id = $1`, row.WarehouseID).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("warehouse %d not found", row.WarehouseID)
		}
		return fmt.Errorf("look up warehouse: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, warehouse_id, movement_type, quantity, unit_cost)
		VALUES ($1, $2, 'OPENING_STOCK', $3, $4)`,
		productID, warehouseID, row.Quantity, row.UnitCost)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity`,
		productID, warehouseID, row.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}

	return tx.Commit(ctx)
}

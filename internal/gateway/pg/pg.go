// Package pg provides Postgres-backed implementations of the import
// engine's entity gateways. They are deliberately thin: batched existence
// lookups, a handful of sanity rules per row, and the create-or-fail commit
// operations (bulk transactional writes for the bulk-commit entities,
// per-row transactions for the compound ones).
package pg

import (
	"context"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5/pgxpool"
)

// existingStrings runs a batched existence query returning one string key
// per row and builds the known-to-exist set.
func existingStrings(ctx context.Context, pool *pgxpool.Pool, query string, keys []string) (map[string]bool, error) {
	rows, err := pool.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("existence query: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(keys))
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		found[key] = true
	}
	return found, rows.Err()
}

// existingInt64s is the id-keyed variant of existingStrings.
func existingInt64s(ctx context.Context, pool *pgxpool.Pool, query string, ids []int64) (map[int64]bool, error) {
	rows, err := pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("existence query: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

// compile-time checks that the adapters satisfy the engine's interfaces
var (
	_ imports.ProductGateway       = (*Products)(nil)
	_ imports.CustomerGateway      = (*Customers)(nil)
	_ imports.SupplierGateway      = (*Suppliers)(nil)
	_ imports.CategoryGateway      = (*Categories)(nil)
	_ imports.StockGateway         = (*Stock)(nil)
	_ imports.SalesOrderGateway    = (*SalesOrders)(nil)
	_ imports.PurchaseOrderGateway = (*PurchaseOrders)(nil)
)

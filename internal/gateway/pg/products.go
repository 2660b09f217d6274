package pg

import (
	"context"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Products is the product module's import gateway.
type Products struct {
	pool *pgxpool.Pool
}

func NewProducts(pool *pgxpool.Pool) *Products {
	return &Products{pool: pool}
}

func (g *Products) ExistingSKUs(ctx context.Context, skus []string) (map[string]bool, error) {
	return existingStrings(ctx, g.pool,
		`SELECT sku FROM products WHERE sku = ANY($1)`, skus)
}

func (g *Products) ExistingCategoryIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingInt64s(ctx, g.pool,
		`SELECT id FROM product_categories WHERE id = ANY($1)`, ids)
}

func (g *Products) ValidateRow(ctx context.Context, row imports.ProductRow) []string {
	var problems []string
	if row.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if row.VatRate < 0 || row.VatRate > 100 {
		problems = append(problems, "vatRate must be between 0 and 100")
	}
	return problems
}

// CreateAll writes every row in one transaction using the COPY protocol;
// either all products land or none do.
func (g *Products) CreateAll(ctx context.Context, rows []imports.ProductRow) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"sku", "name", "description", "category_id", "unit", "price", "vat_rate"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Sku, r.Name, r.Description, r.CategoryID, r.Unit, r.Price, r.VatRate}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}

	return tx.Commit(ctx)
}

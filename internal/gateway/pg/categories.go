package pg

import (
	"context"
	"fmt"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Categories is the product-category module's import gateway.
type Categories struct {
	pool *pgxpool.Pool
}

func NewCategories(pool *pgxpool.Pool) *Categories {
	return &Categories{pool: pool}
}

func (g *Categories) ExistingNames(ctx context.Context, names []string) (map[string]bool, error) {
	return existingStrings(ctx, g.pool,
		`SELECT name FROM product_categories WHERE name = ANY($1)`, names)
}

func (g *Categories) ExistingParentIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingInt64s(ctx, g.pool,
		`SELECT id FROM product_categories WHERE id = ANY($1)`, ids)
}

func (g *Categories) ValidateRow(ctx context.Context, row imports.CategoryRow) []string {
	return nil
}

// CreateAll writes every row in one transaction; either all categories land
// or none do.
func (g *Categories) CreateAll(ctx context.Context, rows []imports.CategoryRow) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"product_categories"},
		[]string{"name", "description", "parent_category_id"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			var parent any
			if r.ParentID != 0 {
				parent = r.ParentID
			}
			return []any{r.Name, r.Description, parent}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy product categories: %w", err)
	}

	return tx.Commit(ctx)
}

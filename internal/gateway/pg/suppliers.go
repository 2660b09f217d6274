package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Suppliers is the supplier module's import gateway.
type Suppliers struct {
	pool *pgxpool.Pool
}

func NewSuppliers(pool *pgxpool.Pool) *Suppliers {
	return &Suppliers{pool: pool}
}

func (g *Suppliers) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	return existingStrings(ctx, g.pool,
		`SELECT email FROM suppliers WHERE email = ANY($1)`, emails)
}

func (g *Suppliers) ExistingCurrencyIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingInt64s(ctx, g.pool,
		`SELECT id FROM currencies WHERE id = ANY($1)`, ids)
}

func (g *Suppliers) ValidateRow(ctx context.Context, row imports.SupplierRow) []string {
	var problems []string
	if !strings.Contains(row.Email, "@") {
		problems = append(problems, "email is not a valid address")
	}
	return problems
}

// CreateAll writes every row in one transaction; either all suppliers land
// or none do.
func (g *Suppliers) CreateAll(ctx context.Context, rows []imports.SupplierRow) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"suppliers"},
		[]string{"name", "email", "phone", "vat_number", "currency_id"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Name, r.Email, r.Phone, r.VatNumber, r.CurrencyID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy suppliers: %w", err)
	}

	return tx.Commit(ctx)
}

package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Customers is the customer module's import gateway.
type Customers struct {
	pool *pgxpool.Pool
}

func NewCustomers(pool *pgxpool.Pool) *Customers {
	return &Customers{pool: pool}
}

func (g *Customers) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	return existingStrings(ctx, g.pool,
		`SELECT email FROM customers WHERE email = ANY($1)`, emails)
}

func (g *Customers) ExistingCurrencyIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingInt64s(ctx, g.pool,
		`SELECT id FROM currencies WHERE id = ANY($1)`, ids)
}

func (g *Customers) ValidateRow(ctx context.Context, row imports.CustomerRow) []string {
	var problems []string
	if !strings.Contains(row.Email, "@") {
		problems = append(problems, "email is not a valid address")
	}
	return problems
}

// CreateAll writes every row in one transaction; either all customers land
// or none do.
func (g *Customers) CreateAll(ctx context.Context, rows []imports.CustomerRow) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"customers"},
		[]string{"email", "first_name", "last_name", "company_name", "phone", "currency_id"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Email, r.FirstName, r.LastName, r.CompanyName, r.Phone, r.CurrencyID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy customers: %w", err)
	}

	return tx.Commit(ctx)
}

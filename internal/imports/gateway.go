package imports

// gateway.go declares the collaborator interfaces the batch engine consumes,
// one per importable entity type. The domain CRUD modules stand behind
// them: the engine only sees batched existence checks, an entity-specific
// row validation, and an opaque create-or-fail commit operation.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ProductGateway is the product module seen from the import engine.
type ProductGateway interface {
	ExistingSKUs(ctx context.Context, skus []string) (map[string]bool, error)
	ExistingCategoryIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ValidateRow(ctx context.Context, row ProductRow) []string
	CreateAll(ctx context.Context, rows []ProductRow) error
}

// CustomerGateway is the customer module seen from the import engine.
type CustomerGateway interface {
	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
	ExistingCurrencyIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ValidateRow(ctx context.Context, row CustomerRow) []string
	CreateAll(ctx context.Context, rows []CustomerRow) error
}

// SupplierGateway is the supplier module seen from the import engine.
type SupplierGateway interface {
	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
	ExistingCurrencyIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ValidateRow(ctx context.Context, row SupplierRow) []string
	CreateAll(ctx context.Context, rows []SupplierRow) error
}

// CategoryGateway is the product-category module seen from the import engine.
type CategoryGateway interface {
	ExistingNames(ctx context.Context, names []string) (map[string]bool, error)
	ExistingParentIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ValidateRow(ctx context.Context, row CategoryRow) []string
	CreateAll(ctx context.Context, rows []CategoryRow) error
}

// StockGateway creates one opening-stock movement, spanning product lookup
// and stock tables inside its own transaction.
type StockGateway interface {
	CreateOpeningStock(ctx context.Context, row OpeningStockRow) error
}

// SalesOrderGateway creates one sales order with its lines inside its own
// transaction.
type SalesOrderGateway interface {
	CreateOrder(ctx context.Context, row SalesOrderRow) error
}

// PurchaseOrderGateway creates one purchase order with its lines inside its
// own transaction.
type PurchaseOrderGateway interface {
	CreateOrder(ctx context.Context, row PurchaseOrderRow) error
}

// decodeObject parses a raw payload row into dst, rejecting anything that
// is not a JSON object or carries mistyped fields.
func decodeObject(raw []byte, dst any) error {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("row must be a JSON object")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed row: %v", err)
	}
	return nil
}

// stringKey adapts a string field to a key dimension; empty means absent.
func stringKey(value string) (string, bool) {
	return value, value != ""
}

// int64Key adapts a numeric id field to a key dimension; zero means absent.
func int64Key(id int64) (string, bool) {
	if id == 0 {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}

// int64Lookup adapts a typed id existence check to the string-keyed lookup
// the validator runs. Keys arrive from int64Key, so parsing cannot fail.
func int64Lookup(check func(context.Context, []int64) (map[int64]bool, error)) func(context.Context, []string) (map[string]bool, error) {
	return func(ctx context.Context, keys []string) (map[string]bool, error) {
		ids := make([]int64, 0, len(keys))
		for _, key := range keys {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q: %w", key, err)
			}
			ids = append(ids, id)
		}
		found, err := check(ctx, ids)
		if err != nil {
			return nil, err
		}
		result := make(map[string]bool, len(found))
		for id, ok := range found {
			result[strconv.FormatInt(id, 10)] = ok
		}
		return result, nil
	}
}

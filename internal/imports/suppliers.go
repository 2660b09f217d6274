package imports

import (
	"context"
	"encoding/json"
)

// SupplierRow is the payload schema for supplier imports.
type SupplierRow struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	VatNumber  string `json:"vatNumber,omitempty"`
	CurrencyID int64  `json:"currencyId"`
}

func decodeSupplierRow(raw json.RawMessage) (Row, error) {
	var row SupplierRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func supplierRequired(r Row) []string {
	row := r.(SupplierRow)
	var missing []string
	if row.Name == "" {
		missing = append(missing, "name")
	}
	if row.Email == "" {
		missing = append(missing, "email")
	}
	if row.CurrencyID == 0 {
		missing = append(missing, "currencyId")
	}
	return missing
}

// Suppliers builds the bulk-commit entity definition for supplier imports.
func Suppliers(gw SupplierGateway) EntityDefinition {
	spec := RowSpec{
		Decode:   decodeSupplierRow,
		Required: supplierRequired,
		Unique: []KeyDimension{{
			Name:   "email",
			KeyOf:  func(r Row) (string, bool) { return stringKey(r.(SupplierRow).Email) },
			Lookup: gw.ExistingEmails,
		}},
		Foreign: []KeyDimension{{
			Name:   "currency",
			KeyOf:  func(r Row) (string, bool) { return int64Key(r.(SupplierRow).CurrencyID) },
			Lookup: int64Lookup(gw.ExistingCurrencyIDs),
		}},
		Validate: func(ctx context.Context, r Row) []string {
			return gw.ValidateRow(ctx, r.(SupplierRow))
		},
	}

	return EntityDefinition{
		Type:     EntitySupplier,
		Slug:     "suppliers",
		Label:    "Suppliers",
		Protocol: BulkCommit,
		Decode:   decodeSupplierRow,
		Processor: NewBulkProcessor(spec, func(ctx context.Context, rows []Row) error {
			typed := make([]SupplierRow, len(rows))
			for i, r := range rows {
				typed[i] = r.(SupplierRow)
			}
			return gw.CreateAll(ctx, typed)
		}),
	}
}

package imports

import (
	"context"
	"encoding/json"
)

// ProductRow is the payload schema for product imports.
type ProductRow struct {
	Sku         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	CategoryID  int64   `json:"categoryId"`
	Unit        string  `json:"unit,omitempty"`
	Price       float64 `json:"price"`
	VatRate     float64 `json:"vatRate,omitempty"`
}

func decodeProductRow(raw json.RawMessage) (Row, error) {
	var row ProductRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func productRequired(r Row) []string {
	row := r.(ProductRow)
	var missing []string
	if row.Sku == "" {
		missing = append(missing, "sku")
	}
	if row.Name == "" {
		missing = append(missing, "name")
	}
	if row.CategoryID == 0 {
		missing = append(missing, "categoryId")
	}
	return missing
}

// Products builds the bulk-commit entity definition for product imports.
func Products(gw ProductGateway) EntityDefinition {
	spec := RowSpec{
		Decode:   decodeProductRow,
		Required: productRequired,
		Unique: []KeyDimension{{
			Name:   "sku",
			KeyOf:  func(r Row) (string, bool) { return stringKey(r.(ProductRow).Sku) },
			Lookup: gw.ExistingSKUs,
		}},
		Foreign: []KeyDimension{{
			Name:   "category",
			KeyOf:  func(r Row) (string, bool) { return int64Key(r.(ProductRow).CategoryID) },
			Lookup: int64Lookup(gw.ExistingCategoryIDs),
		}},
		Validate: func(ctx context.Context, r Row) []string {
			return gw.ValidateRow(ctx, r.(ProductRow))
		},
	}

	return EntityDefinition{
		Type:     EntityProduct,
		Slug:     "products",
		Label:    "Products",
		Protocol: BulkCommit,
		Decode:   decodeProductRow,
		Processor: NewBulkProcessor(spec, func(ctx context.Context, rows []Row) error {
			typed := make([]ProductRow, len(rows))
			for i, r := range rows {
				typed[i] = r.(ProductRow)
			}
			return gw.CreateAll(ctx, typed)
		}),
	}
}

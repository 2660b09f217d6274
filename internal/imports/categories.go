package imports

import (
	"context"
	"encoding/json"
)

// CategoryRow is the payload schema for product-category imports.
type CategoryRow struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    int64  `json:"parentCategoryId,omitempty"`
}

func decodeCategoryRow(raw json.RawMessage) (Row, error) {
	var row CategoryRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func categoryRequired(r Row) []string {
	if r.(CategoryRow).Name == "" {
		return []string{"name"}
	}
	return nil
}

// Categories builds the bulk-commit entity definition for product-category
// imports. The parent reference is optional; when present it must point at
// an existing category (parents cannot be created by the same batch).
func Categories(gw CategoryGateway) EntityDefinition {
	spec := RowSpec{
		Decode:   decodeCategoryRow,
		Required: categoryRequired,
		Unique: []KeyDimension{{
			Name:   "name",
			KeyOf:  func(r Row) (string, bool) { return stringKey(r.(CategoryRow).Name) },
			Lookup: gw.ExistingNames,
		}},
		Foreign: []KeyDimension{{
			Name:   "parent category",
			KeyOf:  func(r Row) (string, bool) { return int64Key(r.(CategoryRow).ParentID) },
			Lookup: int64Lookup(gw.ExistingParentIDs),
		}},
		Validate: func(ctx context.Context, r Row) []string {
			return gw.ValidateRow(ctx, r.(CategoryRow))
		},
	}

	return EntityDefinition{
		Type:     EntityProductCategory,
		Slug:     "product-categories",
		Label:    "Product Categories",
		Protocol: BulkCommit,
		Decode:   decodeCategoryRow,
		Processor: NewBulkProcessor(spec, func(ctx context.Context, rows []Row) error {
			typed := make([]CategoryRow, len(rows))
			for i, r := range rows {
				typed[i] = r.(CategoryRow)
			}
			return gw.CreateAll(ctx, typed)
		}),
	}
}

package imports

import (
	"context"
	"encoding/json"
)

// CustomerRow is the payload schema for customer imports.
type CustomerRow struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CurrencyID  int64  `json:"currencyId"`
}

func decodeCustomerRow(raw json.RawMessage) (Row, error) {
	var row CustomerRow
	if err := decodeObject(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func customerRequired(r Row) []string {
	row := r.(CustomerRow)
	var missing []string
	if row.Email == "" {
		missing = append(missing, "email")
	}
	if row.CurrencyID == 0 {
		missing = append(missing, "currencyId")
	}
	// A customer is either a person or a company; one of the two names
	// must be present.
	if row.LastName == "" && row.CompanyName == "" {
		missing = append(missing, "lastName or companyName")
	}
	return missing
}

// Customers builds the bulk-commit entity definition for customer imports.
func Customers(gw CustomerGateway) EntityDefinition {
	spec := RowSpec{
		Decode:   decodeCustomerRow,
		Required: customerRequired,
		Unique: []KeyDimension{{
			Name:   "email",
			KeyOf:  func(r Row) (string, bool) { return stringKey(r.(CustomerRow).Email) },
			Lookup: gw.ExistingEmails,
		}},
		Foreign: []KeyDimension{{
			Name:   "currency",
			KeyOf:  func(r Row) (string, bool) { return int64Key(r.(CustomerRow).CurrencyID) },
			Lookup: int64Lookup(gw.ExistingCurrencyIDs),
		}},
		Validate: func(ctx context.Context, r Row) []string {
			return gw.ValidateRow(ctx, r.(CustomerRow))
		},
	}

	return EntityDefinition{
		Type:     EntityCustomer,
		Slug:     "customers",
		Label:    "Customers",
		Protocol: BulkCommit,
		Decode:   decodeCustomerRow,
		Processor: NewBulkProcessor(spec, func(ctx context.Context, rows []Row) error {
			typed := make([]CustomerRow, len(rows))
			for i, r := range rows {
				typed[i] = r.(CustomerRow)
			}
			return gw.CreateAll(ctx, typed)
		}),
	}
}

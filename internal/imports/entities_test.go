package imports

import (
	"encoding/json"
	"testing"
)

func TestDecodeObject_RejectsNonObjects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"array", `[1,2,3]`},
		{"string", `"sku-1"`},
		{"number", `42`},
		{"boolean", `true`},
		{"null", `null`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeProductRow(json.RawMessage(tt.raw)); err == nil {
				t.Errorf("decodeProductRow(%s) error = nil, want rejection", tt.raw)
			}
		})
	}
}

func TestDecodeObject_RejectsMistypedFields(t *testing.T) {
	_, err := decodeProductRow(json.RawMessage(`{"sku":"S-1","name":"Widget","categoryId":"not-a-number"}`))
	if err == nil {
		t.Fatal("error = nil, want mistyped field rejection")
	}
}

func TestDecodeObject_AcceptsLeadingWhitespace(t *testing.T) {
	row, err := decodeProductRow(json.RawMessage("\n\t {\"sku\":\"S-1\",\"name\":\"Widget\",\"categoryId\":3}"))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if row.(ProductRow).Sku != "S-1" {
		t.Errorf("sku = %q, want S-1", row.(ProductRow).Sku)
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		required func(Row) []string
		row      Row
		want     int
	}{
		{"product complete", productRequired, ProductRow{Sku: "S", Name: "N", CategoryID: 1}, 0},
		{"product missing all", productRequired, ProductRow{}, 3},
		{"customer person", customerRequired, CustomerRow{Email: "a@b.c", LastName: "Ada", CurrencyID: 1}, 0},
		{"customer company", customerRequired, CustomerRow{Email: "a@b.c", CompanyName: "Acme", CurrencyID: 1}, 0},
		{"customer no name at all", customerRequired, CustomerRow{Email: "a@b.c", CurrencyID: 1}, 1},
		{"supplier complete", supplierRequired, SupplierRow{Name: "Acme", Email: "a@b.c", CurrencyID: 1}, 0},
		{"supplier missing email", supplierRequired, SupplierRow{Name: "Acme", CurrencyID: 1}, 1},
		{"category complete", categoryRequired, CategoryRow{Name: "Tools"}, 0},
		{"category missing name", categoryRequired, CategoryRow{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.required(tt.row); len(got) != tt.want {
				t.Errorf("missing = %v, want %d entries", got, tt.want)
			}
		})
	}
}

func TestCategoryParent_OptionalKey(t *testing.T) {
	if _, ok := int64Key(CategoryRow{Name: "Tools"}.ParentID); ok {
		t.Error("absent parent id produced a key")
	}
	key, ok := int64Key(CategoryRow{Name: "Tools", ParentID: 7}.ParentID)
	if !ok || key != "7" {
		t.Errorf("key = %q ok=%v, want 7 true", key, ok)
	}
}

func TestOrderRows_DecodeNestedLines(t *testing.T) {
	raw := json.RawMessage(`{
		"customerEmail": "buyer@example.com",
		"currencyId": 1,
		"lines": [
			{"productSku": "S-1", "quantity": 2, "unitPrice": 9.5},
			{"productSku": "S-2", "quantity": 1, "unitPrice": 20}
		]
	}`)

	row, err := decodeSalesOrderRow(raw)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	order := row.(SalesOrderRow)
	if order.CustomerEmail != "buyer@example.com" {
		t.Errorf("customerEmail = %q", order.CustomerEmail)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(order.Lines))
	}
	if order.Lines[0].ProductSku != "S-1" || order.Lines[0].Quantity != 2 {
		t.Errorf("first line = %+v", order.Lines[0])
	}
}

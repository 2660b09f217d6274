package imports

import "testing"

func testDefinition(entityType EntityType, slug string) EntityDefinition {
	return EntityDefinition{
		Type:     entityType,
		Slug:     slug,
		Label:    slug,
		Protocol: BulkCommit,
		Decode:   decodeCustomerRow,
	}
}

func TestRegister_AndLookup(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testDefinition(EntityCustomer, "customers"))
	Register(testDefinition(EntityProduct, "products"))

	def, ok := Get(EntityCustomer)
	if !ok {
		t.Fatal("Get(CUSTOMER) not found")
	}
	if def.Slug != "customers" {
		t.Errorf("slug = %q, want customers", def.Slug)
	}

	def, ok = BySlug("products")
	if !ok {
		t.Fatal("BySlug(products) not found")
	}
	if def.Type != EntityProduct {
		t.Errorf("type = %s, want %s", def.Type, EntityProduct)
	}

	if _, ok := Get(EntityType("NOPE")); ok {
		t.Error("Get(NOPE) found, want miss")
	}
	if _, ok := BySlug("nope"); ok {
		t.Error("BySlug(nope) found, want miss")
	}
	if Count() != 2 {
		t.Errorf("Count() = %d, want 2", Count())
	}
}

func TestRegister_DuplicateTypePanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testDefinition(EntityCustomer, "customers"))

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate entity type")
		}
	}()
	Register(testDefinition(EntityCustomer, "other-slug"))
}

func TestRegister_DuplicateSlugPanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testDefinition(EntityCustomer, "customers"))

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate slug")
		}
	}()
	Register(testDefinition(EntityProduct, "customers"))
}

func TestAll_SortedByType(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testDefinition(EntitySupplier, "suppliers"))
	Register(testDefinition(EntityCustomer, "customers"))
	Register(testDefinition(EntityProduct, "products"))

	defs := All()
	if len(defs) != 3 {
		t.Fatalf("All() = %d definitions, want 3", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Type >= defs[i].Type {
			t.Errorf("definitions not sorted: %s before %s", defs[i-1].Type, defs[i].Type)
		}
	}
}

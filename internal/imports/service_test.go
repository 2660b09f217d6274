package imports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestService wires a service over a fresh MemoryStore with the customer
// and opening-stock definitions registered against fakes.
func newTestService(t *testing.T, opts Options, customerGW *fakeCustomerGW, stockGW *fakeStockGW) (*Service, *MemoryStore) {
	t.Helper()
	Clear()
	t.Cleanup(Clear)

	if customerGW != nil {
		Register(Customers(customerGW))
	}
	if stockGW != nil {
		Register(OpeningStock(stockGW))
	}

	store := NewMemoryStore()
	return NewService(store, opts), store
}

func TestScheduleImport_CreatesPendingBatch(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, store := newTestService(t, Options{}, gw, nil)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
		`{"email":"b@example.com","lastName":"Bea","currencyId":1}`,
	), "user-7")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	if batch.Status != StatusPending {
		t.Errorf("status = %s, want %s", batch.Status, StatusPending)
	}
	if batch.Summary.TotalRows != 2 {
		t.Errorf("totalRows = %d, want 2", batch.Summary.TotalRows)
	}
	if batch.ID == uuid.Nil {
		t.Error("batch id is nil")
	}
	if batch.CreatedBy != "user-7" {
		t.Errorf("createdBy = %q, want user-7", batch.CreatedBy)
	}

	stored, err := store.FindByID(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Status != StatusPending {
		t.Errorf("stored status = %s, want %s", stored.Status, StatusPending)
	}
}

func TestScheduleImport_EmptyPayload(t *testing.T) {
	gw := &fakeCustomerGW{}
	svc, store := newTestService(t, Options{}, gw, nil)

	_, err := svc.ScheduleImport(context.Background(), EntityCustomer, "empty.csv", nil, "")
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("error = %v, want ErrEmptyPayload", err)
	}

	// No record may exist after a synchronous rejection.
	ids, _ := store.FindPendingOlderThan(context.Background(), 0, 10)
	if len(ids) != 0 {
		t.Errorf("pending batches = %d, want 0", len(ids))
	}
}

func TestScheduleImport_PayloadTooLarge(t *testing.T) {
	gw := &fakeCustomerGW{}
	svc, _ := newTestService(t, Options{MaxRows: 2}, gw, nil)

	_, err := svc.ScheduleImport(context.Background(), EntityCustomer, "big.csv", rawRows(
		`{"email":"a@example.com"}`,
		`{"email":"b@example.com"}`,
		`{"email":"c@example.com"}`,
	), "")
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestScheduleImport_MalformedRowRejectedUpFront(t *testing.T) {
	gw := &fakeCustomerGW{}
	svc, store := newTestService(t, Options{}, gw, nil)

	_, err := svc.ScheduleImport(context.Background(), EntityCustomer, "bad.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
		`"just a string"`,
	), "")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("error = %v, want ErrInvalidPayload", err)
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error = %q, want offending row position", err)
	}

	ids, _ := store.FindPendingOlderThan(context.Background(), 0, 10)
	if len(ids) != 0 {
		t.Errorf("pending batches = %d, want 0", len(ids))
	}
}

func TestScheduleImport_UnknownEntityType(t *testing.T) {
	svc, _ := newTestService(t, Options{}, &fakeCustomerGW{}, nil)

	_, err := svc.ScheduleImport(context.Background(), EntityType("WAREHOUSE"), "w.csv", rawRows(`{}`), "")
	if !errors.Is(err, ErrUnknownEntityType) {
		t.Fatalf("error = %v, want ErrUnknownEntityType", err)
	}
}

func TestProcessBatch_CompletesAndPersists(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, store := newTestService(t, Options{}, gw, nil)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), batch.ID)

	final, err := store.FindByID(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if final.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, StatusCompleted)
	}
	want := Summary{TotalRows: 1, Imported: 1, FailedRows: 0}
	if final.Summary != want {
		t.Errorf("summary = %+v, want %+v", final.Summary, want)
	}
	if gw.createCalls != 1 {
		t.Errorf("CreateAll calls = %d, want 1", gw.createCalls)
	}
}

func TestProcessBatch_DuplicateDispatchIsHarmless(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, store := newTestService(t, Options{}, gw, nil)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), batch.ID)
	svc.ProcessBatch(context.Background(), batch.ID)

	if gw.createCalls != 1 {
		t.Errorf("CreateAll calls = %d, want 1 (second dispatch finds nothing to claim)", gw.createCalls)
	}
	final, _ := store.FindByID(context.Background(), batch.ID)
	if final.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, StatusCompleted)
	}
}

func TestProcessBatch_TransactionFailureFailsBatch(t *testing.T) {
	gw := &fakeCustomerGW{
		currencies: map[int64]bool{1: true},
		createErr:  errors.New("connection reset"),
	}
	svc, store := newTestService(t, Options{}, gw, nil)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
		`{"email":"b@example.com","lastName":"Bea","currencyId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), batch.ID)

	final, _ := store.FindByID(context.Background(), batch.ID)
	if final.Status != StatusFailed {
		t.Errorf("status = %s, want %s", final.Status, StatusFailed)
	}
	if !strings.Contains(final.CriticalError, "connection reset") {
		t.Errorf("criticalError = %q, want root cause", final.CriticalError)
	}
	want := Summary{TotalRows: 2, Imported: 0, FailedRows: 2}
	if final.Summary != want {
		t.Errorf("summary = %+v, want %+v", final.Summary, want)
	}
	if len(final.ErrorDetails) != 2 {
		t.Errorf("error details = %d entries, want 2 synthesized entries", len(final.ErrorDetails))
	}
}

func TestProcessBatch_RowFailuresStillComplete(t *testing.T) {
	gw := &fakeStockGW{failSkus: map[string]error{"GONE": errors.New("product not found")}}
	svc, store := newTestService(t, Options{}, nil, gw)

	batch, err := svc.ScheduleImport(context.Background(), EntityOpeningStock, "stock.csv", rawRows(
		`{"productSku":"SKU-1","warehouseId":1,"quantity":2}`,
		`{"productSku":"GONE","warehouseId":1,"quantity":2}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), batch.ID)

	final, _ := store.FindByID(context.Background(), batch.ID)
	if final.Status != StatusCompleted {
		t.Errorf("status = %s, want %s (row failures are not batch failures)", final.Status, StatusCompleted)
	}
	if final.CriticalError != "" {
		t.Errorf("criticalError = %q, want empty", final.CriticalError)
	}
	want := Summary{TotalRows: 2, Imported: 1, FailedRows: 1}
	if final.Summary != want {
		t.Errorf("summary = %+v, want %+v", final.Summary, want)
	}
}

func TestProcessBatch_UnregisteredTypeFails(t *testing.T) {
	svc, store := newTestService(t, Options{}, &fakeCustomerGW{currencies: map[int64]bool{1: true}}, nil)

	// A batch persisted under a type whose definition has since gone away,
	// as after a deploy that dropped an entity type.
	orphan := NewBatch(EntityType("LEGACY"), "legacy.csv", rawRows(`{}`), "")
	if err := store.Create(context.Background(), orphan); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), orphan.ID)

	final, _ := store.FindByID(context.Background(), orphan.ID)
	if final.Status != StatusFailed {
		t.Errorf("status = %s, want %s", final.Status, StatusFailed)
	}
	if !strings.Contains(final.CriticalError, "unknown entity type") {
		t.Errorf("criticalError = %q, want unknown entity type", final.CriticalError)
	}
}

func TestProcessBatch_PanicFailsBatch(t *testing.T) {
	Clear()
	t.Cleanup(Clear)
	Register(EntityDefinition{
		Type:      EntityProduct,
		Slug:      "products",
		Label:     "Products",
		Protocol:  BulkCommit,
		Decode:    decodeProductRow,
		Processor: panicProcessor{},
	})

	store := NewMemoryStore()
	svc := NewService(store, Options{})

	batch, err := svc.ScheduleImport(context.Background(), EntityProduct, "products.csv", rawRows(
		`{"sku":"SKU-1","name":"Widget","categoryId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	svc.ProcessBatch(context.Background(), batch.ID)

	final, _ := store.FindByID(context.Background(), batch.ID)
	if final.Status != StatusFailed {
		t.Errorf("status = %s, want %s", final.Status, StatusFailed)
	}
	if !strings.Contains(final.CriticalError, "internal error") {
		t.Errorf("criticalError = %q, want internal error", final.CriticalError)
	}
}

type panicProcessor struct{}

func (panicProcessor) Process(ctx context.Context, batch *Batch) error {
	panic("boom")
}

func TestImportStatus_UnknownID(t *testing.T) {
	svc, _ := newTestService(t, Options{}, &fakeCustomerGW{}, nil)

	_, err := svc.ImportStatus(context.Background(), uuid.New())
	if !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("error = %v, want ErrBatchNotFound", err)
	}
}

func TestImportStatus_ReadsAreIdempotent(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, _ := newTestService(t, Options{}, gw, nil)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}
	svc.ProcessBatch(context.Background(), batch.ID)

	first, err := svc.ImportStatus(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("ImportStatus() error = %v", err)
	}
	second, err := svc.ImportStatus(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("ImportStatus() error = %v", err)
	}
	if first.Status != second.Status || first.Summary != second.Summary {
		t.Errorf("repeated reads differ: %+v vs %+v", first, second)
	}
}

func TestWorkers_ProcessScheduledBatch(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, store := newTestService(t, Options{Workers: 2, SweepInterval: 50 * time.Millisecond, RecoveryAge: time.Nanosecond}, gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartWorkers(ctx)

	batch, err := svc.ScheduleImport(context.Background(), EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
	), "")
	if err != nil {
		t.Fatalf("ScheduleImport() error = %v", err)
	}

	waitForTerminal(t, store, batch.ID, 2*time.Second)

	final, _ := store.FindByID(context.Background(), batch.ID)
	if final.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, StatusCompleted)
	}
}

func TestSweep_RecoversStrandedBatch(t *testing.T) {
	gw := &fakeCustomerGW{currencies: map[int64]bool{1: true}}
	svc, store := newTestService(t, Options{Workers: 1, SweepInterval: 20 * time.Millisecond, RecoveryAge: time.Nanosecond}, gw, nil)

	// Persist a PENDING batch without the queue hand-off, as if the process
	// had crashed right after Create.
	stranded := NewBatch(EntityCustomer, "customers.csv", rawRows(
		`{"email":"a@example.com","lastName":"Ada","currencyId":1}`,
	), "")
	if err := store.Create(context.Background(), stranded); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartWorkers(ctx)

	waitForTerminal(t, store, stranded.ID, 2*time.Second)

	final, _ := store.FindByID(context.Background(), stranded.ID)
	if final.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, StatusCompleted)
	}
}

// waitForTerminal polls the store until the batch reaches a terminal status.
func waitForTerminal(t *testing.T, store *MemoryStore, id uuid.UUID, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		batch, err := store.FindByID(context.Background(), id)
		if err == nil && batch.Terminal() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("batch did not reach a terminal status in time")
}

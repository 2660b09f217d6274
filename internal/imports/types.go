package imports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of records a batch imports.
type EntityType string

const (
	EntityProduct         EntityType = "PRODUCT"
	EntityCustomer        EntityType = "CUSTOMER"
	EntitySupplier        EntityType = "SUPPLIER"
	EntityProductCategory EntityType = "PRODUCT_CATEGORY"
	EntityOpeningStock    EntityType = "OPENING_STOCK"
	EntitySalesOrder      EntityType = "SALES_ORDER"
	EntityPurchaseOrder   EntityType = "PURCHASE_ORDER"
)

// BatchStatus is the lifecycle state of an import batch.
// It only ever advances: PENDING -> PROCESSING -> {COMPLETED, FAILED}.
// COMPLETED and FAILED are terminal; a new submission is always a fresh batch.
type BatchStatus string

const (
	StatusPending    BatchStatus = "PENDING"
	StatusProcessing BatchStatus = "PROCESSING"
	StatusCompleted  BatchStatus = "COMPLETED"
	StatusFailed     BatchStatus = "FAILED"
)

// CommitProtocol selects how a processor persists valid rows.
type CommitProtocol string

const (
	// BulkCommit validates every row first and writes all of them in a
	// single transaction. One failing row voids the whole batch's insert.
	BulkCommit CommitProtocol = "bulk"

	// IndependentRows commits each row in isolation; failures do not
	// cascade to other rows.
	IndependentRows CommitProtocol = "independent"
)

// Summary holds the aggregate counters describing a batch's outcome.
type Summary struct {
	TotalRows  int `json:"totalRows"`
	Imported   int `json:"successfullyImported"`
	FailedRows int `json:"failedRowsCount"`
}

// RowError records one failed payload row. Row positions are 1-based.
type RowError struct {
	Row   int             `json:"row"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Batch is one submitted import request tracked through its lifecycle.
//
// The payload is immutable once created. Summary and ErrorDetails are
// mutated exclusively by the dispatcher/processor pair during asynchronous
// processing. The JSON shape matches the status endpoint contract; the raw
// payload itself is never echoed back.
type Batch struct {
	ID               uuid.UUID         `json:"id"`
	EntityType       EntityType        `json:"entityType"`
	Status           BatchStatus       `json:"status"`
	Payload          []json.RawMessage `json:"-"`
	Summary          Summary           `json:"summary"`
	ErrorDetails     []RowError        `json:"errorDetails"`
	CriticalError    string            `json:"criticalError,omitempty"`
	OriginalFileName string            `json:"originalFileName,omitempty"`
	CreatedBy        string            `json:"-"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"-"`
}

// NewBatch builds a PENDING batch for the given payload. The summary is
// seeded so totalRows always equals the payload length.
func NewBatch(entityType EntityType, fileName string, payload []json.RawMessage, createdBy string) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:               uuid.New(),
		EntityType:       entityType,
		Status:           StatusPending,
		Payload:          payload,
		Summary:          Summary{TotalRows: len(payload)},
		OriginalFileName: fileName,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Terminal reports whether the batch has reached a final status.
func (b *Batch) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusFailed
}

// Clone returns a deep copy of the batch. Stores hand out clones so a
// caller polling the status never observes in-flight mutations.
func (b *Batch) Clone() *Batch {
	c := *b
	if b.Payload != nil {
		c.Payload = make([]json.RawMessage, len(b.Payload))
		for i, row := range b.Payload {
			c.Payload[i] = append(json.RawMessage(nil), row...)
		}
	}
	if b.ErrorDetails != nil {
		c.ErrorDetails = make([]RowError, len(b.ErrorDetails))
		copy(c.ErrorDetails, b.ErrorDetails)
		for i := range c.ErrorDetails {
			c.ErrorDetails[i].Data = append(json.RawMessage(nil), b.ErrorDetails[i].Data...)
		}
	}
	return &c
}

// Row is one decoded payload row. The concrete type depends on the entity
// definition that decoded it.
type Row any

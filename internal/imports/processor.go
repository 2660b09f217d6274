package imports

// processor.go implements the two commit protocols.
//
// Bulk commit (products, customers, suppliers, categories): validate all
// rows first; any row failure voids the entire insert and the batch
// completes with nothing persisted. With zero failures the valid rows are
// written in one transaction, and a transaction failure fails the whole
// batch with a synthesized error entry per row.
//
// Independent rows (opening stock, sales orders, purchase orders): each row
// runs its collaborator's compound creation, which scopes its own
// transaction. A failing row is recorded and the loop moves on.

import (
	"context"
	"encoding/json"
	"fmt"
)

// Processor executes one entity type's commit protocol. It mutates the
// batch's summary and error details in place; a returned error is a
// critical, batch-level failure that the dispatcher turns into FAILED.
type Processor interface {
	Process(ctx context.Context, batch *Batch) error
}

// BulkWriter is the commit half of a bulk-commit collaborator: a single
// transactional write of every valid row, all or nothing.
type BulkWriter func(ctx context.Context, rows []Row) error

type bulkProcessor struct {
	spec   RowSpec
	create BulkWriter
}

// NewBulkProcessor builds the all-or-nothing processor from the entity's
// validation spec and its transactional writer.
func NewBulkProcessor(spec RowSpec, create BulkWriter) Processor {
	return &bulkProcessor{spec: spec, create: create}
}

func (p *bulkProcessor) Process(ctx context.Context, batch *Batch) error {
	valid, rowErrs, err := ValidateRows(ctx, p.spec, batch.Payload)
	if err != nil {
		return err
	}

	batch.ErrorDetails = rowErrs
	batch.Summary.FailedRows = len(rowErrs)

	// All-or-nothing: one bad row and nothing is written. The batch still
	// completes so the caller gets the full row-level picture.
	if len(rowErrs) > 0 {
		batch.Summary.Imported = 0
		return nil
	}

	if len(valid) == 0 {
		return nil
	}

	if err := p.create(ctx, valid); err != nil {
		// The transaction rolled back, so the row-level view must say so
		// for every row: nothing was persisted.
		batch.Summary.Imported = 0
		batch.Summary.FailedRows = batch.Summary.TotalRows
		batch.ErrorDetails = synthesizeRowErrors(batch.Payload)
		return fmt.Errorf("transaction failed: %w", err)
	}

	batch.Summary.Imported = len(valid)
	return nil
}

// synthesizeRowErrors builds one uniform error entry per payload row after
// a failed bulk transaction.
func synthesizeRowErrors(payload []json.RawMessage) []RowError {
	errs := make([]RowError, len(payload))
	for i, raw := range payload {
		errs[i] = RowError{
			Row:   i + 1,
			Data:  raw,
			Error: "transaction failed, no rows were imported",
		}
	}
	return errs
}

// CompoundWriter is the commit operation of an independent-row
// collaborator. It may span several underlying tables and runs its own
// transaction, so one row's failure cannot leak into another's.
type CompoundWriter func(ctx context.Context, row Row) error

type independentProcessor struct {
	decode func(json.RawMessage) (Row, error)
	create CompoundWriter
}

// NewIndependentProcessor builds the per-row processor. No bulk
// pre-validation pass is needed: each row's validation is embedded in its
// own creation call.
func NewIndependentProcessor(decode func(json.RawMessage) (Row, error), create CompoundWriter) Processor {
	return &independentProcessor{decode: decode, create: create}
}

func (p *independentProcessor) Process(ctx context.Context, batch *Batch) error {
	for i, raw := range batch.Payload {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.createRow(ctx, raw)
		if err != nil {
			batch.Summary.FailedRows++
			batch.ErrorDetails = append(batch.ErrorDetails, RowError{
				Row:   i + 1,
				Data:  raw,
				Error: err.Error(),
			})
			continue
		}
		batch.Summary.Imported++
	}
	return nil
}

// createRow decodes and commits a single row, converting a collaborator
// panic into that row's error so the remaining rows still run.
func (p *independentProcessor) createRow(ctx context.Context, raw json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("create failed: %v", r)
		}
	}()

	row, err := p.decode(raw)
	if err != nil {
		return err
	}
	return p.create(ctx, row)
}

// Package imports implements the bulk import batch engine.
//
// An operator submits a batch of raw rows for one entity type (products,
// customers, suppliers, categories, opening stock, sales orders, purchase
// orders). The submission path only persists a PENDING batch record and
// hands the batch id to background workers; every business outcome is
// observed afterwards by polling the batch status.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Entity Definitions: registered via [Register], one per importable
//     entity type, carrying the row schema and the processor for that type.
//   - Processors: two commit strategies. Bulk-commit types validate every
//     row first and write all of them in one transaction; a single failing
//     row voids the whole batch. Independent-row types commit each row on
//     its own; one row's failure never affects the others.
//   - Service: the dependency-injected entry point (schedule, process,
//     status) constructed from a [BatchStore] and the registered entity
//     gateways.
//   - Workers: a pool draining the in-process queue, plus a periodic sweep
//     that re-claims PENDING batches stranded by a crash.
//
// # Error Handling
//
// Row-level failures (validation, duplicates, missing references) never
// escape processing; they are collected into the batch's error details and
// the remaining rows are still processed. Critical failures (unknown entity
// type, storage errors, panics) mark the batch FAILED and set its critical
// error message. Technical errors are mapped to user-facing messages with
// support codes by [MapError].
package imports

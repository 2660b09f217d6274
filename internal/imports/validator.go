package imports

// validator.go provides the row validation shared by every bulk-commit
// processor.
//
// Validation runs in two passes over a batch:
//
//  1. Bulk pre-validation: the key values referenced across all rows are
//     collected per dimension and resolved with ONE batched existence call
//     each, instead of N sequential lookups. The same pass counts how often
//     each unique key appears inside the batch, so that two rows claiming
//     the same key BOTH fail, not just the second one.
//  2. Per-row pass, in payload order with 1-based numbering: required
//     fields, uniqueness against existing records, uniqueness within the
//     batch, foreign-key existence, then the gateway's domain rules. A
//     failing row is recorded and the loop continues; valid rows join the
//     candidate set for the commit.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyDimension describes one unique or foreign key dimension of a row
// schema (an email, a SKU, a category id). KeyOf extracts the canonical key
// from a decoded row; Lookup resolves existence for every key in the batch
// with a single batched call against the entity's collaborator.
type KeyDimension struct {
	Name   string
	KeyOf  func(Row) (key string, ok bool)
	Lookup func(ctx context.Context, keys []string) (map[string]bool, error)
}

// RowSpec bundles the validation rules bulk processors run per row.
type RowSpec struct {
	// Decode parses a raw row; identical to the entity definition's Decode.
	Decode func(json.RawMessage) (Row, error)

	// Required returns the names of required fields missing from the row.
	Required func(Row) []string

	// Unique lists key dimensions whose values must NOT already exist.
	Unique []KeyDimension

	// Foreign lists key dimensions whose values MUST already exist.
	Foreign []KeyDimension

	// Validate runs the collaborator's entity-specific domain rules.
	// May be nil when the entity has none beyond the generic checks.
	Validate func(ctx context.Context, row Row) []string
}

// validation holds the pre-fetched existence sets and in-batch key counts
// for one batch.
type validation struct {
	spec RowSpec

	// existing[dim][key] reports whether key is already taken (unique
	// dimensions) or known to exist (foreign dimensions).
	existing map[string]map[string]bool

	// seen[dim][key] counts how many rows in this batch claim key, so
	// within-batch duplicates fail on every claimant.
	seen map[string]map[string]int
}

// ValidateRows runs both validation passes over the payload and returns the
// valid candidate rows alongside the row errors, preserving payload order.
// A failed existence lookup is a batch-level failure, not a row error.
func ValidateRows(ctx context.Context, spec RowSpec, payload []json.RawMessage) ([]Row, []RowError, error) {
	rows := make([]Row, len(payload))
	decodeErrs := make([]error, len(payload))
	for i, raw := range payload {
		rows[i], decodeErrs[i] = spec.Decode(raw)
	}

	v, err := prefetch(ctx, spec, rows, decodeErrs)
	if err != nil {
		return nil, nil, err
	}

	var valid []Row
	var rowErrs []RowError
	for i, raw := range payload {
		var problems []string
		if decodeErrs[i] != nil {
			problems = []string{decodeErrs[i].Error()}
		} else {
			problems = v.check(ctx, rows[i])
		}

		if len(problems) > 0 {
			rowErrs = append(rowErrs, RowError{
				Row:   i + 1,
				Data:  raw,
				Error: strings.Join(problems, "; "),
			})
			continue
		}
		valid = append(valid, rows[i])
	}

	return valid, rowErrs, nil
}

// prefetch issues one batched existence lookup per key dimension and counts
// within-batch key usage.
func prefetch(ctx context.Context, spec RowSpec, rows []Row, decodeErrs []error) (*validation, error) {
	v := &validation{
		spec:     spec,
		existing: make(map[string]map[string]bool),
		seen:     make(map[string]map[string]int),
	}

	dims := make([]KeyDimension, 0, len(spec.Unique)+len(spec.Foreign))
	dims = append(dims, spec.Unique...)
	dims = append(dims, spec.Foreign...)

	for _, dim := range dims {
		counts := make(map[string]int)
		for i, row := range rows {
			if decodeErrs[i] != nil {
				continue
			}
			if key, ok := dim.KeyOf(row); ok {
				counts[key]++
			}
		}
		v.seen[dim.Name] = counts

		keys := make([]string, 0, len(counts))
		for key := range counts {
			keys = append(keys, key)
		}

		found := map[string]bool{}
		if len(keys) > 0 {
			var err error
			found, err = dim.Lookup(ctx, keys)
			if err != nil {
				return nil, fmt.Errorf("existence check for %s: %w", dim.Name, err)
			}
		}
		v.existing[dim.Name] = found
	}

	return v, nil
}

// check runs the per-row checks against the pre-fetched sets and returns
// every problem found, so the submitter sees all of a row's failures at once.
func (v *validation) check(ctx context.Context, row Row) []string {
	var problems []string

	for _, name := range v.spec.Required(row) {
		problems = append(problems, fmt.Sprintf("missing required field %q", name))
	}

	for _, dim := range v.spec.Unique {
		key, ok := dim.KeyOf(row)
		if !ok {
			continue
		}
		if v.existing[dim.Name][key] {
			problems = append(problems, fmt.Sprintf("%s %q already exists", dim.Name, key))
		}
		if v.seen[dim.Name][key] > 1 {
			problems = append(problems, fmt.Sprintf("%s %q appears more than once in this import", dim.Name, key))
		}
	}

	for _, dim := range v.spec.Foreign {
		key, ok := dim.KeyOf(row)
		if !ok {
			continue
		}
		if !v.existing[dim.Name][key] {
			problems = append(problems, fmt.Sprintf("%s %q not found", dim.Name, key))
		}
	}

	// Domain rules run last, and only for rows that still look coherent,
	// so gateways never see rows with missing required fields.
	if len(problems) == 0 && v.spec.Validate != nil {
		problems = append(problems, v.spec.Validate(ctx, row)...)
	}

	return problems
}

package imports

// errors.go defines the sentinel errors of the batch engine and the mapping
// from technical errors to user-facing messages with support codes.
//
// Error codes are grouped by category:
//
//	VAL001 - Empty payload: the submission carried no rows
//	VAL002 - Malformed row: a row did not match the entity schema
//	VAL003 - Payload too large: the submission exceeds the row limit
//	IMP001 - Unknown entity type
//	IMP002 - Batch not found
//	IMP003 - System busy: too many batches processing
//	DB001  - Duplicate value
//	DB002  - Missing reference
//	DB003  - Transaction failed
//	DB004  - Connection problem
//	ERR000 - Fallback for anything unmatched

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPayload is returned synchronously when a submission carries
	// no rows. No batch record is created in that case.
	ErrEmptyPayload = errors.New("empty payload: at least one row is required")

	// ErrPayloadTooLarge is returned when a submission exceeds the
	// configured row limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidPayload is returned when a row does not match the entity's
	// schema. Shape problems fail the submission instead of surfacing
	// mid-processing.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUnknownEntityType is returned when no definition is registered
	// for the requested entity type.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrBatchNotFound is returned by status queries for ids that do not
	// exist in the batch store.
	ErrBatchNotFound = errors.New("import batch not found")

	// ErrTooManyImports is returned when all processing slots are occupied
	// and the wait timeout expires.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive, substring
// match) to user messages. The first matching pattern wins, so specific
// patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "empty payload",
		msg: UserMessage{
			Message: "The import contained no rows",
			Action:  "Add at least one data row and submit again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid payload",
		msg: UserMessage{
			Message: "A row did not match the expected format",
			Action:  "Check the reported row against the entity schema",
			Code:    "VAL002",
		},
	},
	{
		pattern: "payload too large",
		msg: UserMessage{
			Message: "The import exceeds the maximum number of rows",
			Action:  "Split the file into smaller imports",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unknown entity type",
		msg: UserMessage{
			Message: "This import type is not supported",
			Action:  "Check the import type in the request path",
			Code:    "IMP001",
		},
	},
	{
		pattern: "batch not found",
		msg: UserMessage{
			Message: "No import was found for this id",
			Action:  "Verify the id returned when the import was submitted",
			Code:    "IMP002",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports are running right now",
			Action:  "Wait a moment and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Review the failed rows for duplicates",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Review the failed rows for duplicates",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "A referenced record does not exist",
			Action:  "Import or create the referenced records first",
			Code:    "DB002",
		},
	},
	{
		pattern: "transaction failed",
		msg: UserMessage{
			Message: "The database rejected the import",
			Action:  "No rows were written; fix the data and retry",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Try again",
			Code:    "DB004",
		},
	},
}

// MapError converts a technical error into a user-friendly message.
// Unmatched errors fall back to a generic message with code ERR000;
// the technical detail stays in the server logs.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{Message: "Operation completed", Code: "OK"}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support with the error code",
		Code:    "ERR000",
	}
}

// invalidRow wraps a shape-validation failure with the 1-based row position
// so the submitter knows which row to fix.
func invalidRow(row int, err error) error {
	return fmt.Errorf("%w: row %d: %v", ErrInvalidPayload, row, err)
}

// Error codes
//
// Row failures are logged with a short code so an operator can grep the
// import log by cause instead of by driver-specific message text.
//
//	DB001   duplicate key
//	DB002   unique constraint (sqlite: "UNIQUE constraint failed")
//	DB003   foreign key constraint
//	DB004   connection refused
//	DB005   connection reset
//	DB006   timeout
//	DB007   deadlock or locked database
//	DB008   value out of range for column
//	DB009   not null constraint
//	FILE001 file not found
//	FILE002 malformed CSV row
//	IMP001  import cancelled
//	REQ001  invalid request parameters
//	SRV001  too many concurrent queries
//	ERR000  anything else
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins.

package core

import (
	"fmt"
	"strings"
)

// UserMessage is an error translated for the operator.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Constraints
	{"duplicate key", UserMessage{"A record with this key already exists", "Check the CSV for duplicate urls", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check the CSV for duplicate urls", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check the CSV for duplicate urls", "DB002"}},
	{"foreign key constraint", UserMessage{"Referenced record does not exist", "Run with DB_ENSURE_SCHEMA=true or check the schema", "DB003"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Run with DB_ENSURE_SCHEMA=true or check the schema", "DB003"}},
	{"out of range", UserMessage{"Value does not fit its column", "Check numeric columns for oversized values", "DB008"}},
	{"numeric field overflow", UserMessage{"Value does not fit its column", "Check numeric columns for oversized values", "DB008"}},
	{"not null constraint", UserMessage{"A required column is empty", "Check the schema against the importer version", "DB009"}},
	{"violates not-null", UserMessage{"A required column is empty", "Check the schema against the importer version", "DB009"}},

	// Connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Check DATABASE_URL and that the server is up", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Run the import again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Run the import again with a smaller batch", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Run the import again", "DB007"}},
	{"database is locked", UserMessage{"Database file is locked by another process", "Stop other writers and run the import again", "DB007"}},

	// Input
	{"no such file", UserMessage{"Input file not found", "Check the -file path", "FILE001"}},
	{"parse error", UserMessage{"Malformed CSV row", "Check quoting on the reported line", "FILE002"}},
	{"invalid filter", UserMessage{"The request parameters are invalid", "Check the filter values and try again", "REQ001"}},

	{"too many concurrent", UserMessage{"The server is busy", "Retry the request in a few seconds", "SRV001"}},

	// Run
	{"context canceled", UserMessage{"Import was cancelled", "Run the import again; committed batches are kept", "IMP001"}},
	{"context deadline exceeded", UserMessage{"Import ran out of time", "Run the import again; committed batches are kept", "IMP001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to a UserMessage. A nil error maps to
// the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

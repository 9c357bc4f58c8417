package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "postgres duplicate key",
			err:         errors.New(`ERROR: duplicate key value violates unique constraint "listing_url_key" (SQLSTATE 23505)`),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "sqlite unique constraint",
			err:         errors.New("constraint failed: UNIQUE constraint failed: listing.url (2067)"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "sqlite foreign key",
			err:         errors.New("FOREIGN KEY constraint failed"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "postgres smallint overflow",
			err:         errors.New("ERROR: value 40000 is out of range for type smallint (SQLSTATE 22003)"),
			wantCode:    "DB008",
			wantMessage: "Value does not fit its column",
		},
		{
			name:        "numeric overflow",
			err:         errors.New("ERROR: numeric field overflow (SQLSTATE 22003)"),
			wantCode:    "DB008",
			wantMessage: "Value does not fit its column",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "timeout wins over deadline",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "sqlite busy",
			err:         errors.New("database is locked (5) (SQLITE_BUSY)"),
			wantCode:    "DB007",
			wantMessage: "Database file is locked by another process",
		},
		{
			name:        "missing input file",
			err:         errors.New("open csv: open listings.csv: no such file or directory"),
			wantCode:    "FILE001",
			wantMessage: "Input file not found",
		},
		{
			name:        "csv parse error",
			err:         &csv.ParseError{StartLine: 4, Line: 4, Column: 7, Err: csv.ErrQuote},
			wantCode:    "FILE002",
			wantMessage: "Malformed CSV row",
		},
		{
			name:        "cancelled",
			err:         fmt.Errorf("begin batch: %w", errors.New("context canceled")),
			wantCode:    "IMP001",
			wantMessage: "Import was cancelled",
		},
		{
			name:        "invalid filter",
			err:         fmt.Errorf("%w: limit must be between 1 and 100", ErrInvalidFilter),
			wantCode:    "REQ001",
			wantMessage: "The request parameters are invalid",
		},
		{
			name:        "query slots exhausted",
			err:         ErrTooManyQueries,
			wantCode:    "SRV001",
			wantMessage: "The server is busy",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(errors.New("duplicate key value violates"))

	want := "A record with this key already exists (Code: DB001). Check the CSV for duplicate urls"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: errors.New("duplicate key"), want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorPatternsHaveCodes(t *testing.T) {
	for _, ep := range errorPatterns {
		if ep.pattern != strings.ToLower(ep.pattern) {
			t.Errorf("pattern %q must be lowercase", ep.pattern)
		}
		if ep.msg.Code == "" || ep.msg.Message == "" || ep.msg.Action == "" {
			t.Errorf("pattern %q has incomplete message %+v", ep.pattern, ep.msg)
		}
	}
}

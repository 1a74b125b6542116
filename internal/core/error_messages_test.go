package core

import (
	"context"
	"errors"
	"fmt"
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
			name: "nil error returns empty",
			err:  nil,
		},
		{
			name:        "missing key column wins over configuration",
			err:         fmt.Errorf("save: %w", ErrNoKeyColumn),
			wantCode:    "CFG002",
			wantMessage: "Table has no key column",
		},
		{
			name:        "unsupported type wrapped in configuration error",
			err:         fmt.Errorf("%w: X.Tags: %w", ErrConfiguration, ErrUnsupportedType),
			wantCode:    "CFG003",
			wantMessage: "Column type is not supported",
		},
		{
			name:        "plain configuration error",
			err:         fmt.Errorf("%w: duplicate position", ErrConfiguration),
			wantCode:    "CFG001",
			wantMessage: "Table mapping is misconfigured",
		},
		{
			name:        "missing table",
			err:         fmt.Errorf("%w: Contacts", ErrMissingTable),
			wantCode:    "TBL001",
			wantMessage: "Table not found in workbook",
		},
		{
			name:        "column error",
			err:         &ColumnError{Table: "Contacts", Column: "Email"},
			wantCode:    "TBL003",
			wantMessage: "Column not found in table",
		},
		{
			name:        "missing row",
			err:         fmt.Errorf("%w: position 9", ErrMissingRow),
			wantCode:    "ROW001",
			wantMessage: "Row does not exist",
		},
		{
			name:        "conversion error",
			err:         &ConversionError{Column: "Id", Value: "abc", Target: int4Type},
			wantCode:    "CNV001",
			wantMessage: "A cell value could not be converted",
		},
		{
			name:        "conversion text without identity",
			err:         errors.New(`cannot convert value "x" to number`),
			wantCode:    "CNV001",
			wantMessage: "A cell value could not be converted",
		},
		{
			name:        "interaction timeout",
			err:         fmt.Errorf("%w after 12 attempts", ErrInteractionTimeout),
			wantCode:    "HOST001",
			wantMessage: "Workbook is busy with user input",
		},
		{
			name:        "busy",
			err:         ErrBusy,
			wantCode:    "HOST002",
			wantMessage: "Workbook is busy with another operation",
		},
		{
			name:        "canceled",
			err:         fmt.Errorf("suppress interaction: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline",
			err:         context.DeadlineExceeded,
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("MISSING COLUMN Email"),
			wantCode:    "TBL003",
			wantMessage: "Column not found in table",
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
	result := FormatUserError(ErrBusy)

	expected := "Workbook is busy with another operation (Code: HOST002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", fmt.Errorf("x: %w", ErrMissingRow), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("open: %w", ErrMissingTable)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Table not found in workbook" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrMissingTable) {
			t.Error("Unwrap() should return original error")
		}
	})
}

package core

// error_messages.go maps engine errors to user-facing messages with codes
// support staff can look up.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Table mapping is misconfigured
//	         Action: Check the model's column declarations
//	CFG002 - Table has no key column
//	         Action: Mark a column as key or place the key in the first column
//	CFG003 - Column type is not supported
//	         Action: Use a supported property type for this column
//
// # Workbook Errors (TBL001-TBL099)
//
//	TBL001 - Table not found in workbook
//	         Action: Check the workbook contains a table with this name
//	TBL002 - Unknown table
//	         Action: This table is not configured
//	TBL003 - Column not found in table
//	         Action: Check the table headers match the model declaration
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Row does not exist
//	         Action: Use a position within the table body
//
// # Conversion Errors (CNV001-CNV099)
//
//	CNV001 - A cell value could not be converted
//	         Action: Correct the cell value in the workbook
//
// # Host Errors (HOST001-HOST099)
//
//	HOST001 - Workbook is busy with user input
//	          Action: Finish editing in the workbook and try again
//	HOST002 - Workbook is busy with another operation
//	          Action: Please wait a moment and try again
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request was cancelled
//	REQ002 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// error when users report ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorMapping matches errors by identity first. pattern is a fallback
// for errors that crossed a boundary as plain text.
type errorMapping struct {
	target  error
	pattern string
	msg     UserMessage
}

func mapping(target error, pattern, code, message, action string) errorMapping {
	return errorMapping{target: target, pattern: pattern, msg: UserMessage{Message: message, Action: action, Code: code}}
}

// errorMappings is ordered: the first match wins, so specific sentinels
// come before the ones they wrap.
var errorMappings = []errorMapping{
	mapping(ErrNoKeyColumn, "", "CFG002", "Table has no key column",
		"Mark a column as key or place the key in the first column"),
	mapping(ErrUnsupportedType, "", "CFG003", "Column type is not supported",
		"Use a supported property type for this column"),
	mapping(ErrConfiguration, "", "CFG001", "Table mapping is misconfigured",
		"Check the model's column declarations"),

	mapping(ErrMissingTable, "", "TBL001", "Table not found in workbook",
		"Check the workbook contains a table with this name"),
	mapping(ErrUnknownTable, "unknown table", "TBL002", "Unknown table",
		"This table is not configured"),
	mapping(ErrMissingColumn, "missing column", "TBL003", "Column not found in table",
		"Check the table headers match the model declaration"),

	mapping(ErrMissingRow, "", "ROW001", "Row does not exist",
		"Use a position within the table body"),
	mapping(ErrConversion, "cannot convert value", "CNV001", "A cell value could not be converted",
		"Correct the cell value in the workbook"),

	mapping(ErrInteractionTimeout, "", "HOST001", "Workbook is busy with user input",
		"Finish editing in the workbook and try again"),
	mapping(ErrBusy, "", "HOST002", "Workbook is busy with another operation",
		"Please wait a moment and try again"),

	mapping(context.Canceled, "context canceled", "REQ001", "Request was cancelled",
		"Please try again"),
	mapping(context.DeadlineExceeded, "context deadline exceeded", "REQ002", "Request timed out",
		"Please try again later"),
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
//
//	MapError(fmt.Errorf("open: %w", ErrMissingTable)).Code // "TBL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if m, ok := matchTarget(err); ok {
		return m
	}
	if m, ok := matchPattern(strings.ToLower(err.Error())); ok {
		return m
	}
	return defaultMessage
}

func matchTarget(err error) (UserMessage, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg, true
		}
	}
	return UserMessage{}, false
}

func matchPattern(text string) (UserMessage, bool) {
	for _, m := range errorMappings {
		if m.pattern != "" && strings.Contains(text, m.pattern) {
			return m.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

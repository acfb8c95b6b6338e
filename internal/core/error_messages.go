package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// Codes are grouped by category:
//
//	DATA001-DATA099  Input dataset problems (empty, malformed, oversized)
//	CLS001-CLS099    Classifier backend problems
//	INF001-INF099    Inference service problems (busy, cancelled, timeout)
//	RUN001-RUN099    Run history lookups
//	DB001-DB099      Database connectivity
//	ERR000           Fallback when nothing matches
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring, first match wins.

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

type sentinelMessage struct {
	target error
	msg    UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrEmptyFile, UserMessage{"The uploaded file is empty", "Upload a CSV file with a header row and data rows", "DATA001"}},
	{ErrInvalidCSV, UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with a header row", "DATA002"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum size limit", "Sample the dataset or raise INFERENCE_MAX_FILE_SIZE", "DATA003"}},
	{ErrDuplicateColumn, UserMessage{"Column names must be unique", "Rename duplicated header columns", "DATA004"}},
	{ErrRaggedColumns, UserMessage{"Columns have different lengths", "Ensure every row has the same number of fields", "DATA005"}},
	{ErrTooManyRows, UserMessage{"The query returned too many rows", "Add a LIMIT clause or raise INFERENCE_MAX_ROWS", "DATA007"}},

	{ErrUnknownClassifier, UserMessage{"The requested classifier is not configured", "Use one of the classifiers listed at /api/classifiers", "CLS001"}},
	{ErrCodeCountMismatch, UserMessage{"The classifier returned a result that does not match the dataset", "Check the classifier model version", "CLS002"}},
	{ErrClassifierFailed, UserMessage{"The type classifier could not process the dataset", "Please try again or use the default classifier", "CLS003"}},

	{ErrTooManyInferences, UserMessage{"Too many inferences in progress", "Please wait a moment and try again", "INF001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "INF002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller sample with max_rows", "INF003"}},

	{ErrRunNotFound, UserMessage{"Inference run not found", "Verify the run ID", "RUN001"}},
}

var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{"Unable to reach a backing service", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Connection was interrupted", "Please try again", "DB002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "INF004"}},
	{"no file provided", UserMessage{"No file was provided", "Send a CSV body or a multipart 'file' field", "DATA006"}},
	{"bad request", UserMessage{"The request parameters are invalid", "Check the query parameters and try again", "DATA008"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

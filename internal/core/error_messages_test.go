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
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "empty file sentinel",
			err:         ErrEmptyFile,
			wantCode:    "DATA001",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "wrapped invalid csv",
			err:         fmt.Errorf("%w: header: bare quote", ErrInvalidCSV),
			wantCode:    "DATA002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "wrapped file too large",
			err:         fmt.Errorf("%w: limit is 10 bytes", ErrFileTooLarge),
			wantCode:    "DATA003",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "too many rows",
			err:         fmt.Errorf("load: %w", ErrTooManyRows),
			wantCode:    "DATA007",
			wantMessage: "The query returned too many rows",
		},
		{
			name:        "code count mismatch",
			err:         fmt.Errorf("%w: got 1 codes for 2 columns", ErrCodeCountMismatch),
			wantCode:    "CLS002",
			wantMessage: "The classifier returned a result that does not match the dataset",
		},
		{
			name:        "classifier failure",
			err:         fmt.Errorf("%w: remote: status 500", ErrClassifierFailed),
			wantCode:    "CLS003",
			wantMessage: "The type classifier could not process the dataset",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("classify: %w", context.DeadlineExceeded),
			wantCode:    "INF003",
			wantMessage: "Request timed out",
		},
		{
			name:        "run not found",
			err:         fmt.Errorf("%w: 123", ErrRunNotFound),
			wantCode:    "RUN001",
			wantMessage: "Inference run not found",
		},
		{
			name:        "connection refused pattern",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to reach a backing service",
		},
		{
			name:        "rate limit pattern",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "INF004",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO FILE PROVIDED"),
			wantCode:    "DATA006",
			wantMessage: "No file was provided",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
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

func TestMapError_SentinelBeatsPattern(t *testing.T) {
	// The wrapped text mentions a connection problem, but the sentinel wins.
	err := fmt.Errorf("%w: connection refused", ErrClassifierFailed)
	if got := MapError(err).Code; got != "CLS003" {
		t.Errorf("MapError() code = %q, want CLS003", got)
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrRunNotFound)

	expected := "Inference run not found (Code: RUN001). Verify the run ID"
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
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrTooManyInferences,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

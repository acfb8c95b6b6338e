package core

import "errors"

// Dataset errors.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrFileTooLarge    = errors.New("file too large")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrRaggedColumns   = errors.New("columns have different lengths")
	ErrTooManyRows     = errors.New("query returned too many rows")
)

// Inference errors.
var (
	// ErrCodeCountMismatch is returned when a classifier yields a different
	// number of codes than the dataset has columns. Positional alignment
	// would silently assign codes to the wrong columns.
	ErrCodeCountMismatch = errors.New("classifier code count does not match column count")

	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrClassifierFailed  = errors.New("classifier failed")
	ErrTooManyInferences = errors.New("too many concurrent inferences, please try again later")
	ErrRunNotFound       = errors.New("run not found")
)

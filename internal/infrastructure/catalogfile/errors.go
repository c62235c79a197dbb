package catalogfile

import "errors"

// Common catalog file errors
var (
	// ErrEmptyFile is returned when the catalog file has no content
	ErrEmptyFile = errors.New("catalog file is empty")

	// ErrMissingHeader is returned when the catalog file has no header row
	ErrMissingHeader = errors.New("catalog file missing header row")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("catalog file has invalid encoding")
)
